package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-memory blocklist for tests and Redis-less
// development boots. Expired entries are pruned lazily on lookup.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// MemoryOption adjusts memory store construction.
type MemoryOption func(*MemoryStore)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore returns an empty blocklist.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) Revoke(ctx context.Context, credential string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[credential] = m.now().Add(ttl)
	return nil
}

func (m *MemoryStore) IsRevoked(ctx context.Context, credential string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.entries[credential]
	if !ok {
		return false, nil
	}
	if m.now().After(expiry) {
		delete(m.entries, credential)
		return false, nil
	}
	return true, nil
}
