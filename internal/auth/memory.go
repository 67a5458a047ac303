package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is the in-memory AccountStore used by tests and DSN-less
// development boots.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	emails   map[string]string
}

var _ AccountStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		emails:   make(map[string]string),
	}
}

func cloneAccount(acct *Account) *Account {
	cp := *acct
	return &cp
}

func (m *MemoryStore) Create(ctx context.Context, acct *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(acct.Email)
	if _, exists := m.emails[key]; exists {
		return ErrAlreadyExists
	}
	m.accounts[acct.ID] = cloneAccount(acct)
	m.emails[key] = acct.ID
	return nil
}

func (m *MemoryStore) Find(ctx context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(acct), nil
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(m.accounts[id]), nil
}

func (m *MemoryStore) List(ctx context.Context, f ListFilter) ([]*Account, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*Account, 0, len(m.accounts))
	for _, acct := range m.accounts {
		if f.Role != nil && acct.Role != *f.Role {
			continue
		}
		if f.Active != nil && acct.Active != *f.Active {
			continue
		}
		matched = append(matched, acct)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if f.Offset >= total {
		return []*Account{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	out := make([]*Account, len(matched))
	for i, acct := range matched {
		out[i] = cloneAccount(acct)
	}
	return out, total, nil
}

func (m *MemoryStore) Update(ctx context.Context, acct *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.accounts[acct.ID]
	if !ok {
		return ErrNotFound
	}
	newKey := strings.ToLower(acct.Email)
	if otherID, exists := m.emails[newKey]; exists && otherID != acct.ID {
		return ErrAlreadyExists
	}
	delete(m.emails, strings.ToLower(current.Email))
	m.emails[newKey] = acct.ID
	stored := cloneAccount(acct)
	stored.PasswordHash = current.PasswordHash
	stored.RenewalHash = current.RenewalHash
	m.accounts[acct.ID] = stored
	return nil
}

func (m *MemoryStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acct.PasswordHash = passwordHash
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) UpdateRenewalHash(ctx context.Context, id, renewalHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acct.RenewalHash = renewalHash
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) CountActiveAdmins(ctx context.Context, excludeID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, acct := range m.accounts {
		if acct.ID != excludeID && acct.Role == RoleAdmin && acct.Active {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.emails, strings.ToLower(acct.Email))
	delete(m.accounts, id)
	return nil
}
