package revocation

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRevoke(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "cred-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Fatal("fresh store must not report revoked")
	}

	if err := store.Revoke(ctx, "cred-1", 10*time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "cred-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected credential revoked")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := NewMemoryStore(WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	if err := store.Revoke(ctx, "cred-1", time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	clock = now.Add(2 * time.Minute)
	revoked, err := store.IsRevoked(ctx, "cred-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Fatal("entry must expire with the credential")
	}
}

func TestMemoryStoreNonPositiveTTL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Revoke(ctx, "cred-1", 0); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := store.Revoke(ctx, "cred-2", -time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	for _, cred := range []string{"cred-1", "cred-2"} {
		revoked, err := store.IsRevoked(ctx, cred)
		if err != nil {
			t.Fatalf("IsRevoked: %v", err)
		}
		if revoked {
			t.Fatalf("non-positive TTL must be a no-op for %s", cred)
		}
	}
}
