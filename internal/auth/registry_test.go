package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T, store AccountStore, iss *Issuer, v *Verifier, now func() time.Time) *Registry {
	t.Helper()
	var opts []RegistryOption
	if now != nil {
		opts = append(opts, WithRegistryClock(now))
	}
	r, err := NewRegistry(store, iss, v, opts...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func seedAccount(t *testing.T, store AccountStore, id string, role Role, active bool) *Account {
	t.Helper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	acct := &Account{
		ID:           id,
		Name:         "Test " + id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Create(context.Background(), acct); err != nil {
		t.Fatalf("seed account %s: %v", id, err)
	}
	return acct
}

func TestRecordThenRotate(t *testing.T) {
	iss := testIssuer(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	v := newTestVerifier(t, iss, nil, clock)
	store := NewMemoryStore()
	reg := newTestRegistry(t, store, iss, v, clock)

	seedAccount(t, store, "acct-1", RoleStaff, true)
	pair, err := iss.Issue("acct-1", RoleStaff, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := reg.Record(context.Background(), "acct-1", pair.Renewal); err != nil {
		t.Fatalf("Record: %v", err)
	}

	access, expiresAt, err := reg.RotateAccess(context.Background(), pair.Renewal)
	if err != nil {
		t.Fatalf("RotateAccess: %v", err)
	}
	if access == "" {
		t.Fatal("expected access credential")
	}
	if !expiresAt.Equal(now.Add(defaultAccessTTL)) {
		t.Fatalf("unexpected expiry: %v", expiresAt)
	}
	identity, err := v.Verify(context.Background(), access)
	if err != nil {
		t.Fatalf("Verify rotated credential: %v", err)
	}
	if identity.Role != RoleStaff {
		t.Fatalf("unexpected role: %v", identity.Role)
	}
}

func TestRotateRejectsSupersededCredential(t *testing.T) {
	iss := testIssuer(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	v := newTestVerifier(t, iss, nil, clock)
	store := NewMemoryStore()
	reg := newTestRegistry(t, store, iss, v, clock)

	seedAccount(t, store, "acct-1", RoleUser, true)
	first, err := iss.Issue("acct-1", RoleUser, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := reg.Record(context.Background(), "acct-1", first.Renewal); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Second login overwrites the slot.
	second, err := iss.Issue("acct-1", RoleUser, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := reg.Record(context.Background(), "acct-1", second.Renewal); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if _, _, err := reg.RotateAccess(context.Background(), first.Renewal); !errors.Is(err, ErrInvalidRenewal) {
		t.Fatalf("expected ErrInvalidRenewal for superseded credential, got %v", err)
	}
	if _, _, err := reg.RotateAccess(context.Background(), second.Renewal); err != nil {
		t.Fatalf("current credential should rotate: %v", err)
	}
}

func TestRotateRejectsClearedSlot(t *testing.T) {
	iss := testIssuer(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	v := newTestVerifier(t, iss, nil, clock)
	store := NewMemoryStore()
	reg := newTestRegistry(t, store, iss, v, clock)

	seedAccount(t, store, "acct-1", RoleUser, true)
	pair, err := iss.Issue("acct-1", RoleUser, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := reg.Record(context.Background(), "acct-1", pair.Renewal); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := reg.Clear(context.Background(), "acct-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, _, err := reg.RotateAccess(context.Background(), pair.Renewal); !errors.Is(err, ErrInvalidRenewal) {
		t.Fatalf("expected ErrInvalidRenewal after clear, got %v", err)
	}
}

func TestRotateRejectsInactiveAndMissingAccounts(t *testing.T) {
	iss := testIssuer(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	v := newTestVerifier(t, iss, nil, clock)
	store := NewMemoryStore()
	reg := newTestRegistry(t, store, iss, v, clock)

	// Credential for an account that does not exist.
	ghost, err := iss.Issue("ghost", RoleUser, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, _, err := reg.RotateAccess(context.Background(), ghost.Renewal); !errors.Is(err, ErrInvalidRenewal) {
		t.Fatalf("expected ErrInvalidRenewal for unknown account, got %v", err)
	}

	// Deactivated account with a recorded credential.
	acct := seedAccount(t, store, "acct-2", RoleUser, true)
	pair, err := iss.Issue(acct.ID, RoleUser, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := reg.Record(context.Background(), acct.ID, pair.Renewal); err != nil {
		t.Fatalf("Record: %v", err)
	}
	acct.Active = false
	if err := store.Update(context.Background(), acct); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, _, err := reg.RotateAccess(context.Background(), pair.Renewal); !errors.Is(err, ErrInvalidRenewal) {
		t.Fatalf("expected ErrInvalidRenewal for inactive account, got %v", err)
	}
}

func TestDigestCredentialIsStable(t *testing.T) {
	a := DigestCredential("credential-a")
	b := DigestCredential("credential-a")
	c := DigestCredential("credential-b")
	if a != b {
		t.Fatal("digest must be deterministic")
	}
	if a == c {
		t.Fatal("different credentials must digest differently")
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex digest, got %d chars", len(a))
	}
}
