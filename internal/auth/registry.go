package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DigestCredential returns the sha256 hex digest stored in place of a
// renewal credential. Unsalted: the credential's HMAC signature already
// supplies the entropy a rainbow table would need.
func DigestCredential(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Registry owns the single renewal slot per account. Recording overwrites
// unconditionally, so the latest login wins and every earlier renewal
// credential stops refreshing.
type Registry struct {
	accounts AccountStore
	issuer   *Issuer
	verifier *Verifier
	now      func() time.Time
}

// RegistryOption adjusts registry construction.
type RegistryOption func(*Registry)

// WithRegistryClock injects a deterministic clock for tests.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry validates dependencies.
func NewRegistry(accounts AccountStore, issuer *Issuer, verifier *Verifier, opts ...RegistryOption) (*Registry, error) {
	if accounts == nil {
		return nil, errors.New("auth: account store is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: issuer is required")
	}
	if verifier == nil {
		return nil, errors.New("auth: verifier is required")
	}
	r := &Registry{accounts: accounts, issuer: issuer, verifier: verifier, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record stores the digest of a freshly issued renewal credential.
func (r *Registry) Record(ctx context.Context, accountID, renewal string) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(renewal) == "" {
		return fmt.Errorf("%w: renewal credential is required", ErrInvalidInput)
	}
	return r.accounts.UpdateRenewalHash(ctx, accountID, DigestCredential(renewal))
}

// RotateAccess exchanges a renewal credential for a fresh access credential.
// The renewal credential must verify, match the stored digest, and belong to
// an existing active account; any mismatch is ErrInvalidRenewal with no
// further detail.
func (r *Registry) RotateAccess(ctx context.Context, renewal string) (string, time.Time, error) {
	subject, _, err := r.verifier.VerifyRenewal(renewal)
	if err != nil {
		return "", time.Time{}, ErrInvalidRenewal
	}
	acct, err := r.accounts.Find(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, ErrInvalidRenewal
		}
		return "", time.Time{}, err
	}
	if !acct.Active || acct.RenewalHash == "" {
		return "", time.Time{}, ErrInvalidRenewal
	}
	digest := DigestCredential(renewal)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(acct.RenewalHash)) != 1 {
		return "", time.Time{}, ErrInvalidRenewal
	}
	return r.issuer.IssueAccess(acct.ID, acct.Role, r.now())
}

// Clear empties the renewal slot. Clearing an already empty slot is a no-op.
func (r *Registry) Clear(ctx context.Context, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	return r.accounts.UpdateRenewalHash(ctx, accountID, "")
}
