package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tavola.app/internal/revocation"
)

// Identity is the authorization context attached to a verified request.
type Identity struct {
	AccountID string
	Role      Role
}

// Outcome classifies an access credential without consulting revocation.
type Outcome int

const (
	OutcomeInvalid Outcome = iota
	OutcomeExpired
	OutcomeValid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Inspection is the result of a local credential check. Identity and
// ExpiresAt are populated for valid and expired credentials.
type Inspection struct {
	Outcome   Outcome
	Identity  Identity
	ExpiresAt time.Time
}

// Verifier checks presented credentials. The only blocking call is the
// revocation lookup, and it happens last, after every local check has passed.
type Verifier struct {
	issuer  *Issuer
	revoked revocation.Store
	now     func() time.Time
}

// VerifierOption adjusts verifier construction.
type VerifierOption func(*Verifier)

// WithVerifierClock injects a deterministic clock for tests.
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier shares the issuer's key material and validates dependencies.
func NewVerifier(issuer *Issuer, revoked revocation.Store, opts ...VerifierOption) (*Verifier, error) {
	if issuer == nil {
		return nil, errors.New("auth: issuer is required")
	}
	if revoked == nil {
		return nil, errors.New("auth: revocation store is required")
	}
	v := &Verifier{issuer: issuer, revoked: revoked, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify authenticates an access credential end to end. A revocation store
// failure fails closed: the caller gets ErrRevocationUnavailable, never a
// silently accepted credential.
func (v *Verifier) Verify(ctx context.Context, raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrMissingCredential
	}
	insp := v.Inspect(raw)
	switch insp.Outcome {
	case OutcomeInvalid:
		return Identity{}, ErrInvalidCredential
	case OutcomeExpired:
		return Identity{}, ErrExpiredCredential
	}
	revoked, err := v.revoked.IsRevoked(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	if revoked {
		return Identity{}, ErrRevokedCredential
	}
	return insp.Identity, nil
}

// Inspect classifies an access credential locally. Logout uses the explicit
// three-way answer: a valid credential gets revoked, an expired one is left
// to die on its own, garbage is reported but never fails the request.
func (v *Verifier) Inspect(raw string) Inspection {
	claims := &CredentialClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return v.issuer.accessKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Inspection{Outcome: OutcomeInvalid}
	}
	role, roleErr := ParseRole(claims.Role)
	if claims.TokenType != credentialAccess ||
		claims.Issuer != v.issuer.name ||
		strings.TrimSpace(claims.Subject) == "" ||
		roleErr != nil ||
		claims.ExpiresAt == nil {
		return Inspection{Outcome: OutcomeInvalid}
	}
	insp := Inspection{
		Identity:  Identity{AccountID: claims.Subject, Role: role},
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if v.now().After(claims.ExpiresAt.Time) {
		insp.Outcome = OutcomeExpired
		return insp
	}
	insp.Outcome = OutcomeValid
	return insp
}

// VerifyRenewal checks signature and expiry of a renewal credential and
// returns its subject. Every failure collapses to ErrInvalidRenewal so the
// refresh endpoint cannot be used as an oracle.
func (v *Verifier) VerifyRenewal(raw string) (string, time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", time.Time{}, ErrInvalidRenewal
	}
	claims := &CredentialClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return v.issuer.renewalKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", time.Time{}, ErrInvalidRenewal
	}
	if claims.TokenType != credentialRenewal ||
		claims.Issuer != v.issuer.name ||
		strings.TrimSpace(claims.Subject) == "" ||
		claims.ExpiresAt == nil {
		return "", time.Time{}, ErrInvalidRenewal
	}
	return claims.Subject, claims.ExpiresAt.Time, nil
}
