package auth

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuerName = "tavola"
	defaultAccessTTL  = 15 * time.Minute
	defaultRenewalTTL = 7 * 24 * time.Hour

	credentialAccess  = "access"
	credentialRenewal = "renewal"
)

// CredentialClaims is the signed payload of both credential kinds. Renewal
// credentials omit the role: it is re-read from the account on rotation so a
// role change takes effect at the next refresh.
type CredentialClaims struct {
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// CredentialPair is the result of a full login or registration.
type CredentialPair struct {
	Access           string
	Renewal          string
	AccessExpiresAt  time.Time
	RenewalExpiresAt time.Time
}

// Issuer mints HS256 credentials. Access and renewal credentials are signed
// with distinct keys so one kind can never stand in for the other. Issue is
// pure apart from jti generation: same inputs, same expiries.
type Issuer struct {
	accessKey  []byte
	renewalKey []byte
	name       string
	accessTTL  time.Duration
	renewalTTL time.Duration
}

// IssuerOption adjusts issuer construction.
type IssuerOption func(*Issuer)

// WithIssuerName overrides the iss claim.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) { i.name = name }
}

// WithAccessTTL overrides the access credential lifetime.
func WithAccessTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) { i.accessTTL = ttl }
}

// WithRenewalTTL overrides the renewal credential lifetime.
func WithRenewalTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) { i.renewalTTL = ttl }
}

// NewIssuer validates key separation and TTL ordering up front so a
// misconfigured service refuses to boot instead of minting bad credentials.
func NewIssuer(accessKey, renewalKey []byte, opts ...IssuerOption) (*Issuer, error) {
	if len(accessKey) == 0 || len(renewalKey) == 0 {
		return nil, errors.New("auth: both signing keys are required")
	}
	if bytes.Equal(accessKey, renewalKey) {
		return nil, errors.New("auth: access and renewal keys must differ")
	}
	iss := &Issuer{
		accessKey:  accessKey,
		renewalKey: renewalKey,
		name:       defaultIssuerName,
		accessTTL:  defaultAccessTTL,
		renewalTTL: defaultRenewalTTL,
	}
	for _, opt := range opts {
		opt(iss)
	}
	if strings.TrimSpace(iss.name) == "" {
		return nil, errors.New("auth: issuer name must not be empty")
	}
	if iss.accessTTL <= 0 || iss.renewalTTL <= 0 {
		return nil, errors.New("auth: credential TTLs must be positive")
	}
	if iss.accessTTL >= iss.renewalTTL {
		return nil, errors.New("auth: access TTL must be shorter than renewal TTL")
	}
	return iss, nil
}

// AccessTTL reports the configured access credential lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// Issue mints an access/renewal pair for the subject at the given instant.
func (i *Issuer) Issue(subjectID string, role Role, now time.Time) (CredentialPair, error) {
	if strings.TrimSpace(subjectID) == "" {
		return CredentialPair{}, fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if !role.Valid() {
		return CredentialPair{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	access, accessExp, err := i.sign(subjectID, string(role), credentialAccess, i.accessKey, now, i.accessTTL)
	if err != nil {
		return CredentialPair{}, err
	}
	renewal, renewalExp, err := i.sign(subjectID, "", credentialRenewal, i.renewalKey, now, i.renewalTTL)
	if err != nil {
		return CredentialPair{}, err
	}
	return CredentialPair{
		Access:           access,
		Renewal:          renewal,
		AccessExpiresAt:  accessExp,
		RenewalExpiresAt: renewalExp,
	}, nil
}

// IssueAccess mints an access credential alone; refresh uses it so rotation
// never extends the renewal horizon.
func (i *Issuer) IssueAccess(subjectID string, role Role, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(subjectID) == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return i.sign(subjectID, string(role), credentialAccess, i.accessKey, now, i.accessTTL)
}

func (i *Issuer) sign(subjectID, role, kind string, key []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := CredentialClaims{
		Role:      role,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.name,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s credential: %w", kind, err)
	}
	return signed, exp, nil
}
