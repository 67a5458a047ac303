package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"tavola.app/internal/ids"
	"tavola.app/internal/revocation"
)

// Service is the account state machine: registration, login, refresh,
// logout and the administrative mutations, with the last-active-admin guard
// applied before any demotion, deactivation or deletion commits.
type Service struct {
	accounts AccountStore
	revoked  revocation.Store
	issuer   *Issuer
	verifier *Verifier
	registry *Registry
	now      func() time.Time
}

// ServiceOption adjusts service construction.
type ServiceOption func(*Service)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService validates its dependencies up front.
func NewService(accounts AccountStore, revoked revocation.Store, issuer *Issuer, verifier *Verifier, registry *Registry, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, errors.New("auth: account store is required")
	}
	if revoked == nil {
		return nil, errors.New("auth: revocation store is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: issuer is required")
	}
	if verifier == nil {
		return nil, errors.New("auth: verifier is required")
	}
	if registry == nil {
		return nil, errors.New("auth: renewal registry is required")
	}
	s := &Service{
		accounts: accounts,
		revoked:  revoked,
		issuer:   issuer,
		verifier: verifier,
		registry: registry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Registration is the inbound payload for Register.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates an account and logs it in: the returned pair is live and
// its renewal digest is already recorded.
func (s *Service) Register(ctx context.Context, reg Registration) (*Account, CredentialPair, error) {
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return nil, CredentialPair{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if !ValidEmail(email) {
		return nil, CredentialPair{}, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	if err := ValidatePassword(reg.Password); err != nil {
		return nil, CredentialPair{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	role := RoleUser
	if strings.TrimSpace(reg.Role) != "" {
		parsed, err := ParseRole(reg.Role)
		if err != nil {
			return nil, CredentialPair{}, err
		}
		role = parsed
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, CredentialPair{}, err
	}
	now := s.now().UTC()
	acct := &Account{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, CredentialPair{}, err
	}
	pair, err := s.issueSession(ctx, acct)
	if err != nil {
		return nil, CredentialPair{}, err
	}
	return acct, pair, nil
}

// Login authenticates by email and password. Unknown email, wrong password,
// inactive account and wrong role hint all collapse to ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password, roleHint string) (*Account, CredentialPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, CredentialPair{}, ErrInvalidCredentials
	}
	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, CredentialPair{}, ErrInvalidCredentials
		}
		return nil, CredentialPair{}, err
	}
	if !acct.Active {
		return nil, CredentialPair{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(acct.PasswordHash, password); err != nil {
		return nil, CredentialPair{}, ErrInvalidCredentials
	}
	if hint := strings.TrimSpace(roleHint); hint != "" {
		role, err := ParseRole(hint)
		if err != nil || role != acct.Role {
			return nil, CredentialPair{}, ErrInvalidCredentials
		}
	}
	pair, err := s.issueSession(ctx, acct)
	if err != nil {
		return nil, CredentialPair{}, err
	}
	return acct, pair, nil
}

func (s *Service) issueSession(ctx context.Context, acct *Account) (CredentialPair, error) {
	pair, err := s.issuer.Issue(acct.ID, acct.Role, s.now())
	if err != nil {
		return CredentialPair{}, err
	}
	if err := s.registry.Record(ctx, acct.ID, pair.Renewal); err != nil {
		return CredentialPair{}, err
	}
	acct.RenewalHash = DigestCredential(pair.Renewal)
	return pair, nil
}

// Refresh exchanges a renewal credential for a fresh access credential.
func (s *Service) Refresh(ctx context.Context, renewal string) (string, time.Time, error) {
	return s.registry.RotateAccess(ctx, renewal)
}

// LogoutResult reports what a logout actually did; the operation itself
// never fails outward.
type LogoutResult struct {
	ClearedRenewal bool
	RevokedAccess  bool
	BadAccess      bool
}

// Logout clears the renewal slot when the presented renewal credential is
// the one currently on record, and revokes the access credential for its
// remaining lifetime when it is still valid. Expired access credentials are
// skipped; garbage is flagged for auditing and otherwise ignored.
func (s *Service) Logout(ctx context.Context, renewal, access string) LogoutResult {
	var res LogoutResult
	if subject, _, err := s.verifier.VerifyRenewal(renewal); err == nil {
		if acct, err := s.accounts.Find(ctx, subject); err == nil && acct.RenewalHash != "" {
			digest := DigestCredential(renewal)
			if subtle.ConstantTimeCompare([]byte(digest), []byte(acct.RenewalHash)) == 1 {
				if err := s.registry.Clear(ctx, subject); err == nil {
					res.ClearedRenewal = true
				}
			}
		}
	}

	access = strings.TrimSpace(access)
	if access == "" {
		return res
	}
	insp := s.verifier.Inspect(access)
	switch insp.Outcome {
	case OutcomeValid:
		if ttl := insp.ExpiresAt.Sub(s.now()); ttl > 0 {
			if err := s.revoked.Revoke(ctx, access, ttl); err == nil {
				res.RevokedAccess = true
			}
		}
	case OutcomeInvalid:
		res.BadAccess = true
	}
	return res
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, accountID string) (*Account, error) {
	return s.accounts.Find(ctx, accountID)
}

// Page size bounds shared with the HTTP layer so reported pagination
// always matches what the store was asked for.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampPageSize normalizes a requested page size into the allowed range.
func ClampPageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ListAccounts pages through accounts, optionally filtered by role and
// active state. Requires accounts.read.
func (s *Service) ListAccounts(ctx context.Context, actor Identity, f ListFilter) ([]*Account, int, error) {
	if !actor.Role.Allowed(PermAccountsRead) {
		return nil, 0, ErrForbidden
	}
	f.Limit = ClampPageSize(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.accounts.List(ctx, f)
}

// GetAccount returns an account to its owner or to holders of accounts.read.
func (s *Service) GetAccount(ctx context.Context, actor Identity, id string) (*Account, error) {
	if actor.AccountID != id && !actor.Role.Allowed(PermAccountsRead) {
		return nil, ErrForbidden
	}
	return s.accounts.Find(ctx, id)
}

// UpdateProfile changes name and email. Owners may edit themselves; others
// need accounts.write.
func (s *Service) UpdateProfile(ctx context.Context, actor Identity, id string, upd ProfileUpdate) (*Account, error) {
	if actor.AccountID != id && !actor.Role.Allowed(PermAccountsWrite) {
		return nil, ErrForbidden
	}
	acct, err := s.accounts.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		acct.Name = name
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if !ValidEmail(email) {
			return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
		}
		acct.Email = email
	}
	acct.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// SetRole changes an account's role. Admin only; demoting the last active
// admin is refused.
func (s *Service) SetRole(ctx context.Context, actor Identity, id string, role Role) (*Account, error) {
	if !actor.Role.Allowed(PermAccountsAdmin) {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	acct, err := s.accounts.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct.Role == role {
		return acct, nil
	}
	if acct.Role == RoleAdmin && acct.Active {
		if err := s.ensureOtherActiveAdmin(ctx, id); err != nil {
			return nil, err
		}
	}
	acct.Role = role
	acct.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// SetActive toggles the account's active flag. Admin only; deactivating the
// last active admin is refused. Deactivation does not revoke credentials
// already issued, but login and refresh stop immediately.
func (s *Service) SetActive(ctx context.Context, actor Identity, id string, active bool) (*Account, error) {
	if !actor.Role.Allowed(PermAccountsAdmin) {
		return nil, ErrForbidden
	}
	acct, err := s.accounts.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct.Active == active {
		return acct, nil
	}
	if !active && acct.Role == RoleAdmin {
		if err := s.ensureOtherActiveAdmin(ctx, id); err != nil {
			return nil, err
		}
	}
	acct.Active = active
	acct.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// ChangePassword rotates the password. Owners must prove the current
// password; admins may reset without it. The renewal slot is cleared so
// every outstanding renewal credential stops working.
func (s *Service) ChangePassword(ctx context.Context, actor Identity, id, current, next string) error {
	self := actor.AccountID == id
	if !self && !actor.Role.Allowed(PermAccountsAdmin) {
		return ErrForbidden
	}
	acct, err := s.accounts.Find(ctx, id)
	if err != nil {
		return err
	}
	if self {
		if err := VerifyPassword(acct.PasswordHash, current); err != nil {
			return ErrInvalidCredentials
		}
	}
	if err := ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	return s.registry.Clear(ctx, id)
}

// Delete removes an account. Admin only; the last active admin cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, actor Identity, id string) error {
	if !actor.Role.Allowed(PermAccountsAdmin) {
		return ErrForbidden
	}
	acct, err := s.accounts.Find(ctx, id)
	if err != nil {
		return err
	}
	if acct.Role == RoleAdmin && acct.Active {
		if err := s.ensureOtherActiveAdmin(ctx, id); err != nil {
			return err
		}
	}
	return s.accounts.Delete(ctx, id)
}

func (s *Service) ensureOtherActiveAdmin(ctx context.Context, excludeID string) error {
	n, err := s.accounts.CountActiveAdmins(ctx, excludeID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLastAdmin
	}
	return nil
}
