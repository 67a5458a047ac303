package auth

import "context"

// AccountStore abstracts account persistence. Implementations return
// ErrNotFound for missing accounts and ErrAlreadyExists on email conflicts.
type AccountStore interface {
	Create(ctx context.Context, acct *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context, f ListFilter) ([]*Account, int, error)
	Update(ctx context.Context, acct *Account) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateRenewalHash overwrites the single renewal slot; the empty
	// string clears it.
	UpdateRenewalHash(ctx context.Context, id, renewalHash string) error
	// CountActiveAdmins counts active admin accounts other than excludeID.
	CountActiveAdmins(ctx context.Context, excludeID string) (int, error)
	Delete(ctx context.Context, id string) error
}
