// Package revocation blocklists access credentials until their natural
// expiry. Entries carry the credential's remaining lifetime as TTL, so the
// store never grows beyond one access window of logouts.
package revocation

import (
	"context"
	"time"
)

// Store is the revocation blocklist. Callers treat lookup errors as
// fail-closed: an unreachable store rejects the credential.
type Store interface {
	// Revoke blocks the credential for ttl. A non-positive ttl is a no-op:
	// the credential is already dead.
	Revoke(ctx context.Context, credential string, ttl time.Duration) error
	IsRevoked(ctx context.Context, credential string) (bool, error)
}
