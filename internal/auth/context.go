package auth

import "context"

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// ContextWithIdentity attaches a verified identity to the request context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the verified identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// UserIDFromContext is a convenience for audit logging.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.AccountID == "" {
		return "", false
	}
	return id.AccountID, true
}
