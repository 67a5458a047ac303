package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tavola.app/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "

	// Upper bound on the revocation lookup inside Verify.
	verifyTimeout = 2 * time.Second
)

var publicPaths = []string{
	"/auth/register",
	"/auth/login",
	"/auth/refresh",
	"/auth/logout",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/",
}

// withAuth authenticates bearer credentials on every non-public route and
// attaches the resulting identity to the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractBearerCredential(r.Header.Get(authHeader))
		if err != nil {
			a.writeServiceError(w, r, auth.ErrMissingCredential)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), verifyTimeout)
		identity, err := a.verifier.Verify(ctx, raw)
		cancel()
		if err != nil {
			a.writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	})
}

// identity pulls the verified identity or reports ErrUnauthenticated. Only
// reachable without one if a route was mistakenly listed as public.
func (a *API) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		a.writeServiceError(w, r, auth.ErrUnauthenticated)
		return auth.Identity{}, false
	}
	return id, true
}

func extractBearerCredential(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer credential")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	raw := strings.TrimSpace(header[len(bearer):])
	if raw == "" {
		return "", errors.New("missing bearer credential")
	}
	return raw, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
