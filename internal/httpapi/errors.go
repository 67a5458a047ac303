package httpapi

import (
	"errors"
	"net/http"

	"tavola.app/internal/auth"
)

// respondError writes the uniform error body {error, request_id}.
func respondError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{"error": msg}
	if rid := RequestIDFrom(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// writeServiceError is the single mapping from the service error taxonomy
// onto HTTP status codes.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrAlreadyExists):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidRenewal):
		respondError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrInvalidCredential),
		errors.Is(err, auth.ErrExpiredCredential),
		errors.Is(err, auth.ErrRevokedCredential),
		errors.Is(err, auth.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, auth.ErrLastAdmin):
		respondError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrRevocationUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, "authentication temporarily unavailable")
	default:
		msg := "internal error"
		if a.env == "development" {
			msg = err.Error()
		}
		respondError(w, r, http.StatusInternalServerError, msg)
	}
}
