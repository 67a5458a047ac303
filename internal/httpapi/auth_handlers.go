package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"tavola.app/internal/audit"
	"tavola.app/internal/auth"
	"tavola.app/internal/obs"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type refreshRequest struct {
	RenewalCredential string `json:"renewal_credential"`
}

type logoutRequest struct {
	RenewalCredential string `json:"renewal_credential"`
	AccessCredential  string `json:"access_credential"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type credentialResponse struct {
	AccessCredential  string    `json:"access_credential"`
	RenewalCredential string    `json:"renewal_credential,omitempty"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type sessionResponse struct {
	Account     accountResponse    `json:"account"`
	Credentials credentialResponse `json:"credentials"`
}

func toAccountResponse(acct *auth.Account) accountResponse {
	return accountResponse{
		ID:        acct.ID,
		Name:      acct.Name,
		Email:     acct.Email,
		Role:      string(acct.Role),
		Active:    acct.Active,
		CreatedAt: acct.CreatedAt,
		UpdatedAt: acct.UpdatedAt,
	}
}

func toSessionResponse(acct *auth.Account, pair auth.CredentialPair) sessionResponse {
	return sessionResponse{
		Account: toAccountResponse(acct),
		Credentials: credentialResponse{
			AccessCredential:  pair.Access,
			RenewalCredential: pair.Renewal,
			ExpiresAt:         pair.AccessExpiresAt,
		},
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acct, pair, err := a.svc.Register(r.Context(), auth.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		obs.CountAuth("register", "failure")
		a.writeServiceError(w, r, err)
		return
	}
	obs.CountAuth("register", "success")
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"account_id": acct.ID,
		"role":       string(acct.Role),
	})
	writeJSON(w, http.StatusCreated, toSessionResponse(acct, pair))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acct, pair, err := a.svc.Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		obs.CountAuth("login", "failure")
		a.writeServiceError(w, r, err)
		return
	}
	obs.CountAuth("login", "success")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"account_id": acct.ID,
	})
	writeJSON(w, http.StatusOK, toSessionResponse(acct, pair))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	access, expiresAt, err := a.svc.Refresh(r.Context(), req.RenewalCredential)
	if err != nil {
		obs.CountAuth("refresh", "failure")
		a.writeServiceError(w, r, err)
		return
	}
	obs.CountAuth("refresh", "success")
	_ = audit.LogEvent(r.Context(), "auth.refresh", nil)
	writeJSON(w, http.StatusOK, credentialResponse{
		AccessCredential: access,
		ExpiresAt:        expiresAt,
	})
}

// handleLogout always answers 200: revealing whether the presented
// credentials meant anything would make it an oracle. An undecodable body
// counts as an empty logout for the same reason.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req logoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	res := a.svc.Logout(r.Context(), req.RenewalCredential, req.AccessCredential)
	obs.CountAuth("logout", "success")
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"cleared_renewal": res.ClearedRenewal,
		"revoked_access":  res.RevokedAccess,
	})
	if res.BadAccess {
		_ = audit.LogEvent(r.Context(), "auth.logout.bad_access_credential", nil)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	actor, ok := a.identity(w, r)
	if !ok {
		return
	}
	acct, err := a.svc.Me(r.Context(), actor.AccountID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acct))
}
