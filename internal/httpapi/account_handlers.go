package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"tavola.app/internal/audit"
	"tavola.app/internal/auth"
)

type updateAccountRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type listAccountsResponse struct {
	Accounts   []accountResponse `json:"accounts"`
	Pagination pagination        `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func (a *API) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	actor, ok := a.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var filter auth.ListFilter
	if roleParam := q.Get("role"); roleParam != "" {
		role, err := auth.ParseRole(roleParam)
		if err != nil {
			a.writeServiceError(w, r, err)
			return
		}
		filter.Role = &role
	}
	if activeParam := q.Get("active"); activeParam != "" {
		active, err := strconv.ParseBool(activeParam)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "active must be true or false")
			return
		}
		filter.Active = &active
	}
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	limit := auth.DefaultPageSize
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = auth.ClampPageSize(l)
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	accounts, total, err := a.svc.ListAccounts(r.Context(), actor, filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	out := make([]accountResponse, len(accounts))
	for i, acct := range accounts {
		out[i] = toAccountResponse(acct)
	}
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	writeJSON(w, http.StatusOK, listAccountsResponse{
		Accounts: out,
		Pagination: pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

func (a *API) handleAccountByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.identity(w, r)
	if !ok {
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/accounts/"), "/")
	id := parts[0]
	if id == "" {
		respondError(w, r, http.StatusNotFound, "account not found")
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "password":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r)
			return
		}
		a.changePassword(w, r, actor, id)
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.getAccount(w, r, actor, id)
		case http.MethodPut:
			a.updateAccount(w, r, actor, id)
		case http.MethodDelete:
			a.deleteAccount(w, r, actor, id)
		default:
			methodNotAllowed(w, r)
		}
	default:
		respondError(w, r, http.StatusNotFound, "not found")
	}
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, actor auth.Identity, id string) {
	acct, err := a.svc.GetAccount(r.Context(), actor, id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

// updateAccount applies profile, role and active changes in that order;
// the service rejects each piece the actor is not entitled to.
func (a *API) updateAccount(w http.ResponseWriter, r *http.Request, actor auth.Identity, id string) {
	var req updateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var acct *auth.Account
	var err error
	if req.Name != nil || req.Email != nil {
		acct, err = a.svc.UpdateProfile(r.Context(), actor, id, auth.ProfileUpdate{
			Name:  req.Name,
			Email: req.Email,
		})
		if err != nil {
			a.writeServiceError(w, r, err)
			return
		}
	}
	if req.Role != nil {
		role, parseErr := auth.ParseRole(*req.Role)
		if parseErr != nil {
			a.writeServiceError(w, r, parseErr)
			return
		}
		acct, err = a.svc.SetRole(r.Context(), actor, id, role)
		if err != nil {
			a.writeServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "account.role_changed", map[string]any{
			"account_id": id,
			"role":       string(role),
		})
	}
	if req.Active != nil {
		acct, err = a.svc.SetActive(r.Context(), actor, id, *req.Active)
		if err != nil {
			a.writeServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "account.status_changed", map[string]any{
			"account_id": id,
			"active":     *req.Active,
		})
	}
	if acct == nil {
		respondError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (a *API) changePassword(w http.ResponseWriter, r *http.Request, actor auth.Identity, id string) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.svc.ChangePassword(r.Context(), actor, id, req.CurrentPassword, req.NewPassword); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.password_changed", map[string]any{
		"account_id": id,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "password changed"})
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request, actor auth.Identity, id string) {
	if err := a.svc.Delete(r.Context(), actor, id); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.deleted", map[string]any{
		"account_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}
