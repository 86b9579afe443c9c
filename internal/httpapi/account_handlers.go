package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/fixline/admin-api/internal/account"
	"github.com/fixline/admin-api/internal/audit"
	"github.com/fixline/admin-api/internal/repo"
)

// pageRequest builds pagination input from the query string and the
// requesting URL, so next/previous links point back at this endpoint.
func pageRequest(r *http.Request) repo.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return repo.PageRequest{
		Page:    page,
		Limit:   limit,
		BaseURL: fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path),
	}
}

func (a *API) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	claims, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req account.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	acct, err := a.accounts.Create(r.Context(), claims.Payload.Type, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.create", map[string]any{
		"id":   acct.ID,
		"type": acct.Type,
	})
	writeCreated(w, "user created successfully", map[string]any{"user": acct})
}

func (a *API) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	acct, err := a.accounts.ByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, "user fetched successfully", map[string]any{"user": acct})
}

func (a *API) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req account.UpdateInput
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	acct, err := a.accounts.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.update", map[string]any{"id": acct.ID})
	writeSuccess(w, "user updated successfully", map[string]any{"user": acct})
}

func (a *API) handleSetAccountActive(w http.ResponseWriter, r *http.Request) {
	claims, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	if req.Active == nil {
		writeValidationError(w, r, "active is required")
		return
	}
	acct, err := a.accounts.SetActive(r.Context(), claims.Payload.Type, id, *req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.set_active", map[string]any{
		"id":     acct.ID,
		"active": acct.Active,
	})
	writeSuccess(w, "user updated successfully", map[string]any{"user": acct})
}

func (a *API) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.delete", map[string]any{"id": id})
	writeSuccess(w, "user deleted successfully", map[string]any{"id": id})
}

func (a *API) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	page, err := a.accounts.List(r.Context(), pageRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, "users fetched successfully", page)
}

func (a *API) handleAccountPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	acct, err := a.accounts.ByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	perms, err := a.perms.Effective(r.Context(), acct.ID, acct.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, "permissions fetched successfully", map[string]any{"permissions": perms})
}
