package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/fixline/admin-api/internal/apperr"
	"github.com/fixline/admin-api/internal/audit"
	"github.com/fixline/admin-api/internal/permission"
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", apperr.ErrValidation)
	}
	return id, nil
}

func (a *API) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var req permission.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	detail, err := a.perms.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "permission.create", map[string]any{
		"id":   detail.ID,
		"name": detail.Name,
	})
	writeCreated(w, "permission created successfully", map[string]any{"permission": detail})
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	details, err := a.perms.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, "permissions fetched successfully", map[string]any{"permissions": details})
}

func (a *API) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := a.perms.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, "permission fetched successfully", map[string]any{"permission": detail})
}

func (a *API) handleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req permission.UpdateInput
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	detail, err := a.perms.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "permission.update", map[string]any{
		"id": detail.ID,
	})
	writeSuccess(w, "permission updated successfully", map[string]any{"permission": detail})
}

func (a *API) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.perms.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "permission.delete", map[string]any{
		"id": id,
	})
	writeSuccess(w, "permission deleted successfully", map[string]any{})
}
