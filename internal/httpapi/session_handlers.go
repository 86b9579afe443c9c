package httpapi

import (
	"net/http"

	"github.com/fixline/admin-api/internal/audit"
	"github.com/fixline/admin-api/internal/session"
)

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	FCMToken string `json:"fcmToken"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	result, err := a.sessions.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "session.login", map[string]any{
		"type": result.Payload.Type,
	})
	writeSuccess(w, "user logged in successfully", result)
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	// The bearer token the middleware verified is handed back to the
	// service, which only decodes its claims.
	bearerToken, _ := session.TokenFromContext(r.Context())

	token, err := a.sessions.Refresh(r.Context(), req.RefreshToken, bearerToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "session.refresh", nil)
	writeSuccess(w, "a new token is issued", map[string]string{"token": token})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	claims, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := claims.AccountID()
	if err != nil {
		writeError(w, r, err)
		return
	}

	platform := r.Header.Get("platform")
	if err := a.sessions.Logout(r.Context(), accountID, platform, req.FCMToken); err != nil {
		writeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "session.logout", map[string]any{
		"platform": platform,
	})
	writeSuccess(w, "user logged out successfully", map[string]any{})
}
