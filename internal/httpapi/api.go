// Package httpapi exposes the administrative HTTP surface: session
// lifecycle, permission management and account administration, behind the
// shared middleware chain.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/fixline/admin-api/internal/account"
	"github.com/fixline/admin-api/internal/obs"
	"github.com/fixline/admin-api/internal/permission"
	"github.com/fixline/admin-api/internal/session"
)

// ReadyProbe reports readiness, pinging the database when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	sessions *session.Service
	codec    *session.Codec
	perms    *permission.Service
	accounts *account.Service

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

// Option configures API.
type Option func(*API)

// WithLimits overrides the default rate-limit and request-body caps.
func WithLimits(burst, perSec int, maxBodyBytes int64) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSec > 0 {
			a.ratePerSec = perSec
		}
		if maxBodyBytes > 0 {
			a.maxBodyBytes = maxBodyBytes
		}
	}
}

func New(rp ReadyProbe, version string, sessions *session.Service, codec *session.Codec,
	perms *permission.Service, accounts *account.Service, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		version:      version,
		sessions:     sessions,
		codec:        codec,
		perms:        perms,
		accounts:     accounts,
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReady)
	a.mux.Handle("GET /metrics", obs.Handler())

	a.mux.HandleFunc("POST /login", a.handleLogin)
	a.mux.HandleFunc("POST /refreshToken", a.handleRefreshToken)
	a.mux.HandleFunc("POST /logout", a.handleLogout)

	a.mux.HandleFunc("POST /permission", a.handleCreatePermission)
	a.mux.HandleFunc("GET /permission", a.handleListPermissions)
	a.mux.HandleFunc("GET /permission/{id}", a.handleGetPermission)
	a.mux.HandleFunc("PATCH /permission/{id}", a.handleUpdatePermission)
	a.mux.HandleFunc("DELETE /permission/{id}", a.handleDeletePermission)

	a.mux.HandleFunc("POST /users", a.handleCreateAccount)
	a.mux.HandleFunc("GET /users", a.handleListAccounts)
	a.mux.HandleFunc("GET /users/{id}", a.handleGetAccount)
	a.mux.HandleFunc("PATCH /users/{id}", a.handleUpdateAccount)
	a.mux.HandleFunc("DELETE /users/{id}", a.handleDeleteAccount)
	a.mux.HandleFunc("PATCH /users/{id}/active", a.handleSetAccountActive)
	a.mux.HandleFunc("GET /users/{id}/permissions", a.handleAccountPermissions)

	return a
}

// Handler composes the middleware chain around the mux: metrics on the
// outside so every request is observed, auth on the inside so it sees the
// rate-limited, size-capped request.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "admin-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
