package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fixline/admin-api/internal/apperr"
	"github.com/fixline/admin-api/internal/session"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/login",
	"/healthz",
	"/readyz",
	"/metrics",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// withAuth verifies the bearer access token on every non-public request and
// attaches the claims and raw token to the context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, err)
			return
		}
		claims, err := a.codec.VerifyAccess(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := session.ContextWithClaims(r.Context(), claims)
		ctx = session.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("%w: missing bearer token", apperr.ErrAuth)
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", fmt.Errorf("%w: invalid authorization scheme", apperr.ErrAuth)
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", apperr.ErrAuth)
	}
	return token, nil
}

// actor returns the verified claims for the current request.
func actor(r *http.Request) (*session.Claims, error) {
	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		return nil, errors.New("request reached a protected handler without claims")
	}
	return claims, nil
}
