package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fixline/admin-api/internal/apperr"
)

const issuer = "fixline-admin"

// Claims is the JWT claim set carried by both access and refresh tokens.
// The account projection travels under the payload claim; the account id
// only in the registered subject.
type Claims struct {
	Payload Payload `json:"payload"`
	jwt.RegisteredClaims
}

// AccountID parses the subject back into the numeric account id.
func (c *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed subject claim", apperr.ErrAuth)
	}
	return id, nil
}

// CodecConfig holds the two signing secrets and lifetimes. Access and
// refresh tokens never share a secret.
type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs and verifies session tokens. Access tokens use HS512, refresh
// tokens HS256, matching their original wire format.
type Codec struct {
	cfg CodecConfig
	now func() time.Time
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("session: both signing secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("session: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 48 * time.Hour
	}
	return &Codec{cfg: cfg, now: time.Now}, nil
}

// WithClock overrides the time source. Test use only.
func (c *Codec) WithClock(fn func() time.Time) *Codec {
	if fn != nil {
		c.now = fn
	}
	return c
}

func (c *Codec) claims(accountID int64, payload Payload, ttl time.Duration) Claims {
	now := c.now().UTC()
	return Claims{
		Payload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

// SignAccess mints a short-lived access token.
func (c *Codec) SignAccess(accountID int64, payload Payload) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, c.claims(accountID, payload, c.cfg.AccessTTL))
	signed, err := token.SignedString([]byte(c.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("%w: sign access token: %v", apperr.ErrInternal, err)
	}
	return signed, nil
}

// SignRefresh mints a longer-lived refresh token with the separate secret.
func (c *Codec) SignRefresh(accountID int64, payload Payload) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c.claims(accountID, payload, c.cfg.RefreshTTL))
	signed, err := token.SignedString([]byte(c.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("%w: sign refresh token: %v", apperr.ErrInternal, err)
	}
	return signed, nil
}

// VerifyAccess checks signature, algorithm and expiry of an access token.
func (c *Codec) VerifyAccess(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS512 {
			return nil, fmt.Errorf("%w: unexpected signing method", apperr.ErrAuth)
		}
		return []byte(c.cfg.AccessSecret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrAuth)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrAuth)
	}
	return claims, nil
}

// DecodeUnverified extracts claims without checking the signature. The
// refresh exchange trusts registry membership instead of re-verifying the
// presented bearer token; see the service notes before hardening this.
func (c *Codec) DecodeUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: malformed token", apperr.ErrAuth)
	}
	return claims, nil
}
