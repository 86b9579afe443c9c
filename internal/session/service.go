package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fixline/admin-api/internal/account"
	"github.com/fixline/admin-api/internal/apperr"
)

// Platforms accepted by logout.
var platforms = map[string]struct{}{
	"ios":     {},
	"android": {},
	"web":     {},
}

// Accounts is the slice of account behavior the session service needs.
type Accounts interface {
	VerifyAdmin(ctx context.Context, phone, password string) (account.Account, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

// Devices manages per-device push-token rows; logout is scoped to them.
type Devices interface {
	Device(ctx context.Context, accountID int64, platform, pushToken string) (account.DeviceToken, error)
	RemoveDevice(ctx context.Context, id int64) error
}

// Service orchestrates login, refresh and logout against the verifier, the
// token codec and the injected registry.
type Service struct {
	accounts Accounts
	devices  Devices
	registry *Registry
	codec    *Codec
	now      func() time.Time
}

func NewService(accounts Accounts, devices Devices, registry *Registry, codec *Codec) *Service {
	return &Service{
		accounts: accounts,
		devices:  devices,
		registry: registry,
		codec:    codec,
		now:      time.Now,
	}
}

// LoginResult is what a successful login returns to the client.
type LoginResult struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	Payload      Payload `json:"payload"`
}

// Login verifies admin credentials, mints an access/refresh token pair and
// registers the session.
func (s *Service) Login(ctx context.Context, phone, password string) (LoginResult, error) {
	if strings.TrimSpace(phone) == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: phone and password are required", apperr.ErrValidation)
	}
	acct, err := s.accounts.VerifyAdmin(ctx, phone, password)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.accounts.TouchLastLogin(ctx, acct.ID); err != nil {
		return LoginResult{}, err
	}

	payload := Redact(acct)
	accessToken, err := s.codec.SignAccess(acct.ID, payload)
	if err != nil {
		return LoginResult{}, err
	}
	refreshToken, err := s.codec.SignRefresh(acct.ID, payload)
	if err != nil {
		return LoginResult{}, err
	}
	s.registry.Put(Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Payload:      payload,
		AccountID:    acct.ID,
		IssuedAt:     s.now().UTC(),
	})
	return LoginResult{Token: accessToken, RefreshToken: refreshToken, Payload: payload}, nil
}

// Refresh exchanges a registered refresh token for a new access token. The
// new token is minted from the claims decoded (not re-verified) off the
// presented bearer token; trust rests on registry membership. The refresh
// token itself stays valid and unchanged.
func (s *Service) Refresh(ctx context.Context, refreshToken, bearerToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", fmt.Errorf("%w: refreshToken is required", apperr.ErrValidation)
	}
	claims, err := s.codec.DecodeUnverified(bearerToken)
	if err != nil {
		return "", err
	}
	if _, ok := s.registry.Get(refreshToken); !ok {
		return "", fmt.Errorf("%w: no matching session for refresh token", apperr.ErrAuth)
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return "", err
	}
	accessToken, err := s.codec.SignAccess(accountID, claims.Payload)
	if err != nil {
		return "", err
	}
	s.registry.SetAccessToken(refreshToken, accessToken)
	return accessToken, nil
}

// Logout removes the device push-token row scoped to (account, platform,
// token). It deliberately leaves the session registry alone: refresh tokens
// issued before logout keep working until they expire.
func (s *Service) Logout(ctx context.Context, accountID int64, platform, pushToken string) error {
	platform = strings.TrimSpace(strings.ToLower(platform))
	if _, ok := platforms[platform]; !ok {
		return fmt.Errorf("%w: platform must be one of ios, android, web", apperr.ErrValidation)
	}
	if strings.TrimSpace(pushToken) == "" {
		return fmt.Errorf("%w: fcmToken is required", apperr.ErrValidation)
	}
	device, err := s.devices.Device(ctx, accountID, platform, pushToken)
	if err != nil {
		return fmt.Errorf("%w: user already logged out", apperr.ErrAuth)
	}
	if err := s.devices.RemoveDevice(ctx, device.ID); err != nil {
		return fmt.Errorf("%w: user already logged out", apperr.ErrAuth)
	}
	return nil
}
