// Package session implements the session and access-control core: the
// in-process session registry, the access/refresh token codec, and the
// issuer/rotator orchestrating login, refresh and logout.
package session

import "github.com/fixline/admin-api/internal/account"

// Payload is the redacted account projection embedded in tokens. Redact is
// the only constructor; anything not copied there never reaches a token.
type Payload struct {
	Type           string `json:"type"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Email          string `json:"email,omitempty"`
	Gender         string `json:"gender,omitempty"`
	AvatarLocation string `json:"avatar_location,omitempty"`
}

// Redact projects an account into its token payload. Deliberately omitted:
// id (carried in the registered sub claim instead), password hash, phone,
// phone_code, otp, password_token, device_token, new_phone, active,
// timezone, email_verified_at, password_changed_at, last_login_at,
// last_login_ip and the row timestamps.
func Redact(a account.Account) Payload {
	return Payload{
		Type:           a.Type,
		Firstname:      a.Firstname,
		Lastname:       a.Lastname,
		Email:          a.Email,
		Gender:         a.Gender,
		AvatarLocation: a.AvatarLocation,
	}
}
