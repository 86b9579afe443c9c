// Package account owns marketplace account records: the entity shape, the
// credential verifier used by login, and administrative account management.
package account

import (
	"strings"
	"time"

	"github.com/fixline/admin-api/internal/repo"
)

// Account types. The matching role name in permission grants equals the
// account type string.
const (
	TypeSuperAdmin = "super-admin"
	TypeAdmin      = "admin"
	TypeUser       = "user"
	TypeCustomer   = "customer"
	TypeSupplier   = "supplier"
	TypeSP         = "sp"
)

// Account is one marketplace account row. Credential and recovery material
// never serializes to JSON.
type Account struct {
	ID             int64  `json:"id"`
	Type           string `json:"type"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Email          string `json:"email,omitempty"`
	Gender         string `json:"gender,omitempty"`
	AvatarLocation string `json:"avatar_location,omitempty"`
	PhoneCode      string `json:"phone_code,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	Active         bool   `json:"active"`

	PasswordHash  string `json:"-"`
	OTP           string `json:"-"`
	DeviceToken   string `json:"-"`
	PasswordToken string `json:"-"`
	NewPhone      string `json:"-"`
	LastLoginIP   string `json:"-"`

	EmailVerifiedAt   *time.Time `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"-"`
}

// DeviceToken is one push-notification registration for a device. Logout
// removes exactly one of these rows; it never touches the session registry.
type DeviceToken struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Platform  string    `json:"platform"`
	PushToken string    `json:"push_token"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizePhone strips a single leading zero, matching how numbers are
// stored without the trunk prefix.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "0") {
		return phone[1:]
	}
	return phone
}

func accountSchema() repo.Schema[Account] {
	return repo.Schema[Account]{
		Table: "accounts",
		Columns: []string{
			"id", "type", "firstname", "lastname",
			"coalesce(email, '')", "coalesce(gender, '')", "coalesce(avatar_location, '')",
			"coalesce(phone_code, '')", "coalesce(phone, '')", "coalesce(timezone, '')",
			"active",
			"coalesce(password, '')", "coalesce(otp, '')", "coalesce(device_token, '')",
			"coalesce(password_token, '')", "coalesce(new_phone, '')", "coalesce(last_login_ip, '')",
			"email_verified_at", "password_changed_at", "last_login_at",
			"created_at", "updated_at", "deleted_at",
		},
		SoftDelete: true,
		Scan:       scanAccount,
	}
}

func scanAccount(row repo.RowScanner) (Account, error) {
	var a Account
	var verifiedAt, changedAt, loginAt, deletedAt nullTime
	err := row.Scan(
		&a.ID, &a.Type, &a.Firstname, &a.Lastname,
		&a.Email, &a.Gender, &a.AvatarLocation,
		&a.PhoneCode, &a.Phone, &a.Timezone,
		&a.Active,
		&a.PasswordHash, &a.OTP, &a.DeviceToken,
		&a.PasswordToken, &a.NewPhone, &a.LastLoginIP,
		&verifiedAt, &changedAt, &loginAt,
		&a.CreatedAt, &a.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return Account{}, err
	}
	a.EmailVerifiedAt = verifiedAt.ptr()
	a.PasswordChangedAt = changedAt.ptr()
	a.LastLoginAt = loginAt.ptr()
	a.DeletedAt = deletedAt.ptr()
	return a, nil
}

func deviceTokenSchema() repo.Schema[DeviceToken] {
	return repo.Schema[DeviceToken]{
		Table:   "device_tokens",
		Columns: []string{"id", "account_id", "platform", "push_token", "created_at"},
		Scan: func(row repo.RowScanner) (DeviceToken, error) {
			var d DeviceToken
			if err := row.Scan(&d.ID, &d.AccountID, &d.Platform, &d.PushToken, &d.CreatedAt); err != nil {
				return DeviceToken{}, err
			}
			return d, nil
		},
	}
}
