package account

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/fixline/admin-api/internal/apperr"
)

// The same message is returned whether the phone is unknown or the password
// wrong, so responses cannot be used to enumerate accounts.
const loginFailedMsg = "invalid credentials"

// Verifier checks admin credentials against stored account records.
type Verifier struct {
	store *Store
}

func NewVerifier(store *Store) *Verifier {
	return &Verifier{store: store}
}

// VerifyAdmin normalizes the phone, loads the matching live admin account
// and compares the password against the stored bcrypt hash.
func (v *Verifier) VerifyAdmin(ctx context.Context, phone, password string) (Account, error) {
	phone = NormalizePhone(phone)
	acct, err := v.store.AdminByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Account{}, fmt.Errorf("%w: %s", apperr.ErrAuth, loginFailedMsg)
		}
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Account{}, fmt.Errorf("%w: %s", apperr.ErrAuth, loginFailedMsg)
		}
		// A malformed stored hash is a server fault, not a credential
		// mismatch.
		return Account{}, fmt.Errorf("%w: password verification: %v", apperr.ErrInternal, err)
	}
	return acct, nil
}

// TouchLastLogin records a successful authentication on the account row.
func (v *Verifier) TouchLastLogin(ctx context.Context, id int64) error {
	return v.store.TouchLastLogin(ctx, id)
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", apperr.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", apperr.ErrInternal, err)
	}
	return string(hash), nil
}
