package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fixline/admin-api/internal/apperr"
)

var accountColumns = []string{
	"id", "type", "firstname", "lastname",
	"email", "gender", "avatar_location",
	"phone_code", "phone", "timezone",
	"active",
	"password", "otp", "device_token",
	"password_token", "new_phone", "last_login_ip",
	"email_verified_at", "password_changed_at", "last_login_at",
	"created_at", "updated_at", "deleted_at",
}

func adminRow(hash string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(accountColumns).AddRow(
		int64(42), "admin", "Lina", "Farah",
		"lina@example.com", "", "",
		"971", "555123456", "",
		true,
		hash, "", "",
		"", "", "",
		nil, nil, nil,
		now, now, nil,
	)
}

func newTestVerifier(t *testing.T) (*Verifier, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewVerifier(NewStore(db)), mock
}

func TestVerifyAdminStripsLeadingZeroAndMatchesAdminType(t *testing.T) {
	v, mock := newTestVerifier(t)

	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	mock.ExpectQuery(`from accounts where phone = \$1 and type like \$2 and deleted_at is null limit 1`).
		WithArgs("555123456", "%admin").
		WillReturnRows(adminRow(hash))

	acct, err := v.VerifyAdmin(context.Background(), "0555123456", "correct-horse")
	if err != nil {
		t.Fatalf("VerifyAdmin: %v", err)
	}
	if acct.ID != 42 || acct.Type != "admin" {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVerifyAdminUniformFailureMessage(t *testing.T) {
	v, mock := newTestVerifier(t)

	// Unknown phone.
	mock.ExpectQuery(`from accounts`).WillReturnError(sql.ErrNoRows)
	_, unknownErr := v.VerifyAdmin(context.Background(), "555000000", "whatever")
	if !errors.Is(unknownErr, apperr.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", unknownErr)
	}

	// Known phone, wrong password.
	hash, err := HashPassword("right-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	mock.ExpectQuery(`from accounts`).WillReturnRows(adminRow(hash))
	_, wrongErr := v.VerifyAdmin(context.Background(), "555123456", "wrong-password")
	if !errors.Is(wrongErr, apperr.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", wrongErr)
	}

	// Responses must not distinguish the two failure modes.
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("failure messages differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestVerifyAdminMalformedHashIsInternal(t *testing.T) {
	v, mock := newTestVerifier(t)

	mock.ExpectQuery(`from accounts`).WillReturnRows(adminRow("not-a-bcrypt-hash"))

	_, err := v.VerifyAdmin(context.Background(), "555123456", "whatever")
	if !errors.Is(err, apperr.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
