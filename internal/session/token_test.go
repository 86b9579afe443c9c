package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fixline/admin-api/internal/apperr"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(CodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestNewCodecRejectsSharedSecret(t *testing.T) {
	if _, err := NewCodec(CodecConfig{AccessSecret: "same", RefreshSecret: "same"}); err == nil {
		t.Fatalf("expected error for shared secret")
	}
	if _, err := NewCodec(CodecConfig{AccessSecret: "only-one"}); err == nil {
		t.Fatalf("expected error for missing refresh secret")
	}
}

func TestSignAndVerifyAccessToken(t *testing.T) {
	codec := testCodec(t)
	payload := Payload{Type: "admin", Firstname: "Lina", Lastname: "Farah"}

	token, err := codec.SignAccess(42, payload)
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	claims, err := codec.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Payload != payload {
		t.Fatalf("payload mismatch: %+v", claims.Payload)
	}
	id, err := claims.AccountID()
	if err != nil || id != 42 {
		t.Fatalf("unexpected account id: %d, %v", id, err)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti")
	}
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	codec := testCodec(t)

	// Refresh tokens use a different secret and method; neither may pass
	// access verification.
	refresh, err := codec.SignRefresh(42, Payload{Type: "admin"})
	if err != nil {
		t.Fatalf("SignRefresh: %v", err)
	}
	if _, err := codec.VerifyAccess(refresh); !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestVerifyAccessRejectsTamperedToken(t *testing.T) {
	codec := testCodec(t)
	token, err := codec.SignAccess(42, Payload{Type: "admin"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := codec.VerifyAccess(tampered); !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestVerifyAccessRejectsExpiredToken(t *testing.T) {
	codec := testCodec(t)
	issued := time.Now().Add(-72 * time.Hour)
	codec.WithClock(func() time.Time { return issued })

	token, err := codec.SignAccess(42, Payload{Type: "admin"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	codec.WithClock(time.Now)
	if _, err := codec.VerifyAccess(token); !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected ErrAuth for expired token, got %v", err)
	}
}

func TestDecodeUnverifiedIgnoresSignature(t *testing.T) {
	codec := testCodec(t)
	token, err := codec.SignAccess(7, Payload{Type: "super-admin", Firstname: "Omar"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"

	claims, err := codec.DecodeUnverified(tampered)
	if err != nil {
		t.Fatalf("DecodeUnverified: %v", err)
	}
	if claims.Payload.Firstname != "Omar" {
		t.Fatalf("unexpected payload: %+v", claims.Payload)
	}

	if _, err := codec.DecodeUnverified("not-a-jwt"); !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected ErrAuth for malformed token, got %v", err)
	}
}
