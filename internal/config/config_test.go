package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ADMIN_API_JWT_SECRET", "access-secret")
	t.Setenv("ADMIN_API_REFRESH_SECRET", "refresh-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":2000" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.JWTTTL != 24*time.Hour || cfg.RefreshTTL != 48*time.Hour {
		t.Fatalf("unexpected token lifetimes: %v / %v", cfg.JWTTTL, cfg.RefreshTTL)
	}
	if cfg.RateBurst != 20 || cfg.RatePerSec != 10 {
		t.Fatalf("unexpected rate limits: %d / %d", cfg.RateBurst, cfg.RatePerSec)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected body cap: %d", cfg.MaxBodyBytes)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_API_ADDR", ":9090")
	t.Setenv("ADMIN_API_JWT_TTL", "15m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.JWTTTL != 15*time.Minute {
		t.Fatalf("unexpected ttl: %v", cfg.JWTTTL)
	}
}

func TestLoadRequiresBothSecrets(t *testing.T) {
	t.Setenv("ADMIN_API_JWT_SECRET", "")
	t.Setenv("ADMIN_API_REFRESH_SECRET", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ADMIN_API_JWT_SECRET") {
		t.Fatalf("expected missing access secret error, got %v", err)
	}

	t.Setenv("ADMIN_API_JWT_SECRET", "only-access")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ADMIN_API_REFRESH_SECRET") {
		t.Fatalf("expected missing refresh secret error, got %v", err)
	}
}

func TestLoadRejectsSharedSecret(t *testing.T) {
	t.Setenv("ADMIN_API_JWT_SECRET", "same")
	t.Setenv("ADMIN_API_REFRESH_SECRET", "same")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected shared-secret error, got %v", err)
	}
}
