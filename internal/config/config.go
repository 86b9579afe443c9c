// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime knob the service reads at startup.
type Config struct {
	Addr        string `env:"ADMIN_API_ADDR" envDefault:":2000"`
	AppName     string `env:"ADMIN_API_APP_NAME" envDefault:"fixline-admin"`
	DatabaseDSN string `env:"ADMIN_API_PG_DSN"`

	// Access and refresh tokens are signed with distinct secrets and carry
	// independently configurable lifetimes.
	JWTSecret     string        `env:"ADMIN_API_JWT_SECRET"`
	JWTTTL        time.Duration `env:"ADMIN_API_JWT_TTL" envDefault:"24h"`
	RefreshSecret string        `env:"ADMIN_API_REFRESH_SECRET"`
	RefreshTTL    time.Duration `env:"ADMIN_API_REFRESH_TTL" envDefault:"48h"`

	RateBurst    int   `env:"ADMIN_API_RATE_BURST" envDefault:"20"`
	RatePerSec   int   `env:"ADMIN_API_RATE_PER_SEC" envDefault:"10"`
	MaxBodyBytes int64 `env:"ADMIN_API_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Load parses the environment and validates required secrets.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: ADMIN_API_JWT_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return Config{}, errors.New("config: ADMIN_API_REFRESH_SECRET is required")
	}
	if cfg.JWTSecret == cfg.RefreshSecret {
		return Config{}, errors.New("config: access and refresh secrets must differ")
	}
	return cfg, nil
}
