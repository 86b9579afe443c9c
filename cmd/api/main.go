package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fixline/admin-api/internal/account"
	"github.com/fixline/admin-api/internal/config"
	"github.com/fixline/admin-api/internal/httpapi"
	"github.com/fixline/admin-api/internal/obs"
	"github.com/fixline/admin-api/internal/permission"
	"github.com/fixline/admin-api/internal/session"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var db *sql.DB
	if cfg.DatabaseDSN != "" {
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	codec, err := session.NewCodec(session.CodecConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.JWTTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	accounts := account.NewStore(db)
	verifier := account.NewVerifier(accounts)
	accountSvc := account.NewService(accounts)

	registry := session.NewRegistry()
	sessions := session.NewService(verifier, accounts, registry, codec)

	perms := permission.NewService(permission.NewPGStore(db))

	api := httpapi.New(
		httpapi.ReadyProbe{DB: db},
		version,
		sessions,
		codec,
		perms,
		accountSvc,
		httpapi.WithLimits(cfg.RateBurst, cfg.RatePerSec, cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting %s %s on %s", cfg.AppName, version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
