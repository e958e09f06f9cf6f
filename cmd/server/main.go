package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/mailer"
	"taskboard/backend/internal/router"
	"taskboard/backend/internal/store"
	"taskboard/backend/internal/worker/cleanup"
	"taskboard/backend/pkg/config"
	applog "taskboard/backend/pkg/log"
	"taskboard/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := applog.Init(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer applog.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.SetVersion(version)

	db, err := database.Connect(cfg.DSN(), cfg.IsDevelopment() && cfg.LogLevel == "debug")
	if err != nil {
		return err
	}
	log.Info("Database connection established")

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL(), log); err != nil {
			return err
		}
	}

	hasher := auth.NewHasher()
	st := store.NewGormStore(db, hasher)

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		Secret:        cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		TTL:           cfg.SessionTTL,
		RememberMeTTL: cfg.RememberMeTTL,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport, err := mailer.NewTransport(ctx, cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("init mail transport: %w", err)
	}
	dispatcher := mailer.NewDispatcher(transport, log, mailer.WithSendRate(cfg.Mail.MaxPerSecond))
	log.Info("Mail transport ready", zap.String("transport", transport.Name()))

	svc, err := auth.NewService(st, hasher, issuer, dispatcher, auth.ServiceConfig{
		FrontendHost:        cfg.FrontendHost,
		TokenTTL:            cfg.TokenTTL,
		InvalidateOnReissue: cfg.InvalidateOnReissue,
	}, log)
	if err != nil {
		return err
	}

	go cleanup.NewTokenJob(st.Tokens(), log).Start(ctx, cfg.TokenCleanupInterval)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.SetupRouter(router.Deps{
			Config: cfg,
			DB:     db,
			Store:  st,
			Auth:   svc,
			Issuer: issuer,
			Log:    log,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", server.Addr), zap.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Warn("Pending emails were not sent before shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("Server stopped gracefully")
	return nil
}
