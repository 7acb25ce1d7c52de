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

	"pet-adoption/internal/adapters/auth/jwt"
	rediscache "pet-adoption/internal/adapters/cache/redis"
	"pet-adoption/internal/adapters/storage/sqlstore"
	"pet-adoption/internal/config"
	"pet-adoption/internal/domain/reports"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/router"
)

// @title Pet Adoption API
// @version 1.0
// @description API de adopción de mascotas: catálogo, solicitudes, seguimientos, historial médico y reportes.
// @BasePath /api
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	driver, dsn := cfg.DBDriver, cfg.DBDSN
	if dsn == "" {
		driver, dsn = sqlstore.DriverSQLite, sqlstore.MemoryDSN
		log.Warn("DB_DSN empty, using in-memory sqlite", nil)
	}

	db, err := sqlstore.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := sqlstore.Migrate(db, driver); err != nil {
		return err
	}

	// Sin verifier = modo dev (headers X-Debug-*).
	var (
		verifier auth.AuthVerifier
		issuer   auth.TokenIssuer
	)
	if cfg.DevAuth {
		log.Warn("DEV_AUTH enabled, trusting X-Debug-* headers", nil)
	} else {
		signer, err := jwt.NewSigner(cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			return err
		}
		verifier, issuer = signer, signer
	}

	var cache reports.Cache
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := rediscache.New(ctx, cfg.RedisURL, cfg.AppName+":")
		cancel()
		if err != nil {
			// Los reportes funcionan sin cache.
			log.Warn("redis unavailable, report cache disabled", map[string]any{"err": err})
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	h, err := router.NewRouter(router.Options{
		AuthVerifier:   verifier,
		TokenIssuer:    issuer,
		DB:             db,
		DBDriver:       driver,
		Logger:         log,
		Metrics:        metrics.New(),
		ReportCache:    cache,
		ReportCacheTTL: cfg.ReportCacheTTL,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateBurst:  cfg.AuthRateBurst,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "db_driver": driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
