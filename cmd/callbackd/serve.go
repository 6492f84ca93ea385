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

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-payment-callbacks/internal/cache"
	"github.com/tbourn/go-payment-callbacks/internal/config"
	httpapi "github.com/tbourn/go-payment-callbacks/internal/http"
	"github.com/tbourn/go-payment-callbacks/internal/observability"
	"github.com/tbourn/go-payment-callbacks/internal/repo"
	"github.com/tbourn/go-payment-callbacks/internal/services"
	"github.com/tbourn/go-payment-callbacks/internal/sysutil"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the callback HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	lg := sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, os.Stdout)
	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), Version)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			lg.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if cfg.OTEL.Enabled {
		if err := observability.TraceDB(db); err != nil {
			return fmt.Errorf("gorm tracing: %w", err)
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	deliveries, closeCache, err := openDeliveryCache(ctx, cfg.Redis, lg)
	if err != nil {
		return err
	}
	defer closeCache()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, deliveries, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("db_driver", cfg.DB.Driver).
			Bool("delivery_cache", deliveries != nil).
			Msg("callback server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openDB connects to the configured backend.
func openDB(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DB.Path
	if cfg.DB.Driver == repo.DriverPostgres {
		dsn = cfg.DB.URL
	}
	db, err := repo.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DB.Driver, err)
	}
	return db, nil
}

// openDeliveryCache returns nil (and a no-op closer) when no Redis address
// is configured.
func openDeliveryCache(ctx context.Context, rc config.RedisConfig, lg zerolog.Logger) (services.DeliveryCache, func(), error) {
	if rc.Addr == "" {
		lg.Info().Msg("delivery cache disabled")
		return nil, func() {}, nil
	}
	client, err := cache.NewClient(ctx, rc.Addr, rc.Password, rc.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	closer := func() {
		if err := client.Close(); err != nil {
			lg.Warn().Err(err).Msg("redis close")
		}
	}
	return cache.NewDeliveryCache(client, rc.TTL), closer, nil
}
