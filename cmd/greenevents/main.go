// Command greenevents runs the volunteer events API server.
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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/greenevents/server/internal/config"
	"github.com/greenevents/server/internal/database"
	"github.com/greenevents/server/internal/handler"
	"github.com/greenevents/server/internal/notify"
	"github.com/greenevents/server/internal/repository"
	"github.com/greenevents/server/internal/service"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "greenevents",
		Short:         "Community volunteer events API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate()
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func migrate() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return database.RunMigrations(ctx, pool, logger)
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL and apply migrations ────────────────
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, logger); err != nil {
		return err
	}

	// ── 2. Wire up layers ────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)

	var notifier notify.Notifier
	if cfg.SMTP.Enabled {
		notifier = notify.NewSMTP(cfg.SMTP.Addr(), cfg.SMTP.From)
	} else {
		notifier = notify.NewLog(logger)
	}

	eventSvc := service.NewEventService(eventRepo, regRepo)
	regSvc := service.NewRegistrationService(eventRepo, regRepo, profileRepo, notifier, logger)
	analyticsSvc := service.NewAnalyticsService(eventRepo, regRepo, profileRepo, logger)
	profileSvc := service.NewProfileService(profileRepo)

	h := handler.New(eventSvc, regSvc, analyticsSvc, profileSvc, logger)

	// ── 3. Start server with graceful shutdown ───────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h.Routes(profileRepo, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
