// MoldQuote server: the tooling feasibility and sizing calculations, the
// material and machine library and the RFQ store as a JSON HTTP API.
//
// Configuration is read from the environment and an optional .env file:
//   PORT, DB_PATH, LOG_LEVEL, LOG_FORMAT, POLICY_PATH,
//   RATE_LIMIT_RPS, RATE_LIMIT_BURST, JWT_SECRET, SEED_PRESETS,
//   SHUTDOWN_TIMEOUT
//
// Build:
//   go build -o moldquote-server ./cmd/moldquote-server

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/MoldQuote/internal/config"
	"github.com/piwi3910/MoldQuote/internal/logging"
	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/project"
	"github.com/piwi3910/MoldQuote/internal/server"
	"github.com/piwi3910/MoldQuote/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.NewDefaultLogger("moldquote-server").Fatal("Server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Fields: map[string]string{"service": "moldquote-server"},
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	policy := model.DefaultPolicy()
	if cfg.PolicyPath != "" {
		if policy, err = project.LoadPolicy(cfg.PolicyPath); err != nil {
			return err
		}
		logger.Info("Loaded evaluation policy", zap.String("path", cfg.PolicyPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if cfg.SeedPresets {
		stats, err := st.Seed(ctx, model.DefaultLibrary())
		if err != nil {
			return err
		}
		logger.Info("Seeded library presets",
			zap.Int("materials", stats.Materials),
			zap.Int("machines", stats.Machines))
	}

	srv := server.New(st, logger, server.Options{
		Policy:         policy,
		JWTSecret:      cfg.JWTSecret,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening",
			zap.String("addr", cfg.Addr()),
			zap.String("db", cfg.DBPath),
			zap.Bool("auth", cfg.AuthEnabled()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
