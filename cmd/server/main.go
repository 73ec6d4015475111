/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the production ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (YAML + environment)
  2. Set up the structured logger for the environment
  3. Open the store (SQLite file or in-memory)
  4. Apply reference data and the master order seed
  5. Build ledger, rollup engine and Excel exporter
  6. Configure HTTP router
  7. Start server with graceful shutdown

CONFIGURATION:
  -config       Path to YAML config (or CONFIG_PATH)
  JWT_SECRET    Required. HS256 key for admin tokens
  See config/local.yaml for every option.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with the sample config
  JWT_SECRET=dev-secret ./server -config=config/local.yaml

  # Run entirely from the environment with the in-memory store
  JWT_SECRET=dev-secret STORAGE_DRIVER=memory ./server

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration options
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/warp/production-ledger/api"
	"github.com/warp/production-ledger/config"
	"github.com/warp/production-ledger/factory"
	"github.com/warp/production-ledger/ledger"
	"github.com/warp/production-ledger/ledger/store"
	"github.com/warp/production-ledger/report"
	"github.com/warp/production-ledger/rollup"
	"github.com/warp/production-ledger/store/sqlite"
)

// backend is what main needs from a store beyond the ledger contract.
type backend interface {
	ledger.TxStore
	api.Resetter
}

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting production ledger", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage.Driver))

	st, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		log.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	l := ledger.New(st)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = seed(ctx, l, cfg)
	cancel()
	if err != nil {
		log.Error("failed to seed reference data", slog.String("error", err.Error()))
		os.Exit(1)
	}

	engine := rollup.New(l, cfg.Production.MonthlyTarget)
	exporter := report.NewExcelGenerator(l, engine)

	handler := api.NewHandler(log, l, engine, exporter, st)
	router := api.NewRouter(handler, cfg.Auth.JWTSecret, cfg.CORS.AllowedOrigins, cfg.Env != config.EnvProd)

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped")
}

func openStore(cfg config.Storage) (backend, func(), error) {
	if cfg.Driver == "memory" {
		return store.NewTxMemory(), func() {}, nil
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	s, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

// seed applies the seed document (or the built-in defaults) and the
// configured master order. Both are idempotent across restarts.
func seed(ctx context.Context, l *ledger.Ledger, cfg *config.Config) error {
	f := factory.NewDimensionFactory()

	s := factory.DefaultSeed()
	if cfg.Production.SeedPath != "" {
		data, err := os.ReadFile(cfg.Production.SeedPath)
		if err != nil {
			return fmt.Errorf("read seed: %w", err)
		}
		if s, err = f.ParseSeed(data); err != nil {
			return fmt.Errorf("parse seed %s: %w", cfg.Production.SeedPath, err)
		}
	}
	if err := f.Apply(ctx, l, s); err != nil {
		return err
	}

	if cfg.MasterOrder.Name != "" {
		return l.InitMasterOrder(ctx, cfg.MasterOrder.Name, cfg.MasterOrder.Quantity)
	}
	return nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}
