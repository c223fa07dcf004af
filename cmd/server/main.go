/*
main.go - Application entry point

PURPOSE:
  Starts the shift and payroll API. Loads configuration, opens the record
  store, optionally imports a JSON snapshot, and serves until SIGINT or
  SIGTERM.

STARTUP SEQUENCE:
  1. Load .env and environment (config.Load)
  2. Apply command-line overrides and validate
  3. Open the store selected by STORE_DRIVER
  4. Import SNAPSHOT_PATH when set
  5. Build handler and router, start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (overrides APP_PORT)
  -store      memory | sqlite | postgres | mongo (overrides STORE_DRIVER)
  -snapshot   JSON snapshot to import at startup (overrides SNAPSHOT_PATH)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # In-memory store seeded from a snapshot
  ./server -snapshot=./testdata/june.json

  # SQLite file
  STORE_DRIVER=sqlite SQLITE_PATH=./data/payroll.db ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - records/snapshot.go: Snapshot format
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/shift-payroll/api"
	"github.com/warp/shift-payroll/config"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/store/memory"
	"github.com/warp/shift-payroll/store/mongo"
	"github.com/warp/shift-payroll/store/postgres"
	"github.com/warp/shift-payroll/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	driver := flag.String("store", cfg.Store.Driver, "Record store: memory, sqlite, postgres or mongo")
	snapshot := flag.String("snapshot", cfg.Store.SnapshotPath, "JSON snapshot to import at startup")
	flag.Parse()

	cfg.App.Port = *port
	cfg.Store.Driver = *driver
	cfg.Store.SnapshotPath = *snapshot
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := cfg.App.NewLogger(os.Stdout).With(
		slog.String("app", "shift-payroll"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Store.SnapshotPath != "" {
		if err := importSnapshot(ctx, store, cfg.Store.SnapshotPath); err != nil {
			return err
		}
		logger.Info("snapshot imported", slog.String("path", cfg.Store.SnapshotPath))
	}

	handler := api.NewHandler(store, cfg.Payroll.RunConcurrency, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.Int("port", cfg.App.Port), slog.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// openStore opens the store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (records.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.New(cfg.SQLitePath)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.DriverMongo:
		return mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// importSnapshot seeds store from the JSON snapshot at path.
func importSnapshot(ctx context.Context, store records.Seeder, path string) error {
	snap, err := records.LoadSnapshotFile(path)
	if err != nil {
		return err
	}
	return snap.Import(ctx, store)
}
