package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/healthbridge-lab/healthbridge/internal/auth"
	corecfg "github.com/healthbridge-lab/healthbridge/internal/core/config"
	"github.com/healthbridge-lab/healthbridge/internal/core/metric"
	"github.com/healthbridge-lab/healthbridge/internal/migrations"
	"github.com/healthbridge-lab/healthbridge/internal/read"
	"github.com/healthbridge-lab/healthbridge/internal/server"
	"github.com/healthbridge-lab/healthbridge/internal/store"
	"github.com/healthbridge-lab/healthbridge/internal/store/memory"
	"github.com/healthbridge-lab/healthbridge/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "healthbridge.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "store_type", cfg.Store.Type, "addr", fmtAddr(cfg.Server.Host, cfg.Server.Port))

	// 2. Initialize the health store handle. The postgres backend is opened
	// lazily on first use so startup does not depend on the database.
	handle := store.NewLazy(storeProvider(cfg))

	// 3. Initialize the Metric Registry (builtins + optional extensions)
	registry := metric.NewRegistry()
	if err := metric.LoadDirectory(registry, cfg.Registry.ConfigDir); err != nil {
		slog.Error("Failed to load metric extensions", "dir", cfg.Registry.ConfigDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Metric registry ready", "metrics", len(registry.Types()))

	// 4. Initialize Services
	authSvc := auth.NewService(handle, registry)
	readSvc := read.NewService(handle, registry, authSvc)

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), handle, cfg.Server.Mode)
	api := srv.Engine.Group("/", server.CapabilityGate(handle))
	authSvc.RegisterRoutes(api)
	readSvc.RegisterRoutes(api)

	// 6. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// storeProvider builds the backend selected by config. The postgres path
// opens the pool, applies migrations, then prepares the adapter.
func storeProvider(cfg *corecfg.Config) store.Provider {
	if cfg.Store.Type == "memory" {
		return func() (store.Store, error) {
			slog.Info("Using in-memory health store")
			return memory.New(), nil
		}
	}

	return func() (store.Store, error) {
		db, err := postgres.Open(cfg.Store.DSN, cfg.Store.MaxOpenConns, cfg.Store.MaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("open health store: %w", err)
		}
		if err := migrations.Run(db, cfg.Store.AutoMigrate); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate health store: %w", err)
		}
		adapter, err := postgres.NewAdapter(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("prepare health store: %w", err)
		}
		slog.Info("Postgres health store ready")
		return adapter, nil
	}
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
