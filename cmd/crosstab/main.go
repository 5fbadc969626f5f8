package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/crosstab-io/crosstab/internal/analytics"
	corecfg "github.com/crosstab-io/crosstab/internal/core/config"
	"github.com/crosstab-io/crosstab/internal/core/domain"
	"github.com/crosstab-io/crosstab/internal/core/storage/postgres"
	"github.com/crosstab-io/crosstab/internal/importer"
	"github.com/crosstab-io/crosstab/internal/migrations"
	"github.com/crosstab-io/crosstab/internal/seed"
	"github.com/crosstab-io/crosstab/internal/server"
)

func main() {
	configPath := flag.String("config", "crosstab.yaml", "Path to configuration file")
	seedCount := flag.Int("seed", 0, "Seed N sample records per domain before serving (0 = off)")
	seedOnly := flag.Bool("seed-only", false, "Exit after seeding instead of serving")
	seedCatalog := flag.String("seed-catalog", "", "YAML catalog file for seeding (overrides seed.catalog_path)")
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
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize Storage (PostgreSQL)
	db, err := postgres.Open(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Prepared statements need the migrated schema in place.
	store, err := postgres.NewAdapter(db)
	if err != nil {
		slog.Error("Failed to initialize database adapter", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Optionally seed sample data
	if *seedCount > 0 || *seedOnly {
		catalogPath := cfg.Seed.CatalogPath
		if *seedCatalog != "" {
			catalogPath = *seedCatalog
		}

		catalog := seed.DefaultCatalog()
		if catalogPath != "" {
			catalog, err = seed.LoadCatalog(catalogPath)
			if err != nil {
				slog.Error("Failed to load seed catalog", "error", err)
				os.Exit(1)
			}
		}

		counts := seed.DefaultCounts
		if *seedCount > 0 {
			counts = seed.Counts{Sales: *seedCount, Orders: *seedCount, Subscriptions: *seedCount}
		}

		if err := seed.New(store, catalog, 0).Run(ctx, counts); err != nil {
			slog.Error("Failed to seed sample data", "error", err)
			os.Exit(1)
		}
		if *seedOnly {
			return
		}
	}

	// 4. Initialize the domain registry and services
	registry := domain.NewRegistry()
	analyticsSvc := analytics.NewService(registry, store)
	importSvc := importer.NewService(store, cfg.Server.MaxImportSizeMB)

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), db, cfg.Server.Mode)
	analyticsSvc.RegisterRoutes(srv.Engine)
	importSvc.RegisterRoutes(srv.Engine)

	// Signal handler triggers the shutdown sequence below.
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

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
