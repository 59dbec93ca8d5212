package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/ascvd-risk-server/internal/api"
	"github.com/ascvd-risk-server/internal/cache"
	"github.com/ascvd-risk-server/internal/config"
	"github.com/ascvd-risk-server/internal/database"
	"github.com/ascvd-risk-server/internal/history"
	"github.com/ascvd-risk-server/internal/logging"
	"github.com/ascvd-risk-server/internal/metrics"
	"github.com/ascvd-risk-server/internal/service"
)

var version = "dev"

func main() {
	// Load configuration
	configManager, err := config.NewManager(os.Getenv("ASCVD_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	opts := []api.ServerOption{
		api.WithMetrics(m, registry),
		api.WithVersion(version),
	}
	calcOpts := []service.CalculatorOption{service.WithMetrics(m)}

	store, closeStore, err := openStore(ctx, configManager, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	if store != nil {
		calcOpts = append(calcOpts, service.WithRepository(store))
		opts = append(opts, api.WithHealthCheck("storage", store.Health))
	}

	reportCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("failed to create report cache: %w", err)
	}
	if reportCache != nil {
		defer reportCache.Close()
		opts = append(opts, api.WithReportCache(reportCache))
	}

	calculator := service.NewCalculatorService(logger, calcOpts...)

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"storage":     cfg.Storage.Driver,
		"cache":       cfg.Cache.Driver,
		"environment": cfg.Environment,
		"version":     version,
	}).Info("Starting ASCVD risk server")

	server := api.NewServer(configManager, calculator, logger, opts...)
	return server.Start(ctx)
}

// openStore builds the history store selected by configuration.
// The returned close func is always safe to call.
func openStore(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) (history.Store, func(), error) {
	cfg := configManager.GetConfig()

	switch cfg.Storage.Driver {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to open sqlite history: %w", err)
		}
		logger.WithField("path", store.DBPath()).Info("Using SQLite assessment history")
		return store, func() { store.Close() }, nil

	case "postgres":
		if err := database.Migrate(ctx, configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger); err != nil {
			return nil, func() {}, err
		}

		db, err := database.NewConnection(ctx, database.ConfigFromDomain(cfg.Database), logger)
		if err != nil {
			return nil, func() {}, err
		}
		store, err := history.NewPostgresStore(db.SQL())
		if err != nil {
			db.Close()
			return nil, func() {}, fmt.Errorf("failed to open postgres history: %w", err)
		}
		logger.WithField("host", cfg.Database.Host).Info("Using PostgreSQL assessment history")
		return store, func() {
			store.Close()
			db.Close()
		}, nil

	default:
		logger.Warn("Assessment history disabled; results will not be stored")
		return nil, func() {}, nil
	}
}
