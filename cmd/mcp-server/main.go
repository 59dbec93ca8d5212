// Package main provides the stdio MCP entry point for the ASCVD risk calculator.
// It requires no external services; history is kept in a local SQLite file.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ascvd-risk-server/internal/config"
	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/history"
	"github.com/ascvd-risk-server/internal/logging"
	"github.com/ascvd-risk-server/internal/mcp"
	"github.com/ascvd-risk-server/internal/service"
)

var version = "v0.1.0"

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	// stdout carries the protocol, so logs go to stderr
	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		logger.WithError(err).Fatal("Failed to create data directory")
	}

	store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open assessment history")
	}
	defer store.Close()

	logger.WithFields(logrus.Fields{
		"data_dir":        cfg.DataDir,
		"save_by_default": cfg.SaveByDefault,
	}).Info("Starting ASCVD risk MCP server")

	calculator := service.NewCalculatorService(logger, service.WithRepository(store))
	server := mcp.NewServer(domain.MCPConfig{
		ServerVersion: version,
		SaveByDefault: cfg.SaveByDefault,
	}, domain.ReportConfig{}, calculator, logger)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("ASCVD risk MCP server stopped")
}
