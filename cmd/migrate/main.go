package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/getmentor/getmentor-escrow/config"
	"github.com/getmentor/getmentor-escrow/pkg/db"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	migrationsPath := flag.String("path", "file://migrations", "migration source URL")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadForMigrations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: "getmentor-escrow-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting event log migrations",
		zap.String("database", maskDatabaseURL(cfg.Database.URL)),
		zap.String("source", *migrationsPath))

	result, err := db.RunMigrations(cfg.Database.URL, *migrationsPath, cfg.Database.TLS())
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err), zap.Uint("version", result.FromVersion))
		os.Exit(1)
	}

	if !result.Applied {
		logger.Info("Event log schema is up to date", zap.Uint("version", result.ToVersion))
		return
	}
	logger.Info("Event log migrations completed successfully",
		zap.Uint("from_version", result.FromVersion),
		zap.Uint("to_version", result.ToVersion))
}

// maskDatabaseURL masks the password in database URL for logging
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
