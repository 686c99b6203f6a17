package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Register file source driver
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// MigrationResult reports the event log schema version before and after a run
type MigrationResult struct {
	FromVersion uint
	ToVersion   uint
	Applied     bool
}

// RunMigrations brings the event log schema up to the newest migration in migrationsPath
// (e.g. "file://migrations"). A database that is already current is not an error.
func RunMigrations(databaseURL, migrationsPath string, tlsOpts TLSOptions) (MigrationResult, error) {
	var result MigrationResult

	connConfig, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return result, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Same CA handling as the event log pool
	tlsConfig, err := configureTLS(databaseURL, tlsOpts)
	if err != nil {
		return result, fmt.Errorf("failed to configure TLS: %w", err)
	}
	if tlsConfig != nil {
		connConfig.TLSConfig = tlsConfig
	}

	conn := stdlib.OpenDB(*connConfig)
	defer conn.Close()

	if pingErr := conn.Ping(); pingErr != nil {
		return result, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return result, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return result, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if result.FromVersion, err = schemaVersion(m); err != nil {
		return result, err
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		result.ToVersion = result.FromVersion
		return result, nil
	case err != nil:
		return result, fmt.Errorf("failed to run migrations: %w", err)
	}

	if result.ToVersion, err = schemaVersion(m); err != nil {
		return result, err
	}
	result.Applied = true
	return result, nil
}

// schemaVersion returns the applied version, 0 for an empty database.
// A dirty schema needs manual repair and is reported as an error.
func schemaVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty, fix it manually before migrating", version)
	}
	return version, nil
}
