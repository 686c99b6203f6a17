package db

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultCACertPath is used when no CA path is configured
const DefaultCACertPath = "certs/postgres-ca.crt"

// TLSOptions locates the CA used to verify a managed PostgreSQL server
type TLSOptions struct {
	CACertPath string
	// ServerName is only needed when the certificate name differs from the connection host
	ServerName string
}

// sslModes that require a verified TLS connection
var tlsSSLModes = map[string]bool{
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// configureTLS builds the TLS configuration for a managed PostgreSQL server.
// Returns nil when the URL does not ask for TLS (local development).
func configureTLS(databaseURL string, opts TLSOptions) (*tls.Config, error) {
	if !containsSSLMode(databaseURL) {
		return nil, nil
	}

	certPath := opts.CACertPath
	if certPath == "" {
		certPath = DefaultCACertPath
	}
	caPEM, err := os.ReadFile(filepath.FromSlash(certPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate from %s: %w", certPath, err)
	}

	rootCertPool := x509.NewCertPool()
	if ok := rootCertPool.AppendCertsFromPEM(caPEM); !ok {
		return nil, fmt.Errorf("failed to append CA certificate to pool")
	}

	return &tls.Config{
		RootCAs:    rootCertPool,
		ServerName: opts.ServerName,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// containsSSLMode reports whether the connection string's sslmode asks for TLS.
// Both URL and keyword/value forms are accepted.
func containsSSLMode(databaseURL string) bool {
	if u, err := url.Parse(databaseURL); err == nil && u.Scheme != "" {
		return tlsSSLModes[u.Query().Get("sslmode")]
	}
	for _, field := range strings.Fields(databaseURL) {
		if mode, ok := strings.CutPrefix(field, "sslmode="); ok {
			return tlsSSLModes[mode]
		}
	}
	return false
}

// PoolConfig contains database pool configuration parameters
type PoolConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
	TLS      TLSOptions
}

// NewPool creates the event log connection pool and verifies it with a ping.
//
// Pool settings:
//   - MaxConns / MinConns from config
//   - HealthCheckPeriod: 30s
//   - MaxConnLifetime: 1h
//   - MaxConnIdleTime: 30m
func NewPool(ctx context.Context, poolCfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(poolCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	tlsConfig, err := configureTLS(poolCfg.URL, poolCfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}
	if tlsConfig != nil {
		config.ConnConfig.TLSConfig = tlsConfig
	}

	config.MaxConns = poolCfg.MaxConns
	config.MinConns = poolCfg.MinConns
	config.HealthCheckPeriod = 30 * time.Second
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
