package postgres

import (
	"context"
	"errors"

	"github.com/getmentor/getmentor-escrow/pkg/db"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Querier is the subset of pgxpool.Pool used by the client
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Client wraps a pgx connection pool with observability
type Client struct {
	q    Querier
	pool *pgxpool.Pool
}

// NewClient creates a new PostgreSQL client with connection pooling
func NewClient(ctx context.Context, cfg db.PoolConfig) (*Client, error) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("PostgreSQL client initialized",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)

	return &Client{q: pool, pool: pool}, nil
}

// NewClientWithQuerier wraps an existing querier, used by tests
func NewClientWithQuerier(q Querier) *Client {
	return &Client{q: q}
}

// Close closes the connection pool
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
		logger.Info("PostgreSQL connection pool closed")
	}
}

// Ping checks if the database connection is alive
func (c *Client) Ping(ctx context.Context) error {
	if c.q == nil {
		return errors.New("postgres client not initialized")
	}
	return c.q.Ping(ctx)
}

// recordMetrics records database operation metrics
func recordMetrics(operation, status string, duration float64) {
	metrics.DBClientOperationDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.DBClientOperationTotal.WithLabelValues(operation, status).Inc()
}
