// Package database owns the process-lifetime connection handles. They
// are opened once in main and injected into the server wiring.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/motovlabs/vastserve/internal/config"
	"go.uber.org/zap"
)

// PostgresDB holds the pgx pool backing the ad catalog and event store.
type PostgresDB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresDB opens and pings the connection pool.
func NewPostgresDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName),
		zap.Int("max_conns", cfg.MaxConns),
	)

	return &PostgresDB{
		Pool:   pool,
		logger: logger,
	}, nil
}

// Close drains the pool on shutdown.
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info("PostgreSQL connection pool closed")
	}
}

// Health reports whether the database answers a ping.
func (db *PostgresDB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
