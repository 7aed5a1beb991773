// Package db содержит инициализацию подключения к базе данных.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/RoGogDBD/closet/internal/config"
	"github.com/RoGogDBD/closet/internal/retry"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// NewPool создает пул подключений к PostgreSQL с повторами и миграциями.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	onRetry := func(err error, attempt int, wait time.Duration) {
		logger.Warn("retriable database error",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
	}

	if err := retry.Do(ctx, retry.Startup(), func() error {
		var err error
		pool, err = connect(ctx, cfg)
		return err
	}, onRetry); err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	logger.Info("connected to PostgreSQL")

	if err := retry.Do(ctx, retry.Startup(), func() error {
		return RunMigrations(cfg.DSN, cfg.MigrationsPath, logger)
	}, onRetry); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations after retries: %w", err)
	}

	return pool, nil
}

func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
