package storage

import (
	"context"
	"fmt"
	"time"
	"truck-scraper/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool to the configured database and checks it answers.
func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return pool, nil
}
