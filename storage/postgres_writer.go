package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"truck-scraper/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWriter archives listings. A listing seen again in a later run is
// updated in place and tagged with the newer run.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

func NewPostgresWriter(pool *pgxpool.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

func (w *PostgresWriter) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	sql := `
	CREATE TABLE IF NOT EXISTS listings (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL,
		site TEXT NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		price INTEGER,
		fields JSONB NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (site, url)
	);

	CREATE INDEX IF NOT EXISTS idx_listings_run ON listings(run_id);
	CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
	`

	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}

func (w *PostgresWriter) WriteBatch(ctx context.Context, runID uuid.UUID, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	insertSQL := `
	INSERT INTO listings (run_id, site, url, title, price, fields)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (site, url) DO UPDATE SET
		run_id = EXCLUDED.run_id,
		title = EXCLUDED.title,
		price = EXCLUDED.price,
		fields = EXCLUDED.fields,
		scraped_at = NOW();
	`

	for _, l := range listings {
		fields, err := json.Marshal(l.Fields)
		if err != nil {
			return fmt.Errorf("encode listing %s: %w", l.URL(), err)
		}

		var title, price any
		if v, ok := l.Get(models.FieldTitle); ok {
			title = v
		}
		if v, ok := l.Int(models.FieldPrice); ok {
			price = v
		}

		batch.Queue(insertSQL, runID.String(), string(l.Site), l.URL(), title, price, fields)
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range listings {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}

	return nil
}
