package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dunamismax/pixelconvert/internal/domain"
	_ "github.com/lib/pq"
)

const usageSchemaSQL = `
CREATE TABLE IF NOT EXISTS usage_logs (
	id TEXT PRIMARY KEY,
	endpoint TEXT NOT NULL,
	request_id TEXT NOT NULL DEFAULT '',
	target_format TEXT NOT NULL DEFAULT '',
	pixels_processed BIGINT NOT NULL DEFAULT 0,
	bytes_in BIGINT NOT NULL DEFAULT 0,
	bytes_out BIGINT NOT NULL DEFAULT 0,
	bytes_saved BIGINT NOT NULL DEFAULT 0,
	compute_time_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS usage_logs_created_at_idx ON usage_logs (created_at);
`

type PostgresUsageStore struct {
	db *sql.DB
}

func NewPostgresUsageStore(ctx context.Context, dsn string) (*PostgresUsageStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresUsageStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresUsageStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, usageSchemaSQL); err != nil {
		return fmt.Errorf("ensure usage schema: %w", err)
	}
	return nil
}

func (s *PostgresUsageStore) Close() error {
	return s.db.Close()
}

func (s *PostgresUsageStore) Record(ctx context.Context, usage domain.UsageLog) error {
	if usage.ID == "" {
		return ErrMissingUsageID
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO usage_logs (id, endpoint, request_id, target_format, pixels_processed, bytes_in, bytes_out, bytes_saved, compute_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		usage.ID,
		usage.Endpoint,
		usage.RequestID,
		usage.TargetFormat,
		usage.PixelsProcessed,
		usage.BytesIn,
		usage.BytesOut,
		usage.BytesSaved,
		usage.ComputeTimeMS,
		usage.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}

	return nil
}

func (s *PostgresUsageStore) Totals(ctx context.Context) (domain.UsageTotals, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(pixels_processed), 0),
		        COALESCE(SUM(bytes_in), 0),
		        COALESCE(SUM(bytes_out), 0),
		        COALESCE(SUM(bytes_saved), 0),
		        COALESCE(SUM(compute_time_ms), 0)
		 FROM usage_logs`,
	)

	var totals domain.UsageTotals
	if err := row.Scan(
		&totals.Conversions,
		&totals.PixelsProcessed,
		&totals.BytesIn,
		&totals.BytesOut,
		&totals.BytesSaved,
		&totals.ComputeTimeMS,
	); err != nil {
		return domain.UsageTotals{}, fmt.Errorf("query usage totals: %w", err)
	}

	return totals, nil
}
