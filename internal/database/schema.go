package database

import (
	"context"
	"fmt"
)

// Migrate creates the service tables when they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scan_history (
			id UUID PRIMARY KEY,
			partner_id TEXT NOT NULL DEFAULT '',
			product_name TEXT NOT NULL,
			brand TEXT NOT NULL,
			category TEXT NOT NULL,
			cost_price DOUBLE PRECISION NOT NULL,
			optimal_price DOUBLE PRECISION NOT NULL,
			actual_margin DOUBLE PRECISION NOT NULL,
			is_profitable BOOLEAN NOT NULL,
			sku TEXT NOT NULL,
			ikpu_code TEXT NOT NULL DEFAULT '',
			seo_score DOUBLE PRECISION NOT NULL,
			validation_score DOUBLE PRECISION NOT NULL,
			source TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_history_created_at
			ON scan_history (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS scan_jobs (
			id UUID PRIMARY KEY,
			partner_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			items_total INT NOT NULL,
			items_done INT NOT NULL DEFAULT 0,
			items_failed INT NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_event (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			target_stream TEXT NOT NULL,
			status TEXT NOT NULL,
			retry_count INT NOT NULL DEFAULT 0,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			processed_at TIMESTAMPTZ,
			next_retry_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_event_pending
			ON outbox_event (next_retry_at) WHERE status IN ('pending', 'failed')`,
		`CREATE TABLE IF NOT EXISTS scan_daily_stats (
			partner_id TEXT NOT NULL,
			day DATE NOT NULL,
			scans_total INT NOT NULL DEFAULT 0,
			scans_profitable INT NOT NULL DEFAULT 0,
			margin_sum DOUBLE PRECISION NOT NULL DEFAULT 0,
			validation_score_sum DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (partner_id, day)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
