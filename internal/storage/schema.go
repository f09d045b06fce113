package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates the tables and indexes if they don't exist
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
	CREATE TABLE IF NOT EXISTS trip_records (
		trip_id          TEXT PRIMARY KEY,
		bike_id          TEXT NOT NULL DEFAULT '',
		start_time       TEXT NOT NULL DEFAULT '',
		end_time         TEXT NOT NULL DEFAULT '',
		start_station_id TEXT NOT NULL DEFAULT '',
		end_station_id   TEXT NOT NULL DEFAULT '',
		rider_age        TEXT NOT NULL DEFAULT '',
		trip_duration    TEXT NOT NULL DEFAULT '',
		bike_type        TEXT NOT NULL DEFAULT '',
		member_casual    TEXT NOT NULL DEFAULT '',
		started_at       TIMESTAMPTZ,
		raw              JSONB,
		quality_score    INTEGER NOT NULL,
		quality_issues   JSONB NOT NULL DEFAULT '[]',
		is_valid_quality BOOLEAN NOT NULL,
		source           TEXT NOT NULL DEFAULT '',
		ingested_at      TIMESTAMPTZ,
		processed_at     TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trip_records_processed_at ON trip_records (processed_at);
	CREATE INDEX IF NOT EXISTS idx_trip_records_started_at   ON trip_records (started_at);

	CREATE TABLE IF NOT EXISTS quality_summaries (
		id              BIGSERIAL PRIMARY KEY,
		quality_bands   JSONB NOT NULL,
		total_records   INTEGER NOT NULL,
		valid_records   INTEGER NOT NULL,
		invalid_records INTEGER NOT NULL,
		avg_score       DOUBLE PRECISION,
		generated_at    TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quality_summaries_generated_at ON quality_summaries (generated_at);

	CREATE TABLE IF NOT EXISTS daily_trip_stats (
		stat_date         DATE PRIMARY KEY,
		total_trips       INTEGER NOT NULL,
		valid_trips       INTEGER NOT NULL,
		avg_duration      DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_quality       DOUBLE PRECISION NOT NULL DEFAULT 0,
		peak_hour         INTEGER,
		top_start_station TEXT NOT NULL DEFAULT ''
	);
	`

	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
