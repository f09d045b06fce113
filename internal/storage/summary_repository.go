package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridedata/bikeqc/internal/contracts"
)

// SummaryRepository implements contracts.SummaryRepository. Summaries
// are append-only; each rollup run inserts a new row.
type SummaryRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

// Save inserts a batch quality summary
func (r *SummaryRepository) Save(ctx context.Context, summary *contracts.QualitySummary) error {
	query := `
		INSERT INTO quality_summaries (
			quality_bands, total_records, valid_records, invalid_records, avg_score, generated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		summary.QualityBands, summary.TotalRecords, summary.ValidRecords,
		summary.InvalidRecords, summary.AvgScore, summary.Timestamp,
	)
	return err
}

// Latest retrieves the most recent summary; nil when none exist
func (r *SummaryRepository) Latest(ctx context.Context) (*contracts.QualitySummary, error) {
	query := `
		SELECT quality_bands, total_records, valid_records, invalid_records, avg_score, generated_at
		FROM quality_summaries
		ORDER BY generated_at DESC, id DESC
		LIMIT 1
	`

	var s contracts.QualitySummary
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.QualityBands, &s.TotalRecords, &s.ValidRecords,
		&s.InvalidRecords, &s.AvgScore, &s.Timestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
