package contracts

import (
	"context"
	"time"
)

// TripRepository persists scored trip records along with the raw
// payload they were derived from.
type TripRepository interface {
	// Save upserts a scored record; raw is the original event payload
	Save(ctx context.Context, record *ScoredTripRecord, raw []byte) error

	// GetByID retrieves one scored record by trip id
	GetByID(ctx context.Context, tripID string) (*ScoredTripRecord, error)

	// ListProcessedSince lists records scored at or after the given time
	ListProcessedSince(ctx context.Context, since time.Time) ([]ScoredTripRecord, error)

	// ListStartedBetween lists records whose trip start falls in [from, to)
	ListStartedBetween(ctx context.Context, from, to time.Time) ([]ScoredTripRecord, error)
}

// SummaryRepository persists batch quality summaries
type SummaryRepository interface {
	Save(ctx context.Context, summary *QualitySummary) error
	Latest(ctx context.Context) (*QualitySummary, error)
}

// DailyStatsRepository persists per-day historical aggregates
type DailyStatsRepository interface {
	Save(ctx context.Context, stats *DailyTripStats) error
	GetByDate(ctx context.Context, date time.Time) (*DailyTripStats, error)
}
