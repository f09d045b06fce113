package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridedata/bikeqc/internal/contracts"
)

// DailyStatsRepository implements contracts.DailyStatsRepository
type DailyStatsRepository struct {
	pool *pgxpool.Pool
}

// NewDailyStatsRepository creates a new daily stats repository
func NewDailyStatsRepository(pool *pgxpool.Pool) *DailyStatsRepository {
	return &DailyStatsRepository{pool: pool}
}

// Save upserts the aggregate for one calendar day
func (r *DailyStatsRepository) Save(ctx context.Context, stats *contracts.DailyTripStats) error {
	query := `
		INSERT INTO daily_trip_stats (
			stat_date, total_trips, valid_trips, avg_duration, avg_quality, peak_hour, top_start_station
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (stat_date) DO UPDATE SET
			total_trips       = EXCLUDED.total_trips,
			valid_trips       = EXCLUDED.valid_trips,
			avg_duration      = EXCLUDED.avg_duration,
			avg_quality       = EXCLUDED.avg_quality,
			peak_hour         = EXCLUDED.peak_hour,
			top_start_station = EXCLUDED.top_start_station
	`

	_, err := r.pool.Exec(ctx, query,
		stats.Date, stats.TotalTrips, stats.ValidTrips,
		stats.AvgDuration, stats.AvgQuality, stats.PeakHour, stats.TopStartStation,
	)
	return err
}

// GetByDate retrieves the aggregate for one day; nil when absent
func (r *DailyStatsRepository) GetByDate(ctx context.Context, date time.Time) (*contracts.DailyTripStats, error) {
	query := `
		SELECT stat_date, total_trips, valid_trips, avg_duration, avg_quality, peak_hour, top_start_station
		FROM daily_trip_stats
		WHERE stat_date = $1
	`

	var s contracts.DailyTripStats
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&s.Date, &s.TotalTrips, &s.ValidTrips,
		&s.AvgDuration, &s.AvgQuality, &s.PeakHour, &s.TopStartStation,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
