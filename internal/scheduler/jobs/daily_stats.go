package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ridedata/bikeqc/internal/contracts"
	"github.com/ridedata/bikeqc/internal/quality"
	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/logger"
	"github.com/ridedata/bikeqc/pkg/redis"
)

// DailyStats computes the historical aggregate for the previous
// calendar day shortly after midnight.
type DailyStats struct {
	trips    contracts.TripRepository
	daily    contracts.DailyStatsRepository
	cache    *redis.Cache
	schedule string
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewDailyStats creates the daily stats job
func NewDailyStats(
	cfg *config.Config,
	trips contracts.TripRepository,
	daily contracts.DailyStatsRepository,
	cache *redis.Cache,
	log *logger.Logger,
) *DailyStats {
	return &DailyStats{
		trips:    trips,
		daily:    daily,
		cache:    cache,
		schedule: cfg.Quality.DailySchedule,
		cacheTTL: cfg.Quality.SummaryCacheTTL,
		log:      log.WithField("job", "daily_stats"),
	}
}

// Name returns the job name
func (j *DailyStats) Name() string {
	return "daily_stats"
}

// Schedule returns the cron schedule
func (j *DailyStats) Schedule() string {
	return j.schedule
}

// Run summarizes yesterday's trips
func (j *DailyStats) Run(ctx context.Context) error {
	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour).AddDate(0, 0, -1)
	return j.RunForDay(ctx, day)
}

// RunForDay summarizes one specific calendar day; used by the
// schedule for yesterday and by backfills for arbitrary days
func (j *DailyStats) RunForDay(ctx context.Context, day time.Time) error {
	day = day.UTC().Truncate(24 * time.Hour)

	records, err := j.trips.ListStartedBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to load trips for %s: %w", day.Format("2006-01-02"), err)
	}

	stats := quality.SummarizeDay(day, records)

	if err := j.daily.Save(ctx, &stats); err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}

	if err := j.cache.Set(ctx, redis.DailyStatsKey(day.Format("2006-01-02")), &stats, j.cacheTTL); err != nil {
		j.log.WithError(err).Warn("Failed to cache daily stats")
	}

	j.log.WithFields(map[string]interface{}{
		"date":  day.Format("2006-01-02"),
		"trips": stats.TotalTrips,
		"valid": stats.ValidTrips,
	}).Info("Daily stats computed")
	return nil
}
