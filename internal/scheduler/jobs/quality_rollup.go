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

// QualityRollup periodically aggregates the recently scored trips
// into a batch quality summary, persists it, and refreshes the cached
// latest summary served by the API.
type QualityRollup struct {
	trips     contracts.TripRepository
	summaries contracts.SummaryRepository
	cache     *redis.Cache
	window    time.Duration
	schedule  string
	cacheTTL  time.Duration
	log       *logger.Logger
}

// NewQualityRollup creates the rollup job
func NewQualityRollup(
	cfg *config.Config,
	trips contracts.TripRepository,
	summaries contracts.SummaryRepository,
	cache *redis.Cache,
	log *logger.Logger,
) *QualityRollup {
	return &QualityRollup{
		trips:     trips,
		summaries: summaries,
		cache:     cache,
		window:    cfg.Quality.RollupWindow,
		schedule:  cfg.Quality.RollupSchedule,
		cacheTTL:  cfg.Quality.SummaryCacheTTL,
		log:       log.WithField("job", "quality_rollup"),
	}
}

// Name returns the job name
func (j *QualityRollup) Name() string {
	return "quality_rollup"
}

// Schedule returns the cron schedule
func (j *QualityRollup) Schedule() string {
	return j.schedule
}

// Run aggregates trips scored within the rollup window. An empty
// window still produces a summary; zero counts are a signal worth
// recording when ingest stalls.
func (j *QualityRollup) Run(ctx context.Context) error {
	since := time.Now().UTC().Add(-j.window)

	records, err := j.trips.ListProcessedSince(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to load scored trips: %w", err)
	}

	summary := quality.Aggregate(records)

	if err := j.summaries.Save(ctx, &summary); err != nil {
		return fmt.Errorf("failed to save quality summary: %w", err)
	}

	// Cache refresh is best effort; the API falls back to the store
	if err := j.cache.Set(ctx, redis.LatestSummaryKey(), &summary, j.cacheTTL); err != nil {
		j.log.WithError(err).Warn("Failed to cache latest summary")
	}

	j.log.WithFields(map[string]interface{}{
		"total":   summary.TotalRecords,
		"valid":   summary.ValidRecords,
		"invalid": summary.InvalidRecords,
	}).Info("Quality summary rolled up")
	return nil
}
