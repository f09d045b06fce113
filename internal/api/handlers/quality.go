package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ridedata/bikeqc/internal/contracts"
	"github.com/ridedata/bikeqc/pkg/logger"
	"github.com/ridedata/bikeqc/pkg/redis"
)

// QualityHandler serves quality summaries and daily aggregates
type QualityHandler struct {
	summaries contracts.SummaryRepository
	daily     contracts.DailyStatsRepository
	cache     *redis.Cache
	logger    *logger.Logger
}

// NewQualityHandler creates a new quality handler
func NewQualityHandler(
	summaries contracts.SummaryRepository,
	daily contracts.DailyStatsRepository,
	cache *redis.Cache,
	log *logger.Logger,
) *QualityHandler {
	return &QualityHandler{
		summaries: summaries,
		daily:     daily,
		cache:     cache,
		logger:    log,
	}
}

// GetSummary returns the most recent batch quality summary. The
// rollup job keeps a cached copy; the store is the fallback.
// GET /api/v1/quality/summary
func (h *QualityHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached contracts.QualitySummary
	if hit, err := h.cache.Get(ctx, redis.LatestSummaryKey(), &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	summary, err := h.summaries.Latest(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest summary")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve quality summary")
		return
	}
	if summary == nil {
		respondError(w, http.StatusNotFound, "No quality summary available yet")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetDaily returns the aggregate for one calendar day
// GET /api/v1/quality/daily/{date}
func (h *QualityHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dateStr := mux.Vars(r)["date"]
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return
	}

	var cached contracts.DailyTripStats
	if hit, err := h.cache.Get(ctx, redis.DailyStatsKey(dateStr), &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	stats, err := h.daily.GetByDate(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load daily stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve daily stats")
		return
	}
	if stats == nil {
		respondError(w, http.StatusNotFound, "No stats for that day")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
