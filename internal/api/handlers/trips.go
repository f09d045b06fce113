package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ridedata/bikeqc/internal/contracts"
	"github.com/ridedata/bikeqc/pkg/logger"
	"github.com/ridedata/bikeqc/pkg/redis"
)

// TripPublisher enqueues raw trip events for scoring
type TripPublisher interface {
	Publish(ctx context.Context, record *contracts.RawTripRecord) error
}

// TripHandler handles trip ingestion and lookup endpoints
type TripHandler struct {
	publisher TripPublisher
	trips     contracts.TripRepository
	limiter   *redis.RateLimiter
	logger    *logger.Logger
}

// NewTripHandler creates a new trip handler
func NewTripHandler(
	publisher TripPublisher,
	trips contracts.TripRepository,
	limiter *redis.RateLimiter,
	log *logger.Logger,
) *TripHandler {
	return &TripHandler{
		publisher: publisher,
		trips:     trips,
		limiter:   limiter,
		logger:    log,
	}
}

// IngestResponse acknowledges an accepted trip event
type IngestResponse struct {
	Status string `json:"status"`
	TripID string `json:"trip_id,omitempty"`
}

// Ingest accepts one raw trip event and queues it for scoring.
// Fields may arrive as strings or numbers; nothing is validated here
// beyond JSON shape, since judging field quality is the scorer's job.
// POST /api/v1/trips
func (h *TripHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	source := clientAddr(r)

	allowed, _, err := h.limiter.Allow(ctx, redis.IngestRateLimit(source))
	if err != nil {
		h.logger.WithError(err).Warn("Rate limit check failed, allowing request")
	} else if !allowed {
		respondError(w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	var record contracts.RawTripRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := time.Now().UTC()
	record.IngestedAt = &now
	record.Source = source

	if err := h.publisher.Publish(ctx, &record); err != nil {
		h.logger.WithError(err).Error("Failed to queue trip event")
		respondError(w, http.StatusServiceUnavailable, "Failed to queue trip event")
		return
	}

	respondJSON(w, http.StatusAccepted, IngestResponse{
		Status: "queued",
		TripID: record.TripID.String(),
	})
}

// GetTrip returns one scored trip record
// GET /api/v1/trips/{id}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tripID := mux.Vars(r)["id"]

	record, err := h.trips.GetByID(ctx, tripID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load trip")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve trip")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "Trip not found")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// clientAddr extracts the client address for rate limiting; proxies
// put the original client first in X-Forwarded-For
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
