package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ridedata/bikeqc/internal/contracts"
	"github.com/ridedata/bikeqc/internal/quality"
	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/logger"
)

// Consumer reads raw trip events from the trip topic, scores them,
// and persists the result together with the original payload.
// Offsets are committed after persistence; a crash mid-batch can
// re-deliver events, which the upsert keyed on trip id absorbs.
type Consumer struct {
	reader *kafka.Reader
	trips  contracts.TripRepository
	log    *logger.Logger
}

// NewConsumer creates a group consumer on the configured trip topic
func NewConsumer(cfg *config.Config, trips contracts.TripRepository, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.GroupID,
		Topic:    cfg.Kafka.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})

	return &Consumer{
		reader: reader,
		trips:  trips,
		log:    log.WithField("component", "trip_consumer"),
	}
}

// Run blocks consuming messages until the context is cancelled or the
// reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("Trip consumer started")
	defer c.log.Info("Trip consumer stopped")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			c.log.WithError(err).Error("Failed to fetch trip event")
			continue
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			c.log.WithError(err).Error("Failed to commit offset")
		}
	}
}

// handle scores one event and persists it. Undecodable payloads are
// logged and dropped so one bad message cannot wedge the partition.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var raw contracts.RawTripRecord
	if err := json.Unmarshal(msg.Value, &raw); err != nil {
		c.log.WithError(err).
			WithField("offset", msg.Offset).
			Warn("Dropping undecodable trip event")
		return
	}

	scored := quality.Evaluate(raw)

	if err := c.trips.Save(ctx, &scored, msg.Value); err != nil {
		c.log.WithError(err).
			WithField("trip_id", scored.TripID.String()).
			Error("Failed to persist scored trip")
		return
	}

	c.log.WithFields(map[string]interface{}{
		"trip_id": scored.TripID.String(),
		"score":   scored.QualityScore,
		"valid":   scored.IsValidQuality,
	}).Debug("Trip scored")
}

// Close shuts down the underlying reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
