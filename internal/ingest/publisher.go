package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ridedata/bikeqc/internal/contracts"
	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/logger"
)

// Publisher writes raw trip events to the trip topic. Delivery is
// best effort with a single broker ack; the quality pipeline treats
// the queue as a transport, not a system of record.
type Publisher struct {
	writer *kafka.Writer
	topic  string
	log    *logger.Logger
}

// NewPublisher creates a publisher for the configured trip topic
func NewPublisher(cfg *config.Config, log *logger.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Publisher{
		writer: writer,
		topic:  cfg.Kafka.Topic,
		log:    log.WithField("component", "trip_publisher"),
	}
}

// Publish enqueues one raw trip event. The message key is the trip id
// when present so re-submissions of the same trip land on the same
// partition; records without a trip id get a random key.
func (p *Publisher) Publish(ctx context.Context, record *contracts.RawTripRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode trip event: %w", err)
	}

	key := record.TripID.String()
	if record.TripID.IsEmpty() {
		key = uuid.NewString()
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish trip event: %w", err)
	}

	p.log.WithField("trip_id", key).Debug("Trip event published")
	return nil
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
