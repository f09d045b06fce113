package ingest

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumer_HandleScoresAndPersists(t *testing.T) {
	repo := newMemoryTripRepo()
	c := &Consumer{trips: repo, log: testLogger()}

	payload := []byte(`{
		"trip_id": "t-100",
		"bike_id": 42,
		"start_time": "2024-01-15T08:00:00Z",
		"end_time": "2024-01-15T08:15:00Z",
		"start_station_id": "101",
		"end_station_id": "102",
		"trip_duration": 900,
		"bike_type": "classic_bike",
		"rider_age": "34"
	}`)

	c.handle(context.Background(), kafka.Message{Value: payload})

	rec, err := repo.GetByID(context.Background(), "t-100")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 100, rec.QualityScore)
	assert.True(t, rec.IsValidQuality)
	assert.Equal(t, "42", rec.BikeID.String())
	assert.Equal(t, payload, repo.raw["t-100"])
}

func TestConsumer_HandleDropsUndecodable(t *testing.T) {
	repo := newMemoryTripRepo()
	c := &Consumer{trips: repo, log: testLogger()}

	c.handle(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Empty(t, repo.records)
}
