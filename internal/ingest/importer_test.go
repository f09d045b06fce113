package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridedata/bikeqc/internal/contracts"
	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/logger"
)

// memoryTripRepo is an in-memory contracts.TripRepository for tests
type memoryTripRepo struct {
	records map[string]contracts.ScoredTripRecord
	raw     map[string][]byte
}

func newMemoryTripRepo() *memoryTripRepo {
	return &memoryTripRepo{
		records: make(map[string]contracts.ScoredTripRecord),
		raw:     make(map[string][]byte),
	}
}

func (m *memoryTripRepo) Save(_ context.Context, record *contracts.ScoredTripRecord, raw []byte) error {
	m.records[record.TripID.String()] = *record
	m.raw[record.TripID.String()] = raw
	return nil
}

func (m *memoryTripRepo) GetByID(_ context.Context, tripID string) (*contracts.ScoredTripRecord, error) {
	rec, ok := m.records[tripID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memoryTripRepo) ListProcessedSince(_ context.Context, since time.Time) ([]contracts.ScoredTripRecord, error) {
	var out []contracts.ScoredTripRecord
	for _, rec := range m.records {
		if !rec.ProcessedAt.Before(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryTripRepo) ListStartedBetween(_ context.Context, from, to time.Time) ([]contracts.ScoredTripRecord, error) {
	var out []contracts.ScoredTripRecord
	for _, rec := range m.records {
		start, err := contracts.ParseTripTime(rec.StartTime)
		if err != nil {
			continue
		}
		if !start.Before(from) && start.Before(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "console"})
}

const importCSV = `ride_id,rideable_type,started_at,ended_at,start_station_id,end_station_id,member_casual
trip-1,classic_bike,2024-01-15 08:00:00,2024-01-15 08:15:00,101,102,member
trip-2,electric_bike,2024-01-15 09:00:00,2024-01-15 08:30:00,103,104,casual
`

func TestImporter_ImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "202401-citibike-tripdata.csv")
	require.NoError(t, os.WriteFile(path, []byte(importCSV), 0o644))

	repo := newMemoryTripRepo()
	importer := NewImporter(repo, testLogger())

	stats, err := importer.ImportFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 0, stats.Skipped)

	first, err := repo.GetByID(context.Background(), "trip-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.NotNil(t, first.IngestedAt)
	assert.Equal(t, "202401-citibike-tripdata.csv", first.Source)
	assert.Contains(t, string(repo.raw["trip-1"]), `"trip_id":"trip-1"`)

	// second row has inverted timestamps, which the scorer flags
	second, err := repo.GetByID(context.Background(), "trip-2")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Less(t, second.QualityScore, first.QualityScore)
}

func TestImporter_MissingFile(t *testing.T) {
	importer := NewImporter(newMemoryTripRepo(), testLogger())
	_, err := importer.ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
