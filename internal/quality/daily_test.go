package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridedata/bikeqc/internal/contracts"
)

func dayTrip(id, start, station string, duration string, score int) contracts.ScoredTripRecord {
	return contracts.ScoredTripRecord{
		RawTripRecord: contracts.RawTripRecord{
			TripID:         contracts.FlexValue(id),
			StartTime:      contracts.FlexValue(start),
			StartStationID: contracts.FlexValue(station),
			TripDuration:   contracts.FlexValue(duration),
		},
		QualityScore:   score,
		IsValidQuality: score >= ValidThreshold,
	}
}

func TestSummarizeDay(t *testing.T) {
	day := time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)
	records := []contracts.ScoredTripRecord{
		dayTrip("a", "2025-11-09T08:10:00Z", "12", "600", 100),
		dayTrip("b", "2025-11-09T08:40:00Z", "12", "1200", 90),
		dayTrip("c", "2025-11-09T17:05:00Z", "3", "900", 80),
		dayTrip("d", "2025-11-09T23:30:00Z", "12", "oops", 40), // invalid, duration excluded
	}

	stats := SummarizeDay(day, records)

	assert.Equal(t, day, stats.Date)
	assert.Equal(t, 4, stats.TotalTrips)
	assert.Equal(t, 3, stats.ValidTrips)
	assert.InDelta(t, 77.5, stats.AvgQuality, 1e-9)
	assert.InDelta(t, 900.0, stats.AvgDuration, 1e-9) // mean of valid trips only

	require.NotNil(t, stats.PeakHour)
	assert.Equal(t, 8, *stats.PeakHour)
	assert.Equal(t, "12", stats.TopStartStation)
}

func TestSummarizeDay_Empty(t *testing.T) {
	day := time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)

	stats := SummarizeDay(day, nil)

	assert.Equal(t, 0, stats.TotalTrips)
	assert.Equal(t, 0, stats.ValidTrips)
	assert.Zero(t, stats.AvgQuality)
	assert.Nil(t, stats.PeakHour)
	assert.Empty(t, stats.TopStartStation)
}
