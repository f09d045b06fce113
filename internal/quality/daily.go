package quality

import (
	"time"

	"github.com/ridedata/bikeqc/internal/contracts"
)

// SummarizeDay builds the historical per-day aggregate from the
// scored trips of one calendar day. Like the batch aggregator it is
// a pure single pass; the caller selects which records belong to the
// day. Average duration covers valid trips only (defective durations
// would distort it), average quality covers every record.
func SummarizeDay(day time.Time, records []contracts.ScoredTripRecord) contracts.DailyTripStats {
	stats := contracts.DailyTripStats{
		Date: day.UTC().Truncate(24 * time.Hour),
	}

	if len(records) == 0 {
		return stats
	}

	stats.TotalTrips = len(records)

	scoreTotal := 0
	durationTotal := 0.0
	durationCount := 0
	hourCounts := make(map[int]int)
	stationCounts := make(map[string]int)

	for i := range records {
		rec := &records[i]
		scoreTotal += rec.QualityScore

		if rec.IsValidQuality {
			stats.ValidTrips++
			if dur, err := rec.TripDuration.Float(); err == nil {
				durationTotal += dur
				durationCount++
			}
		}

		if start, err := contracts.ParseTripTime(rec.StartTime); err == nil {
			hourCounts[start.Hour()]++
		}
		if !rec.StartStationID.IsEmpty() {
			stationCounts[rec.StartStationID.String()]++
		}
	}

	stats.AvgQuality = float64(scoreTotal) / float64(len(records))
	if durationCount > 0 {
		stats.AvgDuration = durationTotal / float64(durationCount)
	}

	if hour, ok := modeInt(hourCounts); ok {
		h := hour
		stats.PeakHour = &h
	}
	if station, ok := modeString(stationCounts); ok {
		stats.TopStartStation = station
	}

	return stats
}

// modeInt returns the most frequent key; ties break on the lower key
// so the result is deterministic
func modeInt(counts map[int]int) (int, bool) {
	best, bestCount := 0, 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && c > 0 && k < best) {
			best, bestCount = k, c
		}
	}
	return best, bestCount > 0
}

// modeString returns the most frequent key; ties break lexicographically
func modeString(counts map[string]int) (string, bool) {
	best, bestCount := "", 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && c > 0 && k < best) {
			best, bestCount = k, c
		}
	}
	return best, bestCount > 0
}
