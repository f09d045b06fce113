package quality

import (
	"time"

	"github.com/ridedata/bikeqc/internal/contracts"
)

// Aggregate rolls a batch of scored records into distributional
// statistics. It must only run after the whole batch has been scored.
//
// An empty batch is a valid input, not an error: the result carries
// zero counts, all four band keys, and a nil AvgScore (the mean of
// nothing is undefined and must never surface as NaN or a division
// error). Valid/invalid counts use each record's stored verdict, not
// a recomputation, so the aggregator stays decoupled from the
// evaluator's threshold policy.
func Aggregate(records []contracts.ScoredTripRecord) contracts.QualitySummary {
	summary := contracts.QualitySummary{
		QualityBands: emptyBands(),
		Timestamp:    time.Now().UTC(),
	}

	if len(records) == 0 {
		return summary
	}

	scoreTotal := 0
	for i := range records {
		rec := &records[i]

		summary.QualityBands[rec.Band()]++
		if rec.IsValidQuality {
			summary.ValidRecords++
		} else {
			summary.InvalidRecords++
		}
		scoreTotal += rec.QualityScore
	}

	summary.TotalRecords = len(records)
	avg := float64(scoreTotal) / float64(len(records))
	summary.AvgScore = &avg

	return summary
}

// emptyBands returns a band map with every band present at zero so
// consumers never have to distinguish a missing key from a zero count
func emptyBands() map[contracts.Band]int {
	bands := make(map[contracts.Band]int, 4)
	for _, band := range contracts.Bands() {
		bands[band] = 0
	}
	return bands
}
