package quality

import (
	"math"
	"time"

	"github.com/ridedata/bikeqc/internal/contracts"
)

// finding is one detected defect and its score deduction
type finding struct {
	code      string
	deduction int
}

// checkFunc inspects a raw record and returns any findings. Checks
// are independent: each runs regardless of what the others found.
type checkFunc func(rec contracts.RawTripRecord) []finding

var checks = []checkFunc{
	checkCompleteness,
	checkTimeConsistency,
	checkRiderAge,
	checkTripDuration,
}

// Evaluate scores one raw trip record against the quality rubric.
// It never fails: parsing problems degrade to detected issues with a
// fixed deduction. Calling it twice on the same record yields the
// same score and issues.
func Evaluate(raw contracts.RawTripRecord) contracts.ScoredTripRecord {
	// member_casual is informational only: defaulted, never scored
	if raw.MemberCasual.IsEmpty() {
		raw.MemberCasual = "casual"
	}

	issues := make([]string, 0, 4)
	deductions := 0

	for _, check := range checks {
		for _, f := range check(raw) {
			issues = append(issues, f.code)
			deductions += f.deduction
		}
	}

	score := baseScore - deductions
	if score < 0 {
		score = 0
	}

	return contracts.ScoredTripRecord{
		RawTripRecord:  raw,
		QualityScore:   score,
		QualityIssues:  issues,
		IsValidQuality: score >= ValidThreshold,
		ProcessedAt:    time.Now().UTC(),
	}
}

// EvaluateBatch scores a batch of raw records, one output per input
// in the same order. Invalid records pass through marked as such;
// nothing is filtered. An empty batch yields an empty batch.
func EvaluateBatch(batch []contracts.RawTripRecord) []contracts.ScoredTripRecord {
	scored := make([]contracts.ScoredTripRecord, 0, len(batch))
	for _, raw := range batch {
		scored = append(scored, Evaluate(raw))
	}
	return scored
}

// checkCompleteness penalizes every absent required field.
// member_casual and rider_age are deliberately not required.
func checkCompleteness(rec contracts.RawTripRecord) []finding {
	required := []struct {
		name  string
		value contracts.FlexValue
	}{
		{"trip_id", rec.TripID},
		{"bike_id", rec.BikeID},
		{"start_time", rec.StartTime},
		{"end_time", rec.EndTime},
		{"start_station_id", rec.StartStationID},
		{"end_station_id", rec.EndStationID},
		{"trip_duration", rec.TripDuration},
		{"bike_type", rec.BikeType},
	}

	var findings []finding
	for _, field := range required {
		if field.value.IsEmpty() {
			findings = append(findings, finding{MissingFieldIssue(field.name), deductMissingField})
		}
	}
	return findings
}

// checkTimeConsistency validates time ordering and the reported
// duration against the timestamps. The two checks form one fallback
// group: if either timestamp does not parse, or the consistency
// computation cannot run because trip_duration is not numeric, a
// single time_parsing_error finding replaces both.
func checkTimeConsistency(rec contracts.RawTripRecord) []finding {
	start, errStart := contracts.ParseTripTime(rec.StartTime)
	end, errEnd := contracts.ParseTripTime(rec.EndTime)
	if errStart != nil || errEnd != nil {
		return []finding{{IssueTimeParsingError, deductTimeParse}}
	}

	reported, err := rec.TripDuration.Float()
	if err != nil {
		return []finding{{IssueTimeParsingError, deductTimeParse}}
	}

	var findings []finding
	if start.After(end) {
		findings = append(findings, finding{IssueInvalidTimeSequence, deductTimeSequence})
	}

	// Elapsed magnitude, so an inverted-but-consistent pair of
	// timestamps is flagged once (ordering), not twice
	computed := math.Abs(end.Sub(start).Seconds())
	if math.Abs(computed-reported) > durationToleranceSec {
		findings = append(findings, finding{IssueDurationMismatch, deductDurationMismatch})
	}
	return findings
}

// checkRiderAge validates rider age plausibility. An absent age is
// treated as zero (the upstream default) and therefore implausible;
// a present but non-numeric age is a format defect instead.
func checkRiderAge(rec contracts.RawTripRecord) []finding {
	value := rec.RiderAge
	if value.IsEmpty() {
		value = "0"
	}

	age, err := value.Float()
	if err != nil {
		return []finding{{IssueInvalidAgeFormat, deductAgeFormat}}
	}

	if age < minRiderAge || age > maxRiderAge {
		return []finding{{IssueInvalidAge, deductInvalidAge}}
	}
	return nil
}

// checkTripDuration validates duration plausibility and the
// same-station heuristic. A non-numeric duration blocks both and
// yields a single calculation-error finding.
func checkTripDuration(rec contracts.RawTripRecord) []finding {
	duration, err := rec.TripDuration.Float()
	if err != nil {
		return []finding{{IssueDurationCalculationError, deductDurationCalcError}}
	}

	var findings []finding
	if duration < minTripDurationSec || duration > maxTripDurationSec {
		findings = append(findings, finding{IssueInvalidDuration, deductInvalidDuration})
	}

	if rec.StartStationID.String() == rec.EndStationID.String() && duration > sameStationLongSec {
		findings = append(findings, finding{IssueSameStationLongDuration, deductSameStationLong})
	}
	return findings
}
