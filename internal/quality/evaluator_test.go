package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridedata/bikeqc/internal/contracts"
)

// cleanRecord returns a record with no detectable defects:
// consistent times, plausible age and duration, every field present.
func cleanRecord() contracts.RawTripRecord {
	return contracts.RawTripRecord{
		TripID:         "trip_12345",
		BikeID:         "101",
		StartTime:      "2025-11-10T10:00:00Z",
		EndTime:        "2025-11-10T10:30:00Z",
		StartStationID: "1",
		EndStationID:   "2",
		TripDuration:   "1800",
		BikeType:       "electric",
		RiderAge:       "25",
		MemberCasual:   "member",
	}
}

func TestEvaluate_CleanRecord(t *testing.T) {
	scored := Evaluate(cleanRecord())

	assert.Equal(t, 100, scored.QualityScore)
	assert.Empty(t, scored.QualityIssues)
	assert.NotNil(t, scored.QualityIssues, "issues must be an empty list, not nil")
	assert.True(t, scored.IsValidQuality)
	assert.False(t, scored.ProcessedAt.IsZero())
}

func TestEvaluate_Idempotent(t *testing.T) {
	rec := cleanRecord()
	rec.RiderAge = "150"

	first := Evaluate(rec)
	second := Evaluate(rec)

	assert.Equal(t, first.QualityScore, second.QualityScore)
	assert.Equal(t, first.QualityIssues, second.QualityIssues)
	assert.Equal(t, first.IsValidQuality, second.IsValidQuality)
}

func TestEvaluate_MissingFields(t *testing.T) {
	rec := cleanRecord()
	rec.BikeID = ""
	rec.BikeType = "  " // whitespace counts as missing

	scored := Evaluate(rec)

	// Two missing fields and nothing else: deductions are additive
	assert.Equal(t, 80, scored.QualityScore)
	assert.ElementsMatch(t, []string{"missing_bike_id", "missing_bike_type"}, scored.QualityIssues)
	assert.True(t, scored.IsValidQuality)
}

func TestEvaluate_AllFieldsMissing(t *testing.T) {
	scored := Evaluate(contracts.RawTripRecord{})

	// 8 missing fields, time parse fallback, absent age scored as 0,
	// unparseable duration: the floor holds the score at zero
	assert.Equal(t, 0, scored.QualityScore)
	assert.False(t, scored.IsValidQuality)
	assert.Contains(t, scored.QualityIssues, "missing_trip_id")
	assert.Contains(t, scored.QualityIssues, IssueTimeParsingError)
	assert.Contains(t, scored.QualityIssues, IssueInvalidAge)
	assert.Contains(t, scored.QualityIssues, IssueDurationCalculationError)
}

func TestEvaluate_InvalidTimeSequence(t *testing.T) {
	rec := cleanRecord()
	rec.StartTime = "2025-11-10T10:30:00Z"
	rec.EndTime = "2025-11-10T10:00:00Z"

	scored := Evaluate(rec)

	assert.Equal(t, 75, scored.QualityScore)
	assert.Equal(t, []string{IssueInvalidTimeSequence}, scored.QualityIssues)
	assert.True(t, scored.IsValidQuality)
}

func TestEvaluate_DurationMismatch(t *testing.T) {
	rec := cleanRecord()
	rec.TripDuration = "3000" // timestamps say 1800s, gap > 60s tolerance

	scored := Evaluate(rec)

	assert.Equal(t, 85, scored.QualityScore)
	assert.Equal(t, []string{IssueDurationMismatch}, scored.QualityIssues)
}

func TestEvaluate_DurationWithinTolerance(t *testing.T) {
	rec := cleanRecord()
	rec.TripDuration = "1850" // 50s off, inside the 60s tolerance

	scored := Evaluate(rec)

	assert.Equal(t, 100, scored.QualityScore)
	assert.Empty(t, scored.QualityIssues)
}

func TestEvaluate_TimeParsingError(t *testing.T) {
	rec := cleanRecord()
	rec.StartTime = "not-a-timestamp"

	scored := Evaluate(rec)

	// Parse failure replaces the ordering and consistency checks
	assert.Equal(t, 75, scored.QualityScore)
	assert.Equal(t, []string{IssueTimeParsingError}, scored.QualityIssues)
	assert.NotContains(t, scored.QualityIssues, IssueInvalidTimeSequence)
	assert.NotContains(t, scored.QualityIssues, IssueDurationMismatch)
}

func TestEvaluate_TimestampLayouts(t *testing.T) {
	// Historical CSV archives carry naive datetimes
	rec := cleanRecord()
	rec.StartTime = "2025-11-10 10:00:00"
	rec.EndTime = "2025-11-10 10:30:00"

	scored := Evaluate(rec)

	assert.Equal(t, 100, scored.QualityScore)
	assert.Empty(t, scored.QualityIssues)
}

func TestEvaluate_UnparseableDuration(t *testing.T) {
	rec := cleanRecord()
	rec.TripDuration = "half an hour"

	scored := Evaluate(rec)

	// The consistency computation cannot run (time_parsing_error) and
	// the duration checks are blocked (duration_calculation_error)
	assert.Equal(t, 60, scored.QualityScore)
	assert.ElementsMatch(t,
		[]string{IssueTimeParsingError, IssueDurationCalculationError},
		scored.QualityIssues)
	assert.True(t, scored.IsValidQuality)
}

func TestEvaluate_RiderAge(t *testing.T) {
	tests := []struct {
		name      string
		age       contracts.FlexValue
		wantScore int
		wantIssue string
	}{
		{"too young", "12", 80, IssueInvalidAge},
		{"too old", "150", 80, IssueInvalidAge},
		{"absent defaults to zero", "", 80, IssueInvalidAge},
		{"non-numeric", "twenty", 90, IssueInvalidAgeFormat},
		{"lower bound", "16", 100, ""},
		{"upper bound", "100", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cleanRecord()
			rec.RiderAge = tt.age

			scored := Evaluate(rec)

			assert.Equal(t, tt.wantScore, scored.QualityScore)
			if tt.wantIssue == "" {
				assert.Empty(t, scored.QualityIssues)
			} else {
				assert.Equal(t, []string{tt.wantIssue}, scored.QualityIssues)
			}
		})
	}
}

func TestEvaluate_ImplausibleDuration(t *testing.T) {
	rec := cleanRecord()
	rec.StartTime = "2025-11-10T10:00:00Z"
	rec.EndTime = "2025-11-10T10:00:30Z"
	rec.TripDuration = "30" // consistent with timestamps but under a minute

	scored := Evaluate(rec)

	assert.Equal(t, 85, scored.QualityScore)
	assert.Equal(t, []string{IssueInvalidDuration}, scored.QualityIssues)
}

func TestEvaluate_SameStationLongRide(t *testing.T) {
	rec := cleanRecord()
	rec.StartStationID = "7"
	rec.EndStationID = "7"
	rec.StartTime = "2025-11-10T10:00:00Z"
	rec.EndTime = "2025-11-10T12:00:00Z"
	rec.TripDuration = "7200"

	scored := Evaluate(rec)

	assert.Equal(t, 95, scored.QualityScore)
	assert.Equal(t, []string{IssueSameStationLongDuration}, scored.QualityIssues)
	assert.True(t, scored.IsValidQuality)
}

func TestEvaluate_SameStationShortRideIsFine(t *testing.T) {
	rec := cleanRecord()
	rec.StartStationID = "7"
	rec.EndStationID = "7"

	scored := Evaluate(rec)

	assert.Equal(t, 100, scored.QualityScore)
}

func TestEvaluate_MemberCasualDefaultsWithoutScoring(t *testing.T) {
	rec := cleanRecord()
	rec.MemberCasual = ""

	scored := Evaluate(rec)

	assert.Equal(t, contracts.FlexValue("casual"), scored.MemberCasual)
	assert.Equal(t, 100, scored.QualityScore)
	assert.Empty(t, scored.QualityIssues)
}

func TestEvaluate_ScoreAlwaysInRange(t *testing.T) {
	records := []contracts.RawTripRecord{
		cleanRecord(),
		{},
		{TripID: "x", RiderAge: "nope", TripDuration: "nope", StartTime: "nope", EndTime: "nope"},
		{TripID: "y", BikeID: "1", StartTime: "2025-01-01T00:00:00Z", EndTime: "2024-01-01T00:00:00Z",
			StartStationID: "3", EndStationID: "3", TripDuration: "90000", BikeType: "classic", RiderAge: "7"},
	}

	for _, rec := range records {
		scored := Evaluate(rec)
		assert.GreaterOrEqual(t, scored.QualityScore, 0)
		assert.LessOrEqual(t, scored.QualityScore, 100)
		// Validity is a pure threshold function of the score
		assert.Equal(t, scored.QualityScore >= ValidThreshold, scored.IsValidQuality)
	}
}

func TestEvaluateBatch(t *testing.T) {
	bad := cleanRecord()
	bad.TripID = "trip_bad"
	bad.RiderAge = "5"

	batch := []contracts.RawTripRecord{cleanRecord(), bad}
	scored := EvaluateBatch(batch)

	require.Len(t, scored, 2, "order-preserving, no filtering")
	assert.Equal(t, contracts.FlexValue("trip_12345"), scored[0].TripID)
	assert.Equal(t, contracts.FlexValue("trip_bad"), scored[1].TripID)
	assert.True(t, scored[0].IsValidQuality)
	assert.Equal(t, 80, scored[1].QualityScore)
}

func TestEvaluateBatch_Empty(t *testing.T) {
	scored := EvaluateBatch(nil)

	require.NotNil(t, scored)
	assert.Len(t, scored, 0)
}
