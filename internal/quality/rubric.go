package quality

// Issue codes emitted by the evaluator. Downstream consumers store
// and display these verbatim, so they are part of the contract.
const (
	IssueInvalidTimeSequence      = "invalid_time_sequence"
	IssueDurationMismatch         = "duration_mismatch"
	IssueTimeParsingError         = "time_parsing_error"
	IssueInvalidAge               = "invalid_age"
	IssueInvalidAgeFormat         = "invalid_age_format"
	IssueInvalidDuration          = "invalid_duration"
	IssueSameStationLongDuration  = "same_station_long_duration"
	IssueDurationCalculationError = "duration_calculation_error"
)

// MissingFieldIssue builds the issue code for an absent required field
func MissingFieldIssue(field string) string {
	return "missing_" + field
}

// Score rubric. Deductions accumulate independently and the final
// score floors at zero.
const (
	baseScore = 100

	deductMissingField      = 10
	deductTimeSequence      = 25
	deductDurationMismatch  = 15
	deductTimeParse         = 25
	deductInvalidAge        = 20
	deductAgeFormat         = 10
	deductInvalidDuration   = 15
	deductSameStationLong   = 5
	deductDurationCalcError = 15

	// ValidThreshold is the minimum score for a record to count as valid
	ValidThreshold = 60
)

// Plausibility bounds
const (
	minRiderAge = 16
	maxRiderAge = 100

	minTripDurationSec = 60
	maxTripDurationSec = 86400 // 24 hours

	durationToleranceSec = 60   // allowed |reported - computed| gap
	sameStationLongSec   = 3600 // same-station trips above this are suspect
)
