package contracts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexValue is a JSON scalar that upstream sources emit inconsistently
// as string, integer, or float. It normalizes to the textual form;
// JSON null decodes to the empty value.
type FlexValue string

// UnmarshalJSON accepts strings, numbers, and null
func (v *FlexValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FlexValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value must be a string or number: %w", err)
	}
	*v = FlexValue(n.String())
	return nil
}

// String returns the textual form
func (v FlexValue) String() string {
	return string(v)
}

// IsEmpty reports whether the value is missing or blank
func (v FlexValue) IsEmpty() bool {
	return strings.TrimSpace(string(v)) == ""
}

// Float parses the value as a number
func (v FlexValue) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
}

// tripTimeLayouts are the timestamp formats accepted from upstream
// sources: RFC 3339 from the ingest API, naive datetimes and plain
// dates from historical CSV archives.
var tripTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTripTime parses a trip timestamp; blank values fail
func ParseTripTime(v FlexValue) (time.Time, error) {
	value := strings.TrimSpace(string(v))

	var lastErr error
	for _, layout := range tripTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// RawTripRecord is one bicycle rental event exactly as received.
// No invariants hold on the input; the quality evaluator exists to
// detect violations, so every field may be absent or malformed.
type RawTripRecord struct {
	TripID         FlexValue `json:"trip_id"`
	BikeID         FlexValue `json:"bike_id"`
	StartTime      FlexValue `json:"start_time"`
	EndTime        FlexValue `json:"end_time"`
	StartStationID FlexValue `json:"start_station_id"`
	EndStationID   FlexValue `json:"end_station_id"`
	TripDuration   FlexValue `json:"trip_duration"`
	BikeType       FlexValue `json:"bike_type"`
	RiderAge       FlexValue `json:"rider_age"`
	MemberCasual   FlexValue `json:"member_casual"`

	// Ingest metadata, set by the ingestion layer
	IngestedAt *time.Time `json:"ingested_at,omitempty"`
	Source     string     `json:"source,omitempty"`
}

// ScoredTripRecord is a RawTripRecord plus its quality verdict.
// Derived once per raw record and immutable afterwards.
type ScoredTripRecord struct {
	RawTripRecord

	QualityScore   int       `json:"quality_score"`
	QualityIssues  []string  `json:"quality_issues"`
	IsValidQuality bool      `json:"is_valid_quality"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// Band returns the quality band of this record's score
func (s *ScoredTripRecord) Band() Band {
	return BandFor(s.QualityScore)
}

// HasIssue reports whether the given issue code was detected
func (s *ScoredTripRecord) HasIssue(code string) bool {
	for _, issue := range s.QualityIssues {
		if issue == code {
			return true
		}
	}
	return false
}

// Band is a bucket of the quality score
type Band string

const (
	BandExcellent Band = "EXCELLENT" // score >= 90
	BandGood      Band = "GOOD"      // 75 <= score < 90
	BandFair      Band = "FAIR"      // 60 <= score < 75
	BandPoor      Band = "POOR"      // score < 60
)

// Bands lists all bands from best to worst
func Bands() []Band {
	return []Band{BandExcellent, BandGood, BandFair, BandPoor}
}

// BandFor maps a quality score to its band. The four bands partition
// the full score range, so every score falls into exactly one.
func BandFor(score int) Band {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 75:
		return BandGood
	case score >= 60:
		return BandFair
	default:
		return BandPoor
	}
}

// QualitySummary holds distributional quality statistics for one
// evaluated batch of scored records.
type QualitySummary struct {
	QualityBands   map[Band]int `json:"quality_bands"`
	TotalRecords   int          `json:"total_records"`
	ValidRecords   int          `json:"valid_records"`
	InvalidRecords int          `json:"invalid_records"`
	// AvgScore is nil when the summarized batch was empty; the mean
	// of zero records is undefined and must not surface as NaN.
	AvgScore  *float64  `json:"avg_score"`
	Timestamp time.Time `json:"timestamp"`
}

// HasData reports whether the summary covers at least one record
func (s *QualitySummary) HasData() bool {
	return s.TotalRecords > 0
}

// DailyTripStats is the per-day historical aggregate derived from
// scored trips of a single calendar day.
type DailyTripStats struct {
	Date            time.Time `json:"date"`
	TotalTrips      int       `json:"total_trips"`
	ValidTrips      int       `json:"valid_trips"`
	AvgDuration     float64   `json:"avg_duration"`
	AvgQuality      float64   `json:"avg_quality"`
	PeakHour        *int      `json:"peak_hour,omitempty"`
	TopStartStation string    `json:"most_used_station,omitempty"`
}
