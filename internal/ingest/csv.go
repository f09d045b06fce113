package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ridedata/bikeqc/internal/contracts"
)

// CSVMapper converts rows from historical trip archives into raw trip
// records. The archives span two header generations: the legacy layout
// (tripduration, starttime, bikeid, usertype, birth year) and the
// modern one (ride_id, started_at, rideable_type, member_casual).
// Header names are normalized so both resolve to one column set.
type CSVMapper struct {
	index  map[string]int
	source string
}

// NewCSVMapper builds a mapper from the header row of one archive file
func NewCSVMapper(header []string, sourceFile string) (*CSVMapper, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header row in %s", sourceFile)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[canonColumn(name)] = i
	}

	m := &CSVMapper{index: index, source: sourceFile}
	if !m.has("ride id") && !m.has("bikeid") {
		return nil, fmt.Errorf("unrecognized header layout in %s", sourceFile)
	}
	return m, nil
}

// canonColumn normalizes a header cell: BOM and quotes stripped,
// lowercased, underscore and whitespace runs collapsed to one space.
func canonColumn(name string) string {
	n := strings.ReplaceAll(name, "\uFEFF", "")
	n = strings.Trim(strings.TrimSpace(n), `"'`)
	n = strings.ToLower(strings.ReplaceAll(n, "_", " "))
	return strings.Join(strings.Fields(n), " ")
}

func (m *CSVMapper) has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// col returns the first matching candidate column value in the row
func (m *CSVMapper) col(row []string, candidates ...string) string {
	for _, name := range candidates {
		if i, ok := m.index[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// Record maps one data row to a raw trip record. Values are carried
// as-is wherever possible so the quality evaluator judges what the
// archive actually contains; only fields the legacy layout lacks are
// derived (trip id, duration, rider age).
func (m *CSVMapper) Record(row []string) contracts.RawTripRecord {
	started := m.col(row, "started at", "starttime", "start time")
	ended := m.col(row, "ended at", "stoptime", "end time")
	startStation := m.col(row, "start station id")
	endStation := m.col(row, "end station id")
	bikeID := m.col(row, "bikeid")

	rec := contracts.RawTripRecord{
		TripID:         contracts.FlexValue(m.tripID(row, started, ended, startStation, endStation, bikeID)),
		BikeID:         contracts.FlexValue(bikeID),
		StartTime:      contracts.FlexValue(started),
		EndTime:        contracts.FlexValue(ended),
		StartStationID: contracts.FlexValue(startStation),
		EndStationID:   contracts.FlexValue(endStation),
		RiderAge:       contracts.FlexValue(m.riderAge(row, started)),
		TripDuration:   contracts.FlexValue(m.duration(row, started, ended)),
		BikeType:       contracts.FlexValue(m.col(row, "rideable type")),
		MemberCasual:   contracts.FlexValue(normalizeMemberCasual(m.col(row, "member casual", "usertype"))),
		Source:         m.source,
	}
	return rec
}

// tripID prefers the archive's ride id; legacy rows get a stable hash
// of the identifying fields so re-imports upsert instead of duplicating
func (m *CSVMapper) tripID(row []string, started, ended, startStation, endStation, bikeID string) string {
	if id := m.col(row, "ride id"); id != "" {
		return id
	}
	if started == "" && ended == "" && bikeID == "" {
		return ""
	}
	sum := sha1.Sum([]byte(started + "|" + ended + "|" + startStation + "|" + endStation + "|" + bikeID))
	return hex.EncodeToString(sum[:])
}

// duration prefers the elapsed time between the row's own timestamps;
// the legacy tripduration column is the fallback when either timestamp
// is unusable
func (m *CSVMapper) duration(row []string, started, ended string) string {
	s, errS := contracts.ParseTripTime(contracts.FlexValue(started))
	e, errE := contracts.ParseTripTime(contracts.FlexValue(ended))
	if errS == nil && errE == nil {
		return strconv.FormatInt(int64(e.Sub(s).Seconds()), 10)
	}
	return m.col(row, "tripduration", "duration")
}

// riderAge derives age from the legacy birth year column; modern
// archives carry no rider demographics so the field stays empty
func (m *CSVMapper) riderAge(row []string, started string) string {
	birthYear, err := strconv.Atoi(m.col(row, "birth year"))
	if err != nil {
		return ""
	}

	start, err := contracts.ParseTripTime(contracts.FlexValue(started))
	if err != nil {
		return ""
	}
	return strconv.Itoa(start.Year() - birthYear)
}

// normalizeMemberCasual folds legacy usertype labels into the modern
// member/casual vocabulary; unknown labels pass through untouched
func normalizeMemberCasual(value string) string {
	switch strings.ToLower(value) {
	case "member", "subscriber", "registered":
		return "member"
	case "casual", "customer", "non-member":
		return "casual"
	default:
		return value
	}
}
