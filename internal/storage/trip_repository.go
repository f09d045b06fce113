package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridedata/bikeqc/internal/contracts"
)

// TripRepository implements contracts.TripRepository on PostgreSQL.
// Trip fields are stored as text exactly as received; started_at
// carries the parsed start timestamp when one could be parsed, so
// day-range queries don't have to re-parse raw values.
type TripRepository struct {
	pool *pgxpool.Pool
}

// NewTripRepository creates a new trip repository
func NewTripRepository(pool *pgxpool.Pool) *TripRepository {
	return &TripRepository{pool: pool}
}

const tripColumns = `
	trip_id, bike_id, start_time, end_time, start_station_id, end_station_id,
	rider_age, trip_duration, bike_type, member_casual,
	quality_score, quality_issues, is_valid_quality, source, ingested_at, processed_at
`

// Save upserts a scored record; raw is the original event payload
func (r *TripRepository) Save(ctx context.Context, record *contracts.ScoredTripRecord, raw []byte) error {
	query := `
		INSERT INTO trip_records (
			trip_id, bike_id, start_time, end_time, start_station_id, end_station_id,
			rider_age, trip_duration, bike_type, member_casual,
			started_at, raw, quality_score, quality_issues, is_valid_quality,
			source, ingested_at, processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (trip_id) DO UPDATE SET
			bike_id          = EXCLUDED.bike_id,
			start_time       = EXCLUDED.start_time,
			end_time         = EXCLUDED.end_time,
			start_station_id = EXCLUDED.start_station_id,
			end_station_id   = EXCLUDED.end_station_id,
			rider_age        = EXCLUDED.rider_age,
			trip_duration    = EXCLUDED.trip_duration,
			bike_type        = EXCLUDED.bike_type,
			member_casual    = EXCLUDED.member_casual,
			started_at       = EXCLUDED.started_at,
			raw              = EXCLUDED.raw,
			quality_score    = EXCLUDED.quality_score,
			quality_issues   = EXCLUDED.quality_issues,
			is_valid_quality = EXCLUDED.is_valid_quality,
			source           = EXCLUDED.source,
			ingested_at      = EXCLUDED.ingested_at,
			processed_at     = EXCLUDED.processed_at
	`

	var startedAt *time.Time
	if t, err := contracts.ParseTripTime(record.StartTime); err == nil {
		t = t.UTC()
		startedAt = &t
	}

	_, err := r.pool.Exec(ctx, query,
		record.TripID.String(), record.BikeID.String(),
		record.StartTime.String(), record.EndTime.String(),
		record.StartStationID.String(), record.EndStationID.String(),
		record.RiderAge.String(), record.TripDuration.String(),
		record.BikeType.String(), record.MemberCasual.String(),
		startedAt, raw,
		record.QualityScore, record.QualityIssues, record.IsValidQuality,
		record.Source, record.IngestedAt, record.ProcessedAt,
	)
	return err
}

// GetByID retrieves one scored record by trip id; nil when absent
func (r *TripRepository) GetByID(ctx context.Context, tripID string) (*contracts.ScoredTripRecord, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trip_records
		WHERE trip_id = $1
	`

	rec, err := scanTrip(r.pool.QueryRow(ctx, query, tripID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListProcessedSince lists records scored at or after the given time
func (r *TripRepository) ListProcessedSince(ctx context.Context, since time.Time) ([]contracts.ScoredTripRecord, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trip_records
		WHERE processed_at >= $1
		ORDER BY processed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

// ListStartedBetween lists records whose trip start falls in [from, to)
func (r *TripRepository) ListStartedBetween(ctx context.Context, from, to time.Time) ([]contracts.ScoredTripRecord, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trip_records
		WHERE started_at >= $1 AND started_at < $2
		ORDER BY started_at ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

func scanTrip(row pgx.Row) (*contracts.ScoredTripRecord, error) {
	var rec contracts.ScoredTripRecord
	err := row.Scan(
		&rec.TripID, &rec.BikeID, &rec.StartTime, &rec.EndTime,
		&rec.StartStationID, &rec.EndStationID,
		&rec.RiderAge, &rec.TripDuration, &rec.BikeType, &rec.MemberCasual,
		&rec.QualityScore, &rec.QualityIssues, &rec.IsValidQuality,
		&rec.Source, &rec.IngestedAt, &rec.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectTrips(rows pgx.Rows) ([]contracts.ScoredTripRecord, error) {
	var records []contracts.ScoredTripRecord
	for rows.Next() {
		rec, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
