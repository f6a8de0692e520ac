package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

type ReadingRepository struct {
	db *sqlx.DB
}

func NewReadingRepository(db *sqlx.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// BatchInsert writes one flush batch in a single multi-row statement.
func (r *ReadingRepository) BatchInsert(readings []*domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	values := make([]string, 0, len(readings))
	args := make([]interface{}, 0, len(readings)*6)
	for i, rd := range readings {
		base := i * 6
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, rd.ID, rd.SensorID, rd.Timestamp, rd.Value, rd.Unit, rd.IsAnomaly)
	}
	query := `INSERT INTO readings(id, sensor_id, timestamp, value, unit, is_anomaly) VALUES ` +
		strings.Join(values, ",")
	_, err := r.db.Exec(query, args...)
	return err
}

// Recent returns up to limit readings for a sensor, newest first.
func (r *ReadingRepository) Recent(sensorID string, limit int) ([]*domain.Reading, error) {
	var out []*domain.Reading
	err := r.db.Select(&out, `SELECT id, sensor_id, timestamp, value, unit, is_anomaly
		FROM readings WHERE sensor_id = $1 ORDER BY timestamp DESC LIMIT $2`,
		sensorID, limit)
	return out, err
}

// Range returns readings for a sensor within [from, to], oldest first.
func (r *ReadingRepository) Range(sensorID string, from, to time.Time) ([]*domain.Reading, error) {
	var out []*domain.Reading
	err := r.db.Select(&out, `SELECT id, sensor_id, timestamp, value, unit, is_anomaly
		FROM readings WHERE sensor_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp`, sensorID, from, to)
	return out, err
}

// RecentValues returns the newest limit values only, newest first.
// The baseline store calls this on every cache miss, so it avoids
// scanning full rows.
func (r *ReadingRepository) RecentValues(sensorID string, limit int) ([]float64, error) {
	var out []float64
	err := r.db.Select(&out, `SELECT value FROM readings
		WHERE sensor_id = $1 ORDER BY timestamp DESC LIMIT $2`, sensorID, limit)
	return out, err
}
