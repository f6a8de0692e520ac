package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

type SensorRepository struct {
	db *sqlx.DB
}

func NewSensorRepository(db *sqlx.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

type sensorRow struct {
	ID                string  `db:"id"`
	Name              string  `db:"name"`
	Type              string  `db:"type"`
	Lon               float64 `db:"lon"`
	Lat               float64 `db:"lat"`
	ZoneID            string  `db:"zone_id"`
	Active            bool    `db:"active"`
	BaseValue         float64 `db:"base_value"`
	Unit              string  `db:"unit"`
	NoiseStdDev       float64 `db:"noise_std_dev"`
	IntervalMS        int64   `db:"interval_ms"`
	AnomalyProb       float64 `db:"anomaly_prob"`
	MinValue          float64 `db:"min_value"`
	MaxValue          float64 `db:"max_value"`
	WarningThreshold  float64 `db:"warning_threshold"`
	CriticalThreshold float64 `db:"critical_threshold"`
}

func (r sensorRow) toDomain() *domain.Sensor {
	return &domain.Sensor{
		ID:       r.ID,
		Name:     r.Name,
		Type:     domain.SensorType(r.Type),
		Location: domain.Point{Lon: r.Lon, Lat: r.Lat},
		ZoneID:   r.ZoneID,
		Active:   r.Active,
		Config: domain.SimConfig{
			BaseValue:         r.BaseValue,
			Unit:              r.Unit,
			NoiseStdDev:       r.NoiseStdDev,
			Interval:          time.Duration(r.IntervalMS) * time.Millisecond,
			AnomalyProb:       r.AnomalyProb,
			MinValue:          r.MinValue,
			MaxValue:          r.MaxValue,
			WarningThreshold:  r.WarningThreshold,
			CriticalThreshold: r.CriticalThreshold,
		},
	}
}

const sensorColumns = `id, name, type, lon, lat, zone_id, active, base_value, unit,
	noise_std_dev, interval_ms, anomaly_prob, min_value, max_value,
	warning_threshold, critical_threshold`

func (r *SensorRepository) GetByID(id string) (*domain.Sensor, error) {
	var row sensorRow
	err := r.db.Get(&row, `SELECT `+sensorColumns+` FROM sensors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *SensorRepository) List() ([]*domain.Sensor, error) {
	var rows []sensorRow
	err := r.db.Select(&rows, `SELECT `+sensorColumns+` FROM sensors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Sensor, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SensorRepository) ListActive() ([]*domain.Sensor, error) {
	var rows []sensorRow
	err := r.db.Select(&rows, `SELECT `+sensorColumns+` FROM sensors WHERE active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Sensor, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpdateConfig persists runtime tuning changes (manual or scenario).
func (r *SensorRepository) UpdateConfig(id string, cfg domain.SimConfig) error {
	res, err := r.db.Exec(`UPDATE sensors SET base_value=$2, unit=$3, noise_std_dev=$4,
		interval_ms=$5, anomaly_prob=$6, min_value=$7, max_value=$8,
		warning_threshold=$9, critical_threshold=$10 WHERE id=$1`,
		id, cfg.BaseValue, cfg.Unit, cfg.NoiseStdDev, cfg.Interval.Milliseconds(),
		cfg.AnomalyProb, cfg.MinValue, cfg.MaxValue, cfg.WarningThreshold, cfg.CriticalThreshold)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
