package domain

import "time"

type SensorType string

const (
	SensorWaste       SensorType = "WASTE"
	SensorLight       SensorType = "LIGHT"
	SensorWater       SensorType = "WATER"
	SensorTraffic     SensorType = "TRAFFIC"
	SensorEnvironment SensorType = "ENVIRONMENT"
	SensorNoise       SensorType = "NOISE"
)

type SensorStatus string

const (
	SensorOnline  SensorStatus = "online"
	SensorWarning SensorStatus = "warning"
	SensorOffline SensorStatus = "offline"
)

// Point is a WGS84 coordinate pair (lon/lat, GeoJSON order).
type Point struct {
	Lon float64 `db:"lon" json:"lon"`
	Lat float64 `db:"lat" json:"lat"`
}

// SimConfig is the per-sensor simulation tuning. Mutable at runtime
// (scenario modifiers, manual tuning); thresholds feed both clamping
// and incident detection.
type SimConfig struct {
	BaseValue         float64       `db:"base_value" json:"baseValue"`
	Unit              string        `db:"unit" json:"unit"`
	NoiseStdDev       float64       `db:"noise_std_dev" json:"noiseStdDev"`
	Interval          time.Duration `db:"interval_ms" json:"intervalMs"`
	AnomalyProb       float64       `db:"anomaly_prob" json:"anomalyProbability"`
	MinValue          float64       `db:"min_value" json:"minValue"`
	MaxValue          float64       `db:"max_value" json:"maxValue"`
	WarningThreshold  float64       `db:"warning_threshold" json:"warningThreshold"`
	CriticalThreshold float64       `db:"critical_threshold" json:"criticalThreshold"`
}

type Sensor struct {
	ID       string     `db:"id" json:"id"`
	Name     string     `db:"name" json:"name"`
	Type     SensorType `db:"type" json:"type"`
	Location Point      `db:"location" json:"location"`
	ZoneID   string     `db:"zone_id" json:"zoneId"`
	Config   SimConfig  `json:"config"`
	Active   bool       `db:"active" json:"active"`
}

// Reading is immutable once produced; persisted in batches.
type Reading struct {
	ID        string    `db:"id" json:"id"`
	SensorID  string    `db:"sensor_id" json:"sensorId"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Value     float64   `db:"value" json:"value"`
	Unit      string    `db:"unit" json:"unit"`
	IsAnomaly bool      `db:"is_anomaly" json:"isAnomaly"`
}

// BaselineStats is the rolling statistical summary of a sensor's
// recent history, the "normal" reference for anomaly detection.
type BaselineStats struct {
	SensorID    string    `json:"sensorId"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"stdDev"`
	Q1          float64   `json:"q1"`
	Q3          float64   `json:"q3"`
	MovingAvg   float64   `json:"movingAvg"`
	SampleCount int       `json:"sampleCount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
