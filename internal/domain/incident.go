package domain

import "time"

type IncidentCategory string

const (
	CategoryWasteOverflow       IncidentCategory = "WASTE_OVERFLOW"
	CategoryLightingFailure     IncidentCategory = "LIGHTING_FAILURE"
	CategoryWaterAnomaly        IncidentCategory = "WATER_ANOMALY"
	CategoryTrafficCongestion   IncidentCategory = "TRAFFIC_CONGESTION"
	CategoryEnvironmentalHazard IncidentCategory = "ENVIRONMENTAL_HAZARD"
	CategoryNoiseComplaint      IncidentCategory = "NOISE_COMPLAINT"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

type IncidentStatus string

const (
	IncidentActive    IncidentStatus = "ACTIVE"
	IncidentResolved  IncidentStatus = "RESOLVED"
	IncidentDismissed IncidentStatus = "DISMISSED"
)

// ScoreBreakdown carries the five weighted priority factors. Persisted
// alongside the incident so the score can be explained after the fact.
type ScoreBreakdown struct {
	Severity          float64 `json:"severity"`
	Urgency           float64 `json:"urgency"`
	PublicImpact      float64 `json:"publicImpact"`
	EnvironmentalCost float64 `json:"environmentalCost"`
	SafetyRisk        float64 `json:"safetyRisk"`
}

type Incident struct {
	ID            string           `db:"id" json:"id"`
	Category      IncidentCategory `db:"category" json:"category"`
	Severity      Severity         `db:"severity" json:"severity"`
	Status        IncidentStatus   `db:"status" json:"status"`
	PriorityScore int              `db:"priority_score" json:"priorityScore"`
	Confidence    float64          `db:"confidence" json:"confidence"`
	Location      Point            `db:"location" json:"location"`
	ZoneID        string           `db:"zone_id" json:"zoneId"`
	SensorID      *string          `db:"sensor_id" json:"sensorId,omitempty"`
	Description   string           `db:"description" json:"description"`
	Breakdown     ScoreBreakdown   `json:"scoringBreakdown"`
	// DetectionMethods records which checks fired: "threshold",
	// "zscore", "iqr", "moving_avg", or "manual"/"scenario".
	DetectionMethods []string   `json:"detectionMethods"`
	DetectedAt       time.Time  `db:"detected_at" json:"detectedAt"`
	ResolvedAt       *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// Terminal reports whether no further status changes are allowed.
func (s IncidentStatus) Terminal() bool {
	return s == IncidentResolved || s == IncidentDismissed
}

// CategoryForSensor is the fixed 1:1 sensor-type to incident-category table.
func CategoryForSensor(t SensorType) IncidentCategory {
	switch t {
	case SensorWaste:
		return CategoryWasteOverflow
	case SensorLight:
		return CategoryLightingFailure
	case SensorWater:
		return CategoryWaterAnomaly
	case SensorTraffic:
		return CategoryTrafficCongestion
	case SensorEnvironment:
		return CategoryEnvironmentalHazard
	default:
		return CategoryNoiseComplaint
	}
}
