package incident

import "github.com/urbansense/smart-city-platform/internal/domain"

// Thresholds are the fixed per-sensor-type detection boundaries. A
// sensor's own configured thresholds take precedence when set; these
// defaults cover sensors seeded without them.
type Thresholds struct {
	Warning  float64
	Critical float64
	Min      *float64 // breach when value <= Min, if defined
}

func f(v float64) *float64 { return &v }

var defaultThresholds = map[domain.SensorType]Thresholds{
	domain.SensorWaste:       {Warning: 75, Critical: 90},
	domain.SensorLight:       {Warning: 30, Critical: 15, Min: f(5)}, // lumen output: low is the failure
	domain.SensorWater:       {Warning: 6.0, Critical: 8.0, Min: f(1.0)},
	domain.SensorTraffic:     {Warning: 70, Critical: 90},
	domain.SensorEnvironment: {Warning: 35, Critical: 42},
	domain.SensorNoise:       {Warning: 70, Critical: 85},
}

// thresholdsFor resolves the effective thresholds for a sensor.
func thresholdsFor(s *domain.Sensor) Thresholds {
	t := defaultThresholds[s.Type]
	if s.Config.WarningThreshold > 0 {
		t.Warning = s.Config.WarningThreshold
	}
	if s.Config.CriticalThreshold > 0 {
		t.Critical = s.Config.CriticalThreshold
	}
	return t
}

// violated reports a rule-based breach: at/above critical, or at/below
// the minimum when one is defined.
func (t Thresholds) violated(value float64) bool {
	if value >= t.Critical {
		return true
	}
	if t.Min != nil && value <= *t.Min {
		return true
	}
	return false
}

// severityFor maps a value to incident severity against the thresholds.
func (t Thresholds) severityFor(value float64) domain.Severity {
	if value >= t.Critical {
		return domain.SeverityCritical
	}
	if t.Min != nil && value <= *t.Min {
		return domain.SeverityCritical
	}
	if value >= t.Warning*1.2 {
		return domain.SeverityHigh
	}
	if value >= t.Warning {
		return domain.SeverityMedium
	}
	return domain.SeverityLow
}
