package domain

import "time"

// ModifierOp is the tagged operation a scenario applies to a sensor's
// base value. Scenarios are data-driven: no executable code is stored.
type ModifierOp string

const (
	OpMultiply ModifierOp = "multiply"
	OpAdd      ModifierOp = "add"
	OpSet      ModifierOp = "set"
)

// SensorModifier matches sensors by id, type, or zone (first non-empty
// criterion wins) and rewrites their base value.
type SensorModifier struct {
	SensorID   string     `json:"sensorId,omitempty"`
	SensorType SensorType `json:"sensorType,omitempty"`
	ZoneID     string     `json:"zoneId,omitempty"`
	Op         ModifierOp `json:"op"`
	Operand    float64    `json:"operand"`
}

// Matches reports whether the modifier applies to the given sensor.
func (m SensorModifier) Matches(s *Sensor) bool {
	if m.SensorID != "" {
		return m.SensorID == s.ID
	}
	if m.SensorType != "" {
		return m.SensorType == s.Type
	}
	if m.ZoneID != "" {
		return m.ZoneID == s.ZoneID
	}
	return false
}

// Apply returns the modified base value.
func (m SensorModifier) Apply(v float64) float64 {
	switch m.Op {
	case OpMultiply:
		return v * m.Operand
	case OpAdd:
		return v + m.Operand
	case OpSet:
		return m.Operand
	default:
		return v
	}
}

// ScheduledIncident is a synthetic incident template injected at a
// fixed delay from scenario start.
type ScheduledIncident struct {
	Delay       time.Duration    `json:"delay"`
	Category    IncidentCategory `json:"category"`
	Severity    Severity         `json:"severity"`
	Description string           `json:"description"`
	Location    *Point           `json:"location,omitempty"`
	ZoneID      string           `json:"zoneId,omitempty"`
}

// Scenario is a scripted, time-bounded demonstration sequence.
type Scenario struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Duration    time.Duration       `json:"duration"`
	Modifiers   []SensorModifier    `json:"modifiers"`
	Incidents   []ScheduledIncident `json:"incidents"`
}

// ActiveScenario is the single global running-scenario state.
type ActiveScenario struct {
	Scenario  *Scenario `json:"scenario"`
	StartedAt time.Time `json:"startedAt"`
	EndsAt    time.Time `json:"endsAt"`
	Triggered []string  `json:"triggeredIncidents"`
}
