package incident

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

func TestThresholdsForSensorOverride(t *testing.T) {
	s := &domain.Sensor{
		Type:   domain.SensorTraffic,
		Config: domain.SimConfig{WarningThreshold: 60, CriticalThreshold: 80},
	}
	th := thresholdsFor(s)
	assert.Equal(t, 60.0, th.Warning)
	assert.Equal(t, 80.0, th.Critical)

	// Unset overrides fall back to the per-type defaults.
	s.Config = domain.SimConfig{}
	th = thresholdsFor(s)
	assert.Equal(t, 70.0, th.Warning)
	assert.Equal(t, 90.0, th.Critical)
}

func TestViolated(t *testing.T) {
	th := Thresholds{Warning: 70, Critical: 90}
	assert.False(t, th.violated(89.9))
	assert.True(t, th.violated(90))
	assert.True(t, th.violated(120))

	// A defined minimum makes low readings a breach too (dead streetlight).
	low := 5.0
	th.Min = &low
	assert.True(t, th.violated(5))
	assert.True(t, th.violated(2))
	assert.False(t, th.violated(40))
}

func TestSeverityFor(t *testing.T) {
	th := Thresholds{Warning: 70, Critical: 90}

	assert.Equal(t, domain.SeverityLow, th.severityFor(50))
	assert.Equal(t, domain.SeverityMedium, th.severityFor(70))
	assert.Equal(t, domain.SeverityMedium, th.severityFor(83))
	assert.Equal(t, domain.SeverityHigh, th.severityFor(84)) // 70*1.2
	assert.Equal(t, domain.SeverityCritical, th.severityFor(90))

	low := 1.0
	th.Min = &low
	assert.Equal(t, domain.SeverityCritical, th.severityFor(0.5))
}
