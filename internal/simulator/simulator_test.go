package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

func testSensor(id string, cfg domain.SimConfig) *domain.Sensor {
	return &domain.Sensor{
		ID:     id,
		Name:   "Test " + id,
		Type:   domain.SensorTraffic,
		ZoneID: "zone-1",
		Config: cfg,
		Active: true,
	}
}

func TestGenerateClampInvariant(t *testing.T) {
	registry := NewRegistry()
	sensor := testSensor("t1", domain.SimConfig{
		BaseValue:   50,
		Unit:        "%",
		NoiseStdDev: 40, // noise wide enough to overshoot without the clamp
		MinValue:    0,
		MaxValue:    100,
		AnomalyProb: 0.5,
	})
	registry.Load([]*domain.Sensor{sensor})
	sim := NewWithSeed(registry, 1)

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 2000; i++ {
		rd := sim.Generate(sensor, at.Add(time.Duration(i)*time.Second))
		require.GreaterOrEqual(t, rd.Value, 0.0)
		require.LessOrEqual(t, rd.Value, 100.0)
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	cfg := domain.SimConfig{BaseValue: 50, NoiseStdDev: 5, MinValue: 0, MaxValue: 100, AnomalyProb: 0.1}
	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	values := func() []float64 {
		registry := NewRegistry()
		sensor := testSensor("t1", cfg)
		registry.Load([]*domain.Sensor{sensor})
		sim := NewWithSeed(registry, 42)
		out := make([]float64, 50)
		for i := range out {
			out[i] = sim.Generate(sensor, at).Value
		}
		return out
	}

	assert.Equal(t, values(), values())
}

func TestGenerateAnomalyInjection(t *testing.T) {
	registry := NewRegistry()
	sensor := testSensor("t1", domain.SimConfig{
		BaseValue: 50, MinValue: 0, MaxValue: 1000, AnomalyProb: 1.0,
	})
	registry.Load([]*domain.Sensor{sensor})
	sim := NewWithSeed(registry, 7)

	rd := sim.Generate(sensor, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	assert.True(t, rd.IsAnomaly)
	assert.Equal(t, domain.SensorWarning, registry.Status("t1"))
}

func TestGenerateZeroProbNeverAnomalous(t *testing.T) {
	registry := NewRegistry()
	sensor := testSensor("t1", domain.SimConfig{
		BaseValue: 50, NoiseStdDev: 5, MinValue: 0, MaxValue: 100, AnomalyProb: 0,
	})
	registry.Load([]*domain.Sensor{sensor})
	sim := NewWithSeed(registry, 3)

	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		assert.False(t, sim.Generate(sensor, at).IsAnomaly)
	}
}

func TestGenerateTracksLastReading(t *testing.T) {
	registry := NewRegistry()
	sensor := testSensor("t1", domain.SimConfig{BaseValue: 50, MinValue: 0, MaxValue: 100})
	registry.Load([]*domain.Sensor{sensor})
	sim := NewWithSeed(registry, 5)

	rd := sim.Generate(sensor, time.Now())
	last := registry.LastReading("t1")
	require.NotNil(t, last)
	assert.Equal(t, rd.ID, last.ID)
}

func TestPatternMultiplierTrafficPeaks(t *testing.T) {
	weekday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // Monday rush hour
	night := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

	peak := patternMultiplier(domain.SensorTraffic, weekday)
	quiet := patternMultiplier(domain.SensorTraffic, night)
	assert.Greater(t, peak, 1.0)
	assert.Less(t, quiet, 0.5)
}

func TestPatternMultiplierLightInvertsDay(t *testing.T) {
	night := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	noon := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.Greater(t, patternMultiplier(domain.SensorLight, night), patternMultiplier(domain.SensorLight, noon))
}

func TestStatusForThresholdProximity(t *testing.T) {
	cfg := domain.SimConfig{MinValue: 0, MaxValue: 100, WarningThreshold: 80}

	online := &domain.Reading{Value: 50}
	warning := &domain.Reading{Value: 73} // >= 80*0.9
	assert.Equal(t, domain.SensorOnline, statusFor(online, cfg))
	assert.Equal(t, domain.SensorWarning, statusFor(warning, cfg))
}

func TestRegistryMutateConfigReturnsPrevious(t *testing.T) {
	registry := NewRegistry()
	registry.Load([]*domain.Sensor{testSensor("t1", domain.SimConfig{BaseValue: 10, AnomalyProb: 0.05})})

	prev, ok := registry.MutateConfig("t1", func(cfg *domain.SimConfig) {
		cfg.BaseValue = 25
	})
	require.True(t, ok)
	assert.Equal(t, 10.0, prev.BaseValue)
	assert.Equal(t, 25.0, registry.Get("t1").Config.BaseValue)

	_, ok = registry.MutateConfig("missing", func(*domain.SimConfig) {})
	assert.False(t, ok)
}
