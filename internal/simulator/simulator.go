// Package simulator generates plausible sensor readings and schedules
// their production across the active sensor fleet.
package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

// Simulator produces one reading per invocation for a sensor
// configuration and tracks per-sensor status as a side effect.
type Simulator struct {
	registry *Registry

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(registry *Registry) *Simulator {
	return NewWithSeed(registry, time.Now().UnixNano())
}

// NewWithSeed pins the noise source, for reproducible runs and tests.
func NewWithSeed(registry *Registry, seed int64) *Simulator {
	return &Simulator{
		registry: registry,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Generate builds a reading for the sensor at the given instant:
// base value, time-of-day curve, Gaussian noise, clamp, optional
// synthetic anomaly, 2-decimal rounding. Never fails.
func (s *Simulator) Generate(sensor *domain.Sensor, at time.Time) *domain.Reading {
	cfg := sensor.Config

	value := cfg.BaseValue * patternMultiplier(sensor.Type, at)
	value += s.gaussian() * cfg.NoiseStdDev
	value = clamp(value, cfg.MinValue, cfg.MaxValue)

	isAnomaly := false
	if s.chance(cfg.AnomalyProb) {
		factor := 1.5 + s.uniform()*1.5 // 1.5x-3.0x
		if s.chance(0.5) {
			value *= factor // spike
		} else {
			value /= factor // drop
		}
		value = clamp(value, cfg.MinValue, cfg.MaxValue)
		isAnomaly = true
	}

	value = math.Round(value*100) / 100

	reading := &domain.Reading{
		ID:        uuid.NewString(),
		SensorID:  sensor.ID,
		Timestamp: at,
		Value:     value,
		Unit:      cfg.Unit,
		IsAnomaly: isAnomaly,
	}

	s.registry.SetLastReading(reading)
	s.registry.SetStatus(sensor.ID, statusFor(reading, cfg))
	return reading
}

// statusFor flags a sensor as warning when its reading is anomalous or
// sits within 10% of a threshold bound.
func statusFor(rd *domain.Reading, cfg domain.SimConfig) domain.SensorStatus {
	if rd.IsAnomaly {
		return domain.SensorWarning
	}
	if cfg.WarningThreshold > 0 && rd.Value >= cfg.WarningThreshold*0.9 {
		return domain.SensorWarning
	}
	span := cfg.MaxValue - cfg.MinValue
	if span > 0 && rd.Value <= cfg.MinValue+span*0.1 {
		return domain.SensorWarning
	}
	return domain.SensorOnline
}

func clamp(v, min, max float64) float64 {
	if max > min {
		if v < min {
			return min
		}
		if v > max {
			return max
		}
	}
	return v
}

// gaussian draws a standard-normal sample via Box-Muller.
func (s *Simulator) gaussian() float64 {
	s.rngMu.Lock()
	u1 := s.rng.Float64()
	u2 := s.rng.Float64()
	s.rngMu.Unlock()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func (s *Simulator) uniform() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *Simulator) chance(p float64) bool {
	if p <= 0 {
		return false
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < p
}
