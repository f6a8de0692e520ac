package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/repository"
	"github.com/urbansense/smart-city-platform/internal/simulator"
)

type SensorService struct {
	repos        *repository.Repos
	registry     *simulator.Registry
	orchestrator *simulator.Orchestrator
}

// SensorView is a sensor with its live simulation status attached.
type SensorView struct {
	domain.Sensor
	Status  domain.SensorStatus `json:"status"`
	Running bool                `json:"running"`
}

func (s *SensorService) Get(id string) *SensorView {
	sensor := s.registry.Get(id)
	if sensor == nil {
		return nil
	}
	return &SensorView{
		Sensor:  *sensor,
		Status:  s.registry.Status(id),
		Running: s.orchestrator.Running(id),
	}
}

func (s *SensorService) List() []*SensorView {
	sensors := s.registry.All()
	out := make([]*SensorView, 0, len(sensors))
	for _, sensor := range sensors {
		out = append(out, &SensorView{
			Sensor:  *sensor,
			Status:  s.registry.Status(sensor.ID),
			Running: s.orchestrator.Running(sensor.ID),
		})
	}
	return out
}

// UpdateConfig applies manual tuning to the live registry and persists
// it. Persistence failure is logged but does not undo the live change.
func (s *SensorService) UpdateConfig(id string, cfg domain.SimConfig) error {
	if cfg.MaxValue <= cfg.MinValue {
		return fmt.Errorf("invalid config: max (%v) must exceed min (%v)", cfg.MaxValue, cfg.MinValue)
	}
	if cfg.AnomalyProb < 0 || cfg.AnomalyProb > 1 {
		return fmt.Errorf("invalid config: anomaly probability %v outside [0,1]", cfg.AnomalyProb)
	}
	if !s.registry.UpdateConfig(id, cfg) {
		return fmt.Errorf("sensor %s not found", id)
	}
	if err := s.repos.Sensors.UpdateConfig(id, cfg); err != nil {
		log.Error().Err(err).Str("sensor_id", id).Msg("sensor config persist failed")
	}
	return nil
}

func (s *SensorService) StartSimulation(id string) error {
	return s.orchestrator.StartSensor(id)
}

func (s *SensorService) StopSimulation(id string) {
	s.orchestrator.StopSensor(id)
}

// Readings returns a sensor's readings, optionally time-ranged.
func (s *SensorService) Readings(id string, from, to *time.Time, limit int) ([]*domain.Reading, error) {
	if from != nil || to != nil {
		start := time.Time{}
		end := time.Now()
		if from != nil {
			start = *from
		}
		if to != nil {
			end = *to
		}
		return s.repos.Readings.Range(id, start, end)
	}
	if limit <= 0 {
		limit = 100
	}
	return s.repos.Readings.Recent(id, limit)
}
