package simulator

import (
	"sync"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

// Registry is the in-memory source of truth for live sensor
// configuration and status. All runtime mutation (manual tuning,
// scenario modifiers) goes through its methods.
type Registry struct {
	mu      sync.RWMutex
	sensors map[string]*domain.Sensor
	status  map[string]domain.SensorStatus
	last    map[string]*domain.Reading
}

func NewRegistry() *Registry {
	return &Registry{
		sensors: make(map[string]*domain.Sensor),
		status:  make(map[string]domain.SensorStatus),
		last:    make(map[string]*domain.Reading),
	}
}

// Load replaces the registry contents with sensors from storage.
func (r *Registry) Load(sensors []*domain.Sensor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sensors {
		copied := *s
		r.sensors[s.ID] = &copied
		if _, ok := r.status[s.ID]; !ok {
			r.status[s.ID] = domain.SensorOffline
		}
	}
}

// Get returns a copy of the sensor, or nil if unknown.
func (r *Registry) Get(id string) *domain.Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sensors[id]
	if !ok {
		return nil
	}
	copied := *s
	return &copied
}

func (r *Registry) All() []*domain.Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Sensor, 0, len(r.sensors))
	for _, s := range r.sensors {
		copied := *s
		out = append(out, &copied)
	}
	return out
}

// UpdateConfig swaps in a new simulation config for the sensor.
func (r *Registry) UpdateConfig(id string, cfg domain.SimConfig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sensors[id]
	if !ok {
		return false
	}
	s.Config = cfg
	return true
}

// MutateConfig applies fn to the sensor's config under the registry
// lock and returns the previous config. Scenario modifiers use this
// for their snapshot-then-apply step.
func (r *Registry) MutateConfig(id string, fn func(*domain.SimConfig)) (domain.SimConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sensors[id]
	if !ok {
		return domain.SimConfig{}, false
	}
	prev := s.Config
	fn(&s.Config)
	return prev, true
}

func (r *Registry) SetStatus(id string, st domain.SensorStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[id] = st
}

func (r *Registry) Status(id string) domain.SensorStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.status[id]
	if !ok {
		return domain.SensorOffline
	}
	return st
}

func (r *Registry) SetLastReading(rd *domain.Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[rd.SensorID] = rd
}

func (r *Registry) LastReading(sensorID string) *domain.Reading {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last[sensorID]
}
