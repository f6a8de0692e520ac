// Package scenario applies scripted, time-bounded perturbations to the
// sensor fleet and injects synthetic incidents on a timeline.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/events"
	"github.com/urbansense/smart-city-platform/internal/simulator"
)

var (
	ErrScenarioActive   = errors.New("a scenario is already active")
	ErrNoActiveScenario = errors.New("no active scenario")
	ErrUnknownScenario  = errors.New("unknown scenario")
)

// Anomaly probability is doubled while a scenario runs, capped here.
const maxAnomalyProb = 0.3

// IncidentCreator injects a synthetic incident from a template.
type IncidentCreator interface {
	CreateScenarioIncident(tpl domain.ScheduledIncident) (*domain.Incident, error)
}

type snapshot struct {
	baseValue   float64
	anomalyProb float64
}

// Orchestrator owns the single global active-scenario slot. Trigger
// fails without side effects while one is running; stop (manual or
// auto-expiry) executes the restore logic exactly once.
type Orchestrator struct {
	registry  *simulator.Registry
	incidents IncidentCreator
	publisher events.Publisher
	catalog   []domain.Scenario

	mu        sync.Mutex
	active    *domain.ActiveScenario
	snapshots map[string]snapshot
	timers    []*time.Timer
}

func NewOrchestrator(registry *simulator.Registry, incidents IncidentCreator, publisher events.Publisher, catalog []domain.Scenario) *Orchestrator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if catalog == nil {
		catalog = Catalog()
	}
	return &Orchestrator{
		registry:  registry,
		incidents: incidents,
		publisher: publisher,
		catalog:   catalog,
	}
}

// List returns the available scenario definitions.
func (o *Orchestrator) List() []domain.Scenario {
	return o.catalog
}

func (o *Orchestrator) Get(id string) *domain.Scenario {
	for i := range o.catalog {
		if o.catalog[i].ID == id {
			return &o.catalog[i]
		}
	}
	return nil
}

// Active returns the running scenario state, or nil.
func (o *Orchestrator) Active() *domain.ActiveScenario {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil
	}
	copied := *o.active
	return &copied
}

// Trigger starts the scenario: snapshots every matched sensor's
// pre-modifier config on first touch, applies the modifiers, doubles
// the anomaly probability once per scenario (capped), and schedules
// the synthetic incidents plus the auto-stop.
func (o *Orchestrator) Trigger(id string) (*domain.ActiveScenario, error) {
	sc := o.Get(id)
	if sc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, id)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return nil, ErrScenarioActive
	}

	o.snapshots = make(map[string]snapshot)
	for _, sensor := range o.registry.All() {
		for _, mod := range sc.Modifiers {
			if !mod.Matches(sensor) {
				continue
			}
			mod := mod
			// Base-value ops compound across matching modifiers; the
			// probability doubling happens once per scenario, on the
			// sensor's first touch.
			_, seen := o.snapshots[sensor.ID]
			prev, ok := o.registry.MutateConfig(sensor.ID, func(cfg *domain.SimConfig) {
				cfg.BaseValue = mod.Apply(cfg.BaseValue)
				if !seen {
					cfg.AnomalyProb = math.Min(cfg.AnomalyProb*2, maxAnomalyProb)
				}
			})
			if !ok {
				continue
			}
			if !seen {
				o.snapshots[sensor.ID] = snapshot{
					baseValue:   prev.BaseValue,
					anomalyProb: prev.AnomalyProb,
				}
			}
		}
	}

	now := time.Now()
	o.active = &domain.ActiveScenario{
		Scenario:  sc,
		StartedAt: now,
		EndsAt:    now.Add(sc.Duration),
	}

	// Each scheduled incident is independent: one failing never
	// cancels the others.
	for _, tpl := range sc.Incidents {
		tpl := tpl
		o.timers = append(o.timers, time.AfterFunc(tpl.Delay, func() {
			o.injectIncident(tpl)
		}))
	}
	o.timers = append(o.timers, time.AfterFunc(sc.Duration, func() {
		if err := o.stop(true); err != nil && !errors.Is(err, ErrNoActiveScenario) {
			log.Error().Err(err).Str("scenario_id", sc.ID).Msg("scenario auto-stop failed")
		}
	}))

	o.publisher.Broadcast("scenario:started", o.active)
	log.Info().Str("scenario_id", sc.ID).Int("sensors_modified", len(o.snapshots)).Msg("scenario triggered")

	copied := *o.active
	return &copied, nil
}

// Stop ends the active scenario and restores all modified sensors.
func (o *Orchestrator) Stop() error {
	return o.stop(false)
}

func (o *Orchestrator) stop(expired bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		// Manual stop raced with natural expiry (or vice versa);
		// the other side already restored everything.
		return ErrNoActiveScenario
	}

	for _, t := range o.timers {
		t.Stop()
	}
	o.timers = nil

	for sensorID, snap := range o.snapshots {
		o.registry.MutateConfig(sensorID, func(cfg *domain.SimConfig) {
			cfg.BaseValue = snap.baseValue
			cfg.AnomalyProb = snap.anomalyProb
		})
	}
	restored := len(o.snapshots)
	o.snapshots = nil

	scenarioID := o.active.Scenario.ID
	o.active = nil

	o.publisher.Broadcast("scenario:stopped", map[string]interface{}{
		"scenarioId": scenarioID,
		"expired":    expired,
	})
	log.Info().Str("scenario_id", scenarioID).Bool("expired", expired).Int("sensors_restored", restored).Msg("scenario stopped")
	return nil
}

func (o *Orchestrator) injectIncident(tpl domain.ScheduledIncident) {
	inc, err := o.incidents.CreateScenarioIncident(tpl)
	if err != nil {
		log.Error().Err(err).Str("category", string(tpl.Category)).Msg("scheduled incident creation failed")
		return
	}
	o.mu.Lock()
	if o.active != nil {
		o.active.Triggered = append(o.active.Triggered, inc.ID)
	}
	o.mu.Unlock()
}
