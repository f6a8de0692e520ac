// Package service exposes the operations consumed by collaborators
// (the HTTP layer, the ingestor) and wires the pipeline components.
package service

import (
	"github.com/urbansense/smart-city-platform/internal/events"
	"github.com/urbansense/smart-city-platform/internal/incident"
	"github.com/urbansense/smart-city-platform/internal/repository"
	"github.com/urbansense/smart-city-platform/internal/scenario"
	"github.com/urbansense/smart-city-platform/internal/scoring"
	"github.com/urbansense/smart-city-platform/internal/simulator"
	"github.com/urbansense/smart-city-platform/internal/workorder"
)

type Services struct {
	Sensors    *SensorService
	Incidents  *IncidentService
	WorkOrders *WorkOrderService
	Scenarios  *ScenarioService
}

// Deps carries the constructed pipeline components. The cmd binaries
// build them once and pass a single owned instance through here; no
// package-level singletons.
type Deps struct {
	Repos        *repository.Repos
	Registry     *simulator.Registry
	Orchestrator *simulator.Orchestrator
	Detector     *incident.Detector
	Scorer       *scoring.Engine
	Units        *workorder.UnitPool
	OrderSim     *workorder.Simulator
	Scenarios    *scenario.Orchestrator
	Publisher    events.Publisher
}

func New(d Deps) *Services {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	return &Services{
		Sensors: &SensorService{
			repos:        d.Repos,
			registry:     d.Registry,
			orchestrator: d.Orchestrator,
		},
		Incidents: &IncidentService{
			repos:     d.Repos,
			registry:  d.Registry,
			scorer:    d.Scorer,
			publisher: d.Publisher,
		},
		WorkOrders: &WorkOrderService{
			repos:     d.Repos,
			units:     d.Units,
			sim:       d.OrderSim,
			publisher: d.Publisher,
		},
		Scenarios: &ScenarioService{orchestrator: d.Scenarios},
	}
}
