package service

import (
	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/scenario"
)

type ScenarioService struct {
	orchestrator *scenario.Orchestrator
}

// NewScenarioService exists for the two-phase wiring in cmd binaries:
// the scenario orchestrator needs the incident service, which is built
// by New, so the scenario slot is bound after both exist.
func NewScenarioService(o *scenario.Orchestrator) *ScenarioService {
	return &ScenarioService{orchestrator: o}
}

func (s *ScenarioService) List() []domain.Scenario {
	return s.orchestrator.List()
}

func (s *ScenarioService) Get(id string) *domain.Scenario {
	return s.orchestrator.Get(id)
}

func (s *ScenarioService) Active() *domain.ActiveScenario {
	return s.orchestrator.Active()
}

func (s *ScenarioService) Trigger(id string) (*domain.ActiveScenario, error) {
	return s.orchestrator.Trigger(id)
}

func (s *ScenarioService) Stop() error {
	return s.orchestrator.Stop()
}
