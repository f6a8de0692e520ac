package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/events"
	"github.com/urbansense/smart-city-platform/internal/repository"
	"github.com/urbansense/smart-city-platform/internal/scoring"
	"github.com/urbansense/smart-city-platform/internal/simulator"
)

type IncidentService struct {
	repos     *repository.Repos
	registry  *simulator.Registry
	scorer    *scoring.Engine
	publisher events.Publisher
}

// CreateRequest is a manual incident submission.
type CreateRequest struct {
	Category    domain.IncidentCategory `json:"category"`
	Severity    domain.Severity         `json:"severity"`
	Location    domain.Point            `json:"location"`
	ZoneID      string                  `json:"zoneId"`
	Description string                  `json:"description"`
}

func (s *IncidentService) Get(id string) (*domain.Incident, error) {
	return s.repos.Incidents.GetByID(id)
}

func (s *IncidentService) List(f repository.ListFilter) ([]*domain.Incident, error) {
	return s.repos.Incidents.List(f)
}

// Create persists a manually reported incident, scores it, and
// broadcasts it.
func (s *IncidentService) Create(req CreateRequest) (*domain.Incident, error) {
	if req.Category == "" || req.Severity == "" {
		return nil, fmt.Errorf("category and severity are required")
	}
	inc := &domain.Incident{
		ID:               uuid.NewString(),
		Category:         req.Category,
		Severity:         req.Severity,
		Status:           domain.IncidentActive,
		Confidence:       1.0, // human-reported
		Location:         req.Location,
		ZoneID:           req.ZoneID,
		Description:      req.Description,
		DetectionMethods: []string{"manual"},
		DetectedAt:       time.Now(),
	}
	return s.persistAndScore(inc)
}

// CreateScenarioIncident injects a synthetic incident from a scenario
// template. Without an explicit location it borrows the location of a
// sensor matching the category, keeping the map plausible.
func (s *IncidentService) CreateScenarioIncident(tpl domain.ScheduledIncident) (*domain.Incident, error) {
	location := domain.Point{}
	zoneID := tpl.ZoneID
	if tpl.Location != nil {
		location = *tpl.Location
	} else if sensor := s.sensorForCategory(tpl.Category); sensor != nil {
		location = sensor.Location
		if zoneID == "" {
			zoneID = sensor.ZoneID
		}
	}
	inc := &domain.Incident{
		ID:               uuid.NewString(),
		Category:         tpl.Category,
		Severity:         tpl.Severity,
		Status:           domain.IncidentActive,
		Confidence:       1.0, // scripted
		Location:         location,
		ZoneID:           zoneID,
		Description:      tpl.Description,
		DetectionMethods: []string{"scenario"},
		DetectedAt:       time.Now(),
	}
	return s.persistAndScore(inc)
}

func (s *IncidentService) persistAndScore(inc *domain.Incident) (*domain.Incident, error) {
	score, breakdown := s.scorer.Score(inc)
	if err := s.repos.Incidents.CreateScored(inc, score, breakdown); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	s.publisher.Broadcast("incident:new", inc)
	return inc, nil
}

func (s *IncidentService) sensorForCategory(cat domain.IncidentCategory) *domain.Sensor {
	for _, sensor := range s.registry.All() {
		if domain.CategoryForSensor(sensor.Type) == cat {
			return sensor
		}
	}
	return nil
}

func (s *IncidentService) UpdateDescription(id, description string) error {
	return s.repos.Incidents.UpdateDescription(id, description)
}

// Resolve marks an active incident RESOLVED.
func (s *IncidentService) Resolve(id string) error {
	return s.close(id, domain.IncidentResolved)
}

// Dismiss marks an active incident DISMISSED.
func (s *IncidentService) Dismiss(id string) error {
	return s.close(id, domain.IncidentDismissed)
}

func (s *IncidentService) close(id string, status domain.IncidentStatus) error {
	inc, err := s.repos.Incidents.GetByID(id)
	if err != nil {
		return err
	}
	if inc == nil {
		return fmt.Errorf("incident %s not found", id)
	}
	if inc.Status.Terminal() {
		return fmt.Errorf("incident %s already %s", id, inc.Status)
	}
	var resolvedAt *time.Time
	if status == domain.IncidentResolved {
		now := time.Now()
		resolvedAt = &now
	}
	if err := s.repos.Incidents.SetStatus(id, status, resolvedAt); err != nil {
		return err
	}
	s.publisher.Broadcast("incident:"+string(status), map[string]interface{}{"incidentId": id})
	return nil
}

// Delete hard-removes an incident. Administrative action only.
func (s *IncidentService) Delete(id string) error {
	return s.repos.Incidents.Delete(id)
}

func (s *IncidentService) CountsBySeverity() (map[domain.Severity]int, error) {
	return s.repos.Incidents.CountsBySeverity()
}
