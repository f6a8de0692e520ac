package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/events"
	"github.com/urbansense/smart-city-platform/internal/repository"
	"github.com/urbansense/smart-city-platform/internal/workorder"
)

type WorkOrderService struct {
	repos     *repository.Repos
	units     *workorder.UnitPool
	sim       *workorder.Simulator
	publisher events.Publisher
}

// CreateForIncident opens a work order responding to an active
// incident. Priority is inherited from the incident's score.
func (s *WorkOrderService) CreateForIncident(incidentID, title, description string) (*domain.WorkOrder, error) {
	if incidentID == "" {
		return nil, fmt.Errorf("incident id is required")
	}
	inc, err := s.repos.Incidents.GetByID(incidentID)
	if err != nil {
		return nil, err
	}
	if inc == nil {
		return nil, fmt.Errorf("incident %s not found", incidentID)
	}
	if inc.Status != domain.IncidentActive {
		return nil, fmt.Errorf("incident %s is %s, not ACTIVE", incidentID, inc.Status)
	}
	if title == "" {
		title = fmt.Sprintf("Respond to %s", inc.Category)
	}
	wo := &domain.WorkOrder{
		ID:          uuid.NewString(),
		IncidentID:  incidentID,
		Title:       title,
		Description: description,
		Status:      domain.OrderCreated,
		Priority:    inc.PriorityScore,
		Location:    inc.Location,
		ZoneID:      inc.ZoneID,
		CreatedAt:   time.Now(),
	}
	if err := s.repos.WorkOrders.Create(wo); err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}
	s.publisher.Broadcast("workorder:new", wo)
	return wo, nil
}

func (s *WorkOrderService) Get(id string) (*domain.WorkOrder, error) {
	return s.repos.WorkOrders.GetByID(id)
}

func (s *WorkOrderService) List(f repository.WorkOrderFilter) ([]*domain.WorkOrder, error) {
	return s.repos.WorkOrders.List(f)
}

// UpdateStatus applies a caller-requested transition, validated by the
// state machine. A rejected transition leaves the stored status as is.
func (s *WorkOrderService) UpdateStatus(id string, target domain.WorkOrderStatus) error {
	wo, err := s.repos.WorkOrders.GetByID(id)
	if err != nil {
		return err
	}
	if wo == nil {
		return fmt.Errorf("work order %s not found", id)
	}
	if err := workorder.Transition(wo, target); err != nil {
		return err
	}
	switch target {
	case domain.OrderInProgress:
		now := time.Now()
		wo.StartedAt = &now
	case domain.OrderCompleted:
		now := time.Now()
		wo.CompletedAt = &now
		if wo.AssignedUnit != nil {
			s.units.Release(*wo.AssignedUnit)
		}
	case domain.OrderCancelled:
		if wo.AssignedUnit != nil {
			s.units.Release(*wo.AssignedUnit)
		}
	}
	if err := s.repos.WorkOrders.Save(wo); err != nil {
		return err
	}
	s.publisher.Broadcast("workorder:update", wo)
	return nil
}

// Assign attaches a specific available unit to a CREATED order.
func (s *WorkOrderService) Assign(id, unitID string) error {
	wo, err := s.repos.WorkOrders.GetByID(id)
	if err != nil {
		return err
	}
	if wo == nil {
		return fmt.Errorf("work order %s not found", id)
	}
	unit := s.units.Get(unitID)
	if unit == nil {
		return fmt.Errorf("field unit %s not found", unitID)
	}
	if !unit.Available {
		return fmt.Errorf("field unit %s is not available", unitID)
	}
	if err := workorder.Transition(wo, domain.OrderAssigned); err != nil {
		return err
	}
	claimed, err := s.units.ClaimByID(unitID)
	if err != nil {
		return err
	}
	wo.AssignedUnit = &claimed.ID
	if err := s.repos.WorkOrders.Save(wo); err != nil {
		s.units.Release(claimed.ID)
		return err
	}
	s.publisher.Broadcast("workorder:update", wo)
	return nil
}

// StartSimulation hands the order to the lifecycle simulator.
func (s *WorkOrderService) StartSimulation(id string) error {
	return s.sim.Start(id)
}

func (s *WorkOrderService) CancelSimulation(id string) error {
	return s.sim.Cancel(id)
}

func (s *WorkOrderService) CountsByStatus() (map[domain.WorkOrderStatus]int, error) {
	return s.repos.WorkOrders.CountsByStatus()
}

func (s *WorkOrderService) Units() []domain.FieldUnit {
	return s.units.All()
}
