// Package workorder drives the synthetic work-order lifecycle: unit
// dispatch, simulated travel and work, and resolution of the linked
// incident.
package workorder

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/events"
	"github.com/urbansense/smart-city-platform/internal/geo"
)

// Per-category base work durations, jittered ±30% at simulation time.
var workBase = map[domain.IncidentCategory]time.Duration{
	domain.CategoryWasteOverflow:       30 * time.Minute,
	domain.CategoryLightingFailure:     45 * time.Minute,
	domain.CategoryWaterAnomaly:        90 * time.Minute,
	domain.CategoryTrafficCongestion:   25 * time.Minute,
	domain.CategoryEnvironmentalHazard: 60 * time.Minute,
	domain.CategoryNoiseComplaint:      15 * time.Minute,
}

type OrderStore interface {
	GetByID(id string) (*domain.WorkOrder, error)
	Save(wo *domain.WorkOrder) error
}

type IncidentSource interface {
	GetByID(id string) (*domain.Incident, error)
	SetStatus(id string, status domain.IncidentStatus, resolvedAt *time.Time) error
}

// Simulator runs each active order's lifecycle as an independent
// goroutine. Cancelling one order never affects others.
type Simulator struct {
	orders    OrderStore
	incidents IncidentSource
	pool      *UnitPool
	publisher events.Publisher

	speedKMH float64
	// compression divides simulated durations so demo runs resolve in
	// real seconds rather than hours.
	compression float64

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.Mutex
	active map[string]chan struct{}
	wg     sync.WaitGroup
}

func NewSimulator(orders OrderStore, incidents IncidentSource, pool *UnitPool, publisher events.Publisher, speedKMH, compression float64) *Simulator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if compression <= 0 {
		compression = 1
	}
	return &Simulator{
		orders:      orders,
		incidents:   incidents,
		pool:        pool,
		publisher:   publisher,
		speedKMH:    speedKMH,
		compression: compression,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		active:      make(map[string]chan struct{}),
	}
}

// Start launches the travel and work phases. A CREATED order claims
// the nearest available unit and moves to ASSIGNED before Start
// returns; an order already ASSIGNED to a unit keeps that unit and
// goes straight to the travel phase. The rest of the lifecycle runs
// asynchronously.
func (s *Simulator) Start(orderID string) error {
	wo, err := s.orders.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("load work order: %w", err)
	}
	if wo == nil {
		return fmt.Errorf("work order %s not found", orderID)
	}
	switch wo.Status {
	case domain.OrderCreated, domain.OrderAssigned:
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, wo.Status, domain.OrderInProgress)
	}
	if wo.Status == domain.OrderAssigned && wo.AssignedUnit == nil {
		return fmt.Errorf("work order %s is ASSIGNED without a unit", orderID)
	}

	s.mu.Lock()
	if _, running := s.active[orderID]; running {
		s.mu.Unlock()
		return nil
	}
	cancel := make(chan struct{})
	s.active[orderID] = cancel
	s.mu.Unlock()

	var unit *domain.FieldUnit
	claimed := false
	if wo.Status == domain.OrderAssigned {
		// Manual assignment already claimed the unit.
		unit = s.pool.Get(*wo.AssignedUnit)
		if unit == nil {
			s.forget(orderID)
			return fmt.Errorf("assigned unit %s not found", *wo.AssignedUnit)
		}
	} else {
		unit, err = s.pool.Claim(wo.Location, wo.ZoneID)
		if err != nil {
			s.forget(orderID)
			log.Warn().Str("order_id", orderID).Msg("no field unit available, simulation aborted")
			return err
		}
		claimed = true
		if err := Transition(wo, domain.OrderAssigned); err != nil {
			s.pool.Release(unit.ID)
			s.forget(orderID)
			return err
		}
		wo.AssignedUnit = &unit.ID
	}

	travel := s.travelDuration(unit.Location, wo.Location)
	work := s.workDuration(wo)
	wo.EstimatedDur = travel + work
	done := time.Now().Add(s.compress(travel + work))
	wo.EstimatedDone = &done

	if err := s.orders.Save(wo); err != nil {
		if claimed {
			s.pool.Release(unit.ID)
		}
		s.forget(orderID)
		return fmt.Errorf("save assignment: %w", err)
	}
	s.emit(wo)
	log.Info().
		Str("order_id", wo.ID).
		Str("unit_id", unit.ID).
		Dur("travel", travel).
		Dur("work", work).
		Msg("work order assigned")

	s.wg.Add(1)
	go s.lifecycle(wo, unit.ID, travel, work, cancel)
	return nil
}

func (s *Simulator) lifecycle(wo *domain.WorkOrder, unitID string, travel, work time.Duration, cancel chan struct{}) {
	defer s.wg.Done()
	defer s.forget(wo.ID)

	if !s.sleep(s.compress(travel), cancel) {
		return
	}
	if !s.commit(wo, cancel, domain.OrderInProgress, func(at time.Time) { wo.StartedAt = &at }) {
		return
	}
	s.emit(wo)

	if !s.sleep(s.compress(work), cancel) {
		return
	}
	if !s.commit(wo, cancel, domain.OrderCompleted, func(at time.Time) { wo.CompletedAt = &at }) {
		return
	}
	s.pool.Release(unitID)
	s.resolveIncident(wo)
	s.emit(wo)
	log.Info().Str("order_id", wo.ID).Msg("work order completed")
}

// commit advances the order one phase unless cancellation already
// landed. Cancel closes the channel while holding the same lock, so a
// cancellation arriving between a sleep and the following save can
// never be overwritten by the phase save.
func (s *Simulator) commit(wo *domain.WorkOrder, cancel chan struct{}, next domain.WorkOrderStatus, stamp func(time.Time)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-cancel:
		return false
	default:
	}
	if err := Transition(wo, next); err != nil {
		log.Error().Err(err).Str("order_id", wo.ID).Str("status", string(next)).Msg("phase transition failed")
		return false
	}
	stamp(time.Now())
	if err := s.orders.Save(wo); err != nil {
		log.Error().Err(err).Str("order_id", wo.ID).Str("status", string(next)).Msg("phase save failed")
	}
	return true
}

// Cancel clears the order's pending timer and moves it to CANCELLED
// from any non-terminal state. The linked incident is untouched.
func (s *Simulator) Cancel(orderID string) error {
	wo, err := s.orders.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("load work order: %w", err)
	}
	if wo == nil {
		return fmt.Errorf("work order %s not found", orderID)
	}
	if err := Transition(wo, domain.OrderCancelled); err != nil {
		return err
	}

	s.mu.Lock()
	if cancel, ok := s.active[orderID]; ok {
		close(cancel)
		delete(s.active, orderID)
	}
	s.mu.Unlock()

	if wo.AssignedUnit != nil {
		s.pool.Release(*wo.AssignedUnit)
	}
	if err := s.orders.Save(wo); err != nil {
		return fmt.Errorf("save cancellation: %w", err)
	}
	s.emit(wo)
	log.Info().Str("order_id", orderID).Msg("work order cancelled")
	return nil
}

// Shutdown stops all in-flight lifecycles without transitioning them.
func (s *Simulator) Shutdown() {
	s.mu.Lock()
	for id, cancel := range s.active {
		close(cancel)
		delete(s.active, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Simulator) resolveIncident(wo *domain.WorkOrder) {
	now := time.Now()
	if err := s.incidents.SetStatus(wo.IncidentID, domain.IncidentResolved, &now); err != nil {
		log.Error().Err(err).Str("incident_id", wo.IncidentID).Msg("incident resolution failed")
		return
	}
	s.publisher.Broadcast("incident:resolved", map[string]interface{}{
		"incidentId": wo.IncidentID,
		"orderId":    wo.ID,
		"resolvedAt": now,
	})
}

// travelDuration is distance/speed jittered ±20%.
func (s *Simulator) travelDuration(from, to domain.Point) time.Duration {
	distKM := geo.DistanceKM(from, to)
	hours := distKM / s.speedKMH
	return time.Duration(float64(time.Hour) * hours * s.jitter(0.2))
}

// workDuration is the category base jittered ±30%.
func (s *Simulator) workDuration(wo *domain.WorkOrder) time.Duration {
	base := 30 * time.Minute
	inc, err := s.incidents.GetByID(wo.IncidentID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", wo.ID).Msg("incident lookup failed, using default work duration")
	} else if inc != nil {
		if d, ok := workBase[inc.Category]; ok {
			base = d
		}
	}
	return time.Duration(float64(base) * s.jitter(0.3))
}

// jitter draws a uniform factor in [1-spread, 1+spread].
func (s *Simulator) jitter(spread float64) float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return 1 - spread + 2*spread*s.rng.Float64()
}

func (s *Simulator) compress(d time.Duration) time.Duration {
	return time.Duration(float64(d) / s.compression)
}

// sleep waits the duration unless cancelled; false means cancelled.
func (s *Simulator) sleep(d time.Duration, cancel chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-cancel:
		return false
	}
}

func (s *Simulator) forget(orderID string) {
	s.mu.Lock()
	delete(s.active, orderID)
	s.mu.Unlock()
}

func (s *Simulator) emit(wo *domain.WorkOrder) {
	s.publisher.Broadcast("workorder:update", wo)
	s.publisher.BroadcastToRoom("zone:"+wo.ZoneID, "workorder:update", wo)
}
