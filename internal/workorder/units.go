package workorder

import (
	"errors"
	"sync"

	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/geo"
)

// ErrNoUnitAvailable is returned when the pool is exhausted. The
// caller aborts quietly; the order stays CREATED and can be retried.
var ErrNoUnitAvailable = errors.New("no field unit available")

// UnitPool is the in-memory field-unit registry. Claim is the single
// critical section shared by concurrent work-order simulations: the
// nearest-available scan and the unavailable mark happen under one
// lock so two orders can never claim the same unit.
type UnitPool struct {
	mu    sync.Mutex
	units map[string]*domain.FieldUnit
}

func NewUnitPool() *UnitPool {
	return &UnitPool{units: make(map[string]*domain.FieldUnit)}
}

func (p *UnitPool) Add(units ...domain.FieldUnit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range units {
		copied := u
		p.units[u.ID] = &copied
	}
}

// Claim picks the nearest available unit to the given point, preferring
// units whose zone affinity matches zoneID, and marks it unavailable.
func (p *UnitPool) Claim(at domain.Point, zoneID string) (*domain.FieldUnit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var best *domain.FieldUnit
	bestDist := 0.0
	bestZoneMatch := false
	for _, u := range p.units {
		if !u.Available {
			continue
		}
		dist := geo.DistanceM(at, u.Location)
		zoneMatch := zoneID != "" && u.ZoneID == zoneID
		switch {
		case best == nil:
		case zoneMatch && !bestZoneMatch:
		case zoneMatch == bestZoneMatch && dist < bestDist:
		default:
			continue
		}
		best = u
		bestDist = dist
		bestZoneMatch = zoneMatch
	}
	if best == nil {
		return nil, ErrNoUnitAvailable
	}
	best.Available = false
	copied := *best
	return &copied, nil
}

// ClaimByID marks a specific unit unavailable for manual assignment.
func (p *UnitPool) ClaimByID(id string) (*domain.FieldUnit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.units[id]
	if !ok || !u.Available {
		return nil, ErrNoUnitAvailable
	}
	u.Available = false
	copied := *u
	return &copied, nil
}

// Release marks a unit available again.
func (p *UnitPool) Release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.units[id]; ok {
		u.Available = true
	}
}

func (p *UnitPool) Get(id string) *domain.FieldUnit {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.units[id]
	if !ok {
		return nil
	}
	copied := *u
	return &copied
}

func (p *UnitPool) All() []domain.FieldUnit {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.FieldUnit, 0, len(p.units))
	for _, u := range p.units {
		out = append(out, *u)
	}
	return out
}
