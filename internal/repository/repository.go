// Package repository implements the persistence contract on PostgreSQL
// via sqlx. Lookups return (nil, nil) when the row does not exist;
// mutations that assume existence return ErrNotFound.
package repository

import (
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("not found")

type Repos struct {
	Sensors    *SensorRepository
	Readings   *ReadingRepository
	Incidents  *IncidentRepository
	WorkOrders *WorkOrderRepository
	Zones      *ZoneRepository
}

func New(db *sqlx.DB) *Repos {
	return &Repos{
		Sensors:    NewSensorRepository(db),
		Readings:   NewReadingRepository(db),
		Incidents:  NewIncidentRepository(db),
		WorkOrders: NewWorkOrderRepository(db),
		Zones:      NewZoneRepository(db),
	}
}
