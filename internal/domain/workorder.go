package domain

import "time"

type WorkOrderStatus string

const (
	OrderCreated    WorkOrderStatus = "CREATED"
	OrderAssigned   WorkOrderStatus = "ASSIGNED"
	OrderInProgress WorkOrderStatus = "IN_PROGRESS"
	OrderCompleted  WorkOrderStatus = "COMPLETED"
	OrderCancelled  WorkOrderStatus = "CANCELLED"
)

func (s WorkOrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

type WorkOrder struct {
	ID            string          `db:"id" json:"id"`
	IncidentID    string          `db:"incident_id" json:"incidentId"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	Status        WorkOrderStatus `db:"status" json:"status"`
	Priority      int             `db:"priority" json:"priority"`
	AssignedUnit  *string         `db:"assigned_unit" json:"assignedUnit,omitempty"`
	Location      Point           `db:"location" json:"location"`
	ZoneID        string          `db:"zone_id" json:"zoneId"`
	EstimatedDur  time.Duration   `db:"estimated_duration" json:"estimatedDuration"`
	EstimatedDone *time.Time      `db:"estimated_done" json:"estimatedCompletion,omitempty"`
	StartedAt     *time.Time      `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// FieldUnit is a simulated response resource. In-memory only; its
// availability flag is toggled by the work-order simulator.
type FieldUnit struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  Point  `json:"location"`
	ZoneID    string `json:"zoneId"`
	Available bool   `json:"available"`
}
