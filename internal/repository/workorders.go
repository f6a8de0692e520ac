package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

type WorkOrderRepository struct {
	db *sqlx.DB
}

func NewWorkOrderRepository(db *sqlx.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

type workOrderRow struct {
	ID            string     `db:"id"`
	IncidentID    string     `db:"incident_id"`
	Title         string     `db:"title"`
	Description   string     `db:"description"`
	Status        string     `db:"status"`
	Priority      int        `db:"priority"`
	AssignedUnit  *string    `db:"assigned_unit"`
	Lon           float64    `db:"lon"`
	Lat           float64    `db:"lat"`
	ZoneID        string     `db:"zone_id"`
	EstimatedMS   int64      `db:"estimated_ms"`
	EstimatedDone *time.Time `db:"estimated_done"`
	StartedAt     *time.Time `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

func (r workOrderRow) toDomain() *domain.WorkOrder {
	return &domain.WorkOrder{
		ID:            r.ID,
		IncidentID:    r.IncidentID,
		Title:         r.Title,
		Description:   r.Description,
		Status:        domain.WorkOrderStatus(r.Status),
		Priority:      r.Priority,
		AssignedUnit:  r.AssignedUnit,
		Location:      domain.Point{Lon: r.Lon, Lat: r.Lat},
		ZoneID:        r.ZoneID,
		EstimatedDur:  time.Duration(r.EstimatedMS) * time.Millisecond,
		EstimatedDone: r.EstimatedDone,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		CreatedAt:     r.CreatedAt,
	}
}

const workOrderColumns = `id, incident_id, title, description, status, priority,
	assigned_unit, lon, lat, zone_id, estimated_ms, estimated_done,
	started_at, completed_at, created_at`

func (r *WorkOrderRepository) Create(wo *domain.WorkOrder) error {
	_, err := r.db.Exec(`INSERT INTO work_orders(`+workOrderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		wo.ID, wo.IncidentID, wo.Title, wo.Description, wo.Status, wo.Priority,
		wo.AssignedUnit, wo.Location.Lon, wo.Location.Lat, wo.ZoneID,
		wo.EstimatedDur.Milliseconds(), wo.EstimatedDone, wo.StartedAt,
		wo.CompletedAt, wo.CreatedAt)
	return err
}

func (r *WorkOrderRepository) GetByID(id string) (*domain.WorkOrder, error) {
	var row workOrderRow
	err := r.db.Get(&row, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

type WorkOrderFilter struct {
	Status     domain.WorkOrderStatus
	IncidentID string
	ZoneID     string
	Limit      int
	Offset     int
}

func (r *WorkOrderRepository) List(f WorkOrderFilter) ([]*domain.WorkOrder, error) {
	var conds []string
	var args []interface{}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.IncidentID != "" {
		add("incident_id = $%d", f.IncidentID)
	}
	if f.ZoneID != "" {
		add("zone_id = $%d", f.ZoneID)
	}
	query := `SELECT ` + workOrderColumns + ` FROM work_orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	var rows []workOrderRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*domain.WorkOrder, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Save persists the mutable lifecycle fields after a state transition.
func (r *WorkOrderRepository) Save(wo *domain.WorkOrder) error {
	res, err := r.db.Exec(`UPDATE work_orders SET status=$2, assigned_unit=$3,
		estimated_ms=$4, estimated_done=$5, started_at=$6, completed_at=$7
		WHERE id=$1`,
		wo.ID, wo.Status, wo.AssignedUnit, wo.EstimatedDur.Milliseconds(),
		wo.EstimatedDone, wo.StartedAt, wo.CompletedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WorkOrderRepository) CountsByStatus() (map[domain.WorkOrderStatus]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	err := r.db.Select(&rows, `SELECT status, COUNT(*) AS count FROM work_orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.WorkOrderStatus]int, len(rows))
	for _, row := range rows {
		out[domain.WorkOrderStatus(row.Status)] = row.Count
	}
	return out, nil
}
