package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

type IncidentRepository struct {
	db *sqlx.DB
}

func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

type incidentRow struct {
	ID            string          `db:"id"`
	Category      string          `db:"category"`
	Severity      string          `db:"severity"`
	Status        string          `db:"status"`
	PriorityScore int             `db:"priority_score"`
	Confidence    float64         `db:"confidence"`
	Lon           float64         `db:"lon"`
	Lat           float64         `db:"lat"`
	ZoneID        string          `db:"zone_id"`
	SensorID      *string         `db:"sensor_id"`
	Description   string          `db:"description"`
	Breakdown     json.RawMessage `db:"breakdown"`
	Methods       json.RawMessage `db:"detection_methods"`
	DetectedAt    time.Time       `db:"detected_at"`
	ResolvedAt    *time.Time      `db:"resolved_at"`
}

func (r incidentRow) toDomain() (*domain.Incident, error) {
	inc := &domain.Incident{
		ID:            r.ID,
		Category:      domain.IncidentCategory(r.Category),
		Severity:      domain.Severity(r.Severity),
		Status:        domain.IncidentStatus(r.Status),
		PriorityScore: r.PriorityScore,
		Confidence:    r.Confidence,
		Location:      domain.Point{Lon: r.Lon, Lat: r.Lat},
		ZoneID:        r.ZoneID,
		SensorID:      r.SensorID,
		Description:   r.Description,
		DetectedAt:    r.DetectedAt,
		ResolvedAt:    r.ResolvedAt,
	}
	if len(r.Breakdown) > 0 {
		if err := json.Unmarshal(r.Breakdown, &inc.Breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
	}
	if len(r.Methods) > 0 {
		if err := json.Unmarshal(r.Methods, &inc.DetectionMethods); err != nil {
			return nil, fmt.Errorf("decode detection methods: %w", err)
		}
	}
	return inc, nil
}

const incidentColumns = `id, category, severity, status, priority_score, confidence,
	lon, lat, zone_id, sensor_id, description, breakdown, detection_methods,
	detected_at, resolved_at`

// BeginTx opens a transaction for multi-step writes (create + score).
func (r *IncidentRepository) BeginTx() (*sqlx.Tx, error) {
	return r.db.Beginx()
}

// Create inserts via the repo's own connection.
func (r *IncidentRepository) Create(inc *domain.Incident) error {
	return r.CreateTx(r.db, inc)
}

// CreateTx inserts via a caller-supplied executor (tx passthrough).
func (r *IncidentRepository) CreateTx(q sqlx.Ext, inc *domain.Incident) error {
	breakdown, err := json.Marshal(inc.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	methods, err := json.Marshal(inc.DetectionMethods)
	if err != nil {
		return fmt.Errorf("encode detection methods: %w", err)
	}
	_, err = q.Exec(`INSERT INTO incidents(`+incidentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		inc.ID, inc.Category, inc.Severity, inc.Status, inc.PriorityScore,
		inc.Confidence, inc.Location.Lon, inc.Location.Lat, inc.ZoneID,
		inc.SensorID, inc.Description, breakdown, methods, inc.DetectedAt, inc.ResolvedAt)
	return err
}

func (r *IncidentRepository) GetByID(id string) (*domain.Incident, error) {
	var row incidentRow
	err := r.db.Get(&row, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// ListFilter narrows and orders incident listings.
type ListFilter struct {
	Status      domain.IncidentStatus
	Severity    domain.Severity
	Category    domain.IncidentCategory
	ZoneID      string
	MinPriority *int
	MaxPriority *int
	From        *time.Time
	To          *time.Time
	SortBy      string // "detected_at" (default) or "priority_score"
	Descending  bool
	Limit       int
	Offset      int
}

func (r *IncidentRepository) List(f ListFilter) ([]*domain.Incident, error) {
	var conds []string
	var args []interface{}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Severity != "" {
		add("severity = $%d", f.Severity)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.ZoneID != "" {
		add("zone_id = $%d", f.ZoneID)
	}
	if f.MinPriority != nil {
		add("priority_score >= $%d", *f.MinPriority)
	}
	if f.MaxPriority != nil {
		add("priority_score <= $%d", *f.MaxPriority)
	}
	if f.From != nil {
		add("detected_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("detected_at <= $%d", *f.To)
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	sortBy := "detected_at"
	if f.SortBy == "priority_score" {
		sortBy = "priority_score"
	}
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, dir)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []incidentRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*domain.Incident, 0, len(rows))
	for _, row := range rows {
		inc, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, nil
}

// FindNearbyActive returns ACTIVE incidents within radiusM meters of p
// detected after since. The haversine runs in SQL so dedup does not
// pull the whole active set.
func (r *IncidentRepository) FindNearbyActive(p domain.Point, radiusM float64, since time.Time) ([]*domain.Incident, error) {
	var rows []incidentRow
	err := r.db.Select(&rows, `SELECT `+incidentColumns+` FROM incidents
		WHERE status = 'ACTIVE' AND detected_at >= $3
		  AND 2 * 6371000 * asin(sqrt(
			pow(sin(radians(lat - $2) / 2), 2) +
			cos(radians($2)) * cos(radians(lat)) *
			pow(sin(radians(lon - $1) / 2), 2))) <= $4`,
		p.Lon, p.Lat, since, radiusM)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Incident, 0, len(rows))
	for _, row := range rows {
		inc, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, nil
}

// UpdateScore fills the priority score and breakdown computed after creation.
func (r *IncidentRepository) UpdateScore(id string, score int, breakdown domain.ScoreBreakdown) error {
	return r.UpdateScoreTx(r.db, id, score, breakdown)
}

func (r *IncidentRepository) UpdateScoreTx(q sqlx.Ext, id string, score int, breakdown domain.ScoreBreakdown) error {
	b, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	res, err := q.Exec(`UPDATE incidents SET priority_score=$2, breakdown=$3 WHERE id=$1`, id, score, b)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateScored inserts the incident and fills its computed priority in
// one transaction, so listings never observe the placeholder score.
func (r *IncidentRepository) CreateScored(inc *domain.Incident, score int, breakdown domain.ScoreBreakdown) error {
	tx, err := r.BeginTx()
	if err != nil {
		return err
	}
	if err := r.CreateTx(tx, inc); err != nil {
		tx.Rollback()
		return err
	}
	if err := r.UpdateScoreTx(tx, inc.ID, score, breakdown); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	inc.PriorityScore = score
	inc.Breakdown = breakdown
	return nil
}

// SetStatus moves an incident to the given status; RESOLVED also
// stamps resolved_at.
func (r *IncidentRepository) SetStatus(id string, status domain.IncidentStatus, resolvedAt *time.Time) error {
	res, err := r.db.Exec(`UPDATE incidents SET status=$2, resolved_at=$3 WHERE id=$1`,
		id, status, resolvedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *IncidentRepository) UpdateDescription(id, description string) error {
	res, err := r.db.Exec(`UPDATE incidents SET description=$2 WHERE id=$1`, id, description)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete hard-removes an incident (explicit administrative action only).
func (r *IncidentRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM incidents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *IncidentRepository) CountsBySeverity() (map[domain.Severity]int, error) {
	rows := []struct {
		Severity string `db:"severity"`
		Count    int    `db:"count"`
	}{}
	err := r.db.Select(&rows, `SELECT severity, COUNT(*) AS count FROM incidents
		WHERE status = 'ACTIVE' GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Severity]int, len(rows))
	for _, row := range rows {
		out[domain.Severity(row.Severity)] = row.Count
	}
	return out, nil
}
