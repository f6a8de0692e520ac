package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

type ZoneRepository struct {
	db *sqlx.DB
}

func NewZoneRepository(db *sqlx.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

type zoneRow struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	Type       string          `db:"type"`
	Boundary   json.RawMessage `db:"boundary"`
	Population int             `db:"population"`
}

func (r zoneRow) toDomain() (*domain.Zone, error) {
	z := &domain.Zone{
		ID:         r.ID,
		Name:       r.Name,
		Type:       domain.ZoneType(r.Type),
		Population: r.Population,
	}
	if len(r.Boundary) > 0 {
		if err := json.Unmarshal(r.Boundary, &z.Boundary); err != nil {
			return nil, fmt.Errorf("decode boundary: %w", err)
		}
	}
	return z, nil
}

func (r *ZoneRepository) GetByID(id string) (*domain.Zone, error) {
	var row zoneRow
	err := r.db.Get(&row, `SELECT id, name, type, boundary, population FROM zones WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *ZoneRepository) List() ([]*domain.Zone, error) {
	var rows []zoneRow
	if err := r.db.Select(&rows, `SELECT id, name, type, boundary, population FROM zones ORDER BY id`); err != nil {
		return nil, err
	}
	out := make([]*domain.Zone, 0, len(rows))
	for _, row := range rows {
		z, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, nil
}
