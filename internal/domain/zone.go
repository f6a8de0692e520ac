package domain

type ZoneType string

const (
	ZoneResidential ZoneType = "RESIDENTIAL"
	ZoneCommercial  ZoneType = "COMMERCIAL"
	ZoneIndustrial  ZoneType = "INDUSTRIAL"
	ZonePark        ZoneType = "PARK"
)

// Zone is static reference data consumed by priority scoring.
type Zone struct {
	ID         string   `db:"id" json:"id"`
	Name       string   `db:"name" json:"name"`
	Type       ZoneType `db:"type" json:"type"`
	Boundary   []Point  `json:"boundary"`
	Population int      `db:"population" json:"population"`
}
