// Package geo has the small amount of spherical geometry the platform
// needs: great-circle distance between sensor, incident, and unit
// coordinates.
package geo

import (
	"math"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

const earthRadiusM = 6371000.0

// DistanceM returns the haversine distance between two points in meters.
func DistanceM(a, b domain.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// DistanceKM returns the haversine distance in kilometers.
func DistanceKM(a, b domain.Point) float64 {
	return DistanceM(a, b) / 1000.0
}
