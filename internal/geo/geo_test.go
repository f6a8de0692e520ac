package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

func TestDistanceM(t *testing.T) {
	// Trafalgar Square to St Paul's, roughly 2.3 km.
	a := domain.Point{Lon: -0.1281, Lat: 51.5080}
	b := domain.Point{Lon: -0.0983, Lat: 51.5138}

	d := DistanceM(a, b)
	assert.InDelta(t, 2160, d, 100)
	assert.Equal(t, d/1000, DistanceKM(a, b))
}

func TestDistanceMZero(t *testing.T) {
	p := domain.Point{Lon: -0.1281, Lat: 51.5080}
	assert.Zero(t, DistanceM(p, p))
}

func TestDistanceMSymmetric(t *testing.T) {
	a := domain.Point{Lon: -0.12, Lat: 51.50}
	b := domain.Point{Lon: -0.11, Lat: 51.51}
	assert.InDelta(t, DistanceM(a, b), DistanceM(b, a), 1e-9)
}

func TestDistanceMSmallOffsets(t *testing.T) {
	// ~1 degree latitude is ~111 km.
	a := domain.Point{Lon: 0, Lat: 0}
	b := domain.Point{Lon: 0, Lat: 1}
	assert.InDelta(t, 111195, DistanceM(a, b), 50)
}
