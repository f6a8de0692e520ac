package workorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

func seededPool() *UnitPool {
	p := NewUnitPool()
	p.Add(
		domain.FieldUnit{ID: "u-near", Location: domain.Point{Lon: -0.120, Lat: 51.500}, Available: true},
		domain.FieldUnit{ID: "u-far", Location: domain.Point{Lon: -0.200, Lat: 51.560}, Available: true},
		domain.FieldUnit{ID: "u-zone", Location: domain.Point{Lon: -0.150, Lat: 51.530}, ZoneID: "zone-9", Available: true},
	)
	return p
}

func TestClaimPicksNearest(t *testing.T) {
	p := seededPool()
	at := domain.Point{Lon: -0.121, Lat: 51.501}

	unit, err := p.Claim(at, "")
	require.NoError(t, err)
	assert.Equal(t, "u-near", unit.ID)
	assert.False(t, p.Get("u-near").Available)
}

func TestClaimPrefersZoneAffinity(t *testing.T) {
	p := seededPool()
	// u-near is closer, but u-zone serves the incident's zone.
	unit, err := p.Claim(domain.Point{Lon: -0.121, Lat: 51.501}, "zone-9")
	require.NoError(t, err)
	assert.Equal(t, "u-zone", unit.ID)
}

func TestClaimExhaustion(t *testing.T) {
	p := seededPool()
	at := domain.Point{Lon: -0.12, Lat: 51.50}

	for i := 0; i < 3; i++ {
		_, err := p.Claim(at, "")
		require.NoError(t, err)
	}
	_, err := p.Claim(at, "")
	assert.ErrorIs(t, err, ErrNoUnitAvailable)
}

func TestClaimConcurrentNoDoubleBooking(t *testing.T) {
	p := seededPool()
	at := domain.Point{Lon: -0.12, Lat: 51.50}

	claimed := make(chan string, 10)
	for i := 0; i < 10; i++ {
		go func() {
			unit, err := p.Claim(at, "")
			if err != nil {
				claimed <- ""
				return
			}
			claimed <- unit.ID
		}()
	}

	seen := make(map[string]int)
	for i := 0; i < 10; i++ {
		if id := <-claimed; id != "" {
			seen[id]++
		}
	}
	assert.Len(t, seen, 3)
	for id, n := range seen {
		assert.Equal(t, 1, n, "unit %s claimed twice", id)
	}
}

func TestReleaseMakesUnitClaimableAgain(t *testing.T) {
	p := seededPool()
	at := domain.Point{Lon: -0.121, Lat: 51.501}

	unit, err := p.Claim(at, "")
	require.NoError(t, err)
	p.Release(unit.ID)

	again, err := p.Claim(at, "")
	require.NoError(t, err)
	assert.Equal(t, unit.ID, again.ID)
}

func TestClaimByID(t *testing.T) {
	p := seededPool()

	unit, err := p.ClaimByID("u-far")
	require.NoError(t, err)
	assert.Equal(t, "u-far", unit.ID)

	_, err = p.ClaimByID("u-far")
	assert.ErrorIs(t, err, ErrNoUnitAvailable)

	_, err = p.ClaimByID("ghost")
	assert.ErrorIs(t, err, ErrNoUnitAvailable)
}

func TestAllReturnsCopies(t *testing.T) {
	p := seededPool()
	all := p.All()
	require.Len(t, all, 3)

	all[0].Available = false
	available := 0
	for _, u := range p.All() {
		if u.Available {
			available++
		}
	}
	assert.Equal(t, 3, available)
}
