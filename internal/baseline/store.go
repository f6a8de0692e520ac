// Package baseline maintains rolling per-sensor statistics used as the
// "normal" reference by anomaly detection. Stats are computed from the
// most recent readings on cache miss and cached with a short TTL.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/cache"
	"github.com/urbansense/smart-city-platform/internal/domain"
)

const keyPrefix = "baseline:sensor:"

// ReadingSource supplies the newest values for a sensor, newest first.
type ReadingSource interface {
	RecentValues(sensorID string, limit int) ([]float64, error)
}

type Store struct {
	readings     ReadingSource
	cache        cache.Cache
	window       int
	movingWindow int
	ttl          time.Duration
}

func NewStore(readings ReadingSource, c cache.Cache, window, movingWindow int, ttl time.Duration) *Store {
	return &Store{
		readings:     readings,
		cache:        c,
		window:       window,
		movingWindow: movingWindow,
		ttl:          ttl,
	}
}

// Get returns the cached stats for a sensor, recomputing from storage
// on miss. A sensor with no history gets the default baseline, which
// suppresses anomaly detection until data accumulates.
func (s *Store) Get(ctx context.Context, sensorID string) (*domain.BaselineStats, error) {
	key := keyPrefix + sensorID
	var stats domain.BaselineStats
	err := s.cache.Get(ctx, key, &stats)
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		// Cache trouble is transient; recompute from source instead
		// of failing the detection path.
		log.Warn().Err(err).Str("sensor_id", sensorID).Msg("baseline cache read failed")
	}
	return s.Refresh(ctx, sensorID)
}

// Refresh recomputes stats from storage and rewrites the cache entry.
func (s *Store) Refresh(ctx context.Context, sensorID string) (*domain.BaselineStats, error) {
	values, err := s.readings.RecentValues(sensorID, s.window)
	if err != nil {
		return nil, fmt.Errorf("load readings for %s: %w", sensorID, err)
	}
	stats := Compute(sensorID, values, s.movingWindow)
	if err := s.cache.Set(ctx, keyPrefix+sensorID, stats, s.ttl); err != nil {
		log.Warn().Err(err).Str("sensor_id", sensorID).Msg("baseline cache write failed")
	}
	return stats, nil
}

// Invalidate drops the cached entry for one sensor.
func (s *Store) Invalidate(ctx context.Context, sensorID string) error {
	return s.cache.Invalidate(ctx, keyPrefix+sensorID)
}

// InvalidateAll drops every cached baseline.
func (s *Store) InvalidateAll(ctx context.Context) error {
	return s.cache.InvalidatePattern(ctx, keyPrefix+"*")
}

// Compute derives baseline stats from a window of values (newest
// first). The moving average covers only the newest movingWindow
// values. Zero history yields the default baseline
// {mean 0, stddev 1, q1 0, q3 0, movingAvg 0}.
func Compute(sensorID string, values []float64, movingWindow int) *domain.BaselineStats {
	stats := &domain.BaselineStats{
		SensorID:  sensorID,
		StdDev:    1,
		UpdatedAt: time.Now(),
	}
	if len(values) == 0 {
		return stats
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var varianceSum float64
	for _, v := range values {
		varianceSum += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(varianceSum / float64(len(values)))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := movingWindow
	if n > len(values) {
		n = len(values)
	}
	var movingSum float64
	for _, v := range values[:n] {
		movingSum += v
	}

	stats.Mean = mean
	stats.StdDev = stdDev
	stats.Q1 = quantile(sorted, 0.25)
	stats.Q3 = quantile(sorted, 0.75)
	stats.MovingAvg = movingSum / float64(n)
	stats.SampleCount = len(values)
	return stats
}

// quantile uses linear interpolation between adjacent order statistics.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
