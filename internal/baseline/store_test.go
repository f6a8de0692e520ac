package baseline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansense/smart-city-platform/internal/cache"
)

type fakeSource struct {
	values []float64
	err    error
	calls  int
}

func (f *fakeSource) RecentValues(sensorID string, limit int) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.values) {
		return f.values[:limit], nil
	}
	return f.values, nil
}

func newTestStore(t *testing.T, src *fakeSource) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewStore(src, c, 1000, 100, time.Minute)
}

func TestComputeEmptyHistory(t *testing.T) {
	stats := Compute("s1", nil, 100)
	assert.Equal(t, 0.0, stats.Mean)
	assert.Equal(t, 1.0, stats.StdDev)
	assert.Equal(t, 0.0, stats.Q1)
	assert.Equal(t, 0.0, stats.Q3)
	assert.Equal(t, 0.0, stats.MovingAvg)
	assert.Zero(t, stats.SampleCount)
}

func TestComputeStats(t *testing.T) {
	stats := Compute("s1", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 100)
	assert.InDelta(t, 5.0, stats.Mean, 1e-9)
	assert.InDelta(t, 2.0, stats.StdDev, 1e-9) // population stddev
	assert.Equal(t, 8, stats.SampleCount)
	assert.InDelta(t, 4.0, stats.Q1, 1e-9)
	assert.InDelta(t, 5.5, stats.Q3, 1e-9)
}

func TestComputeMovingAvgUsesNewestOnly(t *testing.T) {
	// Values are newest-first; window 2 covers only 10 and 20.
	stats := Compute("s1", []float64{10, 20, 100, 100, 100}, 2)
	assert.InDelta(t, 15.0, stats.MovingAvg, 1e-9)
	assert.InDelta(t, 66.0, stats.Mean, 1e-9)
}

func TestGetCachesResult(t *testing.T) {
	src := &fakeSource{values: []float64{1, 2, 3}}
	store := newTestStore(t, src)
	ctx := context.Background()

	first, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	second, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls, "second Get must be served from cache")
	assert.Equal(t, first.Mean, second.Mean)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	src := &fakeSource{values: []float64{1, 2, 3}}
	store := newTestStore(t, src)
	ctx := context.Background()

	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, store.Invalidate(ctx, "s1"))

	src.values = []float64{100, 100, 100}
	stats, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.InDelta(t, 100.0, stats.Mean, 1e-9)
}

func TestGetSourceFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	store := newTestStore(t, src)

	_, err := store.Get(context.Background(), "s1")
	assert.Error(t, err)
}

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 3.25, quantile(sorted, 0.75), 1e-9)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-9)
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.75))
}
