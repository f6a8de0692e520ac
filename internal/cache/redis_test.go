package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "a", Value: 1.5}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k1", &got))
	assert.Equal(t, payload{Name: "a", Value: 1.5}, got)
}

func TestGetMiss(t *testing.T) {
	c, _ := newTestCache(t)
	var got payload
	assert.ErrorIs(t, c.Get(context.Background(), "absent", &got), ErrMiss)
}

func TestTTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "a"}, time.Second))
	mr.FastForward(2 * time.Second)

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "k1", &got), ErrMiss)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", payload{}, time.Minute))
	require.NoError(t, c.Invalidate(ctx, "k1"))

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "k1", &got), ErrMiss)
}

func TestInvalidatePattern(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "baseline:sensor:a", payload{}, time.Minute))
	require.NoError(t, c.Set(ctx, "baseline:sensor:b", payload{}, time.Minute))
	require.NoError(t, c.Set(ctx, "other:key", payload{}, time.Minute))

	require.NoError(t, c.InvalidatePattern(ctx, "baseline:sensor:*"))

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "baseline:sensor:a", &got), ErrMiss)
	assert.ErrorIs(t, c.Get(ctx, "baseline:sensor:b", &got), ErrMiss)
	assert.NoError(t, c.Get(ctx, "other:key", &got))
}
