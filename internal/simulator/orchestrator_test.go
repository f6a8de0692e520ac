package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

type captureStore struct {
	mu       sync.Mutex
	fail     bool
	inserted []*domain.Reading
	batches  int
}

func (s *captureStore) BatchInsert(readings []*domain.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("db unavailable")
	}
	s.batches++
	s.inserted = append(s.inserted, readings...)
	return nil
}

func (s *captureStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func (s *captureStore) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

type countingProcessor struct {
	mu    sync.Mutex
	count int
}

func (p *countingProcessor) ProcessReading(ctx context.Context, rd *domain.Reading) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
}

func (p *countingProcessor) processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func newTestOrchestrator(flushSize int) (*Orchestrator, *captureStore, *Registry) {
	registry := NewRegistry()
	registry.Load([]*domain.Sensor{testSensor("t1", domain.SimConfig{
		BaseValue: 50, NoiseStdDev: 2, MinValue: 0, MaxValue: 100,
		Interval: time.Hour, // ticks never fire during tests
	})})
	sim := NewWithSeed(registry, 11)
	store := &captureStore{}
	o := NewOrchestrator(sim, registry, store, nil, flushSize, time.Hour)
	return o, store, registry
}

func TestStartSensorIdempotent(t *testing.T) {
	o, store, _ := newTestOrchestrator(10)
	defer o.Shutdown(context.Background())

	require.NoError(t, o.StartSensor("t1"))
	require.NoError(t, o.StartSensor("t1"))
	require.NoError(t, o.StartSensor("t1"))

	assert.Equal(t, 1, o.RunningCount())
	assert.True(t, o.Running("t1"))

	// Only the first call produced the immediate reading.
	o.Flush(context.Background())
	assert.Equal(t, 1, store.count())
}

func TestStartSensorUnknown(t *testing.T) {
	o, _, _ := newTestOrchestrator(10)
	assert.Error(t, o.StartSensor("nope"))
}

func TestBufferFlushesAtBatchSize(t *testing.T) {
	o, store, _ := newTestOrchestrator(1)
	defer o.Shutdown(context.Background())

	require.NoError(t, o.StartSensor("t1"))
	assert.Eventually(t, func() bool { return store.count() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestFlushRequeuesOnFailure(t *testing.T) {
	o, store, _ := newTestOrchestrator(10)
	defer o.Shutdown(context.Background())

	store.setFail(true)
	require.NoError(t, o.StartSensor("t1"))
	o.Flush(context.Background())
	assert.Equal(t, 0, store.count())

	// Recovery drains the requeued batch with nothing lost.
	store.setFail(false)
	o.Flush(context.Background())
	assert.Equal(t, 1, store.count())
}

func TestFlushForwardsToProcessor(t *testing.T) {
	registry := NewRegistry()
	registry.Load([]*domain.Sensor{testSensor("t1", domain.SimConfig{
		BaseValue: 50, MinValue: 0, MaxValue: 100, Interval: time.Hour,
	})})
	store := &captureStore{}
	proc := &countingProcessor{}
	o := NewOrchestrator(NewWithSeed(registry, 13), registry, store, proc, 10, time.Hour)
	defer o.Shutdown(context.Background())

	require.NoError(t, o.StartSensor("t1"))
	o.Flush(context.Background())

	assert.Eventually(t, func() bool { return proc.processed() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestStopSensor(t *testing.T) {
	o, _, registry := newTestOrchestrator(10)
	defer o.Shutdown(context.Background())

	require.NoError(t, o.StartSensor("t1"))
	o.StopSensor("t1")

	assert.False(t, o.Running("t1"))
	assert.Equal(t, domain.SensorOffline, registry.Status("t1"))

	// Stopping an already-stopped sensor is harmless.
	o.StopSensor("t1")
}

func TestShutdownFlushesBuffer(t *testing.T) {
	o, store, _ := newTestOrchestrator(10)

	require.NoError(t, o.StartSensor("t1"))
	o.Shutdown(context.Background())

	assert.Equal(t, 1, store.count())
	assert.Zero(t, o.RunningCount())
}
