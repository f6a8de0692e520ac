package simulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

// ReadingStore is the batch-persistence edge of the pipeline.
type ReadingStore interface {
	BatchInsert(readings []*domain.Reading) error
}

// ReadingProcessor receives each persisted reading for incident
// detection. A failure for one reading must not affect others.
type ReadingProcessor interface {
	ProcessReading(ctx context.Context, reading *domain.Reading)
}

// Orchestrator owns one timer per active sensor, buffers generated
// readings, and flushes them in batches. The buffer is the only state
// shared across sensor timers and is mutex-guarded.
type Orchestrator struct {
	sim       *Simulator
	registry  *Registry
	store     ReadingStore
	processor ReadingProcessor

	flushSize     int
	flushInterval time.Duration

	mu     sync.Mutex
	timers map[string]chan struct{}
	buffer []*domain.Reading

	flusherStop chan struct{}
	flusherOnce sync.Once
	wg          sync.WaitGroup
}

func NewOrchestrator(sim *Simulator, registry *Registry, store ReadingStore, processor ReadingProcessor, flushSize int, flushInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		sim:           sim,
		registry:      registry,
		store:         store,
		processor:     processor,
		flushSize:     flushSize,
		flushInterval: flushInterval,
		timers:        make(map[string]chan struct{}),
		flusherStop:   make(chan struct{}),
	}
}

// StartSensor begins recurring reading generation for one sensor at
// its configured interval, producing one reading immediately. Calling
// it again for a running sensor is a no-op.
func (o *Orchestrator) StartSensor(id string) error {
	sensor := o.registry.Get(id)
	if sensor == nil {
		return fmt.Errorf("start simulation: unknown sensor %s", id)
	}

	o.mu.Lock()
	if _, running := o.timers[id]; running {
		o.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	o.timers[id] = stop
	o.mu.Unlock()

	o.startFlusher()

	// First reading synchronously, before the first tick.
	o.append(o.sim.Generate(sensor, time.Now()))

	o.wg.Add(1)
	go o.run(id, stop)

	log.Info().Str("sensor_id", id).Dur("interval", sensor.Config.Interval).Msg("sensor simulation started")
	return nil
}

func (o *Orchestrator) run(id string, stop chan struct{}) {
	defer o.wg.Done()

	interval := o.registry.Get(id).Config.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			// Re-read the sensor each tick so config changes
			// (scenario modifiers, manual tuning) take effect live.
			sensor := o.registry.Get(id)
			if sensor == nil {
				return
			}
			o.append(o.sim.Generate(sensor, now))
			if sensor.Config.Interval > 0 && sensor.Config.Interval != interval {
				interval = sensor.Config.Interval
				ticker.Reset(interval)
			}
		}
	}
}

// StopSensor cancels the sensor's timer. Already-buffered readings
// remain queued for the next flush.
func (o *Orchestrator) StopSensor(id string) {
	o.mu.Lock()
	stop, ok := o.timers[id]
	if ok {
		delete(o.timers, id)
	}
	o.mu.Unlock()
	if !ok {
		return
	}
	close(stop)
	o.registry.SetStatus(id, domain.SensorOffline)
	log.Info().Str("sensor_id", id).Msg("sensor simulation stopped")
}

// Running reports whether the sensor has an active timer.
func (o *Orchestrator) Running(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.timers[id]
	return ok
}

// RunningCount returns the number of active sensor timers.
func (o *Orchestrator) RunningCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.timers)
}

func (o *Orchestrator) append(rd *domain.Reading) {
	o.mu.Lock()
	o.buffer = append(o.buffer, rd)
	full := len(o.buffer) >= o.flushSize
	o.mu.Unlock()
	if full {
		// Flush off the timer goroutine so ticks never block on I/O.
		go o.Flush(context.Background())
	}
}

// Flush batch-inserts the buffered readings, then forwards each one
// to incident processing. On insert failure the batch is returned to
// the front of the buffer for the next attempt.
func (o *Orchestrator) Flush(ctx context.Context) {
	o.mu.Lock()
	if len(o.buffer) == 0 {
		o.mu.Unlock()
		return
	}
	batch := o.buffer
	o.buffer = nil
	o.mu.Unlock()

	if err := o.store.BatchInsert(batch); err != nil {
		log.Error().Err(err).Int("batch_size", len(batch)).Msg("reading flush failed, requeueing")
		o.mu.Lock()
		o.buffer = append(batch, o.buffer...)
		o.mu.Unlock()
		return
	}

	if o.processor == nil {
		return
	}
	for _, rd := range batch {
		rd := rd
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("reading_id", rd.ID).Msg("reading processing panicked")
				}
			}()
			o.processor.ProcessReading(ctx, rd)
		}()
	}
}

func (o *Orchestrator) startFlusher() {
	o.flusherOnce.Do(func() {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			ticker := time.NewTicker(o.flushInterval)
			defer ticker.Stop()
			for {
				select {
				case <-o.flusherStop:
					return
				case <-ticker.C:
					o.Flush(context.Background())
				}
			}
		}()
	})
}

// Shutdown stops every timer and performs one final flush.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.mu.Lock()
	for id, stop := range o.timers {
		close(stop)
		delete(o.timers, id)
	}
	o.mu.Unlock()

	o.flusherOnce.Do(func() {}) // mark started so Stop below is safe
	select {
	case <-o.flusherStop:
	default:
		close(o.flusherStop)
	}

	o.wg.Wait()
	o.Flush(ctx)
}
