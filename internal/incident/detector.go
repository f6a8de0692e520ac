// Package incident decides when a sensor reading becomes an incident
// and enforces spatio-temporal deduplication of overlapping detections.
package incident

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/anomaly"
	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/events"
	"github.com/urbansense/smart-city-platform/internal/geo"
	"github.com/urbansense/smart-city-platform/internal/scoring"
)

// Confidence floor for incidents created purely by threshold breach,
// where the anomaly ensemble contributes no signal of its own.
const thresholdConfidenceFloor = 0.75

// SensorSource resolves live sensor configuration.
type SensorSource interface {
	Get(id string) *domain.Sensor
}

// IncidentStore is the persistence edge the detector writes through.
// CreateScored lands the incident and its priority score in a single
// write unit.
type IncidentStore interface {
	CreateScored(inc *domain.Incident, score int, breakdown domain.ScoreBreakdown) error
	FindNearbyActive(p domain.Point, radiusM float64, since time.Time) ([]*domain.Incident, error)
}

// Detector turns readings into incidents. It is safe for concurrent
// use by many sensor timers; the last-incident map is its only shared
// mutable state.
type Detector struct {
	sensors   SensorSource
	anomalies *anomaly.Detector
	store     IncidentStore
	scorer    *scoring.Engine
	publisher events.Publisher

	dedupRadiusM float64
	dedupWindow  time.Duration

	// onCreate is invoked for each created incident (e.g. automatic
	// work-order dispatch for critical ones). May be nil.
	onCreate func(*domain.Incident)

	mu           sync.Mutex
	lastIncident map[string]time.Time
	sincePrune   int
}

func NewDetector(sensors SensorSource, anomalies *anomaly.Detector, store IncidentStore, scorer *scoring.Engine, publisher events.Publisher, dedupRadiusM float64, dedupWindow time.Duration) *Detector {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Detector{
		sensors:      sensors,
		anomalies:    anomalies,
		store:        store,
		scorer:       scorer,
		publisher:    publisher,
		dedupRadiusM: dedupRadiusM,
		dedupWindow:  dedupWindow,
		lastIncident: make(map[string]time.Time),
	}
}

// OnCreate registers a hook called after each incident is persisted.
func (d *Detector) OnCreate(fn func(*domain.Incident)) {
	d.onCreate = fn
}

// ProcessReading runs the full decision: threshold check, anomaly
// ensemble, deduplication, creation, scoring, broadcast. Failures are
// logged; the reading pipeline never sees them.
func (d *Detector) ProcessReading(ctx context.Context, rd *domain.Reading) {
	if _, err := d.Evaluate(ctx, rd); err != nil {
		log.Error().Err(err).Str("sensor_id", rd.SensorID).Msg("incident evaluation failed")
	}
}

// Evaluate returns the created incident, or nil when the reading does
// not merit one (no violation, or suppressed by deduplication).
func (d *Detector) Evaluate(ctx context.Context, rd *domain.Reading) (*domain.Incident, error) {
	sensor := d.sensors.Get(rd.SensorID)
	if sensor == nil {
		return nil, fmt.Errorf("unknown sensor %s", rd.SensorID)
	}

	thresholds := thresholdsFor(sensor)
	breach := thresholds.violated(rd.Value)

	verdict, err := d.anomalies.Check(ctx, rd.SensorID, rd.Value)
	if err != nil {
		// Detection degrades to threshold-only rather than dropping
		// the reading.
		log.Warn().Err(err).Str("sensor_id", rd.SensorID).Msg("anomaly check unavailable")
		verdict = &anomaly.Result{}
	}

	if !breach && !verdict.IsAnomaly {
		return nil, nil
	}

	if d.suppressedTemporal(rd.SensorID, rd.Timestamp) {
		return nil, nil
	}
	suppressed, err := d.suppressedSpatial(sensor, rd.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("spatial dedup: %w", err)
	}
	if suppressed {
		return nil, nil
	}

	inc := d.build(sensor, rd, thresholds, breach, verdict)
	// The scorer falls back internally on error, so scoring up front
	// lets the insert and the score commit together.
	score, breakdown := d.scorer.Score(inc)
	if err := d.store.CreateScored(inc, score, breakdown); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	d.recordIncident(rd.SensorID, rd.Timestamp)

	d.publisher.Broadcast("incident:new", inc)
	d.publisher.BroadcastToRoom("zone:"+inc.ZoneID, "incident:new", inc)

	log.Info().
		Str("incident_id", inc.ID).
		Str("category", string(inc.Category)).
		Str("severity", string(inc.Severity)).
		Int("priority", inc.PriorityScore).
		Msg("incident created")

	if d.onCreate != nil {
		d.onCreate(inc)
	}
	return inc, nil
}

func (d *Detector) build(sensor *domain.Sensor, rd *domain.Reading, t Thresholds, breach bool, verdict *anomaly.Result) *domain.Incident {
	var methods []string
	if breach {
		methods = append(methods, "threshold")
	}
	methods = append(methods, verdict.Methods...)

	confidence := verdict.Confidence
	if breach {
		confidence = math.Max(confidence, thresholdConfidenceFloor)
	}

	sensorID := sensor.ID
	return &domain.Incident{
		ID:            uuid.NewString(),
		Category:      domain.CategoryForSensor(sensor.Type),
		Severity:      t.severityFor(rd.Value),
		Status:        domain.IncidentActive,
		PriorityScore: 0, // filled by scoring
		Confidence:    confidence,
		Location:      sensor.Location,
		ZoneID:        sensor.ZoneID,
		SensorID:      &sensorID,
		Description: fmt.Sprintf("%s reported %.2f %s (warning %.2f, critical %.2f)",
			sensor.Name, rd.Value, rd.Unit, t.Warning, t.Critical),
		DetectionMethods: methods,
		DetectedAt:       rd.Timestamp,
	}
}

// suppressedTemporal checks the per-sensor cooldown against the
// reading's own timestamp, so retried or reordered batches dedup on
// logical time rather than arrival time.
func (d *Detector) suppressedTemporal(sensorID string, at time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.lastIncident[sensorID]
	return ok && at.Sub(last) < d.dedupWindow
}

// suppressedSpatial checks for ACTIVE same-category incidents within
// the dedup radius and window.
func (d *Detector) suppressedSpatial(sensor *domain.Sensor, at time.Time) (bool, error) {
	nearby, err := d.store.FindNearbyActive(sensor.Location, d.dedupRadiusM, at.Add(-d.dedupWindow))
	if err != nil {
		return false, err
	}
	category := domain.CategoryForSensor(sensor.Type)
	for _, inc := range nearby {
		if inc.Category != category {
			continue
		}
		if geo.DistanceM(inc.Location, sensor.Location) <= d.dedupRadiusM {
			return true, nil
		}
	}
	return false, nil
}

func (d *Detector) recordIncident(sensorID string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastIncident[sensorID] = at
	d.sincePrune++
	if d.sincePrune >= 100 {
		d.sincePrune = 0
		cutoff := at.Add(-d.dedupWindow)
		for id, ts := range d.lastIncident {
			if ts.Before(cutoff) {
				delete(d.lastIncident, id)
			}
		}
	}
}
