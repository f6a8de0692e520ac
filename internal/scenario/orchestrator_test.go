package scenario

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/simulator"
)

type fakeCreator struct {
	mu      sync.Mutex
	created []domain.ScheduledIncident
}

func (f *fakeCreator) CreateScenarioIncident(tpl domain.ScheduledIncident) (*domain.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, tpl)
	return &domain.Incident{ID: "inc-synthetic"}, nil
}

func (f *fakeCreator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func testRegistry() *simulator.Registry {
	r := simulator.NewRegistry()
	r.Load([]*domain.Sensor{
		{ID: "env-1", Type: domain.SensorEnvironment, Config: domain.SimConfig{BaseValue: 20, AnomalyProb: 0.05}},
		{ID: "water-1", Type: domain.SensorWater, Config: domain.SimConfig{BaseValue: 4, AnomalyProb: 0.2}},
		{ID: "traffic-1", Type: domain.SensorTraffic, Config: domain.SimConfig{BaseValue: 50, AnomalyProb: 0.05}},
	})
	return r
}

func testCatalog(duration time.Duration, incidents ...domain.ScheduledIncident) []domain.Scenario {
	return []domain.Scenario{{
		ID:       "test-event",
		Name:     "Test Event",
		Duration: duration,
		Modifiers: []domain.SensorModifier{
			{SensorType: domain.SensorEnvironment, Op: domain.OpMultiply, Operand: 2},
			{SensorType: domain.SensorWater, Op: domain.OpAdd, Operand: 3},
		},
		Incidents: incidents,
	}}
}

func TestTriggerAppliesModifiersAndSnapshots(t *testing.T) {
	registry := testRegistry()
	o := NewOrchestrator(registry, &fakeCreator{}, nil, testCatalog(time.Hour))

	active, err := o.Trigger("test-event")
	require.NoError(t, err)
	require.NotNil(t, active)

	env := registry.Get("env-1").Config
	assert.Equal(t, 40.0, env.BaseValue)
	assert.Equal(t, 0.1, env.AnomalyProb) // doubled

	water := registry.Get("water-1").Config
	assert.Equal(t, 7.0, water.BaseValue)
	assert.Equal(t, 0.3, water.AnomalyProb) // doubled but capped

	// Unmatched sensors stay untouched.
	assert.Equal(t, 50.0, registry.Get("traffic-1").Config.BaseValue)
}

func TestTriggerDoublesProbabilityOncePerScenario(t *testing.T) {
	registry := testRegistry()
	catalog := []domain.Scenario{{
		ID:       "stacked",
		Name:     "Stacked Modifiers",
		Duration: time.Hour,
		Modifiers: []domain.SensorModifier{
			{SensorType: domain.SensorEnvironment, Op: domain.OpMultiply, Operand: 2},
			{SensorID: "env-1", Op: domain.OpAdd, Operand: 5},
		},
	}}
	o := NewOrchestrator(registry, &fakeCreator{}, nil, catalog)

	_, err := o.Trigger("stacked")
	require.NoError(t, err)

	env := registry.Get("env-1").Config
	// Base-value ops compound: (20 * 2) + 5.
	assert.Equal(t, 45.0, env.BaseValue)
	// The probability doubles once despite two matching modifiers.
	assert.Equal(t, 0.1, env.AnomalyProb)

	require.NoError(t, o.Stop())
	restored := registry.Get("env-1").Config
	assert.Equal(t, 20.0, restored.BaseValue)
	assert.Equal(t, 0.05, restored.AnomalyProb)
}

func TestTriggerSingleActiveSlot(t *testing.T) {
	o := NewOrchestrator(testRegistry(), &fakeCreator{}, nil, testCatalog(time.Hour))

	_, err := o.Trigger("test-event")
	require.NoError(t, err)

	_, err = o.Trigger("test-event")
	assert.ErrorIs(t, err, ErrScenarioActive)
	assert.NotNil(t, o.Active())
}

func TestTriggerUnknownScenario(t *testing.T) {
	o := NewOrchestrator(testRegistry(), &fakeCreator{}, nil, testCatalog(time.Hour))
	_, err := o.Trigger("nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestStopRestoresExactConfig(t *testing.T) {
	registry := testRegistry()
	o := NewOrchestrator(registry, &fakeCreator{}, nil, testCatalog(time.Hour))

	_, err := o.Trigger("test-event")
	require.NoError(t, err)
	require.NoError(t, o.Stop())

	env := registry.Get("env-1").Config
	assert.Equal(t, 20.0, env.BaseValue)
	assert.Equal(t, 0.05, env.AnomalyProb)

	water := registry.Get("water-1").Config
	assert.Equal(t, 4.0, water.BaseValue)
	assert.Equal(t, 0.2, water.AnomalyProb)

	assert.Nil(t, o.Active())
}

func TestStopWithoutActive(t *testing.T) {
	o := NewOrchestrator(testRegistry(), &fakeCreator{}, nil, testCatalog(time.Hour))
	assert.ErrorIs(t, o.Stop(), ErrNoActiveScenario)
}

func TestScheduledIncidentsFire(t *testing.T) {
	creator := &fakeCreator{}
	catalog := testCatalog(time.Hour,
		domain.ScheduledIncident{Delay: 10 * time.Millisecond, Category: domain.CategoryWaterAnomaly, Severity: domain.SeverityHigh},
		domain.ScheduledIncident{Delay: 20 * time.Millisecond, Category: domain.CategoryTrafficCongestion, Severity: domain.SeverityMedium},
	)
	o := NewOrchestrator(testRegistry(), creator, nil, catalog)

	_, err := o.Trigger("test-event")
	require.NoError(t, err)
	defer o.Stop()

	require.Eventually(t, func() bool { return creator.count() == 2 },
		time.Second, 5*time.Millisecond)

	active := o.Active()
	require.NotNil(t, active)
	assert.Len(t, active.Triggered, 2)
}

func TestStopCancelsPendingIncidents(t *testing.T) {
	creator := &fakeCreator{}
	catalog := testCatalog(time.Hour,
		domain.ScheduledIncident{Delay: time.Hour, Category: domain.CategoryWaterAnomaly},
	)
	o := NewOrchestrator(testRegistry(), creator, nil, catalog)

	_, err := o.Trigger("test-event")
	require.NoError(t, err)
	require.NoError(t, o.Stop())

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, creator.count())
}

func TestAutoExpiry(t *testing.T) {
	registry := testRegistry()
	o := NewOrchestrator(registry, &fakeCreator{}, nil, testCatalog(30*time.Millisecond))

	_, err := o.Trigger("test-event")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return o.Active() == nil },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 20.0, registry.Get("env-1").Config.BaseValue)

	// The expiry already restored; a manual stop now reports no scenario.
	assert.ErrorIs(t, o.Stop(), ErrNoActiveScenario)
}

func TestCatalogWellFormed(t *testing.T) {
	for _, sc := range Catalog() {
		assert.NotEmpty(t, sc.ID)
		assert.Greater(t, sc.Duration, time.Duration(0))
		assert.NotEmpty(t, sc.Modifiers, sc.ID)
		for _, inc := range sc.Incidents {
			assert.Less(t, inc.Delay, sc.Duration, "incident after scenario end in %s", sc.ID)
		}
	}
}
