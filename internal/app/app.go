// Package app assembles the platform: storage, cache, broker, the
// reading pipeline, and the services consumed by the HTTP layer. The
// cmd binaries share this wiring so the simulation and the API always
// run against the same in-memory registry.
package app

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/anomaly"
	"github.com/urbansense/smart-city-platform/internal/baseline"
	"github.com/urbansense/smart-city-platform/internal/cache"
	"github.com/urbansense/smart-city-platform/internal/config"
	"github.com/urbansense/smart-city-platform/internal/database"
	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/events"
	"github.com/urbansense/smart-city-platform/internal/incident"
	"github.com/urbansense/smart-city-platform/internal/repository"
	"github.com/urbansense/smart-city-platform/internal/scenario"
	"github.com/urbansense/smart-city-platform/internal/scoring"
	"github.com/urbansense/smart-city-platform/internal/service"
	"github.com/urbansense/smart-city-platform/internal/simulator"
	"github.com/urbansense/smart-city-platform/internal/workorder"
)

// App holds every long-lived component plus the handles needed to shut
// them down in order.
type App struct {
	DB       *sqlx.DB
	Redis    *redis.Client
	Repos    *repository.Repos
	Registry *simulator.Registry
	Detector *incident.Detector

	Orchestrator *simulator.Orchestrator
	OrderSim     *workorder.Simulator
	Scenarios    *scenario.Orchestrator
	Units        *workorder.UnitPool
	Services     *service.Services

	mqtt *events.MQTTPublisher
}

// Build wires the full pipeline. config.Load must have run already.
func Build() (*App, error) {
	db, err := database.Connect()
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       config.RedisDB(),
	})

	var publisher events.Publisher
	var mqttPub *events.MQTTPublisher
	mqttPub, err = events.NewMQTTPublisher(config.MQTTBroker())
	if err != nil {
		// Events are best-effort; the pipeline runs without a broker.
		log.Warn().Err(err).Str("broker", config.MQTTBroker()).Msg("mqtt unavailable, events disabled")
		publisher = events.Nop{}
		mqttPub = nil
	} else {
		publisher = mqttPub
	}

	repos := repository.New(db)

	registry := simulator.NewRegistry()
	sensors, err := repos.Sensors.List()
	if err != nil {
		db.Close()
		return nil, err
	}
	registry.Load(sensors)

	baselines := baseline.NewStore(repos.Readings, cache.NewRedisCache(rdb),
		config.BaselineWindow(), config.MovingAvgWindow(), config.BaselineCacheTTL())
	anomalies := anomaly.NewDetector(baselines)
	scorer := scoring.NewEngine(repos.Zones, repos.Readings)
	detector := incident.NewDetector(registry, anomalies, repos.Incidents, scorer,
		publisher, config.DedupRadiusM(), config.DedupWindow())

	sim := simulator.New(registry)
	orchestrator := simulator.NewOrchestrator(sim, registry, repos.Readings, detector,
		config.FlushBatchSize(), config.FlushInterval())

	units := workorder.NewUnitPool()
	units.Add(defaultUnits...)
	orderSim := workorder.NewSimulator(repos.WorkOrders, repos.Incidents, units,
		publisher, config.UnitSpeedKMH(), config.TimeCompression())

	svcs := service.New(service.Deps{
		Repos:        repos,
		Registry:     registry,
		Orchestrator: orchestrator,
		Detector:     detector,
		Scorer:       scorer,
		Units:        units,
		OrderSim:     orderSim,
		Publisher:    publisher,
	})

	// The scenario slot injects incidents through the incident service,
	// so it is bound after the services exist.
	scenarios := scenario.NewOrchestrator(registry, svcs.Incidents, publisher, nil)
	svcs.Scenarios = service.NewScenarioService(scenarios)

	if config.AutoDispatchCritical() {
		detector.OnCreate(func(inc *domain.Incident) {
			if inc.Severity != domain.SeverityCritical {
				return
			}
			wo, err := svcs.WorkOrders.CreateForIncident(inc.ID, "", "auto-dispatched")
			if err != nil {
				log.Error().Err(err).Str("incident_id", inc.ID).Msg("auto-dispatch failed")
				return
			}
			if err := orderSim.Start(wo.ID); err != nil {
				log.Warn().Err(err).Str("order_id", wo.ID).Msg("auto-dispatch simulation not started")
			}
		})
	}

	return &App{
		DB:           db,
		Redis:        rdb,
		Repos:        repos,
		Registry:     registry,
		Detector:     detector,
		Orchestrator: orchestrator,
		OrderSim:     orderSim,
		Scenarios:    scenarios,
		Units:        units,
		Services:     svcs,
		mqtt:         mqttPub,
	}, nil
}

// StartActiveSensors begins simulation for every sensor flagged active
// in storage. Returns the number started.
func (a *App) StartActiveSensors() int {
	started := 0
	for _, s := range a.Registry.All() {
		if !s.Active {
			continue
		}
		if err := a.Orchestrator.StartSensor(s.ID); err != nil {
			log.Error().Err(err).Str("sensor_id", s.ID).Msg("sensor start failed")
			continue
		}
		started++
	}
	return started
}

// Shutdown drains the pipeline in dependency order: sensor timers and
// the reading buffer first, then in-flight work orders, then the
// active scenario restore, then connections.
func (a *App) Shutdown(ctx context.Context) {
	a.Orchestrator.Shutdown(ctx)
	a.OrderSim.Shutdown()
	if err := a.Scenarios.Stop(); err != nil && !errors.Is(err, scenario.ErrNoActiveScenario) {
		log.Error().Err(err).Msg("scenario stop failed during shutdown")
	}
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if err := a.Redis.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
	if err := a.DB.Close(); err != nil {
		log.Warn().Err(err).Msg("db close failed")
	}
}

// Simulated response fleet, one unit per district plus a floater. The
// pool is in-memory; availability resets on restart.
var defaultUnits = []domain.FieldUnit{
	{ID: "UNIT-001", Name: "Field Crew Alpha", Location: domain.Point{Lon: -0.1276, Lat: 51.5074}, ZoneID: "zone-downtown", Available: true},
	{ID: "UNIT-002", Name: "Field Crew Bravo", Location: domain.Point{Lon: -0.1410, Lat: 51.5012}, ZoneID: "zone-residential-west", Available: true},
	{ID: "UNIT-003", Name: "Field Crew Charlie", Location: domain.Point{Lon: -0.1045, Lat: 51.5155}, ZoneID: "zone-industrial-east", Available: true},
	{ID: "UNIT-004", Name: "Field Crew Delta", Location: domain.Point{Lon: -0.1190, Lat: 51.5101}, Available: true},
}
