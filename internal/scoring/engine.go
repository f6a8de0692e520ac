// Package scoring computes the 0-100 composite priority of an incident
// from five weighted factors. Scoring is deterministic for identical
// inputs and never fails: any internal problem yields the default
// score instead of blocking incident creation.
package scoring

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

// Factor weights; ceilings double as per-factor caps.
const (
	weightSeverity     = 30.0
	weightUrgency      = 25.0
	weightPublicImpact = 20.0
	weightEnvCost      = 15.0
	weightSafetyRisk   = 10.0

	defaultScore = 50
)

var severityBase = map[domain.Severity]float64{
	domain.SeverityLow:      0.25,
	domain.SeverityMedium:   0.50,
	domain.SeverityHigh:     0.75,
	domain.SeverityCritical: 1.00,
}

var urgencyBase = map[domain.Severity]float64{
	domain.SeverityLow:      0.2,
	domain.SeverityMedium:   0.4,
	domain.SeverityHigh:     0.7,
	domain.SeverityCritical: 1.0,
}

var impactMultiplier = map[domain.IncidentCategory]float64{
	domain.CategoryWasteOverflow:       1.0,
	domain.CategoryLightingFailure:     0.8,
	domain.CategoryWaterAnomaly:        1.2,
	domain.CategoryTrafficCongestion:   1.1,
	domain.CategoryEnvironmentalHazard: 1.3,
	domain.CategoryNoiseComplaint:      0.7,
}

var envCostBase = map[domain.IncidentCategory]float64{
	domain.CategoryWasteOverflow:       0.9,
	domain.CategoryLightingFailure:     0.2,
	domain.CategoryWaterAnomaly:        0.8,
	domain.CategoryTrafficCongestion:   0.6,
	domain.CategoryEnvironmentalHazard: 1.0,
	domain.CategoryNoiseComplaint:      0.3,
}

var safetyRiskBase = map[domain.IncidentCategory]float64{
	domain.CategoryWasteOverflow:       0.5,
	domain.CategoryLightingFailure:     0.7,
	domain.CategoryWaterAnomaly:        0.6,
	domain.CategoryTrafficCongestion:   0.8,
	domain.CategoryEnvironmentalHazard: 1.0,
	domain.CategoryNoiseComplaint:      0.3,
}

var zoneTypeFraction = map[domain.ZoneType]float64{
	domain.ZoneCommercial:  0.50,
	domain.ZoneResidential: 0.35,
	domain.ZonePark:        0.25,
	domain.ZoneIndustrial:  0.15,
}

// ZoneSource and RecentSource supply the contextual inputs.
type ZoneSource interface {
	GetByID(id string) (*domain.Zone, error)
}

type RecentSource interface {
	Recent(sensorID string, limit int) ([]*domain.Reading, error)
}

type Engine struct {
	zones    ZoneSource
	readings RecentSource
}

func NewEngine(zones ZoneSource, readings RecentSource) *Engine {
	return &Engine{zones: zones, readings: readings}
}

// Score loads the incident's zone and recent sensor trend, then runs
// the deterministic calculation. Load failures degrade to partial
// context, and calculation failures to the default score.
func (e *Engine) Score(inc *domain.Incident) (int, domain.ScoreBreakdown) {
	var zone *domain.Zone
	if inc.ZoneID != "" {
		z, err := e.zones.GetByID(inc.ZoneID)
		if err != nil {
			log.Warn().Err(err).Str("zone_id", inc.ZoneID).Msg("zone lookup failed, scoring without zone")
		} else {
			zone = z
		}
	}

	var recent []*domain.Reading
	if inc.SensorID != nil {
		rds, err := e.readings.Recent(*inc.SensorID, 100)
		if err != nil {
			log.Warn().Err(err).Str("sensor_id", *inc.SensorID).Msg("trend lookup failed, scoring without trend")
		} else {
			recent = rds
		}
	}

	return Calculate(inc, zone, recent, time.Now())
}

// Calculate is the pure scoring function: identical inputs always give
// the identical score. recent is newest-first.
func Calculate(inc *domain.Incident, zone *domain.Zone, recent []*domain.Reading, now time.Time) (score int, breakdown domain.ScoreBreakdown) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("incident_id", inc.ID).Msg("scoring failed, using default")
			score = defaultScore
			breakdown = domain.ScoreBreakdown{}
		}
	}()

	breakdown = domain.ScoreBreakdown{
		Severity:          round2(severityFactor(inc, recent)),
		Urgency:           round2(urgencyFactor(inc, recent, now)),
		PublicImpact:      round2(publicImpactFactor(inc, zone)),
		EnvironmentalCost: round2(envCostFactor(inc, zone)),
		SafetyRisk:        round2(safetyRiskFactor(inc)),
	}
	total := breakdown.Severity + breakdown.Urgency + breakdown.PublicImpact +
		breakdown.EnvironmentalCost + breakdown.SafetyRisk
	score = int(math.Min(math.Round(total), 100))
	return score, breakdown
}

// severityFactor: severity base x weight, plus up to +50% bonus scaled
// by how far the latest value deviates from the mean of the last 100
// readings.
func severityFactor(inc *domain.Incident, recent []*domain.Reading) float64 {
	base := severityBase[inc.Severity] * weightSeverity
	if len(recent) > 0 {
		mean := meanValue(recent)
		if mean != 0 {
			deviation := math.Abs(recent[0].Value-mean) / math.Abs(mean)
			base += base * 0.5 * math.Min(deviation, 1.0)
		}
	}
	return math.Min(base, weightSeverity)
}

// urgencyFactor: severity base x weight, +30% bonus when the last 10
// readings trend steeply, reduced by up to 20% as the incident ages
// past 30 minutes (full reduction around 5 hours).
func urgencyFactor(inc *domain.Incident, recent []*domain.Reading, now time.Time) float64 {
	base := urgencyBase[inc.Severity] * weightUrgency

	if rate := trendRate(recent, 10); math.Abs(rate) > 0.1 {
		base *= 1.3
	}

	ageMin := now.Sub(inc.DetectedAt).Minutes()
	if ageMin > 30 {
		reduction := math.Min(0.2, 0.2*(ageMin-30)/270.0)
		base *= 1 - reduction
	}
	return math.Min(base, weightUrgency)
}

// publicImpactFactor: (population tier + zone type) x category impact
// multiplier x weight; missing zone defaults to half weight.
func publicImpactFactor(inc *domain.Incident, zone *domain.Zone) float64 {
	if zone == nil {
		return weightPublicImpact * 0.5
	}
	popFraction := 0.15
	switch {
	case zone.Population > 10000:
		popFraction = 0.5
	case zone.Population > 5000:
		popFraction = 0.35
	case zone.Population > 1000:
		popFraction = 0.25
	}
	typeFraction, ok := zoneTypeFraction[zone.Type]
	if !ok {
		typeFraction = 0.25
	}
	factor := (popFraction + typeFraction) * impactMultiplier[inc.Category] * weightPublicImpact
	return math.Min(factor, weightPublicImpact)
}

func envCostFactor(inc *domain.Incident, zone *domain.Zone) float64 {
	factor := envCostBase[inc.Category] * weightEnvCost
	if zone != nil && zone.Type == domain.ZonePark {
		factor *= 1.3
	}
	if inc.Severity == domain.SeverityCritical {
		factor *= 1.2
	}
	return math.Min(factor, weightEnvCost)
}

func safetyRiskFactor(inc *domain.Incident) float64 {
	factor := safetyRiskBase[inc.Category] * weightSafetyRisk
	switch inc.Severity {
	case domain.SeverityCritical:
		factor *= 1.5
	case domain.SeverityHigh:
		factor *= 1.2
	}
	return math.Min(factor, weightSafetyRisk)
}

// trendRate is the simple linear-regression slope over the newest n
// readings, normalized by their mean. Zero when the trend is flat or
// there is too little data.
func trendRate(recent []*domain.Reading, n int) float64 {
	if len(recent) < 2 {
		return 0
	}
	if n > len(recent) {
		n = len(recent)
	}
	// Reverse to chronological order for the regression.
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = recent[n-1-i].Value
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	mean := sumY / fn
	if mean == 0 {
		return 0
	}
	return slope / math.Abs(mean)
}

func meanValue(readings []*domain.Reading) float64 {
	var sum float64
	for _, rd := range readings {
		sum += rd.Value
	}
	return sum / float64(len(readings))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
