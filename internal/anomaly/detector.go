// Package anomaly classifies sensor values against their rolling
// baseline using an ensemble of three statistical checks.
package anomaly

import (
	"context"
	"math"

	"github.com/urbansense/smart-city-platform/internal/baseline"
	"github.com/urbansense/smart-city-platform/internal/domain"
)

const (
	zScoreThreshold    = 3.0
	iqrFence           = 1.5
	movingAvgThreshold = 0.3
)

// Result is the verdict for one value.
type Result struct {
	IsAnomaly  bool                  `json:"isAnomaly"`
	Confidence float64               `json:"confidence"`
	ZScore     float64               `json:"zScore"`
	Methods    []string              `json:"methods"`
	Baseline   *domain.BaselineStats `json:"-"`
}

type Detector struct {
	baselines *baseline.Store
}

func NewDetector(baselines *baseline.Store) *Detector {
	return &Detector{baselines: baselines}
}

// Check evaluates a new value for a sensor. Baseline trouble is not a
// detection failure: the error propagates only when stats cannot be
// computed at all.
func (d *Detector) Check(ctx context.Context, sensorID string, value float64) (*Result, error) {
	stats, err := d.baselines.Get(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	res := Evaluate(value, stats)
	res.Baseline = stats
	return res, nil
}

// Invalidate drops the sensor's cached baseline so the next check
// recomputes from storage.
func (d *Detector) Invalidate(ctx context.Context, sensorID string) error {
	return d.baselines.Invalidate(ctx, sensorID)
}

// Refresh forces an immediate recompute of the sensor's baseline.
func (d *Detector) Refresh(ctx context.Context, sensorID string) error {
	_, err := d.baselines.Refresh(ctx, sensorID)
	return err
}

// Evaluate runs the three checks against precomputed stats. Any single
// method triggering flags the value as anomalous.
func Evaluate(value float64, stats *domain.BaselineStats) *Result {
	res := &Result{}

	// Z-score. stddev=0 means a flat series; never triggers.
	if stats.StdDev > 0 {
		res.ZScore = math.Abs(value-stats.Mean) / stats.StdDev
		if res.ZScore > zScoreThreshold {
			res.Methods = append(res.Methods, "zscore")
		}
	}

	// IQR fence.
	iqr := stats.Q3 - stats.Q1
	if value < stats.Q1-iqrFence*iqr || value > stats.Q3+iqrFence*iqr {
		res.Methods = append(res.Methods, "iqr")
	}

	// Moving-average deviation. movingAvg=0 never triggers.
	var maDeviation float64
	if stats.MovingAvg != 0 {
		maDeviation = math.Abs(value-stats.MovingAvg) / math.Abs(stats.MovingAvg)
		if maDeviation > movingAvgThreshold {
			res.Methods = append(res.Methods, "moving_avg")
		}
	}

	if len(res.Methods) == 0 {
		return res
	}

	res.IsAnomaly = true
	res.Confidence = confidence(len(res.Methods), res.ZScore, maDeviation)
	return res
}

// confidence starts at 0.3 + 0.2 per triggered method, with magnitude
// bonuses of up to 0.1 each for the Z-score (saturating at |z|=10) and
// the moving-average deviation (saturating at 1.0), capped at 1.0.
func confidence(methods int, zScore, maDeviation float64) float64 {
	c := 0.3 + 0.2*float64(methods)
	c += 0.1 * math.Min(zScore/10.0, 1.0)
	c += 0.1 * math.Min(maDeviation, 1.0)
	return math.Min(c, 1.0)
}
