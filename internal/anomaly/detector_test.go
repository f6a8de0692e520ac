package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

func stats(mean, stddev, q1, q3, movingAvg float64) *domain.BaselineStats {
	return &domain.BaselineStats{
		Mean:      mean,
		StdDev:    stddev,
		Q1:        q1,
		Q3:        q3,
		MovingAvg: movingAvg,
	}
}

func TestEvaluateNormalValue(t *testing.T) {
	res := Evaluate(50, stats(50, 5, 46, 54, 50))
	assert.False(t, res.IsAnomaly)
	assert.Empty(t, res.Methods)
	assert.Zero(t, res.Confidence)
}

func TestEvaluateZScore(t *testing.T) {
	// (70-50)/5 = 4, above the 3.0 threshold.
	res := Evaluate(70, stats(50, 5, 30, 70, 0))
	assert.True(t, res.IsAnomaly)
	assert.Contains(t, res.Methods, "zscore")
	assert.InDelta(t, 4.0, res.ZScore, 1e-9)
}

func TestEvaluateFlatSeriesNeverTriggersZScore(t *testing.T) {
	// stddev=0 must not divide; IQR and moving avg carry the verdict.
	res := Evaluate(1000, stats(50, 0, 0, 200, 0))
	assert.NotContains(t, res.Methods, "zscore")
	assert.Zero(t, res.ZScore)
	assert.Contains(t, res.Methods, "iqr")
}

func TestEvaluateIQRFence(t *testing.T) {
	// IQR = 10, upper fence = 60 + 15 = 75.
	s := stats(55, 100, 50, 60, 0)
	assert.Contains(t, Evaluate(76, s).Methods, "iqr")
	assert.NotContains(t, Evaluate(74, s).Methods, "iqr")
	// Lower fence = 50 - 15 = 35.
	assert.Contains(t, Evaluate(34, s).Methods, "iqr")
}

func TestEvaluateMovingAvgDeviation(t *testing.T) {
	// |65-50|/50 = 0.3, not strictly above the threshold.
	s := stats(0, 100, -1000, 1000, 50)
	assert.NotContains(t, Evaluate(65, s).Methods, "moving_avg")
	assert.Contains(t, Evaluate(66, s).Methods, "moving_avg")
}

func TestEvaluateMovingAvgZeroSuppressed(t *testing.T) {
	res := Evaluate(100, stats(0, 0, -1000, 1000, 0))
	assert.NotContains(t, res.Methods, "moving_avg")
}

func TestConfidenceSingleMethod(t *testing.T) {
	// zscore only: 0.3 + 0.2 + 0.1*(4/10) = 0.54.
	res := Evaluate(70, stats(50, 5, 0, 200, 0))
	assert.Equal(t, []string{"zscore"}, res.Methods)
	assert.InDelta(t, 0.54, res.Confidence, 1e-9)
}

func TestConfidenceAllMethodsCapped(t *testing.T) {
	// Extreme value fires all three; confidence must cap at 1.0.
	res := Evaluate(10000, stats(50, 5, 46, 54, 50))
	assert.Len(t, res.Methods, 3)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestConfidenceZeroWithoutMethods(t *testing.T) {
	res := Evaluate(51, stats(50, 5, 40, 60, 50))
	assert.False(t, res.IsAnomaly)
	assert.Zero(t, res.Confidence)
}
