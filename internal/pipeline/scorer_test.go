package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleet-profiler/analysis/internal/domain"
	"fleet-profiler/analysis/internal/pipeline"
)

func TestRiskScoreWeightedFactors(t *testing.T) {
	m := domain.DailyMetrics{
		ExcessRatePerKm:        0.5, // → 50
		MaxSpeedKmh:            100, // → (100-80)/40*100 = 50
		HarshAccelWindows:      2,
		HarshBrakeWindows:      2,   // → 4*5 = 20
		TotalExcessDurationSec: 300, // → 300/600*100 = 50
	}

	// .3*50 + .2*50 + .3*20 + .2*50
	assert.InDelta(t, 41.0, pipeline.RiskScore(m), 1e-9)
}

func TestRiskScoreQuietDayIsZero(t *testing.T) {
	m := domain.DailyMetrics{MaxSpeedKmh: 60}
	assert.Equal(t, 0.0, pipeline.RiskScore(m))
}

func TestRiskScoreTopSpeedFactorGatedAt80(t *testing.T) {
	below := domain.DailyMetrics{MaxSpeedKmh: 80}
	above := domain.DailyMetrics{MaxSpeedKmh: 81}

	assert.Equal(t, 0.0, pipeline.RiskScore(below))
	assert.Greater(t, pipeline.RiskScore(above), 0.0)
}

func TestEnhancedRiskScoreOverThresholdPenalty(t *testing.T) {
	m := domain.DailyMetrics{
		ExcessRatePerKm:        0.5,
		MaxSpeedKmh:            100,
		HarshAccelWindows:      2,
		HarshBrakeWindows:      2,
		TotalExcessDurationSec: 300,
	}

	// .25*50 + .15*50 + .25*20 + .15*50 + .20*((100-85)/30*100)
	assert.InDelta(t, 42.5, pipeline.EnhancedRiskScore(m, 85), 1e-9)

	// Below the company threshold the fifth factor contributes nothing.
	assert.InDelta(t, 32.5, pipeline.EnhancedRiskScore(m, 120), 1e-9)
}

func TestScoresAlwaysWithinBounds(t *testing.T) {
	extremes := []domain.DailyMetrics{
		{},
		{
			ExcessRatePerKm:        50,
			MaxSpeedKmh:            300,
			HarshAccelWindows:      500,
			HarshBrakeWindows:      500,
			TotalExcessDurationSec: 1e6,
		},
		{MaxSpeedKmh: 84.9},
		{ExcessRatePerKm: 0.001, TotalExcessDurationSec: 1},
	}

	for _, m := range extremes {
		base := pipeline.RiskScore(m)
		assert.GreaterOrEqual(t, base, 0.0)
		assert.LessOrEqual(t, base, 100.0)

		enhanced := pipeline.EnhancedRiskScore(m, pipeline.DefaultCompanySpeedThreshold)
		assert.GreaterOrEqual(t, enhanced, 0.0)
		assert.LessOrEqual(t, enhanced, 100.0)
	}
}

func TestEnhancedRiskScorePenaltySaturates(t *testing.T) {
	m := domain.DailyMetrics{MaxSpeedKmh: 300}

	// Penalty saturates at 100 → contributes its full .20 weight; top
	// speed factor also saturates → .15 more.
	assert.InDelta(t, 35.0, pipeline.EnhancedRiskScore(m, 85), 1e-9)
}
