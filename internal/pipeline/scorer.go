package pipeline

import "fleet-profiler/analysis/internal/domain"

// DefaultCompanySpeedThreshold is the fleet-wide speed limit used by the
// enhanced score when the analyst has not set one.
const DefaultCompanySpeedThreshold = 85.0

// RiskScore maps one day's metrics to a composite risk score in [0,100]
// using four weighted factors: excess density (.3), top speed over 80 (.2),
// harsh-event frequency (.3) and total excess duration (.2).
func RiskScore(m domain.DailyMetrics) float64 {
	return clamp(0.3*excessDensityScore(m) +
		0.2*topSpeedScore(m) +
		0.3*harshFrequencyScore(m) +
		0.2*excessDurationScore(m))
}

// EnhancedRiskScore extends RiskScore with a fifth factor penalizing days
// whose top speed exceeded the company speed threshold: weights become
// .25/.15/.25/.15 plus .20 for the over-threshold penalty.
func EnhancedRiskScore(m domain.DailyMetrics, speedThreshold float64) float64 {
	var overThreshold float64
	if m.MaxSpeedKmh > speedThreshold {
		// 30 km/h over the company limit saturates the penalty.
		overThreshold = clamp((m.MaxSpeedKmh - speedThreshold) / 30 * 100)
	}

	return clamp(0.25*excessDensityScore(m) +
		0.15*topSpeedScore(m) +
		0.25*harshFrequencyScore(m) +
		0.15*excessDurationScore(m) +
		0.20*overThreshold)
}

func excessDensityScore(m domain.DailyMetrics) float64 {
	return clamp(m.ExcessRatePerKm * 100)
}

func topSpeedScore(m domain.DailyMetrics) float64 {
	if m.MaxSpeedKmh <= 80 {
		return 0
	}
	return clamp((m.MaxSpeedKmh - 80) / 40 * 100)
}

func harshFrequencyScore(m domain.DailyMetrics) float64 {
	return clamp(float64(m.HarshAccelWindows+m.HarshBrakeWindows) * 5)
}

// excessDurationScore saturates at 10 minutes of accumulated excess.
func excessDurationScore(m domain.DailyMetrics) float64 {
	return clamp(m.TotalExcessDurationSec / 600 * 100)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
