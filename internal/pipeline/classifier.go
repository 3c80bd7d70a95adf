package pipeline

import (
	"math"
	"sort"

	"fleet-profiler/analysis/internal/domain"
)

// CentroidFeatures names, in order, the metric features averaged into each
// tier centroid. Centroids are display-only; they never feed back into
// classification.
var CentroidFeatures = []string{
	"avg_moving_speed_kmh",
	"max_speed_kmh",
	"distance_km",
	"excess_count",
	"total_excess_duration_sec",
	"excess_rate_per_km",
	"harsh_accel_windows",
	"harsh_brake_windows",
}

// Classifier threshold floors: percentile cuts never drop below these, so
// small or low-variance batches don't produce absurdly low cut points.
const (
	minModerateThreshold = 15
	minRiskyThreshold    = 30

	// Below this score spread the batch is too homogeneous to tier.
	degenerateScoreRange = 10
)

// BatchClassification is the result of classifying one terrain: the records
// with tier assignments filled in, the thresholds that produced them, and
// per-tier centroids.
type BatchClassification struct {
	Records       []domain.DailyMetrics
	ThresholdLow  float64
	ThresholdHigh float64
	Degenerate    bool
	Centroids     [domain.TierCount][]float64
}

// ClassifyBatch assigns every scored record to one of the three risk tiers.
//
// Thresholds are recomputed from whichever records are passed in, so a
// day's tier is only meaningful relative to its batch: re-running over a
// different date sub-range can relabel an unchanged day.
func ClassifyBatch(batch []domain.DailyMetrics) BatchClassification {
	out := BatchClassification{
		Records: make([]domain.DailyMetrics, len(batch)),
	}
	copy(out.Records, batch)

	if len(batch) == 0 {
		out.Centroids = centroids(nil)
		return out
	}

	scores := make([]float64, len(batch))
	minScore, maxScore := math.Inf(1), math.Inf(-1)
	for i, m := range batch {
		scores[i] = m.RiskScore
		minScore = math.Min(minScore, m.RiskScore)
		maxScore = math.Max(maxScore, m.RiskScore)
	}

	if maxScore-minScore < degenerateScoreRange {
		// Too flat to discriminate: the whole terrain reads as safe.
		out.Degenerate = true
		for i := range out.Records {
			out.Records[i].ClusterID = domain.TierSafe
			out.Records[i].ProfileLabel = domain.TierSafe.Label()
		}
		out.Centroids = centroids(out.Records)
		return out
	}

	sort.Float64s(scores)
	out.ThresholdLow = math.Max(percentile(scores, 33), minModerateThreshold)
	out.ThresholdHigh = math.Max(percentile(scores, 67), minRiskyThreshold)
	if out.ThresholdHigh <= out.ThresholdLow {
		out.ThresholdHigh = out.ThresholdLow + 10
	}

	for i := range out.Records {
		tier := domain.TierRisky
		switch score := out.Records[i].RiskScore; {
		case score < out.ThresholdLow:
			tier = domain.TierSafe
		case score < out.ThresholdHigh:
			tier = domain.TierModerate
		}
		out.Records[i].ClusterID = tier
		out.Records[i].ProfileLabel = tier.Label()
	}

	out.Centroids = centroids(out.Records)
	return out
}

// centroids averages the centroid feature subset per tier. Tiers with no
// members get an all-zero vector.
func centroids(records []domain.DailyMetrics) [domain.TierCount][]float64 {
	var out [domain.TierCount][]float64
	var sums [domain.TierCount][]float64
	var counts [domain.TierCount]int

	for t := 0; t < domain.TierCount; t++ {
		out[t] = make([]float64, len(CentroidFeatures))
		sums[t] = make([]float64, len(CentroidFeatures))
	}

	for _, m := range records {
		t := int(m.ClusterID)
		counts[t]++
		for fi, v := range featureVector(m) {
			sums[t][fi] += v
		}
	}

	for t := 0; t < domain.TierCount; t++ {
		if counts[t] == 0 {
			continue
		}
		for fi := range sums[t] {
			out[t][fi] = sums[t][fi] / float64(counts[t])
		}
	}
	return out
}

func featureVector(m domain.DailyMetrics) []float64 {
	return []float64{
		m.AvgMovingSpeedKmh,
		m.MaxSpeedKmh,
		m.DistanceKm,
		float64(m.ExcessCount),
		m.TotalExcessDurationSec,
		m.ExcessRatePerKm,
		float64(m.HarshAccelWindows),
		float64(m.HarshBrakeWindows),
	}
}

// percentile computes the p-th percentile of sorted values with linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
