package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-profiler/analysis/internal/domain"
	"fleet-profiler/analysis/internal/pipeline"
)

func scoredBatch(scores ...float64) []domain.DailyMetrics {
	batch := make([]domain.DailyMetrics, len(scores))
	for i, s := range scores {
		batch[i] = domain.DailyMetrics{
			Date:      day.AddDate(0, 0, i),
			VehicleID: "TWJL30",
			RiskScore: s,
		}
	}
	return batch
}

func TestClassifyDynamicThresholds(t *testing.T) {
	c := pipeline.ClassifyBatch(scoredBatch(5, 10, 15, 85, 90, 95))

	assert.False(t, c.Degenerate)
	// p33 ≈ 13.25 floors to 15; p67 ≈ 86.75 clears the 30 floor.
	assert.InDelta(t, 15, c.ThresholdLow, 1e-9)
	assert.InDelta(t, 86.75, c.ThresholdHigh, 1e-9)

	wantTiers := []domain.Tier{
		domain.TierSafe, domain.TierSafe,
		domain.TierModerate, domain.TierModerate,
		domain.TierRisky, domain.TierRisky,
	}
	require.Len(t, c.Records, len(wantTiers))
	for i, want := range wantTiers {
		assert.Equal(t, want, c.Records[i].ClusterID, "record %d (score %.0f)", i, c.Records[i].RiskScore)
		assert.Equal(t, want.Label(), c.Records[i].ProfileLabel)
	}
}

func TestClassifyDegenerateFlatBatch(t *testing.T) {
	scores := make([]float64, 10)
	for i := range scores {
		scores[i] = 20
	}

	c := pipeline.ClassifyBatch(scoredBatch(scores...))

	assert.True(t, c.Degenerate)
	for _, m := range c.Records {
		assert.Equal(t, domain.TierSafe, m.ClusterID)
	}
}

func TestClassifyThresholdOrderingForced(t *testing.T) {
	// Both percentiles land on 35; the high cut must be forced above the
	// low one.
	c := pipeline.ClassifyBatch(scoredBatch(35, 35, 35, 35, 50))

	assert.Greater(t, c.ThresholdHigh, c.ThresholdLow)
	assert.InDelta(t, 35, c.ThresholdLow, 1e-9)
	assert.InDelta(t, 45, c.ThresholdHigh, 1e-9)

	for _, m := range c.Records {
		switch m.RiskScore {
		case 35:
			assert.Equal(t, domain.TierModerate, m.ClusterID)
		case 50:
			assert.Equal(t, domain.TierRisky, m.ClusterID)
		}
	}
}

func TestClassifyEveryRecordGetsExactlyOneTier(t *testing.T) {
	c := pipeline.ClassifyBatch(scoredBatch(0, 12, 18, 25, 33, 47, 58, 71, 88, 100))

	for _, m := range c.Records {
		assert.GreaterOrEqual(t, int(m.ClusterID), 0)
		assert.Less(t, int(m.ClusterID), domain.TierCount)
		assert.NotEmpty(t, m.ProfileLabel)
	}
}

func TestClassifyBatchRelativeRelabeling(t *testing.T) {
	// The same day can change tier when the batch membership changes.
	wide := pipeline.ClassifyBatch(scoredBatch(20, 25, 90, 95))
	narrow := pipeline.ClassifyBatch(scoredBatch(20, 25))

	var wideTier, narrowTier domain.Tier
	for _, m := range wide.Records {
		if m.RiskScore == 20 {
			wideTier = m.ClusterID
		}
	}
	for _, m := range narrow.Records {
		if m.RiskScore == 20 {
			narrowTier = m.ClusterID
		}
	}

	assert.Equal(t, domain.TierSafe, wideTier)
	// Narrow batch has spread < 10 → degenerate, also safe.
	assert.True(t, narrow.Degenerate)
	assert.Equal(t, domain.TierSafe, narrowTier)
}

func TestClassifyCentroids(t *testing.T) {
	batch := scoredBatch(5, 10, 95)
	batch[0].AvgMovingSpeedKmh = 40
	batch[0].DistanceKm = 100
	batch[1].AvgMovingSpeedKmh = 60
	batch[1].DistanceKm = 200
	batch[2].AvgMovingSpeedKmh = 90
	batch[2].MaxSpeedKmh = 140

	c := pipeline.ClassifyBatch(batch)

	for t2 := 0; t2 < domain.TierCount; t2++ {
		require.Len(t, c.Centroids[t2], len(pipeline.CentroidFeatures))
	}

	// Safe tier (scores 5, 10): means of the two members.
	assert.InDelta(t, 50, c.Centroids[domain.TierSafe][0], 1e-9)
	assert.InDelta(t, 150, c.Centroids[domain.TierSafe][2], 1e-9)

	// Risky tier (score 95): single member.
	assert.InDelta(t, 90, c.Centroids[domain.TierRisky][0], 1e-9)
	assert.InDelta(t, 140, c.Centroids[domain.TierRisky][1], 1e-9)

	// Moderate tier is empty → all-zero vector.
	for _, v := range c.Centroids[domain.TierModerate] {
		assert.Equal(t, 0.0, v)
	}
}

func TestClassifyEmptyBatch(t *testing.T) {
	c := pipeline.ClassifyBatch(nil)

	assert.Empty(t, c.Records)
	for t2 := 0; t2 < domain.TierCount; t2++ {
		require.Len(t, c.Centroids[t2], len(pipeline.CentroidFeatures))
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	batch := scoredBatch(5, 50, 95)
	pipeline.ClassifyBatch(batch)

	for _, m := range batch {
		assert.Empty(t, m.ProfileLabel)
	}
}
