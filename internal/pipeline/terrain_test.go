package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-profiler/analysis/internal/domain"
	"fleet-profiler/analysis/internal/pipeline"
)

func TestSummarizeTerrain(t *testing.T) {
	batch := scoredBatch(10, 12, 90)
	batch[0].DistanceKm = 100
	batch[0].AvgMovingSpeedKmh = 50
	batch[0].ExcessCount = 1
	batch[0].TotalExcessDurationSec = 60
	batch[1].DistanceKm = 200
	batch[1].AvgMovingSpeedKmh = 70
	batch[1].MaxSpeedKmh = 110
	batch[1].ExcessCount = 3
	batch[1].TotalExcessDurationSec = 240
	batch[2].DistanceKm = 50

	classified := pipeline.ClassifyBatch(batch)
	s := pipeline.SummarizeTerrain(classified.Records)

	assert.Equal(t, "TWJL30", s.VehicleID)
	assert.Equal(t, 3, s.Days)
	assert.Equal(t, batch[0].Date, s.StartDate)
	assert.Equal(t, batch[2].Date, s.EndDate)
	assert.InDelta(t, 350, s.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 40, s.MeanMovingSpeedKmh, 1e-9)
	assert.InDelta(t, 110, s.MaxSpeedKmh, 1e-9)
	assert.Equal(t, 4, s.TotalExcessCount)
	assert.InDelta(t, 300, s.TotalExcessDurationSec, 1e-9)
	assert.InDelta(t, 112.0/3, s.MeanRiskScore, 1e-9)
	assert.InDelta(t, 90, s.MaxRiskScore, 1e-9)
	// Two of three days classify safe.
	assert.Equal(t, domain.TierSafe.Label(), s.DominantTier)
}

func TestSummarizeTerrainEmptyBatch(t *testing.T) {
	s := pipeline.SummarizeTerrain(nil)
	assert.Equal(t, 0, s.Days)
	assert.Equal(t, "", s.DominantTier)
}

func TestMaxSpeedDay(t *testing.T) {
	batch := scoredBatch(10, 20, 30)
	batch[0].MaxSpeedKmh = 90
	batch[1].MaxSpeedKmh = 130
	batch[2].MaxSpeedKmh = 110

	got, ok := pipeline.MaxSpeedDay(batch)
	require.True(t, ok)
	assert.Equal(t, batch[1].Date, got.Date)
	assert.Equal(t, 130.0, got.MaxSpeedKmh)

	_, ok = pipeline.MaxSpeedDay(nil)
	assert.False(t, ok)
}

func TestTierCharacteristicsSkipsEmptyTiers(t *testing.T) {
	batch := scoredBatch(5, 10, 95)
	batch[0].DistanceKm = 100
	batch[1].DistanceKm = 200

	classified := pipeline.ClassifyBatch(batch)
	profiles := pipeline.TierCharacteristics(classified.Records)

	// Safe (2 members) and risky (1); moderate is empty and omitted.
	require.Len(t, profiles, 2)

	assert.Equal(t, domain.TierSafe, profiles[0].Tier)
	assert.Equal(t, 2, profiles[0].Days)
	assert.Len(t, profiles[0].Dates, 2)
	assert.InDelta(t, 150, profiles[0].MeanDistanceKm, 1e-9)

	assert.Equal(t, domain.TierRisky, profiles[1].Tier)
	assert.Equal(t, 1, profiles[1].Days)
}
