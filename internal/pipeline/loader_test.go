package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-profiler/analysis/internal/domain"
	"fleet-profiler/analysis/internal/pipeline"
)

func TestLoadDaySortsAndComputesDeltas(t *testing.T) {
	records := []domain.RawRecord{
		{Timestamp: "15/03/2025 08:02:00", Speed: "40"},
		{Timestamp: "15/03/2025 08:00:00", Speed: "10"},
		{Timestamp: "15/03/2025 08:01:00", Speed: "25"},
	}

	samples, err := pipeline.LoadDay(records)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, 10.0, samples[0].SpeedKmh)
	assert.Equal(t, 25.0, samples[1].SpeedKmh)
	assert.Equal(t, 40.0, samples[2].SpeedKmh)

	assert.Equal(t, 0.0, samples[0].DtSeconds)
	assert.Equal(t, 60.0, samples[1].DtSeconds)
	assert.Equal(t, 60.0, samples[2].DtSeconds)

	for i := 1; i < len(samples); i++ {
		assert.False(t, samples[i].Timestamp.Before(samples[i-1].Timestamp))
	}
}

func TestLoadDayAnnotationConcatenationAndStripping(t *testing.T) {
	records := []domain.RawRecord{
		{
			Timestamp: "15/03/2025 08:00:00",
			Event:     "[Exceso de Velocidad: 90 km/h en zona de 80 km/h]",
			Flags:     "(GPS fix)",
		},
		{Timestamp: "15/03/2025 08:01:00", Event: "", Flags: ""},
		{Timestamp: "15/03/2025 08:02:00", Flags: "idle"},
	}

	samples, err := pipeline.LoadDay(records)
	require.NoError(t, err)

	assert.Equal(t, "Exceso de Velocidad: 90 km/h en zona de 80 km/h GPS fix", samples[0].RawText)
	assert.Equal(t, "", samples[1].RawText)
	assert.Equal(t, "idle", samples[2].RawText)
}

func TestLoadDaySpeedCoercion(t *testing.T) {
	records := []domain.RawRecord{
		{Timestamp: "15/03/2025 08:00:00", Speed: "72.5"},
		{Timestamp: "15/03/2025 08:01:00", Speed: ""},
		{Timestamp: "15/03/2025 08:02:00", Speed: "n/a"},
		{Timestamp: "15/03/2025 08:03:00", Speed: "-4"},
	}

	samples, err := pipeline.LoadDay(records)
	require.NoError(t, err)

	assert.Equal(t, 72.5, samples[0].SpeedKmh)
	assert.Equal(t, 0.0, samples[1].SpeedKmh)
	assert.Equal(t, 0.0, samples[2].SpeedKmh)
	assert.Equal(t, 0.0, samples[3].SpeedKmh)
}

func TestLoadDayCoordinates(t *testing.T) {
	records := []domain.RawRecord{
		{Timestamp: "15/03/2025 08:00:00", Latitude: "-34.6037", Longitude: "-58.3816"},
		{Timestamp: "15/03/2025 08:01:00", Latitude: "", Longitude: "bad"},
	}

	samples, err := pipeline.LoadDay(records)
	require.NoError(t, err)

	require.NotNil(t, samples[0].Latitude)
	require.NotNil(t, samples[0].Longitude)
	assert.InDelta(t, -34.6037, *samples[0].Latitude, 1e-9)
	assert.InDelta(t, -58.3816, *samples[0].Longitude, 1e-9)

	assert.Nil(t, samples[1].Latitude)
	assert.Nil(t, samples[1].Longitude)
}

func TestLoadDayMalformedTimestampFailsTheDay(t *testing.T) {
	records := []domain.RawRecord{
		{Timestamp: "15/03/2025 08:00:00"},
		{Timestamp: "not a time"},
	}

	samples, err := pipeline.LoadDay(records)
	require.Error(t, err)
	assert.Nil(t, samples)

	var malformed *domain.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "timestamp", malformed.Field)
}

func TestLoadDayEmptyInput(t *testing.T) {
	samples, err := pipeline.LoadDay(nil)
	require.NoError(t, err)
	assert.Empty(t, samples)
}
