package pipeline

import (
	"math"
	"time"

	"fleet-profiler/analysis/internal/domain"
)

// Thresholds are the analysis constants the aggregator works with.
type Thresholds struct {
	MovingSpeedKmh float64 // above this a sample counts as moving
	HarshAccel     float64 // (km/h)/s, window peak above fires harsh accel
	HarshBrake     float64 // (km/h)/s, negative; window min below fires harsh brake
	MaxGPSJumpKm   float64 // coordinate jumps longer than this are GPS noise
}

// DefaultThresholds returns the analysis defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MovingSpeedKmh: 1,
		HarshAccel:     10,
		HarshBrake:     -10,
		MaxGPSJumpKm:   1.0,
	}
}

// AggregateDay reduces one day's samples and excess episodes into a
// DailyMetrics record. The caller guarantees samples is non-empty.
func AggregateDay(vehicleID string, samples []domain.Sample, episodes []domain.ExcessEpisode, th Thresholds) domain.DailyMetrics {
	m := domain.DailyMetrics{
		Date:               samples[0].Timestamp.Truncate(24 * time.Hour),
		VehicleID:          vehicleID,
		ExcessCount:        len(episodes),
		ExcessByTimeBucket: make(map[domain.TimeBucket]int, 4),
	}

	var movingSum float64
	var movingCount int
	var dtSum float64

	for _, s := range samples {
		// Left-sample integration: each reading carries its speed across
		// the interval since the previous one.
		m.DistanceKm += s.SpeedKmh * s.DtSeconds / 3600
		dtSum += s.DtSeconds

		if s.SpeedKmh > th.MovingSpeedKmh {
			movingSum += s.SpeedKmh
			movingCount++
		}
		if s.SpeedKmh > m.MaxSpeedKmh {
			m.MaxSpeedKmh = s.SpeedKmh
		}
	}

	if movingCount > 0 {
		m.AvgMovingSpeedKmh = movingSum / float64(movingCount)
		// Approximation: moving samples times the day's mean interval.
		m.DrivingMinutes = float64(movingCount) * (dtSum / float64(len(samples))) / 60
	}

	for _, ep := range episodes {
		m.TotalExcessDurationSec += ep.DurationSeconds
		m.ExcessByTimeBucket[domain.BucketForHour(ep.StartTime.Hour())]++
	}
	if m.DistanceKm > 0 {
		m.ExcessRatePerKm = float64(m.ExcessCount) / m.DistanceKm
	}

	m.HarshAccelWindows, m.HarshBrakeWindows = harshWindows(samples, th)
	m.GPSDistanceKm = gpsDistanceKm(samples, th.MaxGPSJumpKm)

	return m
}

// harshWindows buckets samples into 1-minute wall-clock windows and counts
// windows whose peak acceleration exceeds the harsh-accel threshold and
// windows whose minimum falls below the harsh-brake threshold. A window can
// count toward both.
func harshWindows(samples []domain.Sample, th Thresholds) (accel, brake int) {
	type peak struct {
		max float64
		min float64
	}
	windows := make(map[time.Time]*peak)

	prevSpeed := samples[0].SpeedKmh
	for i, s := range samples {
		var acc float64
		if i > 0 && s.DtSeconds > 0 {
			acc = (s.SpeedKmh - prevSpeed) / s.DtSeconds
		}
		prevSpeed = s.SpeedKmh

		key := s.Timestamp.Truncate(time.Minute)
		p, ok := windows[key]
		if !ok {
			windows[key] = &peak{max: acc, min: acc}
			continue
		}
		if acc > p.max {
			p.max = acc
		}
		if acc < p.min {
			p.min = acc
		}
	}

	for _, p := range windows {
		if p.max > th.HarshAccel {
			accel++
		}
		if p.min < th.HarshBrake {
			brake++
		}
	}
	return accel, brake
}

// gpsDistanceKm sums haversine distances over consecutive coordinate fixes,
// dropping jumps longer than maxJumpKm as receiver noise. Needs at least
// two fixes; returns 0 otherwise.
func gpsDistanceKm(samples []domain.Sample, maxJumpKm float64) float64 {
	var total float64
	var prevLat, prevLon float64
	havePrev := false

	for _, s := range samples {
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		lat, lon := *s.Latitude, *s.Longitude
		if !havePrev {
			prevLat, prevLon = lat, lon
			havePrev = true
			continue
		}
		d := haversineKm(prevLat, prevLon, lat, lon)
		if d <= maxJumpKm {
			total += d
			prevLat, prevLon = lat, lon
		}
	}
	return total
}

const earthRadiusKm = 6371

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}
