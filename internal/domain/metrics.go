package domain

import "time"

// TimeBucket is a quarter-of-day slot an excess episode starts in.
type TimeBucket string

const (
	BucketNight     TimeBucket = "night"     // [00:00, 06:00)
	BucketMorning   TimeBucket = "morning"   // [06:00, 12:00)
	BucketAfternoon TimeBucket = "afternoon" // [12:00, 18:00)
	BucketEvening   TimeBucket = "evening"   // [18:00, 24:00)
)

// BucketForHour maps an hour of day to its time bucket.
func BucketForHour(hour int) TimeBucket {
	switch {
	case hour < 6:
		return BucketNight
	case hour < 12:
		return BucketMorning
	case hour < 18:
		return BucketAfternoon
	default:
		return BucketEvening
	}
}

// Tier is one of the three ordered risk classes.
type Tier int

const (
	TierSafe Tier = iota
	TierModerate
	TierRisky

	TierCount = 3
)

func (t Tier) Label() string {
	switch t {
	case TierSafe:
		return "Safe Driving"
	case TierModerate:
		return "Moderate Driving"
	case TierRisky:
		return "Risky Driving"
	default:
		return "Unknown"
	}
}

// DailyMetrics is the per-vehicle-day record produced by the aggregator.
// RiskScore, ClusterID and ProfileLabel are filled in later by the scorer
// and classifier; ProfileLabel is only meaningful relative to the batch it
// was classified in.
type DailyMetrics struct {
	Date      time.Time `json:"date"`
	VehicleID string    `json:"vehicle_id"`

	DistanceKm             float64            `json:"distance_km"`
	GPSDistanceKm          float64            `json:"gps_distance_km"`
	AvgMovingSpeedKmh      float64            `json:"avg_moving_speed_kmh"`
	MaxSpeedKmh            float64            `json:"max_speed_kmh"`
	ExcessCount            int                `json:"excess_count"`
	TotalExcessDurationSec float64            `json:"total_excess_duration_sec"`
	ExcessRatePerKm        float64            `json:"excess_rate_per_km"`
	HarshAccelWindows      int                `json:"harsh_accel_windows"`
	HarshBrakeWindows      int                `json:"harsh_brake_windows"`
	ExcessByTimeBucket     map[TimeBucket]int `json:"excess_by_time_bucket"`
	DrivingMinutes         float64            `json:"driving_minutes"`

	RiskScore    float64 `json:"risk_score"`
	ClusterID    Tier    `json:"cluster_id"`
	ProfileLabel string  `json:"profile_label"`
}
