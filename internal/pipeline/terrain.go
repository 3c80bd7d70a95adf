package pipeline

import (
	"time"

	"fleet-profiler/analysis/internal/domain"
)

// TerrainSummary aggregates one classified batch for the report layer and
// the narrative boundary.
type TerrainSummary struct {
	VehicleID string    `json:"vehicle_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      int       `json:"days"`

	TotalDistanceKm        float64 `json:"total_distance_km"`
	MeanMovingSpeedKmh     float64 `json:"mean_moving_speed_kmh"`
	MaxSpeedKmh            float64 `json:"max_speed_kmh"`
	TotalExcessCount       int     `json:"total_excess_count"`
	TotalExcessDurationSec float64 `json:"total_excess_duration_sec"`
	MeanExcessRatePerKm    float64 `json:"mean_excess_rate_per_km"`
	TotalHarshAccel        int     `json:"total_harsh_accel"`
	TotalHarshBrake        int     `json:"total_harsh_brake"`
	MeanRiskScore          float64 `json:"mean_risk_score"`
	MaxRiskScore           float64 `json:"max_risk_score"`
	DominantTier           string  `json:"dominant_tier"`
}

// SummarizeTerrain reduces a classified batch to a terrain summary. Returns
// a zero summary when the batch is empty ("no data for selection").
func SummarizeTerrain(batch []domain.DailyMetrics) TerrainSummary {
	var s TerrainSummary
	if len(batch) == 0 {
		return s
	}

	s.VehicleID = batch[0].VehicleID
	s.StartDate = batch[0].Date
	s.EndDate = batch[0].Date
	s.Days = len(batch)

	var rateSum, speedSum float64
	tierCounts := make(map[string]int)

	for _, m := range batch {
		if m.Date.Before(s.StartDate) {
			s.StartDate = m.Date
		}
		if m.Date.After(s.EndDate) {
			s.EndDate = m.Date
		}
		s.TotalDistanceKm += m.DistanceKm
		speedSum += m.AvgMovingSpeedKmh
		if m.MaxSpeedKmh > s.MaxSpeedKmh {
			s.MaxSpeedKmh = m.MaxSpeedKmh
		}
		s.TotalExcessCount += m.ExcessCount
		s.TotalExcessDurationSec += m.TotalExcessDurationSec
		rateSum += m.ExcessRatePerKm
		s.TotalHarshAccel += m.HarshAccelWindows
		s.TotalHarshBrake += m.HarshBrakeWindows
		s.MeanRiskScore += m.RiskScore
		if m.RiskScore > s.MaxRiskScore {
			s.MaxRiskScore = m.RiskScore
		}
		tierCounts[m.ProfileLabel]++
	}

	n := float64(len(batch))
	s.MeanMovingSpeedKmh = speedSum / n
	s.MeanExcessRatePerKm = rateSum / n
	s.MeanRiskScore /= n

	best := -1
	for label, count := range tierCounts {
		if count > best || (count == best && label < s.DominantTier) {
			best = count
			s.DominantTier = label
		}
	}
	return s
}

// MaxSpeedDay returns the day with the highest recorded top speed.
func MaxSpeedDay(batch []domain.DailyMetrics) (domain.DailyMetrics, bool) {
	if len(batch) == 0 {
		return domain.DailyMetrics{}, false
	}
	best := batch[0]
	for _, m := range batch[1:] {
		if m.MaxSpeedKmh > best.MaxSpeedKmh {
			best = m
		}
	}
	return best, true
}

// TierProfile describes one tier's membership within a classified batch.
type TierProfile struct {
	Tier  domain.Tier `json:"tier"`
	Label string      `json:"label"`
	Days  int         `json:"days"`

	Dates []time.Time `json:"dates"`

	MeanMovingSpeedKmh float64 `json:"mean_moving_speed_kmh"`
	MeanDistanceKm     float64 `json:"mean_distance_km"`
	MeanExcessCount    float64 `json:"mean_excess_count"`
	MeanExcessRate     float64 `json:"mean_excess_rate_per_km"`
	MeanHarshAccel     float64 `json:"mean_harsh_accel"`
	MeanHarshBrake     float64 `json:"mean_harsh_brake"`
}

// TierCharacteristics summarizes each populated tier of a classified batch.
// Empty tiers are omitted.
func TierCharacteristics(batch []domain.DailyMetrics) []TierProfile {
	profiles := make([]TierProfile, 0, domain.TierCount)

	for t := domain.Tier(0); t < domain.TierCount; t++ {
		p := TierProfile{Tier: t, Label: t.Label()}
		for _, m := range batch {
			if m.ClusterID != t {
				continue
			}
			p.Days++
			p.Dates = append(p.Dates, m.Date)
			p.MeanMovingSpeedKmh += m.AvgMovingSpeedKmh
			p.MeanDistanceKm += m.DistanceKm
			p.MeanExcessCount += float64(m.ExcessCount)
			p.MeanExcessRate += m.ExcessRatePerKm
			p.MeanHarshAccel += float64(m.HarshAccelWindows)
			p.MeanHarshBrake += float64(m.HarshBrakeWindows)
		}
		if p.Days == 0 {
			continue
		}
		n := float64(p.Days)
		p.MeanMovingSpeedKmh /= n
		p.MeanDistanceKm /= n
		p.MeanExcessCount /= n
		p.MeanExcessRate /= n
		p.MeanHarshAccel /= n
		p.MeanHarshBrake /= n
		profiles = append(profiles, p)
	}
	return profiles
}
