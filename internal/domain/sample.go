package domain

import "time"

// RawRecord is one row of a per-day record source, before normalization.
// Fields are kept as strings so blank cells survive the boundary; the
// loader owns all coercion.
type RawRecord struct {
	Timestamp string `json:"timestamp"`
	Speed     string `json:"speed"`
	Event     string `json:"event"`
	Flags     string `json:"flags"`
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
}

// Sample is one normalized telemetry reading. Samples for a day are
// ordered by timestamp ascending.
type Sample struct {
	Timestamp time.Time
	SpeedKmh  float64
	RawText   string
	DtSeconds float64

	Latitude  *float64
	Longitude *float64
}

// ExcessEpisode is a maximal contiguous run of excess-flagged samples.
// Built once per day from a finalized sample sequence, immutable after.
type ExcessEpisode struct {
	StartTime        time.Time
	DurationSeconds  float64
	StartSampleIndex int
	EndSampleIndex   int
}
