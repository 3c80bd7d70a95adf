package pipeline

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"fleet-profiler/analysis/internal/domain"
)

// TimestampLayout is the wire format GPS exports use for the time column.
const TimestampLayout = "02/01/2006 15:04:05"

var bracketStripper = strings.NewReplacer("[", "", "]", "", "(", "", ")", "")

// LoadDay normalizes one day's raw records into a time-sorted sample
// sequence. It is a pure transform: the input slice is not mutated.
//
// An unparseable timestamp fails the whole day with MalformedInputError.
// Missing annotation fields become empty strings; non-numeric or missing
// speed becomes 0.
func LoadDay(records []domain.RawRecord) ([]domain.Sample, error) {
	samples := make([]domain.Sample, 0, len(records))

	for _, r := range records {
		ts, err := time.Parse(TimestampLayout, strings.TrimSpace(r.Timestamp))
		if err != nil {
			return nil, &domain.MalformedInputError{Field: "timestamp", Value: r.Timestamp, Err: err}
		}

		samples = append(samples, domain.Sample{
			Timestamp: ts,
			SpeedKmh:  coerceSpeed(r.Speed),
			RawText:   cleanText(r.Event + " " + r.Flags),
			Latitude:  parseCoord(r.Latitude),
			Longitude: parseCoord(r.Longitude),
		})
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	for i := range samples {
		if i == 0 {
			samples[i].DtSeconds = 0
			continue
		}
		samples[i].DtSeconds = samples[i].Timestamp.Sub(samples[i-1].Timestamp).Seconds()
	}

	return samples, nil
}

// cleanText strips bracket and parenthesis characters from an annotation
// and trims surrounding whitespace.
func cleanText(text string) string {
	return strings.TrimSpace(bracketStripper.Replace(text))
}

func coerceSpeed(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseCoord(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
