package pipeline

import (
	"regexp"
	"strconv"

	"fleet-profiler/analysis/internal/domain"
)

// speedExcessRe matches the tracker's speed-excess sentence, e.g.
// "Exceso de Velocidad: 101 km/h en zona de 80 km/h". Only the flag bit
// matters for grouping; the captured values are not propagated yet.
var speedExcessRe = regexp.MustCompile(
	`(?i)exceso de velocidad:\s*([0-9]+(?:\.[0-9]+)?)\s*km/h\s+en\s+zona\s+de\s*([0-9]+(?:\.[0-9]+)?)\s*km/h`)

// minutesRe matches the tracker's explicit duration phrase, e.g.
// "durante 3 minutos".
var minutesRe = regexp.MustCompile(`(?i)durante\s*(\d+)\s*minutos?`)

type run struct {
	start   int
	end     int // inclusive
	flagged bool
}

// DetectExcessRuns partitions a day's samples into maximal runs of
// consecutive excess-flagged / unflagged samples and returns one episode
// per flagged run, in order. A day with no flagged samples returns an
// empty list.
func DetectExcessRuns(samples []domain.Sample) []domain.ExcessEpisode {
	episodes := make([]domain.ExcessEpisode, 0)

	for _, r := range partitionRuns(samples) {
		if !r.flagged {
			continue
		}

		start := samples[r.start]

		// Boundary reconciliation: the run really ends when the next
		// sample arrives; fall back to the run's own dt sum when the run
		// closes the day.
		var duration float64
		if r.end+1 < len(samples) {
			duration = samples[r.end+1].Timestamp.Sub(start.Timestamp).Seconds()
		} else {
			for i := r.start; i <= r.end; i++ {
				duration += samples[i].DtSeconds
			}
		}

		// An explicit "durante N minutos" phrase adds to the boundary
		// duration; it does not replace it.
		if mins := maxMinutesPhrase(samples[r.start : r.end+1]); mins > 0 {
			duration += float64(mins * 60)
		}

		episodes = append(episodes, domain.ExcessEpisode{
			StartTime:        start.Timestamp,
			DurationSeconds:  duration,
			StartSampleIndex: r.start,
			EndSampleIndex:   r.end,
		})
	}

	return episodes
}

// partitionRuns run-length partitions the sample sequence on the excess
// flag: a new run starts whenever the flag differs from the previous
// sample. The runs cover every index exactly once.
func partitionRuns(samples []domain.Sample) []run {
	if len(samples) == 0 {
		return nil
	}

	runs := []run{{start: 0, end: 0, flagged: isExcessFlagged(samples[0].RawText)}}
	for i := 1; i < len(samples); i++ {
		flagged := isExcessFlagged(samples[i].RawText)
		last := &runs[len(runs)-1]
		if flagged == last.flagged {
			last.end = i
			continue
		}
		runs = append(runs, run{start: i, end: i, flagged: flagged})
	}
	return runs
}

func isExcessFlagged(text string) bool {
	return speedExcessRe.MatchString(text)
}

func maxMinutesPhrase(samples []domain.Sample) int {
	max := 0
	for _, s := range samples {
		m := minutesRe.FindStringSubmatch(s.RawText)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max
}
