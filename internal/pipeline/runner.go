package pipeline

import (
	"context"
	"log"
	"sort"
	"sync"

	"fleet-profiler/analysis/internal/domain"
	"fleet-profiler/analysis/internal/metrics"
)

// DaySource is one day's raw record stream awaiting analysis. Name is only
// used for logging (typically the export file name).
type DaySource struct {
	VehicleID string
	Name      string
	Records   []domain.RawRecord
}

// Runner maps day sources to scored daily metrics in parallel, then runs
// the batch-relative classifier over the complete set. It holds no state
// between runs; every invocation is an independent request → result pass.
type Runner struct {
	thresholds Thresholds
	workers    int

	// When enhanced scoring is on, the over-threshold penalty against
	// speedThreshold joins the factor mix.
	enhanced       bool
	speedThreshold float64
}

type RunnerOption func(*Runner)

// WithWorkers sets the per-day worker count (minimum 1).
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithThresholds overrides the default analysis thresholds.
func WithThresholds(th Thresholds) RunnerOption {
	return func(r *Runner) { r.thresholds = th }
}

// WithEnhancedScoring switches to the five-factor score against the given
// company speed threshold.
func WithEnhancedScoring(speedThreshold float64) RunnerOption {
	return func(r *Runner) {
		r.enhanced = true
		r.speedThreshold = speedThreshold
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		thresholds:     DefaultThresholds(),
		workers:        4,
		speedThreshold: DefaultCompanySpeedThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every day source to a scored DailyMetrics record, then
// classifies the complete batch. Days that fail to parse are logged and
// skipped; they never abort sibling days. Records come back sorted by date.
func (r *Runner) Run(ctx context.Context, days []DaySource) BatchClassification {
	in := make(chan DaySource)
	var mu sync.Mutex
	batch := make([]domain.DailyMetrics, 0, len(days))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for day := range in {
				m, ok := r.processDay(day)
				if !ok {
					continue
				}
				mu.Lock()
				batch = append(batch, m)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, day := range days {
		select {
		case in <- day:
		case <-ctx.Done():
			break feed
		}
	}
	close(in)
	wg.Wait()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Date.Before(batch[j].Date) })

	metrics.BatchesAnalyzed.Add(1)
	return ClassifyBatch(batch)
}

// processDay runs one day through load → detect → aggregate → score.
// Any failure, including a panic from unexpected input, skips the day.
func (r *Runner) processDay(day DaySource) (m domain.DailyMetrics, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("Day %s (%s) aborted: %v", day.Name, day.VehicleID, p)
			metrics.DaysSkipped.Add(1)
			ok = false
		}
	}()

	samples, err := LoadDay(day.Records)
	if err != nil {
		log.Printf("Day %s (%s) skipped: %v", day.Name, day.VehicleID, err)
		metrics.DaysSkipped.Add(1)
		return domain.DailyMetrics{}, false
	}
	if len(samples) == 0 {
		log.Printf("Day %s (%s) skipped: no samples", day.Name, day.VehicleID)
		metrics.DaysSkipped.Add(1)
		return domain.DailyMetrics{}, false
	}

	episodes := DetectExcessRuns(samples)
	m = AggregateDay(day.VehicleID, samples, episodes, r.thresholds)

	if r.enhanced {
		m.RiskScore = EnhancedRiskScore(m, r.speedThreshold)
	} else {
		m.RiskScore = RiskScore(m)
	}

	metrics.DaysProcessed.Add(1)
	return m, true
}
