package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	DaysProcessed   atomic.Int64
	DaysSkipped     atomic.Int64
	BatchesAnalyzed atomic.Int64
	PersistSuccess  atomic.Int64
	PersistFailures atomic.Int64
	CacheFailures   atomic.Int64
	PublishFailures atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "analysis_days_processed_total %d\n", DaysProcessed.Load())
	fmt.Fprintf(w, "analysis_days_skipped_total %d\n", DaysSkipped.Load())
	fmt.Fprintf(w, "analysis_batches_analyzed_total %d\n", BatchesAnalyzed.Load())
	fmt.Fprintf(w, "analysis_persist_success_total %d\n", PersistSuccess.Load())
	fmt.Fprintf(w, "analysis_persist_failures_total %d\n", PersistFailures.Load())
	fmt.Fprintf(w, "analysis_cache_failures_total %d\n", CacheFailures.Load())
	fmt.Fprintf(w, "analysis_publish_failures_total %d\n", PublishFailures.Load())
}
