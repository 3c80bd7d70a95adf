package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"fleet-profiler/analysis/internal/config"
	"fleet-profiler/analysis/internal/domain"
	"fleet-profiler/analysis/internal/metrics"
	"fleet-profiler/analysis/internal/pipeline"
)

const dateParamLayout = "2006-01-02"

// tierColors are cosmetic and owned by the report layer.
var tierColors = map[domain.Tier]string{
	domain.TierSafe:     "#2ecc71",
	domain.TierModerate: "#f39c12",
	domain.TierRisky:    "#e74c3c",
}

// MetricsReader loads stored daily metrics for a vehicle's date range.
// *store.PostgresStore satisfies it.
type MetricsReader interface {
	GetMetricsRange(ctx context.Context, vehicleID string, from, to time.Time) ([]domain.DailyMetrics, error)
}

// TerrainCache caches rendered terrain responses. *store.RedisStore
// satisfies it; a nil cache disables caching.
type TerrainCache interface {
	GetTerrainResult(ctx context.Context, vehicleID, from, to string) ([]byte, error)
	CacheTerrainResult(ctx context.Context, vehicleID, from, to string, payload []byte, ttl time.Duration) error
}

// ReportHandler serves the read-only reporting surface: terrain metrics,
// tier centroids and characteristics for one vehicle over a date range.
type ReportHandler struct {
	db       MetricsReader
	cache    TerrainCache
	cacheTTL time.Duration
}

func NewReportHandler(cfg *config.Config, db MetricsReader, cache TerrainCache) *ReportHandler {
	return &ReportHandler{
		db:       db,
		cache:    cache,
		cacheTTL: time.Duration(cfg.TerrainCacheTTLSeconds) * time.Second,
	}
}

type tierCentroidView struct {
	Tier     domain.Tier `json:"tier"`
	Label    string      `json:"label"`
	Color    string      `json:"color"`
	Features []float64   `json:"features"`
}

type dayView struct {
	domain.DailyMetrics
	Color string `json:"color"`
}

type terrainResponse struct {
	Summary       pipeline.TerrainSummary `json:"summary"`
	Days          []dayView               `json:"days"`
	ThresholdLow  float64                 `json:"threshold_low"`
	ThresholdHigh float64                 `json:"threshold_high"`
	Degenerate    bool                    `json:"degenerate"`
	FeatureNames  []string                `json:"feature_names"`
	Centroids     []tierCentroidView      `json:"centroids"`
	Tiers         []pipeline.TierProfile  `json:"tiers"`
	MaxSpeedDate  string                  `json:"max_speed_date,omitempty"`
	MaxSpeedKmh   float64                 `json:"max_speed_kmh,omitempty"`
}

// HandleTerrain answers GET /api/v1/vehicles/{id}/terrain?from=...&to=...
// with a freshly classified batch for the selection. An optional
// speed_threshold query switches to enhanced scoring before classifying;
// those responses bypass the cache since they depend on the slider value.
func (h *ReportHandler) HandleTerrain(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.PathValue("id")
	from, errFrom := time.Parse(dateParamLayout, r.URL.Query().Get("from"))
	to, errTo := time.Parse(dateParamLayout, r.URL.Query().Get("to"))
	if vehicleID == "" || errFrom != nil || errTo != nil {
		writeError(w, http.StatusBadRequest, "vehicle id plus from/to dates (YYYY-MM-DD) are required")
		return
	}

	var speedThreshold float64
	enhanced := false
	if raw := r.URL.Query().Get("speed_threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "speed_threshold must be a positive number")
			return
		}
		speedThreshold = v
		enhanced = true
	}

	fromStr, toStr := from.Format(dateParamLayout), to.Format(dateParamLayout)
	if !enhanced && h.cache != nil {
		cached, err := h.cache.GetTerrainResult(r.Context(), vehicleID, fromStr, toStr)
		if err != nil {
			metrics.CacheFailures.Add(1)
			log.Printf("Terrain cache read failed for %s: %v", vehicleID, err)
		}
		if cached != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		}
	}

	batch, err := h.db.GetMetricsRange(r.Context(), vehicleID, from, to)
	if err != nil {
		log.Printf("Metrics range load failed for %s: %v", vehicleID, err)
		writeError(w, http.StatusInternalServerError, "failed to load metrics")
		return
	}
	if len(batch) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"days":    []dayView{},
			"message": "no data for selection",
		})
		return
	}

	if enhanced {
		for i := range batch {
			batch[i].RiskScore = pipeline.EnhancedRiskScore(batch[i], speedThreshold)
		}
	}

	classified := pipeline.ClassifyBatch(batch)

	resp := terrainResponse{
		Summary:       pipeline.SummarizeTerrain(classified.Records),
		Days:          make([]dayView, len(classified.Records)),
		ThresholdLow:  classified.ThresholdLow,
		ThresholdHigh: classified.ThresholdHigh,
		Degenerate:    classified.Degenerate,
		FeatureNames:  pipeline.CentroidFeatures,
		Tiers:         pipeline.TierCharacteristics(classified.Records),
	}
	for i, m := range classified.Records {
		resp.Days[i] = dayView{DailyMetrics: m, Color: tierColors[m.ClusterID]}
	}
	for t := domain.Tier(0); t < domain.TierCount; t++ {
		resp.Centroids = append(resp.Centroids, tierCentroidView{
			Tier:     t,
			Label:    t.Label(),
			Color:    tierColors[t],
			Features: classified.Centroids[t],
		})
	}
	if day, ok := pipeline.MaxSpeedDay(classified.Records); ok {
		resp.MaxSpeedDate = day.Date.Format(dateParamLayout)
		resp.MaxSpeedKmh = day.MaxSpeedKmh
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	if !enhanced && h.cache != nil {
		if err := h.cache.CacheTerrainResult(r.Context(), vehicleID, fromStr, toStr, payload, h.cacheTTL); err != nil {
			metrics.CacheFailures.Add(1)
			log.Printf("Terrain cache write failed for %s: %v", vehicleID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
