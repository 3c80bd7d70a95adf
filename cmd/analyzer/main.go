package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"fleet-profiler/analysis/internal/config"
	"fleet-profiler/analysis/internal/domain"
	"fleet-profiler/analysis/internal/metrics"
	"fleet-profiler/analysis/internal/pipeline"
	"fleet-profiler/analysis/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	vehicleID := flag.String("vehicle", "", "vehicle id the day files belong to (required)")
	enhanced := flag.Bool("enhanced", false,
		"score against the configured company speed threshold")
	speedThreshold := flag.Float64("speed-threshold", 0,
		"company speed threshold in km/h; overrides the configured one and implies -enhanced")
	flag.Parse()

	if *vehicleID == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: analyzer -vehicle <id> [-enhanced] [-speed-threshold <kmh>] <day.jsonl> ...")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	days := make([]pipeline.DaySource, 0, flag.NArg())
	for _, path := range flag.Args() {
		records, err := readDayFile(path)
		if err != nil {
			// Same skip policy as a malformed day: log and keep going.
			log.Printf("Day file %s skipped: %v", path, err)
			metrics.DaysSkipped.Add(1)
			continue
		}
		days = append(days, pipeline.DaySource{
			VehicleID: *vehicleID,
			Name:      filepath.Base(path),
			Records:   records,
		})
	}

	opts := []pipeline.RunnerOption{
		pipeline.WithWorkers(cfg.DayWorkers),
		pipeline.WithThresholds(pipeline.Thresholds{
			MovingSpeedKmh: cfg.MovingSpeedKmh,
			HarshAccel:     cfg.HarshAccelThreshold,
			HarshBrake:     cfg.HarshBrakeThreshold,
			MaxGPSJumpKm:   cfg.MaxGPSJumpKm,
		}),
	}
	if *speedThreshold > 0 {
		opts = append(opts, pipeline.WithEnhancedScoring(*speedThreshold))
	} else if *enhanced {
		opts = append(opts, pipeline.WithEnhancedScoring(cfg.CompanySpeedThreshold))
	}

	classified := pipeline.NewRunner(opts...).Run(ctx, days)
	if len(classified.Records) == 0 {
		log.Println("No data for selection: every day was empty or failed to parse")
		return
	}

	printReport(classified)
	persist(ctx, cfg, classified)
}

// readDayFile reads one day's records from a newline-delimited JSON export.
func readDayFile(path string) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []domain.RawRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r domain.RawRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("bad record line: %w", err)
		}
		records = append(records, r)
	}
	return records, scanner.Err()
}

func printReport(c pipeline.BatchClassification) {
	fmt.Printf("%-12s %9s %9s %7s %7s %6s  %s\n",
		"DATE", "DIST_KM", "MAX_KMH", "EXCESS", "HARSH", "SCORE", "PROFILE")
	for _, m := range c.Records {
		fmt.Printf("%-12s %9.1f %9.1f %7d %7d %6.1f  %s\n",
			m.Date.Format("2006-01-02"),
			m.DistanceKm,
			m.MaxSpeedKmh,
			m.ExcessCount,
			m.HarshAccelWindows+m.HarshBrakeWindows,
			m.RiskScore,
			m.ProfileLabel,
		)
	}

	s := pipeline.SummarizeTerrain(c.Records)
	fmt.Printf("\nTerrain %s → %s: %d days, %.1f km, mean score %.1f, dominant tier %s\n",
		s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"),
		s.Days, s.TotalDistanceKm, s.MeanRiskScore, s.DominantTier)
	if c.Degenerate {
		fmt.Println("Score spread under 10: whole terrain classified safe")
	} else {
		fmt.Printf("Tier thresholds: safe < %.1f <= moderate < %.1f <= risky\n",
			c.ThresholdLow, c.ThresholdHigh)
	}
}

// persist writes the batch to Postgres and announces it over Redis.
// Both are best effort: the computed metrics stand even when the stores
// are unreachable.
func persist(ctx context.Context, cfg *config.Config, c pipeline.BatchClassification) {
	db, err := store.NewPostgresStore(ctx, cfg)
	if err != nil {
		log.Printf("Postgres unavailable, skipping persistence: %v", err)
	} else {
		defer db.Close()
		if err := db.SaveDailyMetrics(ctx, c.Records); err != nil {
			metrics.PersistFailures.Add(1)
			log.Printf("Metrics persist failed: %v", err)
		} else {
			metrics.PersistSuccess.Add(int64(len(c.Records)))
			log.Printf("Persisted %d daily metrics", len(c.Records))
		}
	}

	redis, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		log.Printf("Redis unavailable, skipping analysis announcement: %v", err)
		return
	}
	defer redis.Close()

	summary := pipeline.SummarizeTerrain(c.Records)
	payload, err := json.Marshal(map[string]interface{}{
		"vehicle_id":   summary.VehicleID,
		"start_date":   summary.StartDate.Format("2006-01-02"),
		"end_date":     summary.EndDate.Format("2006-01-02"),
		"days":         summary.Days,
		"mean_score":   summary.MeanRiskScore,
		"dominant":     summary.DominantTier,
		"announced_at": time.Now().Unix(),
	})
	if err != nil {
		log.Printf("Announcement marshal failed: %v", err)
		return
	}
	if err := redis.PublishAnalysis(ctx, summary.VehicleID, payload); err != nil {
		metrics.PublishFailures.Add(1)
		log.Printf("Analysis announce failed: %v", err)
	}
}
