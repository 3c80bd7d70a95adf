package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "fleet_user"),
		dbGetEnv("DB_PASSWORD", "fleet_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "fleet_profiler"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to Postgres...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Postgres is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_metrics_table(ctx, conn)
	step2_indexes(ctx, conn)
	step3_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run scripts/seed_redis/seed_redis.go")
}

// ─────────────────────────────────────────────────────────────
// Step 1 — daily_metrics table
// ─────────────────────────────────────────────────────────────
func step1_metrics_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: daily_metrics table ─────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS daily_metrics (

			-- One row per vehicle-day; re-analysis replaces the row
			date                      DATE             NOT NULL,
			vehicle_id                TEXT             NOT NULL,

			-- Distance and speed
			distance_km               DOUBLE PRECISION NOT NULL DEFAULT 0,
			gps_distance_km           DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_moving_speed_kmh      DOUBLE PRECISION NOT NULL DEFAULT 0,
			max_speed_kmh             DOUBLE PRECISION NOT NULL DEFAULT 0,

			-- Speed-excess episodes
			excess_count              INTEGER          NOT NULL DEFAULT 0,
			total_excess_duration_sec DOUBLE PRECISION NOT NULL DEFAULT 0,
			excess_rate_per_km        DOUBLE PRECISION NOT NULL DEFAULT 0,

			-- Harsh 1-minute windows
			harsh_accel_windows       INTEGER          NOT NULL DEFAULT 0,
			harsh_brake_windows       INTEGER          NOT NULL DEFAULT 0,

			-- Episode starts per quarter of day
			excess_by_time_bucket     JSONB,

			driving_minutes           DOUBLE PRECISION NOT NULL DEFAULT 0,

			-- Baseline composite score; tier labels are batch-relative
			-- and recomputed on read, so they are never stored
			risk_score                DOUBLE PRECISION NOT NULL DEFAULT 0,

			created_at                TIMESTAMPTZ      NOT NULL DEFAULT NOW(),

			PRIMARY KEY (vehicle_id, date)
		);
	`, "daily_metrics table created")
}

// ─────────────────────────────────────────────────────────────
// Step 2 — Indexes
// ─────────────────────────────────────────────────────────────
func step2_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_metrics_vehicle_date",
			sql: `CREATE INDEX IF NOT EXISTS idx_metrics_vehicle_date
				  ON daily_metrics (vehicle_id, date DESC);`,
			why: "query: terrain range for one vehicle",
		},
		{
			name: "idx_metrics_risk_score",
			sql: `CREATE INDEX IF NOT EXISTS idx_metrics_risk_score
				  ON daily_metrics (vehicle_id, risk_score DESC);`,
			why: "query: worst days per vehicle",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-30s ← %s", idx.name, idx.why),
		)
	}
}

// ─────────────────────────────────────────────────────────────
// Step 3 — Verify everything was created
// ─────────────────────────────────────────────────────────────
func step3_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: Verification ────────────────────────")

	var exists bool
	err := conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = 'daily_metrics'
		)
	`).Scan(&exists)
	if err != nil || !exists {
		log.Fatalf("Table daily_metrics was not created: %v", err)
	}
	fmt.Println("  ✓ table: daily_metrics")

	var indexCount int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = 'daily_metrics'
		AND indexname LIKE 'idx_%'
	`).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

// execOrFatal runs a SQL statement and prints result or exits on error
func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED — %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
