package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleet-profiler/analysis/internal/config"
	"fleet-profiler/analysis/internal/domain"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var metricsColumns = []string{
	"date",
	"vehicle_id",
	"distance_km",
	"gps_distance_km",
	"avg_moving_speed_kmh",
	"max_speed_kmh",
	"excess_count",
	"total_excess_duration_sec",
	"excess_rate_per_km",
	"harsh_accel_windows",
	"harsh_brake_windows",
	"excess_by_time_bucket",
	"driving_minutes",
	"risk_score",
}

// SaveDailyMetrics replaces the stored metrics for the batch's vehicle-days
// and bulk-loads the new records in one transaction. Tier assignments are
// batch-relative, so they are recomputed on read and not persisted.
func (s *PostgresStore) SaveDailyMetrics(ctx context.Context, batch []domain.DailyMetrics) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(batch))
	dates := make([]time.Time, len(batch))
	for i, m := range batch {
		buckets, err := json.Marshal(m.ExcessByTimeBucket)
		if err != nil {
			return fmt.Errorf("failed to marshal time buckets: %w", err)
		}
		dates[i] = m.Date
		rows[i] = []interface{}{
			m.Date,
			m.VehicleID,
			m.DistanceKm,
			m.GPSDistanceKm,
			m.AvgMovingSpeedKmh,
			m.MaxSpeedKmh,
			m.ExcessCount,
			m.TotalExcessDurationSec,
			m.ExcessRatePerKm,
			m.HarshAccelWindows,
			m.HarshBrakeWindows,
			string(buckets),
			m.DrivingMinutes,
			m.RiskScore,
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM daily_metrics WHERE vehicle_id = $1 AND date = ANY($2)`,
		batch[0].VehicleID, dates,
	)
	if err != nil {
		return fmt.Errorf("failed to clear existing rows: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"daily_metrics"},
		metricsColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("CopyFrom failed for batch of %d: %w", len(batch), err)
	}

	return tx.Commit(ctx)
}

// GetMetricsRange loads one vehicle's daily metrics for [from, to],
// ordered by date ascending. Tier fields come back zeroed; classification
// belongs to whoever selects the batch.
func (s *PostgresStore) GetMetricsRange(ctx context.Context, vehicleID string, from, to time.Time) ([]domain.DailyMetrics, error) {
	query := `
		SELECT date, vehicle_id, distance_km, gps_distance_km,
		       avg_moving_speed_kmh, max_speed_kmh, excess_count,
		       total_excess_duration_sec, excess_rate_per_km,
		       harsh_accel_windows, harsh_brake_windows,
		       excess_by_time_bucket, driving_minutes, risk_score
		FROM daily_metrics
		WHERE vehicle_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`
	rows, err := s.pool.Query(ctx, query, vehicleID, from, to)
	if err != nil {
		return nil, fmt.Errorf("metrics range query failed: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyMetrics
	for rows.Next() {
		var m domain.DailyMetrics
		var buckets []byte
		err := rows.Scan(
			&m.Date,
			&m.VehicleID,
			&m.DistanceKm,
			&m.GPSDistanceKm,
			&m.AvgMovingSpeedKmh,
			&m.MaxSpeedKmh,
			&m.ExcessCount,
			&m.TotalExcessDurationSec,
			&m.ExcessRatePerKm,
			&m.HarshAccelWindows,
			&m.HarshBrakeWindows,
			&buckets,
			&m.DrivingMinutes,
			&m.RiskScore,
		)
		if err != nil {
			return nil, fmt.Errorf("metrics row scan failed: %w", err)
		}
		if len(buckets) > 0 {
			if err := json.Unmarshal(buckets, &m.ExcessByTimeBucket); err != nil {
				return nil, fmt.Errorf("failed to unmarshal time buckets: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
