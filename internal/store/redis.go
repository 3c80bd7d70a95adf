package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-profiler/analysis/internal/config"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Client() *redis.Client {
	return r.client
}

func terrainKey(vehicleID, from, to string) string {
	return fmt.Sprintf("vehicle:%s:terrain:%s:%s", vehicleID, from, to)
}

// CacheTerrainResult stores a rendered terrain analysis so repeat report
// requests for the same selection skip reclassification.
func (r *RedisStore) CacheTerrainResult(ctx context.Context, vehicleID, from, to string, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, terrainKey(vehicleID, from, to), payload, ttl).Err()
}

// GetTerrainResult returns the cached terrain analysis, or nil when absent.
func (r *RedisStore) GetTerrainResult(ctx context.Context, vehicleID, from, to string) ([]byte, error) {
	val, err := r.client.Get(ctx, terrainKey(vehicleID, from, to)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("terrain cache get failed: %w", err)
	}
	return val, nil
}

// PublishAnalysis announces a completed batch analysis for one vehicle.
// Dashboard clients follow the channel via the websocket relay.
func (r *RedisStore) PublishAnalysis(ctx context.Context, vehicleID string, payload []byte) error {
	channel := fmt.Sprintf("vehicle:%s:analysis", vehicleID)
	return r.client.Publish(ctx, channel, payload).Err()
}

// SubscribeAnalysis subscribes to a vehicle's analysis announcements.
// The caller owns the returned PubSub and must Close it.
func (r *RedisStore) SubscribeAnalysis(ctx context.Context, vehicleID string) *redis.PubSub {
	channel := fmt.Sprintf("vehicle:%s:analysis", vehicleID)
	return r.client.Subscribe(ctx, channel)
}

// GetAPIKey resolves a report API key to the analyst team it belongs to.
// Returns "" when the key is unknown.
func (r *RedisStore) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	key := fmt.Sprintf("report:auth:%s", apiKey)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get api key failed: %w", err)
	}
	return val, nil
}
