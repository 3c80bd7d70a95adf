package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP (report API)
	HTTPPort string

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Analysis thresholds
	MovingSpeedKmh        float64
	HarshAccelThreshold   float64
	HarshBrakeThreshold   float64
	CompanySpeedThreshold float64
	MaxGPSJumpKm          float64

	// Batch runner
	DayWorkers int

	// Terrain cache
	TerrainCacheTTLSeconds int

	// Auth
	AuthCacheTTLSeconds int
	ValidAPIKeys        []string
}

func Load() *Config {
	return &Config{
		HTTPPort:               getEnv("HTTP_PORT", "8002"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "fleet_user"),
		DBPassword:             getEnv("DB_PASSWORD", "fleet_password"),
		DBName:                 getEnv("DB_NAME", "fleet_profiler"),
		DBMaxConns:             int32(getEnvInt("DB_MAX_CONNS", 10)),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		MovingSpeedKmh:         getEnvFloat("MOVING_SPEED_THRESHOLD_KMH", 1),
		HarshAccelThreshold:    getEnvFloat("HARSH_ACCEL_THRESHOLD", 10),
		HarshBrakeThreshold:    getEnvFloat("HARSH_BRAKE_THRESHOLD", -10),
		CompanySpeedThreshold:  getEnvFloat("COMPANY_SPEED_THRESHOLD_KMH", 85),
		MaxGPSJumpKm:           getEnvFloat("MAX_GPS_JUMP_KM", 1.0),
		DayWorkers:             getEnvInt("DAY_WORKERS", 4),
		TerrainCacheTTLSeconds: getEnvInt("TERRAIN_CACHE_TTL_SECONDS", 300),
		AuthCacheTTLSeconds:    getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),
		ValidAPIKeys:           strings.Split(getEnv("VALID_API_KEYS", ""), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
