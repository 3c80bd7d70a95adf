package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fleet-profiler/analysis/internal/auth"
	"fleet-profiler/analysis/internal/config"
	"fleet-profiler/analysis/internal/metrics"
	"fleet-profiler/analysis/internal/store"
	transport "fleet-profiler/analysis/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := store.NewPostgresStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Postgres connection failed: %v", err)
	}
	defer db.Close()

	redis, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		log.Printf("Redis unavailable, serving without cache or live feed: %v", err)
		redis = nil
	} else {
		defer redis.Close()
	}

	authenticator := auth.NewAuthenticator(cfg, redis)
	authMW := transport.NewAuthMiddleware(authenticator)

	// Avoid handing the handler a typed-nil cache when Redis is down.
	var cache transport.TerrainCache
	if redis != nil {
		cache = redis
	}
	reports := transport.NewReportHandler(cfg, db, cache)

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/vehicles/{id}/terrain", authMW.Wrap(http.HandlerFunc(reports.HandleTerrain)))
	if redis != nil {
		live := transport.NewLiveHandler(redis)
		mux.Handle("GET /api/v1/vehicles/{id}/live", authMW.Wrap(http.HandlerFunc(live.HandleLive)))
	}
	mux.HandleFunc("GET /metrics", metrics.HandleMetrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Report API listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down report API...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Report API exited")
}
