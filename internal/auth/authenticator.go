package auth

import (
	"context"
	"sync"
	"time"

	"fleet-profiler/analysis/internal/config"
	"fleet-profiler/analysis/internal/store"
)

type cacheEntry struct {
	teamID    string
	expiresAt time.Time
}

// Authenticator validates report API keys: static config keys first, then
// an in-memory cache, then Redis.
type Authenticator struct {
	localCache sync.Map
	redis      *store.RedisStore
	ttl        time.Duration
	staticKeys map[string]bool
}

func NewAuthenticator(cfg *config.Config, redis *store.RedisStore) *Authenticator {
	staticKeys := make(map[string]bool, len(cfg.ValidAPIKeys))
	for _, k := range cfg.ValidAPIKeys {
		if k != "" {
			staticKeys[k] = true
		}
	}

	return &Authenticator{
		redis:      redis,
		ttl:        time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
		staticKeys: staticKeys,
	}
}

func (a *Authenticator) Validate(ctx context.Context, apiKey string) bool {
	if a.staticKeys[apiKey] {
		return true
	}

	if raw, ok := a.localCache.Load(apiKey); ok {
		entry := raw.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return true
		}
		a.localCache.Delete(apiKey)
	}

	if a.redis == nil {
		return false
	}
	teamID, err := a.redis.GetAPIKey(ctx, apiKey)
	if err != nil || teamID == "" {
		return false
	}

	a.localCache.Store(apiKey, cacheEntry{
		teamID:    teamID,
		expiresAt: time.Now().Add(a.ttl),
	})

	return true
}
