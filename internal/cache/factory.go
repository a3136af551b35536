package cache

import (
	"log/slog"
	"time"
)

// Config selects and tunes the cache backend.
type Config struct {
	// RedisURL selects Redis when set; otherwise a memory cache is used.
	RedisURL        string
	Prefix          string
	DefaultTTL      time.Duration
	MaxSize         int
	CleanupInterval time.Duration
}

// New returns a Redis cache when configured and reachable, and a memory
// cache otherwise. A Redis failure is logged and never fatal.
func New(cfg Config) Cacher {
	if cfg.RedisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			opts.DefaultTTL = cfg.DefaultTTL
		}
		rc, err := NewRedisCache(opts)
		if err == nil {
			slog.Info("using redis cache", "prefix", opts.Prefix)
			return rc
		}
		slog.Warn("redis cache unavailable, falling back to memory", "error", err)
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: interval,
	})
}
