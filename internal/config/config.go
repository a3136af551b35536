// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads site configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OCMS_DB_PATH" envDefault:"./data/site.db"`
	SessionSecret string `env:"OCMS_SESSION_SECRET,required"`
	ServerHost    string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel      string `env:"OCMS_LOG_LEVEL" envDefault:"info"`
	SiteName      string `env:"OCMS_SITE_NAME" envDefault:"Community"`
	DefaultLang   string `env:"OCMS_DEFAULT_LANG" envDefault:"ru"`
	// SiteURL is the public base URL used in sitemap.xml. Taken from the
	// request when empty.
	SiteURL string `env:"OCMS_SITE_URL"`

	// Media storage. Local disk unless an S3 bucket is configured.
	UploadsDir  string `env:"OCMS_UPLOADS_DIR" envDefault:"./uploads"`
	MediaURL    string `env:"OCMS_MEDIA_URL" envDefault:"/media"`
	S3Bucket    string `env:"OCMS_S3_BUCKET"`
	S3Region    string `env:"OCMS_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"OCMS_S3_ENDPOINT"`
	S3AccessKey string `env:"OCMS_S3_ACCESS_KEY_ID"`
	S3SecretKey string `env:"OCMS_S3_SECRET_ACCESS_KEY"`
	S3PathStyle bool   `env:"OCMS_S3_PATH_STYLE" envDefault:"false"`

	// Cache configuration
	RedisURL     string `env:"OCMS_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"OCMS_CACHE_PREFIX" envDefault:"site:"`   // Redis key prefix
	CacheTTL     int    `env:"OCMS_CACHE_TTL" envDefault:"600"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"OCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Registration throttling, per client IP.
	RegisterRatePerMinute int `env:"OCMS_REGISTER_RATE" envDefault:"10"`

	// Event log rows older than this are pruned daily. 0 keeps everything.
	EventRetentionDays int `env:"OCMS_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed        bool   `env:"OCMS_DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"OCMS_ADMIN_EMAIL"`
	AdminPassword string `env:"OCMS_ADMIN_PASSWORD"`
	AdminPhone    string `env:"OCMS_ADMIN_PHONE" envDefault:"+70000000000"`
	AdminIIN      string `env:"OCMS_ADMIN_IIN" envDefault:"000000000000"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseS3 returns true if media should go to an S3 bucket.
func (c Config) UseS3() bool {
	return c.S3Bucket != ""
}

// SeedAdmin returns true if a superuser should be created on seed.
func (c Config) SeedAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("OCMS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("OCMS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.DefaultLang != "ru" && cfg.DefaultLang != "en" {
		return nil, fmt.Errorf("OCMS_DEFAULT_LANG must be one of ru, en; got %q", cfg.DefaultLang)
	}

	if cfg.RegisterRatePerMinute < 1 {
		return nil, fmt.Errorf("OCMS_REGISTER_RATE must be positive, got %d", cfg.RegisterRatePerMinute)
	}

	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("OCMS_EVENT_RETENTION_DAYS must not be negative, got %d", cfg.EventRetentionDays)
	}

	cfg.SiteURL = strings.TrimSuffix(cfg.SiteURL, "/")

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("OCMS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret mixes at least 3 character classes.
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
