// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads trapo-admin settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Backend API
	APIURL       string        `env:"TRAPO_API_URL" envDefault:"http://localhost:5000"`
	APITimeout   time.Duration `env:"TRAPO_API_TIMEOUT" envDefault:"15s"`
	APIRateLimit float64       `env:"TRAPO_API_RATE_LIMIT" envDefault:"20"` // requests per second, 0 disables
	APIBurst     int           `env:"TRAPO_API_BURST" envDefault:"40"`

	// Server
	SessionSecret string `env:"TRAPO_SESSION_SECRET"`
	ServerHost    string `env:"TRAPO_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"TRAPO_SERVER_PORT" envDefault:"3000"`
	Env           string `env:"TRAPO_ENV" envDefault:"development"`
	LogLevel      string `env:"TRAPO_LOG_LEVEL" envDefault:"info"`
	DBPath        string `env:"TRAPO_DB_PATH" envDefault:"./data/trapo-admin.db"`
	StaticDir     string `env:"TRAPO_STATIC_DIR"` // optional SPA build served for page routes

	// Cache configuration
	RedisURL     string        `env:"TRAPO_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string        `env:"TRAPO_CACHE_PREFIX" envDefault:"trapo:"`  // Redis key prefix
	CacheTTL     time.Duration `env:"TRAPO_CACHE_TTL" envDefault:"30s"`        // Dashboard stats TTL
	CacheMaxSize int           `env:"TRAPO_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// List views
	PageSize        int           `env:"TRAPO_PAGE_SIZE" envDefault:"10"`
	SearchDebounce  time.Duration `env:"TRAPO_SEARCH_DEBOUNCE" envDefault:"300ms"`
	RefreshInterval time.Duration `env:"TRAPO_REFRESH_INTERVAL" envDefault:"30s"`

	// Console
	SessionFile string `env:"TRAPO_SESSION_FILE"` // defaults to the user config dir
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

// MinSessionSecretLength is the minimum required length for the session secret.
// The CSRF key needs 32 bytes.
const MinSessionSecretLength = 32

// Load parses environment variables for the admin server, including the
// session secret checks.
func Load() (*Config, error) {
	cfg, err := LoadClient()
	if err != nil {
		return nil, err
	}
	if err := validateSecret(cfg.SessionSecret); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient parses environment variables for tools that only talk to the
// backend API and do not need a session secret.
func LoadClient() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("TRAPO_API_URL must be an absolute http(s) URL, got %q", cfg.APIURL)
	}
	if cfg.APITimeout <= 0 {
		return nil, errors.New("TRAPO_API_TIMEOUT must be positive")
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("TRAPO_PAGE_SIZE must be at least 1, got %d", cfg.PageSize)
	}
	if cfg.RefreshInterval != 0 && cfg.RefreshInterval < time.Second {
		return nil, fmt.Errorf("TRAPO_REFRESH_INTERVAL must be at least 1s or 0 to disable, got %s", cfg.RefreshInterval)
	}

	return cfg, nil
}

func validateSecret(secret string) error {
	if secret == "" {
		return errors.New("TRAPO_SESSION_SECRET is required")
	}

	if len(secret) < MinSessionSecretLength {
		return fmt.Errorf("TRAPO_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(secret))
	}

	for _, weak := range knownWeakSecrets {
		if secret == weak {
			return errors.New("TRAPO_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(secret) {
		slog.Warn("TRAPO_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
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
