// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"net/url"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects Redis when set. Example: redis://localhost:6379/0
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache (0 = unlimited)
	MaxSize int
}

// New creates a Redis cache when RedisURL is set and reachable, otherwise a
// memory cache. A Redis failure is logged and the memory cache is used.
func New(cfg Config, logger *slog.Logger) Cacher {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.RedisURL != "" {
		rc, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			logger.Info("cache initialized", "backend", "redis", "url", SanitizeRedisURL(cfg.RedisURL))
			return rc
		}
		logger.Warn("redis cache unavailable, using memory cache", "error", err)
	}

	logger.Info("cache initialized", "backend", "memory", "max_size", cfg.MaxSize)
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL: cfg.DefaultTTL,
		MaxSize:    cfg.MaxSize,
	})
}

// IsRedis reports whether c is backed by Redis.
func IsRedis(c Cacher) bool {
	_, ok := c.(*RedisCache)
	return ok
}

// SanitizeRedisURL masks the password in a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
