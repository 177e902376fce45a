// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers, so no
// token cookie is involved.
type CSRFConfig struct {
	// AuthKey is the 32-byte key; the server passes the session secret.
	AuthKey []byte

	ErrorHandler http.Handler

	// TrustedOrigins are host:port values allowed to send cross-origin
	// mutations.
	TrustedOrigins []string

	// BearerExempt skips the check for requests authenticated with an
	// Authorization header instead of cookies.
	BearerExempt bool
}

// DefaultCSRFConfig returns the server's CSRF settings. Development trusts
// the local dev server origins.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{
		AuthKey:      authKey,
		BearerExempt: true,
	}

	// Host-only values, not URLs.
	if isDev {
		cfg.TrustedOrigins = []string{
			"localhost:3000",
			"127.0.0.1:3000",
		}
	}

	return cfg
}

// CSRF returns a middleware that rejects cross-site state-changing requests.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	var opts []csrf.Option

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)))
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	protect := csrf.Protect(cfg.AuthKey, opts...)
	if !cfg.BearerExempt {
		return protect
	}

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A bearer token is never sent by the browser on its own.
			if r.Header.Get("Authorization") != "" {
				protected.ServeHTTP(w, csrf.UnsafeSkipCheck(r))
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := csrf.FailureReason(r)
	reasonStr := "unknown"
	if reason != nil {
		reasonStr = reason.Error()
	}
	slog.WarnContext(r.Context(), "CSRF validation failed",
		"category", "auth",
		"reason", reasonStr,
		"method", r.Method,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	if IsAPIRequest(r) {
		WriteJSONError(w, http.StatusForbidden, "csrf", "Forbidden - CSRF validation failed")
		return
	}
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}
