// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides the HTTP middleware of the admin server:
// per-request sessions, the route gate, the admin guard, CSRF, login
// protection, timeouts and security headers.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/olegiv/trapo-admin/internal/logging"
)

// ContextKey is the type for context keys set by this package.
type ContextKey string

// Paths the gate and guard redirect to.
const (
	LoginPath    = "/login"
	AdminPath    = "/admin"
	RegisterPath = "/admin/register"
)

// IsAPIRequest reports whether r expects a JSON answer rather than a page.
func IsAPIRequest(r *http.Request) bool {
	if strings.Contains(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// WriteJSONError writes {"success":false,"error":message,"kind":kind}.
func WriteJSONError(w http.ResponseWriter, statusCode int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body := map[string]any{
		"success": false,
		"error":   message,
	}
	if kind != "" {
		body["kind"] = kind
	}
	_ = json.NewEncoder(w).Encode(body)
}

// RequestPath adds the request path to the context so every log record
// of the request carries it.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestPath(r.Context(), r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
