// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"

	"github.com/olegiv/trapo-admin/internal/session"
)

// GateConfig configures Gate.
type GateConfig struct {
	// PublicPaths under /admin that pass without a token, such as the
	// login and session endpoints of the JSON API.
	PublicPaths []string
}

// Gate inspects the token cookie or Authorization header before any
// handler runs. It only checks that a token is present; RequireAdmin
// decides whether the session behind it is valid.
//
//   - /admin/register: pass, unless a token is present (redirect to /admin)
//   - /admin and below: a token is required (redirect to /login, 401 for API)
//   - /login: redirect to /admin when a token is present
func Gate(cfg GateConfig) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			hasToken := session.RequestToken(r) != ""

			switch {
			case path == RegisterPath:
				if hasToken {
					http.Redirect(w, r, AdminPath, http.StatusSeeOther)
					return
				}

			case isAdminPath(path):
				if !hasToken && !public[path] {
					if IsAPIRequest(r) {
						WriteJSONError(w, http.StatusUnauthorized, "auth_expired", "Authentication required")
						return
					}
					http.Redirect(w, r, LoginPath, http.StatusSeeOther)
					return
				}

			case path == LoginPath:
				if hasToken {
					http.Redirect(w, r, AdminPath, http.StatusSeeOther)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAdminPath(path string) bool {
	return path == AdminPath || strings.HasPrefix(path, AdminPath+"/")
}
