// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/trapo-admin/internal/guard"
	"github.com/olegiv/trapo-admin/internal/session"
)

// GuardViews are the pages RequireAdmin renders instead of the protected
// view. Nil views fall back to plain text.
type GuardViews struct {
	Loading http.Handler
	Denied  http.Handler
}

// RetryAfterSeconds is sent with the loading response.
const RetryAfterSeconds = "1"

// RequireAdmin lets only authenticated admins through. Unresolved sessions
// get 503 with Retry-After, anonymous ones are sent to the login page (401
// for API requests) and authenticated non-admins get 403 without a redirect.
func RequireAdmin(views GuardViews) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := GetSession(r)
			decision := guard.Loading
			var info session.Info
			if store != nil {
				// One snapshot so the decision and the logged user agree.
				info = store.Info()
				decision = guard.DecideInfo(info.State, info.IsAdmin)
			}

			switch decision {
			case guard.Allowed:
				next.ServeHTTP(w, r)

			case guard.RedirectLogin:
				if IsAPIRequest(r) {
					WriteJSONError(w, http.StatusUnauthorized, "auth_expired", "Authentication required")
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)

			case guard.Denied:
				userID := ""
				if info.User != nil {
					userID = info.User.ID
				}
				slog.InfoContext(r.Context(), "admin access denied", "user_id", userID)
				if IsAPIRequest(r) {
					WriteJSONError(w, http.StatusForbidden, "forbidden", "Access denied")
					return
				}
				renderGuardView(w, r, views.Denied, http.StatusForbidden, "Access denied")

			default:
				w.Header().Set("Retry-After", RetryAfterSeconds)
				if IsAPIRequest(r) {
					WriteJSONError(w, http.StatusServiceUnavailable, "loading", "Session is still loading")
					return
				}
				renderGuardView(w, r, views.Loading, http.StatusServiceUnavailable, "Loading...")
			}
		})
	}
}

func renderGuardView(w http.ResponseWriter, r *http.Request, view http.Handler, status int, fallback string) {
	if view != nil {
		view.ServeHTTP(&statusWriter{ResponseWriter: w, status: status}, r)
		return
	}
	http.Error(w, fallback, status)
}

// statusWriter forces status onto the wrapped view.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(int) {
	if sw.wroteHeader {
		return
	}
	sw.wroteHeader = true
	sw.ResponseWriter.WriteHeader(sw.status)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(sw.status)
	}
	return sw.ResponseWriter.Write(b)
}
