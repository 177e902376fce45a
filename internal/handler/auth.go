// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/guard"
	"github.com/olegiv/trapo-admin/internal/middleware"
	"github.com/olegiv/trapo-admin/internal/model"
	"github.com/olegiv/trapo-admin/internal/session"
)

// AuthHandler serves the admin session endpoints under /admin/api.
type AuthHandler struct {
	loginProtection *middleware.LoginProtection
	logger          *slog.Logger
}

// NewAuthHandler creates an AuthHandler. lp may be nil to disable account
// lockout.
func NewAuthHandler(lp *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{loginProtection: lp, logger: logger}
}

// SessionResponse is the body of the session endpoints.
type SessionResponse struct {
	Success bool `json:"success"`
	session.Info
	Decision string `json:"decision"`
}

func sessionResponse(store *session.Store) SessionResponse {
	info := store.Info()
	return SessionResponse{
		Success:  true,
		Info:     info,
		Decision: guard.DecideInfo(info.State, info.IsAdmin).String(),
	}
}

// Session handles GET /admin/api/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	store, ok := requireStore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(store))
}

// Login handles POST /admin/api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	store, ok := requireStore(w, r)
	if !ok {
		return
	}

	var form model.LoginForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, h.logger, "invalid login request", err)
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(form.Email); locked {
			h.writeLocked(w, r, form.Email, remaining)
			return
		}
	}

	if _, err := store.Login(r.Context(), form.Email, form.Password); err != nil {
		h.recordFailure(w, r, form.Email, err)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(form.Email)
	}

	var user model.AdminUser
	if u := store.User(); u != nil {
		user = *u
	}
	client := parseUserAgent(r.UserAgent())
	h.logger.InfoContext(r.Context(), "admin logged in",
		"category", "auth",
		"user_id", user.ID,
		"role", user.Role,
		"ip", middleware.GetClientIP(r),
		"browser", client.Browser,
		"os", client.OS,
		"device", client.DeviceType,
	)
	writeJSON(w, http.StatusOK, sessionResponse(store))
}

// recordFailure counts rejected credentials towards the account lockout
// and writes the error.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, r *http.Request, email string, err error) {
	rejected := apiclient.Kind(err) == apiclient.KindAPI && apiclient.StatusCode(err) < 500
	if !rejected || h.loginProtection == nil {
		writeError(w, r, h.logger, "admin login failed", err)
		return
	}

	h.logger.WarnContext(r.Context(), "admin login rejected",
		"category", "auth",
		"ip", middleware.GetClientIP(r),
		"remaining_attempts", h.loginProtection.GetRemainingAttempts(email)-1,
	)
	if locked, duration := h.loginProtection.RecordFailedAttempt(email); locked {
		h.writeLocked(w, r, email, duration)
		return
	}
	writeError(w, r, h.logger, "admin login failed", err)
}

func (h *AuthHandler) writeLocked(w http.ResponseWriter, r *http.Request, email string, d time.Duration) {
	h.logger.WarnContext(r.Context(), "login attempt on locked account",
		"category", "auth", "ip", middleware.GetClientIP(r))
	w.Header().Set("Retry-After", strconv.Itoa(int(d.Round(time.Second).Seconds())))
	writeJSONError(w, http.StatusTooManyRequests, "locked",
		fmt.Sprintf("Too many failed attempts. Try again in %s.", formatWait(d)))
}

// Register handles POST /admin/api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	store, ok := requireStore(w, r)
	if !ok {
		return
	}

	var form model.RegisterForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, h.logger, "invalid register request", err)
		return
	}

	if _, err := store.Register(r.Context(), form); err != nil {
		writeError(w, r, h.logger, "admin registration failed", err)
		return
	}

	userID := ""
	if u := store.User(); u != nil {
		userID = u.ID
	}
	h.logger.InfoContext(r.Context(), "admin registered",
		"category", "auth", "user_id", userID, "ip", middleware.GetClientIP(r))
	writeJSON(w, http.StatusOK, sessionResponse(store))
}

// Logout handles POST /admin/api/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store, ok := requireStore(w, r)
	if !ok {
		return
	}

	userID := ""
	if u := store.User(); u != nil {
		userID = u.ID
	}
	if err := store.Logout(r.Context()); err != nil {
		writeError(w, r, h.logger, "logout failed", err)
		return
	}

	h.logger.InfoContext(r.Context(), "admin logged out", "category", "auth", "user_id", userID)
	writeJSONSuccess(w, nil)
}

// RefreshUser handles POST /admin/api/session/refresh. A failed refresh
// logs the session out.
func (h *AuthHandler) RefreshUser(w http.ResponseWriter, r *http.Request) {
	store, ok := requireStore(w, r)
	if !ok {
		return
	}

	if err := store.RefreshUser(r.Context()); err != nil {
		writeError(w, r, h.logger, "session refresh failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(store))
}

// ParsedUA is the part of a User-Agent the login audit log keeps.
type ParsedUA struct {
	Browser    string
	OS         string
	DeviceType string
}

func parseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)

	result := ParsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
	}
	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		result.DeviceType = "mobile"
	case ua.Tablet:
		result.DeviceType = "tablet"
	case ua.Bot:
		result.DeviceType = "bot"
	default:
		result.DeviceType = "desktop"
	}
	return result
}

// formatWait renders a lockout duration for humans, rounded up to minutes.
func formatWait(d time.Duration) string {
	minutes := int((d + time.Minute - 1) / time.Minute)
	switch {
	case minutes <= 1:
		return "1 minute"
	case minutes < 60:
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return d.Round(time.Minute).String()
	}
}
