// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/model"
)

// Server-side session keys of the storefront account.
const (
	KeyUserToken = "user_token"
	KeyUserID    = "user_id"
)

// AccountHandler serves the storefront account endpoints under
// /account/api. The user token lives only in the server session.
type AccountHandler struct {
	sm     *scs.SessionManager
	client *apiclient.Client
	logger *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(sm *scs.SessionManager, client *apiclient.Client, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{sm: sm, client: client, logger: logger}
}

// userTokens exposes the session's user token to the API client.
type userTokens struct {
	sm  *scs.SessionManager
	ctx context.Context
}

func (t userTokens) Token() string {
	return t.sm.GetString(t.ctx, KeyUserToken)
}

func (t userTokens) Invalidate(_ context.Context, token string) {
	if token != "" && t.sm.GetString(t.ctx, KeyUserToken) == token {
		t.sm.Remove(t.ctx, KeyUserToken)
		t.sm.Remove(t.ctx, KeyUserID)
	}
}

func (h *AccountHandler) api(r *http.Request) *apiclient.Client {
	return h.client.WithTokens(userTokens{sm: h.sm, ctx: r.Context()})
}

// Login handles POST /account/api/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var form model.LoginForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, h.logger, "invalid login request", err)
		return
	}

	resp, err := h.client.Login(r.Context(), form)
	if err != nil {
		writeError(w, r, h.logger, "account login failed", err)
		return
	}
	if !h.startSession(w, r, resp) {
		return
	}
	writeJSONSuccess(w, map[string]any{"user": resp.User})
}

// Register handles POST /account/api/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var form model.RegisterForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, h.logger, "invalid register request", err)
		return
	}

	resp, err := h.client.Register(r.Context(), form)
	if err != nil {
		writeError(w, r, h.logger, "account registration failed", err)
		return
	}
	if !h.startSession(w, r, resp) {
		return
	}
	h.logger.InfoContext(r.Context(), "account registered", "category", "auth", "user_id", resp.User.ID)
	writeJSONSuccess(w, map[string]any{"user": resp.User})
}

func (h *AccountHandler) startSession(w http.ResponseWriter, r *http.Request, resp *model.AuthResponse) bool {
	if err := h.sm.RenewToken(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to renew session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, apiclient.KindInternal, "Could not start session")
		return false
	}
	h.sm.Put(r.Context(), KeyUserToken, resp.Token)
	h.sm.Put(r.Context(), KeyUserID, resp.User.ID)
	return true
}

// Logout handles POST /account/api/logout.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sm.Remove(r.Context(), KeyUserToken)
	h.sm.Remove(r.Context(), KeyUserID)
	if err := h.sm.RenewToken(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to renew session", "error", err)
	}
	writeJSONSuccess(w, nil)
}

// Profile handles GET /account/api/profile.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}
	user, err := h.api(r).Profile(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "profile fetch failed", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"user": user})
}

// UpdateProfile handles PUT /account/api/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var upd model.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, h.logger, "invalid profile update", err)
		return
	}
	if err := upd.Validate(); err != nil {
		writeError(w, r, h.logger, "invalid profile update", err)
		return
	}

	user, err := h.api(r).UpdateProfile(r.Context(), upd)
	if err != nil {
		writeError(w, r, h.logger, "profile update failed", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"user": user})
}

func (h *AccountHandler) requireUser(w http.ResponseWriter, r *http.Request) bool {
	if h.sm.GetString(r.Context(), KeyUserToken) == "" {
		writeJSONError(w, http.StatusUnauthorized, apiclient.KindAuthExpired, "Please log in")
		return false
	}
	return true
}
