// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/service"
)

// UsersHandler serves GET /admin/api/users. The backend returns every
// user, so search, the role filter and pagination are applied here.
type UsersHandler struct {
	adminBase
	users *service.Users
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(client *apiclient.Client, users *service.Users, pageSize int, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{adminBase: newAdminBase(client, pageSize, logger), users: users}
}

// List handles GET /admin/api/users?page&limit&search&status.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	q := h.listQuery(r)
	res, err := h.users.List(r.Context(), api, q)
	if err != nil {
		writeError(w, r, h.logger, "failed to list users", err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(res, q, "/admin/users"))
}
