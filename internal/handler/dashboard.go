// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/service"
)

// DashboardHandler serves GET /admin/api/dashboard.
type DashboardHandler struct {
	adminBase
	dashboard *service.Dashboard
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(client *apiclient.Client, dashboard *service.Dashboard, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{adminBase: newAdminBase(client, 0, logger), dashboard: dashboard}
}

// Stats handles GET /admin/api/dashboard. ?refresh=true skips the cache.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	api, token, ok := h.api(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		h.dashboard.Invalidate(r.Context())
	}

	stats, err := h.dashboard.Stats(r.Context(), api, token)
	if err != nil {
		writeError(w, r, h.logger, "failed to load dashboard", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"stats": stats})
}
