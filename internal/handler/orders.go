// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/model"
	"github.com/olegiv/trapo-admin/internal/service"
)

// OrdersHandler serves the order endpoints under /admin/api/orders.
type OrdersHandler struct {
	adminBase
	orders *service.Orders
}

// NewOrdersHandler creates an OrdersHandler.
func NewOrdersHandler(client *apiclient.Client, orders *service.Orders, pageSize int, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{adminBase: newAdminBase(client, pageSize, logger), orders: orders}
}

// List handles GET /admin/api/orders?page&limit&search&status.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	q := h.listQuery(r)
	res, err := h.orders.List(r.Context(), api, q)
	if err != nil {
		writeError(w, r, h.logger, "failed to list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(res, q, "/admin/orders"))
}

// Get handles GET /admin/api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), api, urlID(r))
	if err != nil {
		writeError(w, r, h.logger, "failed to load order", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"order": order})
}

// UpdateStatus handles PUT /admin/api/orders/{id}/status with body
// {"status": "...", "note": "..."}. The response carries the updated order
// so the client can replace it in place.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, "invalid status update", err)
		return
	}
	status, err := model.ParseOrderStatus(body.Status)
	if err != nil {
		writeError(w, r, h.logger, "invalid status update", err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), api, urlID(r), status, body.Note)
	if err != nil {
		writeError(w, r, h.logger, "failed to update order status", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"order":   order,
		"message": "Order status updated to " + status.Label(),
	})
}
