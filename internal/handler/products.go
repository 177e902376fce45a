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

// ProductsHandler serves the product endpoints under /admin/api/products.
// The list's status parameter filters by category.
type ProductsHandler struct {
	adminBase
	products *service.Products
}

// NewProductsHandler creates a ProductsHandler.
func NewProductsHandler(client *apiclient.Client, products *service.Products, pageSize int, logger *slog.Logger) *ProductsHandler {
	return &ProductsHandler{adminBase: newAdminBase(client, pageSize, logger), products: products}
}

// List handles GET /admin/api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	q := h.listQuery(r)
	res, err := h.products.List(r.Context(), api, q)
	if err != nil {
		writeError(w, r, h.logger, "failed to list products", err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(res, q, "/admin/products"))
}

// Get handles GET /admin/api/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), api, urlID(r))
	if err != nil {
		writeError(w, r, h.logger, "failed to load product", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"product": product})
}

// Create handles POST /admin/api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	var in model.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, "invalid product", err)
		return
	}

	product, err := h.products.Create(r.Context(), api, in)
	if err != nil {
		writeError(w, r, h.logger, "failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "product": product})
}

// Update handles PUT /admin/api/products/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	var in model.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, "invalid product", err)
		return
	}

	product, err := h.products.Update(r.Context(), api, urlID(r), in)
	if err != nil {
		writeError(w, r, h.logger, "failed to update product", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"product": product})
}

// Delete handles DELETE /admin/api/products/{id}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	api, _, ok := h.api(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), api, urlID(r)); err != nil {
		writeError(w, r, h.logger, "failed to delete product", err)
		return
	}
	writeJSONSuccess(w, nil)
}
