// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the admin operations shared by the HTTP server and
// the console: list loading, order status changes, product edits and
// dashboard statistics. Every call takes the API client bound to the
// caller's session.
package service

import (
	"context"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/model"
)

// htmlSanitizer keeps safe formatting in product descriptions.
var htmlSanitizer = bluemonday.UGCPolicy()

// textSanitizer strips all markup from short text fields.
var textSanitizer = bluemonday.StrictPolicy()

// SanitizeText removes all HTML from s and trims it.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textSanitizer.Sanitize(s)))
}

// SanitizeHTML removes unsafe HTML from s.
func SanitizeHTML(s string) string {
	return strings.TrimSpace(htmlSanitizer.Sanitize(s))
}

// OrderAPI is the subset of the API client used for orders.
type OrderAPI interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListOrdersPage(ctx context.Context, q model.ListQuery) (*model.PaginatedResponse[model.Order], error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, note string) (*model.Order, error)
}

// ProductAPI is the subset of the API client used for products.
type ProductAPI interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListProductsPage(ctx context.Context, q model.ListQuery) (*model.PaginatedResponse[model.Product], error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, p model.ProductPayload) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, p model.ProductPayload) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// UserAPI lists admin-visible users.
type UserAPI interface {
	ListAdminUsers(ctx context.Context) ([]model.AdminUser, error)
}

// DashboardAPI fetches dashboard metrics and the raw orders they derive from.
type DashboardAPI interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
}

// Invalidator drops cached data after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// OrderSource adapts api to a list source.
func OrderSource(api OrderAPI) listing.Source[model.Order] {
	return listing.SourceFuncs[model.Order]{Page: api.ListOrdersPage, All: api.ListOrders}
}

// ProductSource adapts api to a list source.
func ProductSource(api ProductAPI) listing.Source[model.Product] {
	return listing.SourceFuncs[model.Product]{Page: api.ListProductsPage, All: api.ListProducts}
}

// UserSource adapts api to a list source. The users endpoint is never
// paginated, so every page is cut locally.
func UserSource(api UserAPI) listing.Source[model.AdminUser] {
	return listing.SourceFuncs[model.AdminUser]{All: api.ListAdminUsers}
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &model.ValidationError{Field: field, Message: "An id is required"}
	}
	return nil
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}
