// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/olegiv/trapo-admin/internal/model"
)

// ListOrders returns the full, unpaginated order collection.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	if err := c.Get(ctx, PathAdminOrders, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOrdersPage requests one page from the paginated orders endpoint.
// A response that violates the pagination invariants fails with *DecodeError.
func (c *Client) ListOrdersPage(ctx context.Context, q model.ListQuery) (*model.PaginatedResponse[model.Order], error) {
	var out model.PaginatedResponse[model.Order]
	if err := c.Get(ctx, PathAdminOrders+"?"+q.Values().Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder returns a single order.
func (c *Client) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var out model.Order
	if err := c.Get(ctx, orderPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus sets the status of an order and returns the updated order.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, note string) (*model.Order, error) {
	update := model.StatusUpdate{Status: status, Note: note}
	if err := update.Validate(); err != nil {
		return nil, err
	}
	var out model.Order
	if err := c.Do(ctx, http.MethodPut, orderPath(id)+"/status", update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func orderPath(id string) string {
	return PathAdminOrders + "/" + url.PathEscape(id)
}
