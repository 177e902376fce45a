// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"

	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/model"
)

// Orders loads orders and applies status changes.
type Orders struct {
	logger *slog.Logger
	inv    Invalidator
}

// NewOrders creates an Orders service. inv may be nil.
func NewOrders(logger *slog.Logger, inv Invalidator) *Orders {
	if logger == nil {
		logger = slog.Default()
	}
	if inv == nil {
		inv = noopInvalidator{}
	}
	return &Orders{logger: logger, inv: inv}
}

// List returns one page of orders, paginating locally when the backend
// cannot.
func (s *Orders) List(ctx context.Context, api OrderAPI, q model.ListQuery) (listing.Result[model.Order], error) {
	return listing.Load(ctx, OrderSource(api), q, listing.MatchOrder, s.logger)
}

// Get returns one order.
func (s *Orders) Get(ctx context.Context, api OrderAPI, id string) (*model.Order, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	return api.GetOrder(ctx, id)
}

// UpdateStatus sets an order's status. An empty note becomes the default
// "Status updated to <Label>" note.
func (s *Orders) UpdateStatus(ctx context.Context, api OrderAPI, id string, status model.OrderStatus, note string) (*model.Order, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if err := (model.StatusUpdate{Status: status}).Validate(); err != nil {
		return nil, err
	}

	note = SanitizeText(note)
	if note == "" {
		note = model.DefaultStatusNote(status)
	}

	order, err := api.UpdateOrderStatus(ctx, id, status, note)
	if err != nil {
		s.logger.WarnContext(ctx, "order status update failed",
			"category", "order", "order", id, "status", status, "error", err)
		return nil, err
	}

	s.inv.Invalidate(ctx)
	s.logger.InfoContext(ctx, "order status updated", "order", id, "status", status)
	return order, nil
}

// OrdersView is the stateful orders list used by the console.
type OrdersView struct {
	*listing.Controller[model.Order]
	api    OrderAPI
	orders *Orders
}

// NewOrdersView creates an orders list bound to api.
func NewOrdersView(api OrderAPI, orders *Orders, cfg listing.Config) *OrdersView {
	if cfg.Name == "" {
		cfg.Name = "orders"
	}
	return &OrdersView{
		Controller: listing.NewController(OrderSource(api), listing.MatchOrder, cfg),
		api:        api,
		orders:     orders,
	}
}

// UpdateStatus changes an order's status and replaces only that order in
// the list. On failure the list is unchanged and the error is shown.
func (v *OrdersView) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, note string) (model.Order, error) {
	return v.Mutate(ctx, id, func(ctx context.Context) (model.Order, error) {
		o, err := v.orders.UpdateStatus(ctx, v.api, id, status, note)
		if err != nil {
			return model.Order{}, err
		}
		return *o, nil
	})
}
