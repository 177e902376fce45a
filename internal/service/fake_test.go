// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/model"
)

// fakeAPI is an in-memory backend. Error fields, when set, are returned by
// the matching endpoint.
type fakeAPI struct {
	mu       sync.Mutex
	orders   []model.Order
	products []model.Product
	users    []model.AdminUser

	pageErr      error
	dashboard    *model.DashboardStats
	dashboardErr error
	ordersErr    error
	updateErr    error
	dashGate     chan struct{}

	dashboardCalls atomic.Int32
	listCalls      atomic.Int32
	updates        []model.StatusUpdate
	created        []model.ProductPayload
}

func (f *fakeAPI) ListOrders(context.Context) ([]model.Order, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return append([]model.Order(nil), f.orders...), nil
}

func (f *fakeAPI) ListOrdersPage(_ context.Context, q model.ListQuery) (*model.PaginatedResponse[model.Order], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	resp := listing.Paginate(f.orders, q, listing.MatchOrder)
	return &resp, nil
}

func (f *fakeAPI) GetOrder(_ context.Context, id string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order %s not found", id)
}

func (f *fakeAPI) UpdateOrderStatus(_ context.Context, id string, status model.OrderStatus, note string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, model.StatusUpdate{Status: status, Note: note})
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			o := f.orders[i]
			o.Status = status
			o.StatusHistory = append(append([]model.StatusChange(nil), o.StatusHistory...),
				model.StatusChange{Status: status, Note: note, UpdatedAt: time.Now()})
			f.orders[i] = o
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order %s not found", id)
}

func (f *fakeAPI) Dashboard(context.Context) (*model.DashboardStats, error) {
	f.dashboardCalls.Add(1)
	if f.dashGate != nil {
		<-f.dashGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dashboardErr != nil {
		return nil, f.dashboardErr
	}
	stats := *f.dashboard
	return &stats, nil
}

func (f *fakeAPI) ListProducts(context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Product(nil), f.products...), nil
}

func (f *fakeAPI) ListProductsPage(context.Context, model.ListQuery) (*model.PaginatedResponse[model.Product], error) {
	return nil, listing.ErrNoPagination
}

func (f *fakeAPI) GetProduct(_ context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %s not found", id)
}

func (f *fakeAPI) CreateProduct(_ context.Context, p model.ProductPayload) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	out := model.Product{ID: fmt.Sprintf("p%d", len(f.products)+1), Name: p.Name, Description: p.Description,
		Price: p.Price, Category: p.Category, Stock: p.Stock, Colors: p.Colors, Sizes: p.Sizes, InStock: p.InStock}
	f.products = append(f.products, out)
	return &out, nil
}

func (f *fakeAPI) UpdateProduct(_ context.Context, id string, p model.ProductPayload) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Name = p.Name
			f.products[i].Price = p.Price
			f.products[i].Stock = p.Stock
			out := f.products[i]
			return &out, nil
		}
	}
	return nil, fmt.Errorf("product %s not found", id)
}

func (f *fakeAPI) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("product %s not found", id)
}

func (f *fakeAPI) ListAdminUsers(context.Context) ([]model.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AdminUser(nil), f.users...), nil
}

func orders(n int) []model.Order {
	statuses := []model.OrderStatus{model.StatusOrdered, model.StatusShipped, model.StatusCompleted}
	out := make([]model.Order, n)
	for i := range out {
		out[i] = model.Order{
			ID:           fmt.Sprintf("o%d", i+1),
			OrderNumber:  fmt.Sprintf("ORD-%04d", i+1),
			UserID:       fmt.Sprintf("u%d", i%4),
			CustomerInfo: model.CustomerInfo{Name: fmt.Sprintf("Customer %d", i+1)},
			Status:       statuses[i%len(statuses)],
			Total:        10,
		}
	}
	return out
}

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) Invalidate(context.Context) { c.n.Add(1) }
