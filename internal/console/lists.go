// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"io"
	"time"

	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/model"
	"github.com/olegiv/trapo-admin/internal/service"
)

// Names of the list views.
const (
	ViewOrders   = "orders"
	ViewProducts = "products"
	ViewUsers    = "users"
)

// control is the part of listing.Controller that does not depend on the
// item type.
type control interface {
	SetSearch(term string)
	FlushSearch()
	SetStatus(status string)
	SetPage(p int)
	SetLimit(limit int)
	ResetFilters()
	Refresh()
	StartAutoRefresh(interval time.Duration) error
	Wait()
	Close()
}

// list adapts one typed controller for the command loop.
type list struct {
	control
	pagination func() model.Pagination
	show       func(w io.Writer)
	started    bool
}

func newList[T listing.Keyed](ctl *listing.Controller[T], table func(io.Writer, []T)) *list {
	return &list{
		control:    ctl,
		pagination: func() model.Pagination { return ctl.View().Pagination },
		show:       func(w io.Writer) { writeView(w, ctl.View(), table) },
	}
}

// lists holds the controllers of a signed-in session. They are created
// lazily and closed on logout or session expiry.
type lists struct {
	orders   *service.OrdersView
	products *service.ProductsView
	byName   map[string]*list
}

func (c *Console) ensureLists() *lists {
	if c.lists != nil {
		return c.lists
	}
	cfg := listing.Config{
		PageSize:    c.cfg.PageSize,
		SearchDelay: c.cfg.SearchDelay,
		Scheduler:   c.cfg.Scheduler,
		Logger:      c.logger,
	}
	orders := service.NewOrdersView(c.api, c.orders, cfg)
	products := service.NewProductsView(c.api, c.products, cfg)
	users := service.NewUsersView(c.api, cfg)

	c.lists = &lists{
		orders:   orders,
		products: products,
		byName: map[string]*list{
			ViewOrders:   newList(orders.Controller, writeOrders),
			ViewProducts: newList(products.Controller, writeProducts),
			ViewUsers:    newList(users, writeUsers),
		},
	}
	return c.lists
}

// open makes name the active list, loading it on first use.
func (c *Console) open(name string) *list {
	l := c.ensureLists().byName[name]
	c.active = name
	if !l.started {
		l.started = true
		l.Refresh()
		if c.cfg.Scheduler != nil && c.cfg.RefreshInterval > 0 {
			if err := l.StartAutoRefresh(c.cfg.RefreshInterval); err != nil {
				c.logger.Warn("auto-refresh not started", "list", name, "error", err)
			}
		}
	}
	return l
}

func (ls *lists) close() {
	for _, l := range ls.byName {
		l.Close()
	}
}
