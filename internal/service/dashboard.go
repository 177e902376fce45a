// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/cache"
	"github.com/olegiv/trapo-admin/internal/logging"
	"github.com/olegiv/trapo-admin/internal/model"
)

const (
	dashboardKeyPrefix = "dashboard:"

	// RecentOrdersLimit is the number of orders shown as recent.
	RecentOrdersLimit = 5

	// SalesSeriesDays is the length of the daily sales series.
	SalesSeriesDays = 7
)

// Dashboard assembles overview metrics. Results are cached per session
// token and concurrent loads for the same token share one backend round.
type Dashboard struct {
	cache  *cache.TypedCache[model.DashboardStats]
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

// NewDashboard creates a Dashboard. A nil cache disables caching.
func NewDashboard(c cache.Cacher, ttl time.Duration, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dashboard{logger: logger, now: time.Now}
	if c != nil {
		d.cache = cache.NewTypedCache[model.DashboardStats](c, ttl)
	}
	return d
}

// Stats returns the metrics for the session holding token.
func (d *Dashboard) Stats(ctx context.Context, api DashboardAPI, token string) (*model.DashboardStats, error) {
	key := dashboardKeyPrefix + logging.Fingerprint(token)

	if d.cache != nil {
		if stats, ok := d.cache.Get(ctx, key); ok {
			return stats, nil
		}
	}

	v, err, _ := d.group.Do(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		stats, err := d.load(lctx, api)
		if err != nil {
			return nil, err
		}
		if d.cache != nil {
			if err := d.cache.Set(lctx, key, stats); err != nil {
				d.logger.WarnContext(ctx, "dashboard cache write failed", "category", "cache", "error", err)
			}
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}

	stats := *v.(*model.DashboardStats)
	return &stats, nil
}

// Invalidate drops all cached dashboards.
func (d *Dashboard) Invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.DeleteByPrefix(ctx, dashboardKeyPrefix); err != nil {
		d.logger.WarnContext(ctx, "dashboard cache invalidation failed", "category", "cache", "error", err)
	}
}

// load fetches the dashboard endpoint and the order list in parallel. The
// order list fills the derived fields, and replaces the endpoint entirely
// when the endpoint fails.
func (d *Dashboard) load(ctx context.Context, api DashboardAPI) (*model.DashboardStats, error) {
	var (
		wg        sync.WaitGroup
		remote    *model.DashboardStats
		remoteErr error
		orders    []model.Order
		ordersErr error
	)
	wg.Go(func() { remote, remoteErr = api.Dashboard(ctx) })
	wg.Go(func() { orders, ordersErr = api.ListOrders(ctx) })
	wg.Wait()

	for _, err := range []error{remoteErr, ordersErr} {
		if errors.Is(err, apiclient.ErrAuthExpired) {
			return nil, err
		}
	}

	switch {
	case remoteErr != nil && ordersErr != nil:
		return nil, remoteErr
	case remoteErr != nil:
		d.logger.DebugContext(ctx, "dashboard endpoint unavailable, deriving from orders", "error", remoteErr)
		stats := Aggregate(orders, d.now())
		stats.TotalUsers = stats.UniqueCustomers
		return &stats, nil
	case ordersErr != nil:
		d.logger.WarnContext(ctx, "order list unavailable for dashboard", "category", "order", "error", ordersErr)
		stats := *remote
		normalizeRemote(&stats)
		return &stats, nil
	}

	stats := Aggregate(orders, d.now())
	stats.TotalOrders = remote.TotalOrders
	stats.TotalRevenue = remote.TotalRevenue
	stats.TotalUsers = remote.TotalUsers
	if len(remote.RecentOrders) > 0 {
		stats.RecentOrders = remote.RecentOrders
	}
	if len(remote.MonthlyRevenue) > 0 {
		stats.MonthlyRevenue = remote.MonthlyRevenue
	}
	return &stats, nil
}

func normalizeRemote(s *model.DashboardStats) {
	if s.RecentOrders == nil {
		s.RecentOrders = []model.Order{}
	}
	if s.MonthlyRevenue == nil {
		s.MonthlyRevenue = []model.MonthlyRevenue{}
	}
	if s.SalesSeries == nil {
		s.SalesSeries = []model.DailySales{}
	}
}

// Aggregate derives dashboard metrics from the full order list. Days and
// months are bucketed in UTC. The sales series covers the SalesSeriesDays
// days ending at now, with empty days included.
func Aggregate(orders []model.Order, now time.Time) model.DashboardStats {
	stats := model.DashboardStats{TotalOrders: len(orders)}

	customers := make(map[string]struct{})
	monthly := make(map[string]float64)

	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(SalesSeriesDays - 1))
	series := make([]model.DailySales, SalesSeriesDays)
	for i := range series {
		series[i].Date = first.AddDate(0, 0, i).Format(time.DateOnly)
	}

	for _, o := range orders {
		stats.TotalRevenue += o.Total
		switch o.Status {
		case model.StatusOrdered:
			stats.PendingOrders++
		case model.StatusCompleted:
			stats.CompletedOrders++
		}

		if id := customerID(o); id != "" {
			customers[id] = struct{}{}
		}

		if o.CreatedAt.IsZero() {
			continue
		}
		created := o.CreatedAt.UTC()
		monthly[created.Format("2006-01")] += o.Total

		day := created.Truncate(24 * time.Hour)
		if idx := int(day.Sub(first) / (24 * time.Hour)); !day.Before(first) && idx < SalesSeriesDays {
			series[idx].Sales += o.Total
			series[idx].Orders++
		}
	}

	stats.TotalRevenue = roundCents(stats.TotalRevenue)
	stats.UniqueCustomers = len(customers)

	for i := range series {
		series[i].Sales = roundCents(series[i].Sales)
	}
	stats.SalesSeries = series

	stats.MonthlyRevenue = make([]model.MonthlyRevenue, 0, len(monthly))
	for month, revenue := range monthly {
		stats.MonthlyRevenue = append(stats.MonthlyRevenue, model.MonthlyRevenue{Month: month, Revenue: roundCents(revenue)})
	}
	slices.SortFunc(stats.MonthlyRevenue, func(a, b model.MonthlyRevenue) int { return cmp.Compare(a.Month, b.Month) })

	stats.RecentOrders = RecentOrders(orders, RecentOrdersLimit)
	return stats
}

// RecentOrders returns up to n orders, newest first.
func RecentOrders(orders []model.Order, n int) []model.Order {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b model.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []model.Order{}
	}
	return sorted
}

// customerID identifies the buyer, preferring the account id.
func customerID(o model.Order) string {
	if o.UserID != "" {
		return o.UserID
	}
	return o.CustomerInfo.Email
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
