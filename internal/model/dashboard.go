// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// MonthlyRevenue is one point of the revenue-by-month series.
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// DailySales is one point of the daily sales series.
type DailySales struct {
	Date   string  `json:"date"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

// DashboardStats are the aggregate metrics shown on the overview.
// The first group comes from /api/admin/dashboard, the second is derived
// locally from the order list.
type DashboardStats struct {
	TotalOrders    int              `json:"totalOrders"`
	TotalRevenue   float64          `json:"totalRevenue"`
	TotalUsers     int              `json:"totalUsers"`
	RecentOrders   []Order          `json:"recentOrders"`
	MonthlyRevenue []MonthlyRevenue `json:"monthlyRevenue"`

	PendingOrders   int          `json:"pendingOrders"`
	CompletedOrders int          `json:"completedOrders"`
	UniqueCustomers int          `json:"uniqueCustomers"`
	SalesSeries     []DailySales `json:"salesSeries"`
}
