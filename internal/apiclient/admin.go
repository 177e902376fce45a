// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/olegiv/trapo-admin/internal/model"
)

// Admin endpoint paths.
const (
	PathAdminLogin     = "/api/admin/login"
	PathAdminRegister  = "/api/admin/register"
	PathAdminProfile   = "/api/admin/profile"
	PathAdminDashboard = "/api/admin/dashboard"
	PathAdminOrders    = "/api/admin/orders"
	PathAdminUsers     = "/api/admin/users"
	PathProducts       = "/api/products"
	PathHealth         = "/api/health"
	PathAuthLogin      = "/api/auth/login"
	PathAuthRegister   = "/api/auth/register"
	PathUserProfile    = "/api/users/profile"
)

// AdminLogin exchanges admin credentials for a token.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*model.AdminAuthResponse, error) {
	var out model.AdminAuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.anonymous().Do(ctx, http.MethodPost, PathAdminLogin, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminRegister creates an admin account and returns its token.
func (c *Client) AdminRegister(ctx context.Context, form model.RegisterForm) (*model.AdminAuthResponse, error) {
	var out model.AdminAuthResponse
	if err := c.anonymous().Do(ctx, http.MethodPost, PathAdminRegister, form.Credentials(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminProfile returns the admin the bound token belongs to.
func (c *Client) AdminProfile(ctx context.Context) (*model.AdminUser, error) {
	var out model.AdminUser
	if err := c.Get(ctx, PathAdminProfile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard returns the aggregate metrics.
func (c *Client) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var out model.DashboardStats
	if err := c.Get(ctx, PathAdminDashboard, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAdminUsers returns every user visible to admins.
func (c *Client) ListAdminUsers(ctx context.Context) ([]model.AdminUser, error) {
	var out []model.AdminUser
	if err := c.Get(ctx, PathAdminUsers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAdminUser returns a single user.
func (c *Client) GetAdminUser(ctx context.Context, id string) (*model.AdminUser, error) {
	var out model.AdminUser
	if err := c.Get(ctx, PathAdminUsers+"/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HealthStatus is the body of /api/health.
type HealthStatus struct {
	Status string `json:"status"`
}

// Health probes the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.Get(ctx, PathHealth, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
