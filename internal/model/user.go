// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the records exchanged with the backend API:
// admin users, orders, products, dashboard metrics and paginated lists.
package model

import "time"

// Admin roles accepted by the dashboard.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// IsAdminRole reports whether role grants access to the admin views.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// AdminUser is the authenticated identity returned by the admin endpoints.
type AdminUser struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Key returns the user id.
func (u AdminUser) Key() string { return u.ID }

// IsAdmin returns true if the user holds one of the admin roles.
func (u *AdminUser) IsAdmin() bool {
	return u != nil && IsAdminRole(u.Role)
}

// Validate checks that a decoded user record carries an identity.
func (u *AdminUser) Validate() error {
	if u.ID == "" || u.Email == "" {
		return &ValidationError{Field: "user", Message: "user record is missing id or email"}
	}
	return nil
}

// AdminAuthResponse is returned by /api/admin/login and /api/admin/register.
type AdminAuthResponse struct {
	AdminToken string    `json:"adminToken"`
	Admin      AdminUser `json:"admin"`
}

// Validate checks that the response carries both a token and a user.
func (r *AdminAuthResponse) Validate() error {
	if r.AdminToken == "" {
		return &ValidationError{Field: "adminToken", Message: "authentication response has no token"}
	}
	return r.Admin.Validate()
}

// User is a storefront (end-user) account.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// AuthResponse is returned by /api/auth/login and /api/auth/register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Validate checks that the response carries a token.
func (r *AuthResponse) Validate() error {
	if r.Token == "" {
		return &ValidationError{Field: "token", Message: "authentication response has no token"}
	}
	return nil
}

// ProfileUpdate is the payload for PUT /api/users/profile.
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
