// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"net/http"

	"github.com/olegiv/trapo-admin/internal/model"
)

// Login authenticates a storefront user.
func (c *Client) Login(ctx context.Context, form model.LoginForm) (*model.AuthResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var out model.AuthResponse
	if err := c.anonymous().Do(ctx, http.MethodPost, PathAuthLogin, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a storefront account.
func (c *Client) Register(ctx context.Context, form model.RegisterForm) (*model.AuthResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var out model.AuthResponse
	if err := c.anonymous().Do(ctx, http.MethodPost, PathAuthRegister, form.Credentials(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the storefront user of the bound token.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.Get(ctx, PathUserProfile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes the storefront user's name and email.
func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	var out model.User
	if err := c.Do(ctx, http.MethodPut, PathUserProfile, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
