// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"

	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/model"
)

// Users lists admin-visible users. The status filter selects a role.
type Users struct {
	logger *slog.Logger
}

// NewUsers creates a Users service.
func NewUsers(logger *slog.Logger) *Users {
	if logger == nil {
		logger = slog.Default()
	}
	return &Users{logger: logger}
}

// List returns one page of users.
func (s *Users) List(ctx context.Context, api UserAPI, q model.ListQuery) (listing.Result[model.AdminUser], error) {
	return listing.Load(ctx, UserSource(api), q, listing.MatchUser, s.logger)
}

// NewUsersView creates a users list bound to api.
func NewUsersView(api UserAPI, cfg listing.Config) *listing.Controller[model.AdminUser] {
	if cfg.Name == "" {
		cfg.Name = "users"
	}
	return listing.NewController(UserSource(api), listing.MatchUser, cfg)
}
