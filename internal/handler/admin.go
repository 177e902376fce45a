// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP endpoints of the admin server. Every
// admin endpoint talks to the backend with the token of the caller's
// session, so a 401 from the backend clears that session.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/model"
)

// adminBase is shared by the admin API handlers.
type adminBase struct {
	client   *apiclient.Client
	pageSize int
	logger   *slog.Logger
}

func newAdminBase(client *apiclient.Client, pageSize int, logger *slog.Logger) adminBase {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = model.DefaultPageLimit
	}
	return adminBase{client: client, pageSize: pageSize, logger: logger}
}

// api returns the backend client bound to the caller's session, and the
// session token.
func (b adminBase) api(w http.ResponseWriter, r *http.Request) (*apiclient.Client, string, bool) {
	store, ok := requireStore(w, r)
	if !ok {
		return nil, "", false
	}
	return b.client.WithTokens(store), store.Token(), true
}

// listQuery reads the list parameters of r.
func (b adminBase) listQuery(r *http.Request) model.ListQuery {
	return model.ParseListQuery(r.URL.Query(), b.pageSize)
}

// urlID returns the {id} route parameter.
func urlID(r *http.Request) string {
	return chi.URLParam(r, "id")
}
