// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/middleware"
	"github.com/olegiv/trapo-admin/internal/model"
	"github.com/olegiv/trapo-admin/internal/session"
)

const testToken = "tok"

// backend is a fake REST backend. Unregistered routes answer 404.
type backend struct {
	mux   *http.ServeMux
	srv   *httptest.Server
	calls atomic.Int32
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{mux: http.NewServeMux()}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(pattern string, fn http.HandlerFunc) {
	b.mux.HandleFunc(pattern, fn)
}

func (b *backend) client(t *testing.T) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(apiclient.Options{BaseURL: b.srv.URL, Logger: testLogger()})
	require.NoError(t, err)
	return c
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requireBearer answers 401 unless the request carries testToken.
func requireBearer(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+testToken {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		return false
	}
	return true
}

var testAdmin = model.AdminUser{ID: "a1", Name: "Ada", Email: "ada@example.com", Role: model.RoleAdmin}

// adminStore returns a resolved store holding testToken and an admin.
func adminStore(t *testing.T, c *apiclient.Client) *session.Store {
	t.Helper()
	user := testAdmin
	s := session.NewWithClient(c, session.NewMemoryPersistence(session.Snapshot{Token: testToken, User: &user}),
		session.WithLogger(testLogger()))
	require.NoError(t, s.Bootstrap(context.Background()))
	return s
}

// anonymousStore returns a resolved store without a session.
func anonymousStore(t *testing.T, c *apiclient.Client) *session.Store {
	t.Helper()
	s := session.NewWithClient(c, session.NewMemoryPersistence(session.Snapshot{}), session.WithLogger(testLogger()))
	require.NoError(t, s.Bootstrap(context.Background()))
	return s
}

// serve runs h for a request carrying store and optional chi URL params
// given as key/value pairs.
func serve(h http.HandlerFunc, store *session.Store, method, target, body string, params ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if store != nil {
		ctx = middleware.WithSession(ctx, store)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

// assertJSONResponse validates common JSON response properties.
func assertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantSuccess bool) map[string]any {
	t.Helper()

	if w.Code != wantStatus {
		t.Errorf("status code = %d, want %d (body %s)", w.Code, wantStatus, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if success, ok := resp["success"].(bool); !ok || success != wantSuccess {
		t.Errorf("success = %v, want %v", resp["success"], wantSuccess)
	}
	return resp
}
