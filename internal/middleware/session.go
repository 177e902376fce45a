// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/sync/singleflight"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/session"
)

// ContextKeySession is the context key for the request's session.Store.
const ContextKeySession ContextKey = "admin_session"

// Sessions binds a session.Store to every request. It must run inside
// scs.SessionManager.LoadAndSave.
type Sessions struct {
	sm     *scs.SessionManager
	client *apiclient.Client
	logger *slog.Logger
	verify singleflight.Group
}

// NewSessions creates the session loader.
func NewSessions(sm *scs.SessionManager, client *apiclient.Client, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{sm: sm, client: client, logger: logger}
}

// Load bootstraps the request's session and stores it in the context.
// A bootstrap interrupted by the client leaves the session unresolved;
// RequireAdmin then answers with the loading view.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := s.NewStore(w, r)
		if err := store.Bootstrap(r.Context()); err != nil {
			s.logger.DebugContext(r.Context(), "session bootstrap interrupted", "error", err)
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), store)))
	})
}

// NewStore returns an unresolved Store persisted in the request's server
// session and cookie mirror.
func (s *Sessions) NewStore(w http.ResponseWriter, r *http.Request) *session.Store {
	p := session.NewHTTPPersistence(s.sm, w, r)
	return session.NewWithClient(s.client, p,
		session.WithLogger(s.logger),
		session.SharedVerification(&s.verify),
	)
}

// WithSession returns a copy of ctx carrying store.
func WithSession(ctx context.Context, store *session.Store) context.Context {
	return context.WithValue(ctx, ContextKeySession, store)
}

// GetSession returns the request's session, or nil outside Sessions.Load.
func GetSession(r *http.Request) *session.Store {
	store, _ := r.Context().Value(ContextKeySession).(*session.Store)
	return store
}
