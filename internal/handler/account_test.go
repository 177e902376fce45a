// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/model"
)

const userToken = "user-tok"

// accountServer mounts the account endpoints behind a memory-backed
// session manager, in front of a backend that knows one customer.
type accountServer struct {
	router  http.Handler
	sm      *scs.SessionManager
	backend *backend
	cookie  *http.Cookie
}

func newAccountServer(t *testing.T) *accountServer {
	t.Helper()

	b := newBackend(t)
	user := model.User{ID: "u1", Name: "Grace", Email: "grace@example.com", Role: "customer"}
	b.handle("POST "+apiclient.PathAuthLogin, func(w http.ResponseWriter, r *http.Request) {
		var form model.LoginForm
		_ = json.NewDecoder(r.Body).Decode(&form)
		if form.Email != user.Email || form.Password != "secret123" {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
			return
		}
		respondJSON(w, http.StatusOK, model.AuthResponse{Token: userToken, User: user})
	})
	b.handle("GET "+apiclient.PathUserProfile, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+userToken {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}
		respondJSON(w, http.StatusOK, user)
	})
	b.handle("PUT "+apiclient.PathUserProfile, func(w http.ResponseWriter, r *http.Request) {
		var upd model.ProfileUpdate
		_ = json.NewDecoder(r.Body).Decode(&upd)
		respondJSON(w, http.StatusOK, model.User{ID: user.ID, Name: upd.Name, Email: upd.Email})
	})

	sm := scs.New()
	h := NewAccountHandler(sm, b.client(t), testLogger())
	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Post("/account/api/login", h.Login)
	r.Post("/account/api/logout", h.Logout)
	r.Get("/account/api/profile", h.Profile)
	r.Put("/account/api/profile", h.UpdateProfile)

	return &accountServer{router: r, sm: sm, backend: b}
}

// do sends a request carrying the current session cookie and keeps the
// cookie the response sets.
func (s *accountServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == s.sm.Cookie.Name {
			s.cookie = c
		}
	}
	return rec
}

func TestAccountLoginAndProfile(t *testing.T) {
	s := newAccountServer(t)

	rec := s.do(http.MethodPost, "/account/api/login", `{"email":"grace@example.com","password":"secret123"}`)
	resp := assertJSONResponse(t, rec, http.StatusOK, true)
	assert.Equal(t, "Grace", resp["user"].(map[string]any)["name"])
	assert.NotContains(t, rec.Body.String(), userToken, "token stays server side")
	require.NotNil(t, s.cookie)

	rec = s.do(http.MethodGet, "/account/api/profile", "")
	resp = assertJSONResponse(t, rec, http.StatusOK, true)
	assert.Equal(t, "grace@example.com", resp["user"].(map[string]any)["email"])

	rec = s.do(http.MethodPut, "/account/api/profile", `{"name":"Grace H","email":"gh@example.com"}`)
	resp = assertJSONResponse(t, rec, http.StatusOK, true)
	assert.Equal(t, "Grace H", resp["user"].(map[string]any)["name"])

	rec = s.do(http.MethodPost, "/account/api/logout", "")
	assertJSONResponse(t, rec, http.StatusOK, true)

	calls := s.backend.calls.Load()
	rec = s.do(http.MethodGet, "/account/api/profile", "")
	resp = assertJSONResponse(t, rec, http.StatusUnauthorized, false)
	assert.Equal(t, apiclient.KindAuthExpired, resp["kind"])
	assert.Equal(t, calls, s.backend.calls.Load())
}

func TestAccountLoginRejected(t *testing.T) {
	s := newAccountServer(t)

	rec := s.do(http.MethodPost, "/account/api/login", `{"email":"grace@example.com","password":"nope"}`)
	resp := assertJSONResponse(t, rec, http.StatusUnauthorized, false)
	assert.Equal(t, "Invalid email or password", resp["error"])

	rec = s.do(http.MethodGet, "/account/api/profile", "")
	assertJSONResponse(t, rec, http.StatusUnauthorized, false)
}

func TestAccountLoginValidation(t *testing.T) {
	s := newAccountServer(t)

	rec := s.do(http.MethodPost, "/account/api/login", `{"email":"","password":""}`)
	resp := assertJSONResponse(t, rec, http.StatusBadRequest, false)
	assert.Equal(t, apiclient.KindValidation, resp["kind"])
	assert.Zero(t, s.backend.calls.Load())
}

func TestAccountUpdateProfileValidation(t *testing.T) {
	s := newAccountServer(t)
	s.do(http.MethodPost, "/account/api/login", `{"email":"grace@example.com","password":"secret123"}`)
	calls := s.backend.calls.Load()

	rec := s.do(http.MethodPut, "/account/api/profile", `{"name":"Grace","email":"not-an-email"}`)
	assertJSONResponse(t, rec, http.StatusBadRequest, false)
	assert.Equal(t, calls, s.backend.calls.Load())
}
