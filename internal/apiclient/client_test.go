// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/trapo-admin/internal/model"
)

// staticTokens is a TokenSource that clears its token on first invalidation.
type staticTokens struct {
	mu          sync.Mutex
	token       string
	invalidated int
}

func (s *staticTokens) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticTokens) Invalidate(_ context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token && token != "" {
		s.token = ""
		s.invalidated++
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := New(Options{BaseURL: "http://localhost:5000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
}

func TestDoInjectsBearerToken(t *testing.T) {
	var gotAuth, gotType, gotRequestID string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	_, err := c.WithTokens(&staticTokens{token: "abc"}).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.NotEmpty(t, gotRequestID)

	_, err = c.Health(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "no token source means no Authorization header")
}

func TestDoUnauthorizedInvalidatesToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
	}))
	tokens := &staticTokens{token: "abc"}

	_, err := c.WithTokens(tokens).AdminProfile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.Equal(t, KindAuthExpired, Kind(err))
	assert.Equal(t, MsgAuthExpired, Message(err))
	assert.Empty(t, tokens.Token())
	assert.Equal(t, 1, tokens.invalidated)
}

func TestDoUnauthorizedWithoutTokenIsAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}))
	tokens := &staticTokens{token: "stale"}

	_, err := c.WithTokens(tokens).AdminLogin(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Equal(t, "stale", tokens.Token(), "login must not invalidate the stored token")
}

func TestDoConcurrentUnauthorizedInvalidatesOnce(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	tokens := &staticTokens{token: "abc"}
	bound := c.WithTokens(tokens)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			_, _ = bound.ListOrders(context.Background())
		})
	}
	wg.Wait()

	assert.Equal(t, 1, tokens.invalidated)
	assert.Empty(t, tokens.Token())

	// Later calls go out without the revoked token.
	_, err := bound.ListOrders(context.Background())
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestAPIErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "message field", status: 400, body: `{"message":"Bad status"}`, wantMsg: "Bad status"},
		{name: "error field", status: 409, body: `{"error":"Duplicate"}`, wantMsg: "Duplicate"},
		{name: "non-JSON body", status: 500, body: `<html>oops</html>`, wantMsg: "Internal Server Error"},
		{name: "empty body", status: 404, body: ``, wantMsg: "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.GetOrder(context.Background(), "o1")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, KindAPI, Kind(err))
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, KindNetwork, Kind(err))
}

func TestDoDecodeError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))

	_, err := c.Dashboard(context.Background())
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, KindDecode, Kind(err))
}

func TestListOrdersPageRejectsBrokenPagination(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":       []model.Order{},
			"pagination": map[string]int{"page": 1, "limit": 10, "total": 12, "totalPages": 1},
		})
	}))

	_, err := c.ListOrdersPage(context.Background(), model.ListQuery{Page: 1, Limit: 10})
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestListOrdersPageSendsQuery(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"page":      q.Get("page"),
			"limit":     q.Get("limit"),
			"search":    q.Get("search"),
			"status":    q.Get("status"),
			"paginated": q.Get("paginated"),
		}
		writeJSON(w, http.StatusOK, model.PaginatedResponse[model.Order]{
			Data:       []model.Order{{ID: "o1"}},
			Pagination: model.Pagination{Page: 2, Limit: 5, Total: 6, TotalPages: 2},
		})
	}))

	resp, err := c.ListOrdersPage(context.Background(), model.ListQuery{Page: 2, Limit: 5, Search: "jane", Status: "shipped"})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, map[string]string{
		"page": "2", "limit": "5", "search": "jane", "status": "shipped", "paginated": "true",
	}, got)
}

func TestUpdateOrderStatus(t *testing.T) {
	var body model.StatusUpdate
	var method, path string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, model.Order{ID: "o1", Status: body.Status})
	}))

	o, err := c.UpdateOrderStatus(context.Background(), "o1", model.StatusCompleted, "Status updated to Completed")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/admin/orders/o1/status", path)
	assert.Equal(t, model.StatusCompleted, body.Status)
	assert.Equal(t, "Status updated to Completed", body.Note)
	assert.Equal(t, model.StatusCompleted, o.Status)

	_, err = c.UpdateOrderStatus(context.Background(), "o1", "lost", "")
	assert.Equal(t, KindValidation, Kind(err))
}

func TestDeleteProductNoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))

	assert.NoError(t, c.DeleteProduct(context.Background(), "p1"))
}

func TestKindCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	_, err := c.Health(ctx)
	require.Error(t, err)
	assert.Equal(t, KindCanceled, Kind(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestKindValidation(t *testing.T) {
	err := &model.ValidationError{Field: "email", Message: "Please fill in all required fields"}
	assert.Equal(t, KindValidation, Kind(err))
	assert.Equal(t, "Please fill in all required fields", Message(err))
	assert.Equal(t, "", Kind(nil))
}

func TestInvalidAuthResponseIsDecodeError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"_id": "u1"}})
	}))

	_, err := c.Login(context.Background(), model.LoginForm{Email: "a@example.com", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, KindDecode, Kind(err))
	assert.Equal(t, "Unexpected response from the server", Message(err))
}

// The backend never answering before the client timeout is a network
// failure, not a cancellation by the caller.
func TestDoClientTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, KindNetwork, Kind(err))
	assert.Equal(t, "Unable to reach the server. Please try again.", Message(err))
}

func TestDoCallerDeadlineIsCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Health(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Equal(t, KindCanceled, Kind(err))
}

func TestDoRateLimiterWaitErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	t.Cleanup(srv.Close)

	// One token, refilled once an hour.
	c, err := New(Options{BaseURL: srv.URL, RateLimit: 1.0 / 3600, Burst: 1})
	require.NoError(t, err)
	_, err = c.Health(context.Background())
	require.NoError(t, err)

	t.Run("deadline before next token", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, err := c.Health(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, KindCanceled, Kind(err))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Health(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, KindCanceled, Kind(err))
	})
}
