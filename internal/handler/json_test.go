// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/model"
)

func TestWriteJSONError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		kind       string
		message    string
	}{
		{"bad request", http.StatusBadRequest, apiclient.KindValidation, "Invalid input"},
		{"unauthorized", http.StatusUnauthorized, apiclient.KindAuthExpired, "Please log in"},
		{"bad gateway", http.StatusBadGateway, apiclient.KindNetwork, "Unable to reach the server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSONError(w, tt.statusCode, tt.kind, tt.message)

			resp := assertJSONResponse(t, w, tt.statusCode, false)
			if resp["error"] != tt.message {
				t.Errorf("error = %q, want %q", resp["error"], tt.message)
			}
			if resp["kind"] != tt.kind {
				t.Errorf("kind = %q, want %q", resp["kind"], tt.kind)
			}
		})
	}
}

func TestWriteJSONSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONSuccess(w, map[string]any{"id": "o1"})

	resp := assertJSONResponse(t, w, http.StatusOK, true)
	if resp["id"] != "o1" {
		t.Errorf("id = %v, want o1", resp["id"])
	}

	w = httptest.NewRecorder()
	writeJSONSuccess(w, nil)
	assertJSONResponse(t, w, http.StatusOK, true)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &model.ValidationError{Field: "email", Message: "bad"}, http.StatusBadRequest},
		{"auth expired", fmt.Errorf("GET /x: %w", apiclient.ErrAuthExpired), http.StatusUnauthorized},
		{"api 404 passes through", &apiclient.APIError{StatusCode: 404, Message: "Order not found"}, http.StatusNotFound},
		{"api 409 passes through", &apiclient.APIError{StatusCode: 409, Message: "Exists"}, http.StatusConflict},
		{"api 500 is bad gateway", &apiclient.APIError{StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"network", &apiclient.NetworkError{Method: "GET", Path: "/x", Err: errors.New("refused")}, http.StatusBadGateway},
		{"decode", &apiclient.DecodeError{Path: "/x", Err: errors.New("eof")}, http.StatusBadGateway},
		{"canceled", context.Canceled, http.StatusGatewayTimeout},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestWriteErrorUsesBackendMessage(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin/api/orders/o9", nil)
	writeError(w, r, testLogger(), "failed", &apiclient.APIError{StatusCode: 404, Message: "Order not found"})

	resp := assertJSONResponse(t, w, http.StatusNotFound, false)
	assert.Equal(t, "Order not found", resp["error"])
	assert.Equal(t, apiclient.KindAPI, resp["kind"])
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"email":"a@example.com"}`, ""},
		{"empty", ``, "Request body is empty"},
		{"malformed", `{"email":`, "Invalid JSON"},
		{"too large", `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/api/login", strings.NewReader(tt.body))
			var form model.LoginForm
			err := decodeJSON(httptest.NewRecorder(), req, &form)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, "a@example.com", form.Email)
				return
			}
			var ve *model.ValidationError
			if assert.ErrorAs(t, err, &ve) {
				assert.Contains(t, ve.Message, tt.wantErr)
			}
		})
	}
}
