// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/middleware"
	"github.com/olegiv/trapo-admin/internal/session"
)

// statusForError maps an error kind to the status returned to the browser.
// Backend 4xx answers pass through; backend 5xx and transport failures
// become 502.
func statusForError(err error) int {
	switch apiclient.Kind(err) {
	case apiclient.KindValidation:
		return http.StatusBadRequest
	case apiclient.KindAuthExpired:
		return http.StatusUnauthorized
	case apiclient.KindAPI:
		code := apiclient.StatusCode(err)
		if code >= 400 && code < 500 {
			return code
		}
		return http.StatusBadGateway
	case apiclient.KindNetwork, apiclient.KindDecode:
		return http.StatusBadGateway
	case apiclient.KindCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as a JSON error. An expired session has
// already been cleared by the store, so only the response is left to do.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	status := statusForError(err)
	kind := apiclient.Kind(err)

	switch {
	case status >= 500:
		logger.ErrorContext(r.Context(), msg, "kind", kind, "error", err)
	case kind == apiclient.KindAuthExpired:
		logger.InfoContext(r.Context(), msg, "category", "auth", "kind", kind)
	default:
		logger.DebugContext(r.Context(), msg, "kind", kind, "error", err)
	}

	writeJSONError(w, status, kind, apiclient.Message(err))
}

// requireStore returns the session store of r or writes a 500.
func requireStore(w http.ResponseWriter, r *http.Request) (*session.Store, bool) {
	store := middleware.GetSession(r)
	if store == nil {
		writeJSONError(w, http.StatusInternalServerError, apiclient.KindInternal, "Session not loaded")
		return nil, false
	}
	return store, true
}
