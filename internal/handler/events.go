// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"

	"github.com/olegiv/trapo-admin/internal/logging"
)

// Event list limits.
const (
	DefaultEventsLimit = 50
	MaxEventsLimit     = 200
)

// EventsHandler serves the recent warning and error log records.
type EventsHandler struct {
	recorder *logging.Recorder
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(rec *logging.Recorder) *EventsHandler {
	return &EventsHandler{recorder: rec}
}

// List handles GET /admin/api/events?limit&level&category.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = DefaultEventsLimit
	}
	limit = min(limit, MaxEventsLimit)
	level := q.Get("level")
	category := q.Get("category")

	// Filter over the whole ring, then cut to limit.
	events := make([]logging.Event, 0, limit)
	for _, e := range h.recorder.Recent(0) {
		if level != "" && e.Level != level {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		events = append(events, e)
		if len(events) == limit {
			break
		}
	}

	writeJSONSuccess(w, map[string]any{
		"events": events,
		"total":  h.recorder.Len(),
	})
}
