// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides slog handlers for the admin server. The event log
// handler keeps WARN and above in a bounded in-memory recorder so operators
// can review recent failures from the dashboard.
package logging

import (
	"context"
	"encoding/hex"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Event categories.
const (
	CategoryAuth    = "auth"
	CategoryOrder   = "order"
	CategoryProduct = "product"
	CategoryCache   = "cache"
	CategoryBackend = "backend"
	CategorySystem  = "system"
)

// Event levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// DefaultRecorderSize is the number of events kept by NewRecorder(0).
const DefaultRecorderSize = 200

// Event is a recorded log line.
type Event struct {
	ID        uint64            `json:"id"`
	Level     string            `json:"level"`
	Category  string            `json:"category"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Recorder is a fixed-size ring of events, newest last.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	seq    uint64
}

// NewRecorder creates a recorder holding up to size events.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultRecorderSize
	}
	return &Recorder{events: make([]Event, size)}
}

// Add stores e, evicting the oldest event when full.
func (r *Recorder) Add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.ID = r.seq
	r.events[r.next] = e
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns up to limit events, newest first. A limit of 0 returns all.
func (r *Recorder) Recent(limit int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.events)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Event, 0, limit)
	for i := range limit {
		idx := (r.next - 1 - i + len(r.events)) % len(r.events)
		out = append(out, r.events[idx])
	}
	return out
}

// Len returns the number of stored events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.events)
	}
	return r.next
}

// EventLogHandler is a slog.Handler that wraps another handler and also
// records WARN and ERROR level logs in a Recorder.
type EventLogHandler struct {
	inner    slog.Handler
	recorder *Recorder
	level    slog.Level // Minimum level to record (default: WARN)
	attrs    []slog.Attr
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
func NewEventLogHandler(inner slog.Handler, rec *Recorder) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, rec, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, rec *Recorder, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, recorder: rec, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= h.level && h.recorder != nil {
		h.record(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:    h.inner.WithAttrs(attrs),
		recorder: h.recorder,
		level:    h.level,
		attrs:    append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:    h.inner.WithGroup(name),
		recorder: h.recorder,
		level:    h.level,
		attrs:    h.attrs,
	}
}

func (h *EventLogHandler) record(r slog.Record) {
	meta := make(map[string]string, len(h.attrs)+r.NumAttrs())
	category := ""
	collect := func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return true
		}
		meta[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if category == "" {
		category = inferCategory(r.Message)
	}
	if len(meta) == 0 {
		meta = nil
	}

	h.recorder.Add(Event{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		Metadata:  meta,
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// inferCategory guesses a category from the message when none was given.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") ||
		strings.Contains(msg, "logout") || strings.Contains(msg, "session"):
		return CategoryAuth
	case strings.Contains(msg, "order"):
		return CategoryOrder
	case strings.Contains(msg, "product"):
		return CategoryProduct
	case strings.Contains(msg, "cache"):
		return CategoryCache
	case strings.Contains(msg, "backend") || strings.Contains(msg, "upstream"):
		return CategoryBackend
	default:
		return CategorySystem
	}
}

// ParseLevel maps a config string to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger: a text handler on stderr wrapped so
// that request attributes are added and WARN+ records reach rec.
func NewLogger(level string, rec *Recorder) *slog.Logger {
	var h slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(level)})
	if rec != nil {
		h = NewEventLogHandler(h, rec)
	}
	return slog.New(NewContextHandler(h))
}

// Fingerprint returns a short stable digest of a secret such as a bearer
// token, suitable for logs and cache keys.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:6])
}
