// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/cache"
	"github.com/olegiv/trapo-admin/internal/middleware"
	"github.com/olegiv/trapo-admin/internal/store"
	"github.com/olegiv/trapo-admin/internal/version"
)

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// probeMaxAge is how long a backend probe result is trusted.
const probeMaxAge = 2 * time.Minute

// BackendProbe remembers the last result of the backend health endpoint.
// The scheduler refreshes it; readiness reads it.
type BackendProbe struct {
	client *apiclient.Client
	logger *slog.Logger

	mu       sync.RWMutex
	last     Check
	lastTime time.Time
}

// NewBackendProbe creates a probe for client.
func NewBackendProbe(client *apiclient.Client, logger *slog.Logger) *BackendProbe {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackendProbe{client: client, logger: logger}
}

// Probe calls the backend health endpoint and stores the result.
func (p *BackendProbe) Probe(ctx context.Context) Check {
	start := time.Now()
	status, err := p.client.Health(ctx)
	latency := time.Since(start)

	check := Check{Status: StatusHealthy, Message: "Reachable", Latency: latency.String()}
	switch {
	case err != nil:
		check = Check{Status: StatusUnhealthy, Message: apiclient.Message(err), Latency: latency.String()}
		p.logger.WarnContext(ctx, "backend health probe failed", "category", "backend", "error", err)
	case status.Status != "" && status.Status != "ok" && status.Status != StatusHealthy:
		check = Check{Status: StatusDegraded, Message: "Backend reports " + status.Status, Latency: latency.String()}
	}

	p.mu.Lock()
	p.last = check
	p.lastTime = time.Now()
	p.mu.Unlock()
	return check
}

// Last returns the stored result, probing first when it is missing or
// older than probeMaxAge.
func (p *BackendProbe) Last(ctx context.Context) Check {
	p.mu.RLock()
	check, at := p.last, p.lastTime
	p.mu.RUnlock()

	if at.IsZero() || time.Since(at) > probeMaxAge {
		return p.Probe(ctx)
	}
	return check
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	cache     cache.Cacher
	backend   *BackendProbe
	dataDir   string
	version   version.Info
	startTime time.Time
}

// HealthConfig wires the dependencies checked by HealthHandler.
type HealthConfig struct {
	DB      *sql.DB
	Cache   cache.Cacher
	Backend *BackendProbe
	// DataDir is the directory of the session database.
	DataDir string
	Version version.Info
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cfg HealthConfig) *HealthHandler {
	return &HealthHandler{
		db:        cfg.DB,
		cache:     cfg.Cache,
		backend:   cfg.Backend,
		dataDir:   cfg.DataDir,
		version:   cfg.Version,
		startTime: time.Now(),
	}
}

// StartTime returns when the handler (and application) was started.
func (h *HealthHandler) StartTime() time.Time {
	return h.startTime
}

// HealthStatusPublic is the minimal health response for callers that are
// not signed-in admins.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the full health report shown to admins.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Commit    string           `json:"commit,omitempty"`
	Checks    map[string]Check `json:"checks"`
	Sessions  int              `json:"active_sessions"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. The backend being down degrades the
// status without failing it, since the console can still show its
// login page.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
		"disk":     h.checkDiskSpace(),
	}
	if h.backend != nil {
		checks["backend"] = h.backend.Last(r.Context())
	}

	overall := StatusHealthy
	httpStatus := http.StatusOK
	for name, c := range checks {
		switch {
		case c.Status == StatusUnhealthy && name != "backend":
			overall = StatusUnhealthy
			httpStatus = http.StatusServiceUnavailable
		case c.Status != StatusHealthy && overall == StatusHealthy:
			overall = StatusDegraded
		}
	}

	if !h.isAdmin(r) {
		writeJSON(w, httpStatus, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.versionString(),
		Commit:    h.version.GitCommit,
		Checks:    checks,
	}
	if h.db != nil {
		if n, err := store.ActiveSessions(r.Context(), h.db); err == nil {
			status.Sessions = n
		}
	}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		stats := sp.Stats()
		status.Cache = &stats
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = h.getSystemInfo()
	}

	writeJSON(w, httpStatus, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. The server is ready when its
// session database answers and the backend is reachable.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	failed := ""
	var check Check
	if check = h.checkDatabase(r.Context()); check.Status != StatusHealthy {
		failed = "database"
	} else if h.backend != nil {
		if check = h.backend.Last(r.Context()); check.Status == StatusUnhealthy {
			failed = "backend"
		}
	}

	if failed == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	resp := map[string]string{"status": "not_ready"}
	// Only include error details for admins
	if h.isAdmin(r) {
		resp["failed"] = failed
		resp["message"] = check.Message
	}
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

// isAdmin reports whether r carries an authenticated admin session.
func (h *HealthHandler) isAdmin(r *http.Request) bool {
	s := middleware.GetSession(r)
	return s != nil && s.IsAdmin()
}

func (h *HealthHandler) versionString() string {
	if h.version.Version == "" {
		return "dev"
	}
	return h.version.Version
}

// checkDatabase verifies the session database connection.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	if h.db == nil {
		return Check{Status: StatusHealthy, Message: "Not configured"}
	}

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: StatusHealthy, Message: "Connected", Latency: latency.String()}
}

// checkDiskSpace checks available disk space in the data directory.
func (h *HealthHandler) checkDiskSpace() Check {
	if h.dataDir == "" {
		return Check{Status: StatusHealthy, Message: "Not configured"}
	}
	if _, err := os.Stat(h.dataDir); os.IsNotExist(err) {
		return Check{Status: StatusHealthy, Message: "Data directory does not exist yet"}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		return Check{Status: StatusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	available := formatBytes(availableBytes)

	const minSpace = 100 * 1024 * 1024 // 100MB
	if availableBytes < minSpace {
		return Check{Status: StatusDegraded, Message: "Low disk space: " + available + " available"}
	}
	return Check{Status: StatusHealthy, Message: available + " available"}
}

// getSystemInfo returns system-level metrics.
func (h *HealthHandler) getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
