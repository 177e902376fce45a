// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestLoginProtection returns a protection with a fake clock and a high
// IP rate.
func newTestLoginProtection(maxAttempts int, lockout, window time.Duration) (*LoginProtection, *fakeClock) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     window,
	})
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	lp.now = clock.now
	return lp, clock
}

func TestDefaultLoginProtectionConfig(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()

	if cfg.IPRateLimit != 0.5 {
		t.Errorf("IPRateLimit = %v, want 0.5", cfg.IPRateLimit)
	}
	if cfg.IPBurst != 5 {
		t.Errorf("IPBurst = %d, want 5", cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Errorf("LockoutDuration = %v, want 15m", cfg.LockoutDuration)
	}
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5 (default)", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m (default)", lp.lockoutDuration)
	}
}

func TestLoginProtectionLockAndExpire(t *testing.T) {
	lp, clock := newTestLoginProtection(3, time.Minute, 10*time.Minute)
	email := "ada@example.com"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Fatal("account should not be locked initially")
	}

	for i := range 2 {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("attempt %d should not lock", i+1)
		}
	}
	locked, d := lp.RecordFailedAttempt(email)
	if !locked || d != time.Minute {
		t.Fatalf("third attempt: locked=%v duration=%v, want true 1m", locked, d)
	}

	// Email matching ignores case.
	if locked, remaining := lp.IsAccountLocked("ADA@example.com"); !locked || remaining != time.Minute {
		t.Errorf("IsAccountLocked = %v %v, want true 1m", locked, remaining)
	}

	clock.advance(time.Minute + time.Second)
	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("account should be unlocked after lockout expires")
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp, clock := newTestLoginProtection(2, time.Minute, time.Hour)
	email := "ada@example.com"

	var durations []time.Duration
	for range 3 {
		lp.RecordFailedAttempt(email)
		_, d := lp.RecordFailedAttempt(email)
		durations = append(durations, d)
		clock.advance(d + time.Second)
	}

	want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute}
	for i := range want {
		if durations[i] != want[i] {
			t.Errorf("lockout %d = %v, want %v", i+1, durations[i], want[i])
		}
	}
}

func TestLoginProtectionBackoffCap(t *testing.T) {
	lp, clock := newTestLoginProtection(2, 10*time.Hour, 1000*time.Hour)

	var last time.Duration
	for range 4 {
		lp.RecordFailedAttempt("ada@example.com")
		_, last = lp.RecordFailedAttempt("ada@example.com")
		clock.advance(MaxLockout + time.Second)
	}
	if last != MaxLockout {
		t.Errorf("lockout = %v, want cap %v", last, MaxLockout)
	}
}

func TestLoginProtectionRemainingAttempts(t *testing.T) {
	lp, clock := newTestLoginProtection(5, time.Minute, time.Minute)
	email := "ada@example.com"

	if got := lp.GetRemainingAttempts(email); got != 5 {
		t.Errorf("GetRemainingAttempts() = %d, want 5", got)
	}
	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	if got := lp.GetRemainingAttempts(email); got != 3 {
		t.Errorf("GetRemainingAttempts() = %d, want 3", got)
	}

	clock.advance(2 * time.Minute)
	if got := lp.GetRemainingAttempts(email); got != 5 {
		t.Errorf("GetRemainingAttempts() after window = %d, want 5", got)
	}

	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)
	if got := lp.GetRemainingAttempts(email); got != 5 {
		t.Errorf("GetRemainingAttempts() after success = %d, want 5", got)
	}
}

func TestLoginProtectionPrune(t *testing.T) {
	lp, clock := newTestLoginProtection(5, time.Minute, time.Minute)
	lp.RecordFailedAttempt("old@example.com")
	clock.advance(2 * time.Minute)
	lp.RecordFailedAttempt("new@example.com")

	if removed := lp.Prune(); removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}
	if got := lp.GetRemainingAttempts("new@example.com"); got != 4 {
		t.Errorf("recent entry dropped: remaining = %d, want 4", got)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xForwarded string
		xRealIP    string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "X-Forwarded-For single", remoteAddr: "127.0.0.1:3000", xForwarded: "10.0.0.1", want: "10.0.0.1"},
		{name: "X-Forwarded-For multiple", remoteAddr: "127.0.0.1:3000", xForwarded: "10.0.0.1, 10.0.0.2", want: "10.0.0.1"},
		{name: "X-Real-IP", remoteAddr: "127.0.0.1:3000", xRealIP: "10.0.0.5", want: "10.0.0.5"},
		{name: "X-Forwarded-For wins", remoteAddr: "127.0.0.1:3000", xForwarded: "10.0.0.1", xRealIP: "10.0.0.5", want: "10.0.0.1"},
		{name: "X-Forwarded-For spaces", remoteAddr: "127.0.0.1:3000", xForwarded: "  10.0.0.1  ", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwarded)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})
	wrapped := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET is never limited.
	for range 5 {
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET status = %d, want 200", rr.Code)
		}
	}

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/admin/api/login", nil)
		req.RemoteAddr = "10.1.1.1:5555"
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("POST codes = %v, want [200 200 429]", codes)
	}

	// Another client is unaffected.
	req := httptest.NewRequest(http.MethodPost, "/admin/api/login", nil)
	req.RemoteAddr = "10.1.1.2:5555"
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rr.Code)
	}
}
