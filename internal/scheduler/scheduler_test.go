// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	s := New(slog.Default())
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestEveryRunsAndCancels(t *testing.T) {
	s := New(nil)
	s.Start()
	defer s.Stop()

	var runs atomic.Int32
	cancel, err := s.Every("probe", time.Second, func() { runs.Add(1) })
	if err != nil {
		t.Fatalf("Every() error = %v", err)
	}

	jobs := s.List()
	if len(jobs) != 1 || jobs[0].Name != "probe" || jobs[0].Schedule != "@every 1s" {
		t.Fatalf("List() = %+v", jobs)
	}

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("job did not run")
	}

	cancel()
	cancel()
	if len(s.List()) != 0 {
		t.Error("job still registered after cancel")
	}
}

func TestEveryRejectsShortInterval(t *testing.T) {
	s := New(nil)
	if _, err := s.Every("fast", 10*time.Millisecond, func() {}); err == nil {
		t.Error("expected error for sub-second interval")
	}
}

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := New(nil)
	if _, err := s.Add("bad", "not a schedule", func() {}); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestPanickingJobIsRecovered(t *testing.T) {
	s := New(nil)
	s.Start()
	defer s.Stop()

	var runs atomic.Int32
	if _, err := s.Every("panics", time.Second, func() {
		runs.Add(1)
		panic("boom")
	}); err != nil {
		t.Fatalf("Every() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("job did not run")
	}
}
