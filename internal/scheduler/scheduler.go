// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic jobs (list auto-refresh, backend health
// probes, cache pruning) on a shared cron instance.
package scheduler

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// specParser accepts five-field cron expressions and descriptors such as
// "@every 30s".
var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// registeredJob holds metadata about a registered cron job.
type registeredJob struct {
	name     string
	schedule string
	entryID  cron.EntryID
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name     string
	Schedule string
	LastRun  time.Time
	NextRun  time.Time
}

// Scheduler wraps a cron instance. Jobs never overlap with themselves and
// a panicking job is logged instead of crashing the process.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	jobs    map[int]*registeredJob
	nextID  int
	started bool
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(specParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		jobs:   make(map[int]*registeredJob),
	}
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Add registers fn under a cron spec and returns a func that removes it.
func (s *Scheduler) Add(name, spec string, fn func()) (cancel func(), err error) {
	if _, err := specParser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}

	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return nil, fmt.Errorf("scheduling %s: %w", name, err)
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.jobs[id] = &registeredJob{name: name, schedule: spec, entryID: entryID}
	s.mu.Unlock()

	s.logger.Debug("registered scheduled job", "name", name, "schedule", spec)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.cron.Remove(entryID)
			s.mu.Lock()
			delete(s.jobs, id)
			s.mu.Unlock()
			s.logger.Debug("removed scheduled job", "name", name)
		})
	}, nil
}

// Every runs fn at a fixed interval.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) (cancel func(), err error) {
	if interval < time.Second {
		return nil, fmt.Errorf("interval for %s must be at least 1s, got %s", name, interval)
	}
	return s.Add(name, "@every "+interval.String(), fn)
}

// List returns all registered jobs sorted by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		entry := s.cron.Entry(job.entryID)
		result = append(result, JobInfo{
			Name:     job.name,
			Schedule: job.schedule,
			LastRun:  entry.Prev,
			NextRun:  entry.Next,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
