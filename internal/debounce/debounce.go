// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package debounce delays propagation of a rapidly changing value until it
// has been stable for a fixed interval.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the delay used for search input.
const DefaultDelay = 300 * time.Millisecond

// Debouncer emits the last value passed to Set once no newer value has
// arrived for the configured delay. Superseded values are never emitted.
type Debouncer[T any] struct {
	delay time.Duration
	emit  func(T)

	mu         sync.Mutex
	timer      *time.Timer
	gen        uint64 // bumped on every Set, Cancel and Flush
	pending    T
	hasPending bool
	stopped    bool

	wg sync.WaitGroup
}

// New creates a Debouncer that calls emit on its own goroutine.
// A non-positive delay uses DefaultDelay.
func New[T any](delay time.Duration, emit func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay, emit: emit}
}

// Delay returns the configured delay.
func (d *Debouncer[T]) Delay() time.Duration { return d.delay }

// Set records v and restarts the delay.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.stopTimerLocked()
	d.gen++
	d.pending = v
	d.hasPending = true

	gen := d.gen
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.fire(gen)
	})
}

// Cancel drops the pending value without emitting it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Flush emits the pending value immediately. It reports whether a value
// was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.hasPending {
		d.mu.Unlock()
		return false
	}
	v := d.pending
	d.cancelLocked()
	d.mu.Unlock()

	d.emit(v)
	return true
}

// Pending returns the value waiting to be emitted.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.hasPending
}

// Stop cancels any pending value, rejects later Sets and waits for an
// emission already in progress.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.cancelLocked()
	d.stopped = true
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || !d.hasPending {
		d.mu.Unlock()
		return
	}
	v := d.pending
	var zero T
	d.pending = zero
	d.hasPending = false
	d.timer = nil
	d.mu.Unlock()

	d.emit(v)
}

func (d *Debouncer[T]) cancelLocked() {
	d.stopTimerLocked()
	d.gen++
	var zero T
	d.pending = zero
	d.hasPending = false
}

// stopTimerLocked stops the active timer. A timer stopped before firing
// never runs its func, so its WaitGroup slot is released here.
func (d *Debouncer[T]) stopTimerLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
}
