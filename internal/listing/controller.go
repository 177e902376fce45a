// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/olegiv/trapo-admin/internal/debounce"
	"github.com/olegiv/trapo-admin/internal/model"
)

// Keyed items can be replaced in place by id.
type Keyed interface {
	Key() string
}

// Scheduler runs fn every interval until the returned cancel func is called.
type Scheduler interface {
	Every(name string, interval time.Duration, fn func()) (cancel func(), err error)
}

// ErrClosed is returned by operations on a closed Controller.
var ErrClosed = errors.New("list controller closed")

// ErrNotFound is returned by Mutate when the id is not on the current page.
var ErrNotFound = errors.New("item not on current page")

// View is a snapshot of a Controller.
type View[T any] struct {
	Items         []T
	Pagination    model.Pagination
	Query         model.ListQuery
	PendingSearch string
	Paginated     bool
	Loading       bool
	// ShowSpinner is true only while the first load is in flight.
	ShowSpinner bool
	Err         error
	LoadedAt    time.Time
}

// Config configures a Controller.
type Config struct {
	Name        string
	PageSize    int
	SearchDelay time.Duration
	Scheduler   Scheduler
	Logger      *slog.Logger
}

// Controller owns page, limit, search and filter state for one list view.
// Triggers return immediately; fetches run on goroutines and only the most
// recently issued fetch may commit its result.
type Controller[T Keyed] struct {
	name   string
	src    Source[T]
	match  Matcher[T]
	sched  Scheduler
	logger *slog.Logger
	search *debounce.Debouncer[string]

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond
	query    model.ListQuery
	items    []T
	page     model.Pagination
	paged    bool
	err      error
	loaded   bool
	loadedAt time.Time
	issued   uint64 // sequence number of the latest fetch
	done     uint64 // sequence number of the latest finished fetch
	inFlight int
	closed   bool

	stopRefresh func()
	listeners   []func(View[T])
}

// NewController creates a Controller. Call Refresh to issue the first fetch.
func NewController[T Keyed](src Source[T], match Matcher[T], cfg Config) *Controller[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name != "" {
		logger = logger.With("list", cfg.Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		name:   cfg.Name,
		src:    src,
		match:  match,
		sched:  cfg.Scheduler,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		query:  model.ListQuery{Page: 1}.Normalize(cfg.PageSize),
	}
	c.idle = sync.NewCond(&c.mu)
	c.search = debounce.New(cfg.SearchDelay, c.applySearch)
	return c
}

// OnChange registers fn to receive a View after every state change.
// fn runs outside the controller lock.
func (c *Controller[T]) OnChange(fn func(View[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// SetSearch updates the search term after the debounce delay.
func (c *Controller[T]) SetSearch(term string) {
	c.search.Set(term)
}

// FlushSearch applies a pending search term immediately.
func (c *Controller[T]) FlushSearch() {
	c.search.Flush()
}

func (c *Controller[T]) applySearch(term string) {
	c.mu.Lock()
	if c.closed || c.query.Search == term {
		c.mu.Unlock()
		return
	}
	c.query.Search = term
	c.query.Page = 1
	c.fetchLocked()
	c.mu.Unlock()
	c.notify()
}

// SetStatus sets the status filter and returns to page 1.
func (c *Controller[T]) SetStatus(status string) {
	c.update(func(q *model.ListQuery) bool {
		if q.Status == status {
			return false
		}
		q.Status = status
		q.Page = 1
		return true
	})
}

// SetPage moves to page p (values below 1 become 1).
func (c *Controller[T]) SetPage(p int) {
	c.update(func(q *model.ListQuery) bool {
		p = max(p, 1)
		if q.Page == p {
			return false
		}
		q.Page = p
		return true
	})
}

// SetLimit changes the page size and returns to page 1.
func (c *Controller[T]) SetLimit(limit int) {
	c.update(func(q *model.ListQuery) bool {
		next := model.ListQuery{Page: 1, Limit: limit}.Normalize(q.Limit)
		if q.Limit == next.Limit {
			return false
		}
		q.Limit = next.Limit
		q.Page = 1
		return true
	})
}

// ResetFilters clears search and status, drops a pending search and
// returns to page 1.
func (c *Controller[T]) ResetFilters() {
	c.search.Cancel()
	c.update(func(q *model.ListQuery) bool {
		if q.Search == "" && q.Status == "" && q.Page == 1 {
			return false
		}
		q.Search, q.Status, q.Page = "", "", 1
		return true
	})
}

// Refresh re-issues the fetch for the current state without resetting it.
func (c *Controller[T]) Refresh() {
	c.update(func(*model.ListQuery) bool { return true })
}

// StartAutoRefresh refreshes the list silently every interval until Close.
// A tick is skipped while a fetch is still in flight.
func (c *Controller[T]) StartAutoRefresh(interval time.Duration) error {
	if c.sched == nil {
		return errors.New("listing: no scheduler configured")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.stopRefresh != nil {
		c.stopRefresh()
		c.stopRefresh = nil
	}
	c.mu.Unlock()

	name := c.name
	if name == "" {
		name = "list"
	}
	stop, err := c.sched.Every(name+" auto-refresh", interval, c.backgroundRefresh)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		stop()
		return ErrClosed
	}
	c.stopRefresh = stop
	return nil
}

func (c *Controller[T]) backgroundRefresh() {
	c.mu.Lock()
	if c.closed || c.inFlight > 0 {
		c.mu.Unlock()
		return
	}
	c.fetchLocked()
	c.mu.Unlock()
}

// Replace swaps the item with the same key on the current page. It
// reports whether an item was replaced.
func (c *Controller[T]) Replace(item T) bool {
	c.mu.Lock()
	replaced := c.replaceLocked(item)
	c.mu.Unlock()
	if replaced {
		c.notify()
	}
	return replaced
}

func (c *Controller[T]) replaceLocked(item T) bool {
	if c.closed {
		return false
	}
	key := item.Key()
	for i := range c.items {
		if c.items[i].Key() == key {
			c.items[i] = item
			return true
		}
	}
	return false
}

// Mutate runs a remote update for the item with key id and replaces it on
// success. On failure the list is left unchanged and the error is both
// returned and shown in the view.
func (c *Controller[T]) Mutate(ctx context.Context, id string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	c.mu.Unlock()

	updated, err := fn(ctx)
	if err != nil {
		c.mu.Lock()
		if !c.closed {
			c.err = err
		}
		c.mu.Unlock()
		c.notify()
		return zero, err
	}

	c.mu.Lock()
	if updated.Key() == "" {
		c.mu.Unlock()
		return updated, nil
	}
	if updated.Key() != id {
		c.logger.Warn("mutation returned a different item", "id", id, "returned", updated.Key())
	}
	replaced := c.replaceLocked(updated)
	if replaced {
		c.err = nil
	}
	c.mu.Unlock()

	if replaced {
		c.notify()
	}
	return updated, nil
}

// View returns a snapshot of the controller state.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller[T]) viewLocked() View[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	pending, _ := c.search.Pending()
	loading := c.issued != c.done
	return View[T]{
		Items:         items,
		Pagination:    c.page,
		Query:         c.query,
		PendingSearch: pending,
		Paginated:     c.paged,
		Loading:       loading,
		ShowSpinner:   loading && !c.loaded,
		Err:           c.err,
		LoadedAt:      c.loadedAt,
	}
}

// Wait blocks until no fetch is in flight.
func (c *Controller[T]) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inFlight > 0 {
		c.idle.Wait()
	}
}

// Close stops auto-refresh, drops a pending search, cancels in-flight
// fetches and waits for them. No state changes after Close.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stop := c.stopRefresh
	c.stopRefresh = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.search.Stop()
	c.cancel()
	c.Wait()
}

func (c *Controller[T]) update(mutate func(q *model.ListQuery) bool) {
	c.mu.Lock()
	if c.closed || !mutate(&c.query) {
		c.mu.Unlock()
		return
	}
	c.fetchLocked()
	c.mu.Unlock()
	c.notify()
}

// fetchLocked issues a fetch for the current query.
func (c *Controller[T]) fetchLocked() {
	c.issued++
	seq := c.issued
	q := c.query
	c.inFlight++

	go func() {
		res, err := Load(c.ctx, c.src, q, c.match, c.logger)
		c.commit(seq, res, err)
	}()
}

func (c *Controller[T]) commit(seq uint64, res Result[T], err error) {
	c.mu.Lock()
	c.inFlight--
	defer c.idle.Broadcast()

	if c.closed {
		c.mu.Unlock()
		return
	}
	if seq != c.issued {
		c.logger.Debug("dropping stale list response", "seq", seq, "latest", c.issued)
		c.mu.Unlock()
		return
	}

	c.done = seq
	if err != nil {
		c.err = err
		c.logger.Debug("list fetch failed", "error", err)
	} else {
		c.items = res.Data
		c.page = res.Pagination
		c.paged = res.Paginated
		c.err = nil
		c.loaded = true
		c.loadedAt = time.Now()
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller[T]) notify() {
	c.mu.Lock()
	if c.closed || len(c.listeners) == 0 {
		c.mu.Unlock()
		return
	}
	v := c.viewLocked()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}
