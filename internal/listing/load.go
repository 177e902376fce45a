// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package listing materializes one page of a remote collection. It prefers
// the backend's paginated endpoint and falls back to fetching the whole
// collection and filtering it locally.
package listing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/model"
)

// Source fetches a collection either one page at a time or in full.
type Source[T any] interface {
	FetchPage(ctx context.Context, q model.ListQuery) (*model.PaginatedResponse[T], error)
	FetchAll(ctx context.Context) ([]T, error)
}

// SourceFuncs adapts two functions to a Source.
type SourceFuncs[T any] struct {
	Page func(ctx context.Context, q model.ListQuery) (*model.PaginatedResponse[T], error)
	All  func(ctx context.Context) ([]T, error)
}

// FetchPage calls Page. A nil Page behaves like an unavailable endpoint.
func (s SourceFuncs[T]) FetchPage(ctx context.Context, q model.ListQuery) (*model.PaginatedResponse[T], error) {
	if s.Page == nil {
		return nil, ErrNoPagination
	}
	return s.Page(ctx, q)
}

// FetchAll calls All.
func (s SourceFuncs[T]) FetchAll(ctx context.Context) ([]T, error) {
	return s.All(ctx)
}

// ErrNoPagination is returned by sources without a paginated endpoint.
var ErrNoPagination = errors.New("paginated endpoint not available")

// Result is a materialized page.
type Result[T any] struct {
	model.PaginatedResponse[T]
	// Paginated is true when the backend paginated the list itself.
	Paginated bool
}

// Load fetches the page described by q. Any failure of the paginated
// endpoint other than an expired session or a cancelled context falls
// back to FetchAll and local pagination.
func Load[T any](ctx context.Context, src Source[T], q model.ListQuery, match Matcher[T], logger *slog.Logger) (Result[T], error) {
	resp, err := src.FetchPage(ctx, q)
	if err == nil {
		return Result[T]{PaginatedResponse: *resp, Paginated: true}, nil
	}
	if !canFallBack(ctx, err) {
		return Result[T]{}, err
	}

	if logger != nil {
		logger.Debug("paginated endpoint unavailable, paginating locally", "error", err)
	}

	all, err := src.FetchAll(ctx)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{PaginatedResponse: Paginate(all, q, match)}, nil
}

func canFallBack(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch apiclient.Kind(err) {
	case apiclient.KindAuthExpired, apiclient.KindCanceled, apiclient.KindValidation:
		return false
	}
	return true
}

// Paginate filters items with match and returns the page described by q.
// totalPages is ceil(filtered/limit); a page past the end is empty.
func Paginate[T any](items []T, q model.ListQuery, match Matcher[T]) model.PaginatedResponse[T] {
	q = q.Normalize(model.DefaultPageLimit)

	filtered := items
	if match != nil && (q.Search != "" || q.Status != "") {
		filtered = make([]T, 0, len(items))
		for _, it := range items {
			if match(it, q.Search, q.Status) {
				filtered = append(filtered, it)
			}
		}
	}

	total := len(filtered)
	start, end := total, total
	// Compare page indexes before multiplying so huge pages cannot overflow.
	if total > 0 && q.Page-1 <= (total-1)/q.Limit {
		start = (q.Page - 1) * q.Limit
		end = min(start+q.Limit, total)
	}

	data := make([]T, end-start)
	copy(data, filtered[start:end])

	return model.PaginatedResponse[T]{
		Data: data,
		Pagination: model.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: model.TotalPages(total, q.Limit),
		},
	}
}
