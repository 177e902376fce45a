// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"net/url"
	"strconv"
)

// Page size bounds.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage bounds page numbers read from requests.
	MaxPage = 1_000_000
)

// ListQuery is the page/limit/search/filter state of a list view.
type ListQuery struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
}

// Normalize clamps page to >= 1 and limit to (0, MaxPageLimit].
func (q ListQuery) Normalize(defaultLimit int) ListQuery {
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

// Values encodes the query for a paginated list endpoint.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	v.Set("paginated", "true")
	return v
}

// ParseListQuery reads page, limit, search and status from URL values.
// Malformed numbers fall back to the defaults; page is capped at MaxPage.
func ParseListQuery(v url.Values, defaultLimit int) ListQuery {
	page, err := strconv.Atoi(v.Get("page"))
	if err != nil {
		page = 0
	}
	limit, err := strconv.Atoi(v.Get("limit"))
	if err != nil {
		limit = 0
	}
	page = min(page, MaxPage)
	return ListQuery{
		Page:   page,
		Limit:  limit,
		Search: v.Get("search"),
		Status: v.Get("status"),
	}.Normalize(defaultLimit)
}

// Pagination is the metadata block of a paginated list.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// PaginatedResponse is one page of a list plus its metadata.
type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Validate checks the pagination invariants of a decoded response.
func (r *PaginatedResponse[T]) Validate() error {
	p := r.Pagination
	if p.Page < 1 || p.Limit < 1 || p.Total < 0 {
		return fmt.Errorf("invalid pagination: page=%d limit=%d total=%d", p.Page, p.Limit, p.Total)
	}
	if want := TotalPages(p.Total, p.Limit); p.TotalPages != want {
		return fmt.Errorf("invalid pagination: totalPages=%d, want %d", p.TotalPages, want)
	}
	if len(r.Data) > p.Limit {
		return fmt.Errorf("invalid pagination: %d items exceed limit %d", len(r.Data), p.Limit)
	}
	if r.Data == nil {
		return fmt.Errorf("invalid pagination: missing data")
	}
	return nil
}
