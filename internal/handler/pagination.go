// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/url"

	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/model"
)

// PageLink is one entry of the pagination bar.
type PageLink struct {
	Number     int    `json:"number,omitempty"`
	URL        string `json:"url,omitempty"`
	IsCurrent  bool   `json:"current,omitempty"`
	IsEllipsis bool   `json:"ellipsis,omitempty"`
}

// ListResponse is the body of every list endpoint.
type ListResponse[T any] struct {
	Success    bool             `json:"success"`
	Data       []T              `json:"data"`
	Pagination model.Pagination `json:"pagination"`
	// Paginated is false when the page was cut locally from the full list.
	Paginated bool            `json:"paginated"`
	Query     model.ListQuery `json:"query"`
	PageLinks []PageLink      `json:"pageLinks,omitempty"`
	HasPrev   bool            `json:"hasPrev"`
	HasNext   bool            `json:"hasNext"`
}

// newListResponse wraps a loaded page. baseURL is the browser path the
// page links point to.
func newListResponse[T any](res listing.Result[T], q model.ListQuery, baseURL string) ListResponse[T] {
	data := res.Data
	if data == nil {
		data = []T{}
	}
	p := res.Pagination
	return ListResponse[T]{
		Success:    true,
		Data:       data,
		Pagination: p,
		Paginated:  res.Paginated,
		Query:      q,
		PageLinks:  BuildPageLinks(p.Page, p.TotalPages, baseURL, q.Values()),
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < p.TotalPages,
	}
}

// BuildPageLinks returns the links of the pagination bar: at most five
// pages around current, plus the first and last page separated by an
// ellipsis when they fall outside that window.
func BuildPageLinks(current, totalPages int, baseURL string, queryParams url.Values) []PageLink {
	if totalPages < 1 {
		return nil
	}

	// Build query string without page or transport parameters
	params := make(url.Values)
	for k, v := range queryParams {
		if k == "page" || k == "paginated" || len(v) == 0 || v[0] == "" {
			continue
		}
		params[k] = v
	}
	qs := params.Encode()

	buildURL := func(page int) string {
		if qs != "" {
			return fmt.Sprintf("%s?%s&page=%d", baseURL, qs, page)
		}
		return fmt.Sprintf("%s?page=%d", baseURL, page)
	}

	start := current - 2
	end := current + 2
	if start < 1 {
		start = 1
		end = 5
	}
	if end > totalPages {
		end = totalPages
		start = max(end-4, 1)
	}

	var links []PageLink
	if start > 1 {
		links = append(links, PageLink{Number: 1, URL: buildURL(1)})
		if start > 2 {
			links = append(links, PageLink{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		links = append(links, PageLink{Number: i, URL: buildURL(i), IsCurrent: i == current})
	}
	if end < totalPages {
		if end < totalPages-1 {
			links = append(links, PageLink{IsEllipsis: true})
		}
		links = append(links, PageLink{Number: totalPages, URL: buildURL(totalPages)})
	}
	return links
}
