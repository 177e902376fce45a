// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/olegiv/trapo-admin/internal/model"
)

// ListProducts returns the whole catalogue.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	if err := c.Get(ctx, PathProducts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProductsPage requests one page of products. The status filter of q
// is sent as the category.
func (c *Client) ListProductsPage(ctx context.Context, q model.ListQuery) (*model.PaginatedResponse[model.Product], error) {
	v := q.Values()
	if q.Status != "" {
		v.Del("status")
		v.Set("category", q.Status)
	}
	var out model.PaginatedResponse[model.Product]
	if err := c.Get(ctx, PathProducts+"?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var out model.Product
	if err := c.Get(ctx, productPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, p model.ProductPayload) (*model.Product, error) {
	var out model.Product
	if err := c.Do(ctx, http.MethodPost, PathProducts, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces the editable fields of a product.
func (c *Client) UpdateProduct(ctx context.Context, id string, p model.ProductPayload) (*model.Product, error) {
	var out model.Product
	if err := c.Do(ctx, http.MethodPut, productPath(id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, productPath(id), nil, nil)
}

func productPath(id string) string {
	return PathProducts + "/" + url.PathEscape(id)
}
