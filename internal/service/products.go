// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"

	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/model"
)

// Products manages the catalogue.
type Products struct {
	logger *slog.Logger
	inv    Invalidator
}

// NewProducts creates a Products service. inv may be nil.
func NewProducts(logger *slog.Logger, inv Invalidator) *Products {
	if logger == nil {
		logger = slog.Default()
	}
	if inv == nil {
		inv = noopInvalidator{}
	}
	return &Products{logger: logger, inv: inv}
}

// List returns one page of products. The status filter selects a category.
func (s *Products) List(ctx context.Context, api ProductAPI, q model.ListQuery) (listing.Result[model.Product], error) {
	return listing.Load(ctx, ProductSource(api), q, listing.MatchProduct, s.logger)
}

// Get returns one product.
func (s *Products) Get(ctx context.Context, api ProductAPI, id string) (*model.Product, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	return api.GetProduct(ctx, id)
}

// Create validates and creates a product.
func (s *Products) Create(ctx context.Context, api ProductAPI, in model.ProductInput) (*model.Product, error) {
	payload, err := s.payload(in)
	if err != nil {
		return nil, err
	}
	p, err := api.CreateProduct(ctx, payload)
	if err != nil {
		s.logger.WarnContext(ctx, "product create failed", "category", "product", "error", err)
		return nil, err
	}
	s.inv.Invalidate(ctx)
	s.logger.InfoContext(ctx, "product created", "product", p.ID)
	return p, nil
}

// Update validates and replaces a product.
func (s *Products) Update(ctx context.Context, api ProductAPI, id string, in model.ProductInput) (*model.Product, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	payload, err := s.payload(in)
	if err != nil {
		return nil, err
	}
	p, err := api.UpdateProduct(ctx, id, payload)
	if err != nil {
		s.logger.WarnContext(ctx, "product update failed", "category", "product", "product", id, "error", err)
		return nil, err
	}
	s.inv.Invalidate(ctx)
	return p, nil
}

// Delete removes a product.
func (s *Products) Delete(ctx context.Context, api ProductAPI, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := api.DeleteProduct(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "product delete failed", "category", "product", "product", id, "error", err)
		return err
	}
	s.inv.Invalidate(ctx)
	s.logger.InfoContext(ctx, "product deleted", "product", id)
	return nil
}

func (s *Products) payload(in model.ProductInput) (model.ProductPayload, error) {
	payload, err := in.Validate()
	if err != nil {
		return model.ProductPayload{}, err
	}
	payload.Name = SanitizeText(payload.Name)
	payload.Category = SanitizeText(payload.Category)
	payload.Description = SanitizeHTML(payload.Description)
	if payload.Name == "" || payload.Category == "" {
		return model.ProductPayload{}, &model.ValidationError{Field: "product", Message: model.MsgRequiredFields}
	}
	return payload, nil
}

// ProductsView is the stateful products list used by the console.
type ProductsView struct {
	*listing.Controller[model.Product]
	api      ProductAPI
	products *Products
}

// NewProductsView creates a products list bound to api.
func NewProductsView(api ProductAPI, products *Products, cfg listing.Config) *ProductsView {
	if cfg.Name == "" {
		cfg.Name = "products"
	}
	return &ProductsView{
		Controller: listing.NewController(ProductSource(api), listing.MatchProduct, cfg),
		api:        api,
		products:   products,
	}
}

// Update edits a product and replaces it in place.
func (v *ProductsView) Update(ctx context.Context, id string, in model.ProductInput) (model.Product, error) {
	return v.Mutate(ctx, id, func(ctx context.Context) (model.Product, error) {
		p, err := v.products.Update(ctx, v.api, id, in)
		if err != nil {
			return model.Product{}, err
		}
		return *p, nil
	})
}

// Delete removes a product and reloads the current page.
func (v *ProductsView) Delete(ctx context.Context, id string) error {
	if err := v.products.Delete(ctx, v.api, id); err != nil {
		return err
	}
	v.Refresh()
	return nil
}
