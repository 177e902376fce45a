// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strconv"
	"strings"
	"time"
)

// LowStockThreshold is the stock level at or below which a product is flagged.
const LowStockThreshold = 5

// Product is a catalogue item.
type Product struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image,omitempty"`
	Stock       int       `json:"stock"`
	Colors      []string  `json:"colors"`
	Sizes       []string  `json:"sizes"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key returns the product id.
func (p Product) Key() string { return p.ID }

// LowStock reports whether the product is running out.
func (p Product) LowStock() bool {
	return p.Stock <= LowStockThreshold
}

// ProductInput is the create/update payload. Numeric fields arrive as
// strings from forms and are parsed by Validate.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Stock       string `json:"stock"`
	Colors      string `json:"colors"`
	Sizes       string `json:"sizes"`
}

// ProductPayload is the JSON body sent to the products endpoints.
type ProductPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image,omitempty"`
	Stock       int      `json:"stock"`
	Colors      []string `json:"colors"`
	Sizes       []string `json:"sizes"`
	InStock     bool     `json:"inStock"`
}

// Validate checks required fields and returns the parsed payload.
func (in ProductInput) Validate() (ProductPayload, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Price) == "" ||
		strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Stock) == "" {
		return ProductPayload{}, &ValidationError{Field: "product", Message: MsgRequiredFields}
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(in.Price), 64)
	if err != nil || price < 0 {
		return ProductPayload{}, &ValidationError{Field: "price", Message: "Price must be a non-negative number"}
	}
	stock, err := strconv.Atoi(strings.TrimSpace(in.Stock))
	if err != nil || stock < 0 {
		return ProductPayload{}, &ValidationError{Field: "stock", Message: "Stock must be a non-negative whole number"}
	}

	return ProductPayload{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Category:    strings.TrimSpace(in.Category),
		Image:       strings.TrimSpace(in.Image),
		Stock:       stock,
		Colors:      SplitList(in.Colors),
		Sizes:       SplitList(in.Sizes),
		InStock:     stock > 0,
	}, nil
}

// SplitList splits a comma-separated form value, dropping blanks.
func SplitList(s string) []string {
	out := []string{}
	for part := range strings.SplitSeq(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
