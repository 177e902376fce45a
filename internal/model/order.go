// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

// Order statuses. Any status may be set from any other by an admin.
const (
	StatusOrdered   OrderStatus = "ordered"
	StatusShipped   OrderStatus = "shipped"
	StatusCompleted OrderStatus = "completed"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{StatusOrdered, StatusShipped, StatusCompleted}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusOrdered, StatusShipped, StatusCompleted:
		return true
	}
	return false
}

// Label returns the capitalized status for display.
func (s OrderStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// DefaultStatusNote is the note attached to a status change when the admin
// does not provide one.
func DefaultStatusNote(s OrderStatus) string {
	return "Status updated to " + s.Label()
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: "Invalid order status: " + raw}
	}
	return s, nil
}

// OrderItem is a single line of an order.
type OrderItem struct {
	Type           string         `json:"type"`
	ProductID      string         `json:"productId,omitempty"`
	CustomID       string         `json:"customId,omitempty"`
	Name           string         `json:"name,omitempty"`
	Quantity       int            `json:"quantity"`
	Price          float64        `json:"price"`
	Customizations map[string]any `json:"customizations,omitempty"`
}

// CustomerInfo holds the buyer's contact details.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// StatusChange is one entry of an order's status history.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Order is an order as returned by the admin endpoints.
type Order struct {
	ID            string         `json:"_id"`
	UserID        string         `json:"userId,omitempty"`
	OrderNumber   string         `json:"orderNumber"`
	Items         []OrderItem    `json:"items"`
	CustomerInfo  CustomerInfo   `json:"customerInfo"`
	Subtotal      float64        `json:"subtotal"`
	Shipping      float64        `json:"shipping"`
	Tax           float64        `json:"tax"`
	Total         float64        `json:"total"`
	Status        OrderStatus    `json:"status"`
	StatusHistory []StatusChange `json:"statusHistory"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Key returns the order id. It is used for in-place list updates.
func (o Order) Key() string { return o.ID }

// ItemCount returns the total quantity across all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// LastStatusChange returns the most recent history entry, if any.
func (o Order) LastStatusChange() (StatusChange, bool) {
	if len(o.StatusHistory) == 0 {
		return StatusChange{}, false
	}
	return o.StatusHistory[len(o.StatusHistory)-1], true
}

// StatusUpdate is the payload for PUT /api/admin/orders/:id/status.
type StatusUpdate struct {
	Status OrderStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
}

// Validate checks the status value.
func (u StatusUpdate) Validate() error {
	if !u.Status.Valid() {
		return &ValidationError{Field: "status", Message: "Invalid order status: " + string(u.Status)}
	}
	return nil
}
