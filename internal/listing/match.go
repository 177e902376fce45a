// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/olegiv/trapo-admin/internal/model"
)

// Matcher reports whether item passes the search term and status filter.
// Both may be empty.
type Matcher[T any] func(item T, search, status string) bool

// Fold returns the Unicode case-folded form of s.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether needle is a case-insensitive substring of
// any of the fields.
func ContainsFold(needle string, fields ...string) bool {
	needle = Fold(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Fold(f), needle) {
			return true
		}
	}
	return false
}

// MatchOrder searches the order number and customer name, and filters on
// the exact status.
func MatchOrder(o model.Order, search, status string) bool {
	if status != "" && string(o.Status) != status {
		return false
	}
	return ContainsFold(search, o.OrderNumber, o.CustomerInfo.Name)
}

// MatchProduct searches name and category. The status filter selects a
// category.
func MatchProduct(p model.Product, search, category string) bool {
	if category != "" && Fold(p.Category) != Fold(category) {
		return false
	}
	return ContainsFold(search, p.Name, p.Category)
}

// MatchUser searches name and email. The status filter selects a role.
func MatchUser(u model.AdminUser, search, role string) bool {
	if role != "" && u.Role != role {
		return false
	}
	return ContainsFold(search, u.Name, u.Email)
}
