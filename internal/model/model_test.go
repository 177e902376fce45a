// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"net/url"
	"testing"
)

func TestIsAdminRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{name: "admin role", role: RoleAdmin, want: true},
		{name: "super admin role", role: RoleSuperAdmin, want: true},
		{name: "customer role", role: "customer", want: false},
		{name: "empty role", role: "", want: false},
		{name: "Admin uppercase", role: "Admin", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &AdminUser{Role: tt.role}
			if got := u.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdminUserIsAdminNil(t *testing.T) {
	var u *AdminUser
	if u.IsAdmin() {
		t.Error("nil user should not be admin")
	}
}

func TestOrderStatusLabel(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   string
	}{
		{StatusOrdered, "Ordered"},
		{StatusShipped, "Shipped"},
		{StatusCompleted, "Completed"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := tt.status.Label(); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}

	if got := DefaultStatusNote(StatusCompleted); got != "Status updated to Completed" {
		t.Errorf("DefaultStatusNote = %q", got)
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus(" Shipped ")
	if err != nil {
		t.Fatalf("ParseOrderStatus: %v", err)
	}
	if s != StatusShipped {
		t.Errorf("status = %q, want shipped", s)
	}

	_, err = ParseOrderStatus("pending")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "status" {
		t.Errorf("field = %q, want status", ve.Field)
	}
}

func TestOrderItemCount(t *testing.T) {
	o := Order{Items: []OrderItem{{Quantity: 2}, {Quantity: 3}}}
	if got := o.ItemCount(); got != 5 {
		t.Errorf("ItemCount() = %d, want 5", got)
	}
	if _, ok := o.LastStatusChange(); ok {
		t.Error("LastStatusChange() should be empty")
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{12, 10, 2},
		{25, 5, 5},
		{5, 0, 0},
	}

	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.limit); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, 10},
		{"explicit", "page=3&limit=25", 3, 25},
		{"malformed", "page=x&limit=-4", 1, 10},
		{"limit capped", "limit=5000", 1, MaxPageLimit},
		{"huge page capped", "page=92233720368547760&limit=100", MaxPage, 100},
		{"page overflowing int", "page=99999999999999999999", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			q := ParseListQuery(v, DefaultPageLimit)
			if q.Page != tt.wantPage || q.Limit != tt.wantLimit {
				t.Errorf("ParseListQuery(%q) = page %d limit %d, want page %d limit %d",
					tt.query, q.Page, q.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestPaginatedResponseValidate(t *testing.T) {
	tests := []struct {
		name    string
		resp    PaginatedResponse[int]
		wantErr bool
	}{
		{
			name: "valid",
			resp: PaginatedResponse[int]{Data: []int{1, 2}, Pagination: Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}},
		},
		{
			name: "empty list",
			resp: PaginatedResponse[int]{Data: []int{}, Pagination: Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0}},
		},
		{
			name:    "wrong total pages",
			resp:    PaginatedResponse[int]{Data: []int{1}, Pagination: Pagination{Page: 1, Limit: 10, Total: 12, TotalPages: 1}},
			wantErr: true,
		},
		{
			name:    "too many items",
			resp:    PaginatedResponse[int]{Data: []int{1, 2, 3}, Pagination: Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}},
			wantErr: true,
		},
		{
			name:    "zero page",
			resp:    PaginatedResponse[int]{Data: []int{}, Pagination: Pagination{Page: 0, Limit: 10}},
			wantErr: true,
		},
		{
			name:    "missing data",
			resp:    PaginatedResponse[int]{Pagination: Pagination{Page: 1, Limit: 10}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.resp.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterFormValidate(t *testing.T) {
	valid := RegisterForm{Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1"}

	tests := []struct {
		name    string
		mutate  func(f *RegisterForm)
		wantMsg string
	}{
		{name: "valid", mutate: func(*RegisterForm) {}},
		{name: "missing name", mutate: func(f *RegisterForm) { f.Name = " " }, wantMsg: MsgRequiredFields},
		{name: "missing confirmation", mutate: func(f *RegisterForm) { f.ConfirmPassword = "" }, wantMsg: MsgRequiredFields},
		{name: "bad email", mutate: func(f *RegisterForm) { f.Email = "not-an-email" }, wantMsg: MsgInvalidEmail},
		{name: "mismatch", mutate: func(f *RegisterForm) { f.ConfirmPassword = "secret2" }, wantMsg: MsgPasswordMismatch},
		{name: "too short", mutate: func(f *RegisterForm) { f.Password, f.ConfirmPassword = "abc", "abc" }, wantMsg: MsgPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantMsg {
				t.Errorf("Validate() = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoginFormValidate(t *testing.T) {
	if err := (LoginForm{Email: "a@b.c", Password: "x"}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (LoginForm{Email: "a@b.c"}).Validate(); err == nil {
		t.Error("expected error for missing password")
	}
}

func TestProductInputValidate(t *testing.T) {
	in := ProductInput{
		Name:     " Scarf ",
		Price:    "19.50",
		Category: "Accessories",
		Stock:    "3",
		Colors:   "Red, Blue,,",
		Sizes:    "",
	}

	p, err := in.Validate()
	if err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if p.Name != "Scarf" || p.Price != 19.5 || p.Stock != 3 || !p.InStock {
		t.Errorf("unexpected payload: %+v", p)
	}
	if len(p.Colors) != 2 || p.Colors[0] != "Red" || p.Colors[1] != "Blue" {
		t.Errorf("Colors = %v", p.Colors)
	}
	if len(p.Sizes) != 0 {
		t.Errorf("Sizes = %v, want empty", p.Sizes)
	}

	in.Category = ""
	if _, err := in.Validate(); err == nil || err.Error() != MsgRequiredFields {
		t.Errorf("Validate() = %v, want %q", err, MsgRequiredFields)
	}

	in.Category = "Accessories"
	in.Price = "-1"
	if _, err := in.Validate(); err == nil {
		t.Error("expected error for negative price")
	}
}

func TestProductLowStock(t *testing.T) {
	if !(Product{Stock: 5}).LowStock() {
		t.Error("stock 5 should be low")
	}
	if (Product{Stock: 6}).LowStock() {
		t.Error("stock 6 should not be low")
	}
}

func TestProfileUpdateValidate(t *testing.T) {
	if err := (ProfileUpdate{Name: "Ada", Email: "ada@example.com"}).Validate(); err != nil {
		t.Fatalf("valid profile: %v", err)
	}

	var ve *ValidationError
	if err := (ProfileUpdate{Email: "ada@example.com"}).Validate(); !errors.As(err, &ve) || ve.Field != "name" {
		t.Errorf("missing name: got %v", err)
	}
	if err := (ProfileUpdate{Name: "Ada", Email: "nope"}).Validate(); !errors.As(err, &ve) || ve.Message != MsgInvalidEmail {
		t.Errorf("bad email: got %v", err)
	}
}
