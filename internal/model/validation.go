// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Validation messages shown to the user.
const (
	MsgRequiredFields   = "Please fill in all required fields"
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordTooShort = "Password must be at least 6 characters long"
	MsgInvalidEmail     = "Please enter a valid email address"
)

// ValidationError is a client-side check that failed before any request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// LoginForm holds credentials for the login endpoints.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (f LoginForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" {
		return &ValidationError{Field: "email", Message: MsgRequiredFields}
	}
	if f.Password == "" {
		return &ValidationError{Field: "password", Message: MsgRequiredFields}
	}
	return nil
}

// RegisterForm holds the admin (or end-user) registration fields.
type RegisterForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate applies the registration rules in order: required fields,
// email syntax, password confirmation and minimum length.
func (f RegisterForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return &ValidationError{Field: "name", Message: MsgRequiredFields}
	case strings.TrimSpace(f.Email) == "":
		return &ValidationError{Field: "email", Message: MsgRequiredFields}
	case f.Password == "":
		return &ValidationError{Field: "password", Message: MsgRequiredFields}
	case f.ConfirmPassword == "":
		return &ValidationError{Field: "confirmPassword", Message: MsgRequiredFields}
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return &ValidationError{Field: "email", Message: MsgInvalidEmail}
	}
	if f.Password != f.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Message: MsgPasswordMismatch}
	}
	if len(f.Password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: MsgPasswordTooShort}
	}
	return nil
}

// Credentials returns the payload sent to the register endpoint.
func (f RegisterForm) Credentials() map[string]string {
	return map[string]string{
		"name":     strings.TrimSpace(f.Name),
		"email":    strings.TrimSpace(f.Email),
		"password": f.Password,
	}
}

// Validate checks that the profile keeps a name and a valid email.
func (u ProfileUpdate) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return &ValidationError{Field: "name", Message: MsgRequiredFields}
	}
	if strings.TrimSpace(u.Email) == "" {
		return &ValidationError{Field: "email", Message: MsgRequiredFields}
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return &ValidationError{Field: "email", Message: MsgInvalidEmail}
	}
	return nil
}
