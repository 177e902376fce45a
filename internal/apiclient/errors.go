// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/olegiv/trapo-admin/internal/model"
)

// Sentinel errors.
var (
	// ErrNetwork matches any failure where no response was received.
	ErrNetwork = errors.New("network error")
	// ErrAuthExpired is returned when the backend rejects the bearer token.
	// The token has already been invalidated when this error is seen.
	ErrAuthExpired = errors.New("admin session expired")
)

// MsgAuthExpired is shown to the user when the session was revoked.
const MsgAuthExpired = "Admin authentication failed. Please log in again."

// Error kinds used by the handler layer.
const (
	KindValidation  = "validation"
	KindAuthExpired = "auth_expired"
	KindAPI         = "api"
	KindNetwork     = "network"
	KindDecode      = "decode"
	KindCanceled    = "canceled"
	KindInternal    = "internal"
)

// APIError is a non-2xx response carrying the server's message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) true for every NetworkError.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// DecodeError is a 2xx response whose body did not match the expected shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind classifies err into one of the Kind constants.
func Kind(err error) string {
	var (
		ve  *model.ValidationError
		ae  *APIError
		de  *DecodeError
		net *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &de):
		// Checked first: a response failing its own validation wraps a
		// ValidationError.
		return KindDecode
	case errors.As(err, &ve):
		return KindValidation
	case errors.Is(err, ErrAuthExpired):
		return KindAuthExpired
	case errors.As(err, &ae):
		return KindAPI
	case errors.As(err, &net), errors.Is(err, ErrNetwork):
		// Before the context sentinels: a client timeout is a transport
		// failure, not a cancellation by the caller.
		return KindNetwork
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}

// Message returns the text to show the user for err.
func Message(err error) string {
	var (
		ve *model.ValidationError
		ae *APIError
		de *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &de):
		return "Unexpected response from the server"
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrAuthExpired):
		return MsgAuthExpired
	case errors.As(err, &ae):
		return ae.Message
	case errors.Is(err, ErrNetwork):
		return "Unable to reach the server. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond."
	case errors.Is(err, context.Canceled):
		return "The request was canceled."
	default:
		return "Unexpected error"
	}
}

// StatusCode returns the backend status for API errors, or 0.
func StatusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
