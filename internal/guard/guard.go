// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guard decides whether a protected admin view may render.
package guard

import "github.com/olegiv/trapo-admin/internal/session"

// Decision is the outcome of a guard check.
type Decision int

// Guard decisions.
const (
	// Loading means the session is not resolved yet; render only a loading view.
	Loading Decision = iota
	// Allowed means an authenticated admin may see the view.
	Allowed
	// Denied means an authenticated non-admin; show access denied, do not redirect.
	Denied
	// RedirectLogin means there is no session; send the user to the login view.
	RedirectLogin
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case RedirectLogin:
		return "redirect_login"
	default:
		return "unknown"
	}
}

// Subject is the session state a decision is made on.
type Subject interface {
	State() session.State
	IsAdmin() bool
}

// Decide maps the session state to a Decision.
func Decide(s Subject) Decision {
	return DecideInfo(s.State(), s.IsAdmin())
}

// DecideInfo decides from an already captured state and admin flag.
func DecideInfo(state session.State, isAdmin bool) Decision {
	switch state {
	case session.Authenticated:
		if isAdmin {
			return Allowed
		}
		return Denied
	case session.Anonymous:
		return RedirectLogin
	default:
		return Loading
	}
}
