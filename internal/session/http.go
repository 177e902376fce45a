// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/trapo-admin/internal/model"
)

// Server-side session keys.
const (
	KeyToken      = "admin_token"
	KeyUser       = "admin_user"
	KeyVerifiedAt = "admin_verified_at"
)

// Cookie mirror settings.
const (
	TokenCookieName   = "adminToken"
	TokenCookieMaxAge = 604800 // 7 days
)

// HTTPPersistence stores the session in the scs server-side session and
// mirrors the token into the adminToken cookie so the route gate can see
// it before any handler runs.
type HTTPPersistence struct {
	sm     *scs.SessionManager
	w      http.ResponseWriter
	r      *http.Request
	secure bool
}

// NewHTTPPersistence binds the persistence to one request/response pair.
// The ctx passed to Load, Save and Clear must carry the scs session of r.
func NewHTTPPersistence(sm *scs.SessionManager, w http.ResponseWriter, r *http.Request) *HTTPPersistence {
	return &HTTPPersistence{sm: sm, w: w, r: r, secure: IsSecureRequest(r)}
}

// Load reads the server-side session. When it holds no token, the cookie
// mirror or an Authorization header is used, and the user is left for
// verification.
func (p *HTTPPersistence) Load(ctx context.Context) (Snapshot, error) {
	token := p.sm.GetString(ctx, KeyToken)
	if token == "" {
		return Snapshot{Token: RequestToken(p.r)}, nil
	}

	snap := Snapshot{Token: token, VerifiedAt: p.sm.GetTime(ctx, KeyVerifiedAt)}
	if raw := p.sm.GetBytes(ctx, KeyUser); len(raw) > 0 {
		var u model.AdminUser
		if err := json.Unmarshal(raw, &u); err != nil {
			return Snapshot{Token: token}, fmt.Errorf("decoding session user: %w", err)
		}
		snap.User = &u
	}
	return snap, nil
}

// Save writes the token and user to the server session and the cookie mirror.
// A new token renews the session id.
func (p *HTTPPersistence) Save(ctx context.Context, snap Snapshot) error {
	if p.sm.GetString(ctx, KeyToken) != snap.Token {
		if err := p.sm.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}
	}

	p.sm.Put(ctx, KeyToken, snap.Token)
	if snap.User != nil {
		raw, err := json.Marshal(snap.User)
		if err != nil {
			return fmt.Errorf("encoding session user: %w", err)
		}
		p.sm.Put(ctx, KeyUser, raw)
	} else {
		p.sm.Remove(ctx, KeyUser)
	}
	p.sm.Put(ctx, KeyVerifiedAt, snap.VerifiedAt)

	http.SetCookie(p.w, p.tokenCookie(snap.Token, TokenCookieMaxAge))
	return nil
}

// Clear removes the session keys and expires the cookie mirror.
func (p *HTTPPersistence) Clear(ctx context.Context) error {
	p.sm.Remove(ctx, KeyToken)
	p.sm.Remove(ctx, KeyUser)
	p.sm.Remove(ctx, KeyVerifiedAt)
	if err := p.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	http.SetCookie(p.w, p.tokenCookie("", -1))
	return nil
}

func (p *HTTPPersistence) tokenCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// RequestToken returns the token from the adminToken cookie or a Bearer
// Authorization header, or "".
func RequestToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// IsSecureRequest reports whether r arrived over TLS, directly or through
// a proxy that sets X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
