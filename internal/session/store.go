// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session holds the admin session: the bearer token, the verified
// admin user and the state machine that moves between them.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/logging"
	"github.com/olegiv/trapo-admin/internal/model"
)

// State is the lifecycle state of a Store.
type State int

// Session states.
const (
	Unresolved State = iota
	Verifying
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Verifying:
		return "verifying"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Resolved reports whether the state is final (Authenticated or Anonymous).
func (s State) Resolved() bool {
	return s == Authenticated || s == Anonymous
}

// Authenticator is the subset of the API client the store needs.
type Authenticator interface {
	AdminLogin(ctx context.Context, email, password string) (*model.AdminAuthResponse, error)
	AdminRegister(ctx context.Context, form model.RegisterForm) (*model.AdminAuthResponse, error)
	AdminProfile(ctx context.Context) (*model.AdminUser, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// OnLogout registers a hook fired after an explicit logout.
func OnLogout(fn func(ctx context.Context)) Option {
	return func(s *Store) { s.onLogout = fn }
}

// OnExpired registers a hook fired once when the backend revokes the token.
func OnExpired(fn func(ctx context.Context)) Option {
	return func(s *Store) { s.onExpired = fn }
}

// SharedVerification dedupes profile verification of the same token across
// stores that share g. Used by the server, where concurrent requests of one
// browser each bootstrap their own Store.
func SharedVerification(g *singleflight.Group) Option {
	return func(s *Store) { s.verifyGroup = g }
}

// Store is the session of one browser or console. It implements
// apiclient.TokenSource.
type Store struct {
	mu    sync.RWMutex
	state State
	token string
	user  *model.AdminUser

	// persistMu orders writes to the persistence backend.
	persistMu sync.Mutex

	bootMu       sync.Mutex
	bootstrapped bool

	api     Authenticator
	persist Persistence
	logger  *slog.Logger

	onLogout    func(ctx context.Context)
	onExpired   func(ctx context.Context)
	verifyGroup *singleflight.Group
}

// New creates an unresolved Store.
func New(api Authenticator, p Persistence, opts ...Option) *Store {
	s := &Store{
		state:   Unresolved,
		api:     api,
		persist: p,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewWithClient creates a Store whose API calls authenticate with the
// store's own token.
func NewWithClient(c *apiclient.Client, p Persistence, opts ...Option) *Store {
	s := New(nil, p, opts...)
	s.api = c.WithTokens(s)
	return s
}

// Bootstrap resolves the persisted session. It runs to completion at most
// once; concurrent callers wait for the first. A run interrupted by ctx
// cancellation leaves the store Unresolved so it can be retried.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.bootMu.Lock()
	defer s.bootMu.Unlock()
	if s.bootstrapped {
		return nil
	}

	snap, err := s.persist.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load persisted session", "error", err)
		snap = Snapshot{}
	}

	if snap.Token == "" {
		s.setState(Anonymous, "", nil)
		s.bootstrapped = true
		return nil
	}

	if snap.User != nil {
		s.setState(Authenticated, snap.Token, snap.User)
		s.bootstrapped = true
		return nil
	}

	s.setState(Verifying, snap.Token, nil)
	user, err := s.verify(ctx, snap.Token)
	if err != nil {
		if ctx.Err() != nil {
			s.setState(Unresolved, "", nil)
			return ctx.Err()
		}
		s.logger.Info("persisted session rejected",
			"token", logging.Fingerprint(snap.Token),
			"error", err)
		if cerr := s.clear(ctx); cerr != nil {
			s.logger.Warn("failed to clear rejected session", "error", cerr)
		}
		s.bootstrapped = true
		return nil
	}

	if err := s.persistSession(ctx, snap.Token, user); err != nil {
		s.logger.Warn("failed to persist verified session", "error", err)
	}
	s.bootstrapped = true
	return nil
}

func (s *Store) verify(ctx context.Context, token string) (*model.AdminUser, error) {
	if s.verifyGroup == nil {
		return s.api.AdminProfile(ctx)
	}

	ch := s.verifyGroup.DoChan(token, func() (any, error) {
		return s.api.AdminProfile(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		u := *res.Val.(*model.AdminUser)
		return &u, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Login exchanges credentials for a token and persists the session.
// On failure the store stays Anonymous and the server's message is returned.
func (s *Store) Login(ctx context.Context, email, password string) (bool, error) {
	form := model.LoginForm{Email: email, Password: password}
	if err := form.Validate(); err != nil {
		return false, err
	}

	resp, err := s.api.AdminLogin(ctx, email, password)
	if err != nil {
		return false, err
	}
	if err := s.completeAuth(ctx, resp); err != nil {
		return false, err
	}
	return true, nil
}

// Register creates an admin account and signs it in.
func (s *Store) Register(ctx context.Context, form model.RegisterForm) (bool, error) {
	if err := form.Validate(); err != nil {
		return false, err
	}

	resp, err := s.api.AdminRegister(ctx, form)
	if err != nil {
		return false, err
	}
	if err := s.completeAuth(ctx, resp); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) completeAuth(ctx context.Context, resp *model.AdminAuthResponse) error {
	user := resp.Admin
	if err := s.persistSession(ctx, resp.AdminToken, &user); err != nil {
		s.setState(Anonymous, "", nil)
		return err
	}

	s.bootMu.Lock()
	s.bootstrapped = true
	s.bootMu.Unlock()
	return nil
}

// Logout clears the session and fires the OnLogout hook.
func (s *Store) Logout(ctx context.Context) error {
	err := s.clear(ctx)
	if s.onLogout != nil {
		s.onLogout(ctx)
	}
	return err
}

// RefreshUser refetches the current admin. Any failure logs the session out.
func (s *Store) RefreshUser(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return apiclient.ErrAuthExpired
	}

	user, err := s.api.AdminProfile(ctx)
	if err != nil {
		if lerr := s.Logout(ctx); lerr != nil {
			return errors.Join(err, lerr)
		}
		return err
	}

	// A concurrent logout or login replaced the token; keep that session.
	if s.Token() != token {
		return nil
	}
	return s.persistSession(ctx, token, user)
}

// Token returns the current bearer token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Invalidate clears the session when the backend rejected token. Only the
// first call for a given token has an effect.
func (s *Store) Invalidate(ctx context.Context, token string) {
	s.persistMu.Lock()
	s.mu.Lock()
	if token == "" || s.token != token {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return
	}
	s.token = ""
	s.user = nil
	s.state = Anonymous
	s.mu.Unlock()

	err := s.persist.Clear(ctx)
	s.persistMu.Unlock()

	s.logger.Info("admin session expired", "token", logging.Fingerprint(token))
	if err != nil {
		s.logger.Warn("failed to clear expired session", "error", err)
	}
	if s.onExpired != nil {
		s.onExpired(ctx)
	}
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the current admin, or nil.
func (s *Store) User() *model.AdminUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated requires both a token and a verified user.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Authenticated && s.token != "" && s.user != nil
}

// IsAdmin reports whether the authenticated user holds an admin role.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Authenticated && s.user.IsAdmin()
}

// Info is a point-in-time view of the store.
type Info struct {
	State         State            `json:"-"`
	StateName     string           `json:"state"`
	Authenticated bool             `json:"authenticated"`
	IsAdmin       bool             `json:"isAdmin"`
	User          *model.AdminUser `json:"user,omitempty"`
}

// Info returns a consistent snapshot of state and user.
func (s *Store) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{
		State:         s.state,
		StateName:     s.state.String(),
		Authenticated: s.state == Authenticated && s.token != "" && s.user != nil,
		IsAdmin:       s.state == Authenticated && s.user.IsAdmin(),
	}
	if s.user != nil {
		u := *s.user
		info.User = &u
	}
	return info
}

// persistSession writes token and user to memory and to the persistence
// backend in one step.
func (s *Store) persistSession(ctx context.Context, token string, user *model.AdminUser) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.persist.Save(ctx, Snapshot{Token: token, User: user, VerifiedAt: time.Now()}); err != nil {
		return err
	}
	s.setState(Authenticated, token, user)
	return nil
}

// clear is the counterpart of persistSession.
func (s *Store) clear(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.setState(Anonymous, "", nil)
	return s.persist.Clear(ctx)
}

func (s *Store) setState(state State, token string, user *model.AdminUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.token = token
	s.user = user
}
