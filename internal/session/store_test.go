// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/model"
)

// fakeAuth is an in-memory Authenticator.
type fakeAuth struct {
	mu           sync.Mutex
	profile      *model.AdminUser
	profileErr   error
	loginResp    *model.AdminAuthResponse
	loginErr     error
	profileCalls int
}

func (f *fakeAuth) AdminLogin(_ context.Context, _, _ string) (*model.AdminAuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) AdminRegister(_ context.Context, _ model.RegisterForm) (*model.AdminAuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) AdminProfile(context.Context) (*model.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	return f.profile, f.profileErr
}

var testAdmin = model.AdminUser{ID: "a1", Name: "Ada", Email: "ada@example.com", Role: model.RoleAdmin}

func TestBootstrapWithoutToken(t *testing.T) {
	p := NewMemoryPersistence(Snapshot{})
	s := New(&fakeAuth{}, p)

	assert.Equal(t, Unresolved, s.State())
	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, Anonymous, s.State())
	assert.False(t, s.IsAuthenticated())
}

func TestBootstrapVerifiesToken(t *testing.T) {
	user := testAdmin
	api := &fakeAuth{profile: &user}
	p := NewMemoryPersistence(Snapshot{Token: "tok"})
	s := New(api, p)

	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, Authenticated, s.State())
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "tok", s.Token())

	// Second call is a no-op.
	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, 1, api.profileCalls)

	snap, _ := p.Load(context.Background())
	require.NotNil(t, snap.User)
	assert.Equal(t, "a1", snap.User.ID)
}

func TestBootstrapTrustsVerifiedUser(t *testing.T) {
	user := testAdmin
	api := &fakeAuth{}
	s := New(api, NewMemoryPersistence(Snapshot{Token: "tok", User: &user}))

	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, 0, api.profileCalls)
}

func TestBootstrapRejectedTokenClears(t *testing.T) {
	api := &fakeAuth{profileErr: &apiclient.APIError{StatusCode: 500, Message: "boom"}}
	p := NewMemoryPersistence(Snapshot{Token: "tok"})
	s := New(api, p)

	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, s.Token())

	snap, _ := p.Load(context.Background())
	assert.Empty(t, snap.Token)
}

func TestBootstrapCanceledStaysUnresolved(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &fakeAuth{profileErr: context.Canceled}
	p := NewMemoryPersistence(Snapshot{Token: "tok"})
	s := New(api, p)

	assert.ErrorIs(t, s.Bootstrap(ctx), context.Canceled)
	assert.Equal(t, Unresolved, s.State())

	snap, _ := p.Load(context.Background())
	assert.Equal(t, "tok", snap.Token, "cancellation must not clear the persisted token")
}

// gatedAuth blocks profile calls until release is closed.
type gatedAuth struct {
	fakeAuth
	release chan struct{}
}

func (g *gatedAuth) AdminProfile(ctx context.Context) (*model.AdminUser, error) {
	<-g.release
	return g.fakeAuth.AdminProfile(ctx)
}

func TestSharedVerificationDedupesProfileCalls(t *testing.T) {
	user := testAdmin
	api := &gatedAuth{fakeAuth: fakeAuth{profile: &user}, release: make(chan struct{})}
	var group singleflight.Group

	const n = 5
	stores := make([]*Store, n)
	var wg sync.WaitGroup
	for i := range stores {
		stores[i] = New(api, NewMemoryPersistence(Snapshot{Token: "tok"}), SharedVerification(&group))
		wg.Go(func() { _ = stores[i].Bootstrap(context.Background()) })
	}

	time.Sleep(50 * time.Millisecond)
	close(api.release)
	wg.Wait()

	for _, s := range stores {
		assert.Equal(t, Authenticated, s.State())
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.profileCalls)

	// Each store owns its copy of the user.
	assert.NotSame(t, stores[0].user, stores[1].user)
}

func TestLoginSuccess(t *testing.T) {
	api := &fakeAuth{loginResp: &model.AdminAuthResponse{AdminToken: "new", Admin: testAdmin}}
	p := NewMemoryPersistence(Snapshot{})
	s := New(api, p)
	require.NoError(t, s.Bootstrap(context.Background()))

	ok, err := s.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, "new", s.Token())

	saves, _ := p.Counts()
	assert.Equal(t, 1, saves)
}

func TestLoginFailureSurfacesMessage(t *testing.T) {
	api := &fakeAuth{loginErr: &apiclient.APIError{StatusCode: 401, Message: "Invalid credentials"}}
	s := New(api, NewMemoryPersistence(Snapshot{}))
	require.NoError(t, s.Bootstrap(context.Background()))

	ok, err := s.Login(context.Background(), "ada@example.com", "nope")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.Equal(t, Anonymous, s.State())
}

func TestLoginValidation(t *testing.T) {
	s := New(&fakeAuth{}, NewMemoryPersistence(Snapshot{}))

	ok, err := s.Login(context.Background(), "", "x")
	assert.False(t, ok)
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestRegisterValidatesBeforeRequest(t *testing.T) {
	api := &fakeAuth{loginErr: errors.New("must not be called")}
	s := New(api, NewMemoryPersistence(Snapshot{}))

	_, err := s.Register(context.Background(), model.RegisterForm{
		Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret2",
	})
	require.Error(t, err)
	assert.Equal(t, model.MsgPasswordMismatch, err.Error())
}

func TestLogoutClearsAndFiresHook(t *testing.T) {
	user := testAdmin
	p := NewMemoryPersistence(Snapshot{Token: "tok", User: &user})
	var fired atomic.Int32
	s := New(&fakeAuth{}, p, OnLogout(func(context.Context) { fired.Add(1) }))
	require.NoError(t, s.Bootstrap(context.Background()))

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Equal(t, int32(1), fired.Load())

	_, clears := p.Counts()
	assert.Equal(t, 1, clears)
}

func TestRefreshUserFailureLogsOut(t *testing.T) {
	user := testAdmin
	api := &fakeAuth{profileErr: &apiclient.APIError{StatusCode: 500, Message: "boom"}}
	s := New(api, NewMemoryPersistence(Snapshot{Token: "tok", User: &user}))
	require.NoError(t, s.Bootstrap(context.Background()))

	err := s.RefreshUser(context.Background())
	require.Error(t, err)
	assert.Equal(t, Anonymous, s.State())
}

func TestRefreshUserUpdatesUser(t *testing.T) {
	user := testAdmin
	renamed := testAdmin
	renamed.Name = "Ada L."
	api := &fakeAuth{profile: &renamed}
	s := New(api, NewMemoryPersistence(Snapshot{Token: "tok", User: &user}))
	require.NoError(t, s.Bootstrap(context.Background()))

	require.NoError(t, s.RefreshUser(context.Background()))
	assert.Equal(t, "Ada L.", s.User().Name)
}

func TestNonAdminIsAuthenticatedButNotAdmin(t *testing.T) {
	customer := model.AdminUser{ID: "u1", Email: "c@example.com", Role: "customer"}
	s := New(&fakeAuth{}, NewMemoryPersistence(Snapshot{Token: "tok", User: &customer}))
	require.NoError(t, s.Bootstrap(context.Background()))

	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())

	info := s.Info()
	assert.Equal(t, "authenticated", info.StateName)
	assert.False(t, info.IsAdmin)
}

func TestInvalidateIgnoresOtherTokens(t *testing.T) {
	user := testAdmin
	s := New(&fakeAuth{}, NewMemoryPersistence(Snapshot{Token: "current", User: &user}))
	require.NoError(t, s.Bootstrap(context.Background()))

	s.Invalidate(context.Background(), "old")
	assert.Equal(t, Authenticated, s.State())

	s.Invalidate(context.Background(), "")
	assert.Equal(t, "current", s.Token())
}

// Many concurrent requests observing 401 clear the session exactly once.
func TestConcurrentUnauthorizedExpiresOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	user := testAdmin
	p := NewMemoryPersistence(Snapshot{Token: "tok", User: &user})
	var expired atomic.Int32
	s := NewWithClient(c, p, OnExpired(func(context.Context) { expired.Add(1) }))
	require.NoError(t, s.Bootstrap(context.Background()))
	bound := c.WithTokens(s)

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			_, _ = bound.ListOrders(context.Background())
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), expired.Load())
	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, s.Token())

	_, clears := p.Counts()
	assert.Equal(t, 1, clears)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unresolved", Unresolved.String())
	assert.Equal(t, "verifying", Verifying.String())
	assert.True(t, Authenticated.Resolved())
	assert.False(t, Verifying.Resolved())
}
