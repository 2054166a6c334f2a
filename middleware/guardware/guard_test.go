package guardware_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	auth "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/middleware/guardware"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	authenticated bool
	valid         bool
}

func (f *fakeSession) IsAuthenticated() bool {
	return f.authenticated
}

func (f *fakeSession) CheckTokenExpiry(ctx context.Context) bool {
	if !f.valid {
		f.authenticated = false
	}
	return f.valid
}

// requestMock answers the request accessors the middleware reads and
// records redirects.
type requestMock struct {
	*router.MockContext
	method       string
	url          string
	redirectedTo string
	status       int
	locals       map[any]any
	ctx          context.Context
}

func newRequest(method, url string) *requestMock {
	return &requestMock{
		MockContext: router.NewMockContext(),
		method:      method,
		url:         url,
		locals:      map[any]any{},
		ctx:         context.Background(),
	}
}

func (m *requestMock) Method() string {
	return m.method
}

func (m *requestMock) Path() string {
	return m.url
}

func (m *requestMock) OriginalURL() string {
	return m.url
}

func (m *requestMock) Context() context.Context {
	return m.ctx
}

func (m *requestMock) SetContext(ctx context.Context) {
	m.ctx = ctx
}

func (m *requestMock) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.locals[key] = value[0]
		return value[0]
	}
	return m.locals[key]
}

func (m *requestMock) Redirect(location string, status ...int) error {
	m.redirectedTo = location
	if len(status) > 0 {
		m.status = status[0]
	}
	return nil
}

func newMiddleware(session auth.SessionChecker) router.HandlerFunc {
	guard := auth.NewGuard(session, auth.WithGuardLogger(auth.NopLogger()))
	return guardware.New(guardware.Config{Guard: guard})(func(ctx router.Context) error {
		return nil
	})
}

func TestGuardware_AllowsPublicRoute(t *testing.T) {
	handler := newMiddleware(&fakeSession{})

	ctx := newRequest(http.MethodGet, "/login")
	require.NoError(t, handler(ctx))

	assert.True(t, ctx.NextCalled)
	assert.Empty(t, ctx.redirectedTo)
}

func TestGuardware_RedirectsAnonymousToLogin(t *testing.T) {
	handler := newMiddleware(&fakeSession{})

	ctx := newRequest(http.MethodGet, "/tasks")
	require.NoError(t, handler(ctx))

	assert.False(t, ctx.NextCalled)
	assert.Equal(t, "/login?redirect=/tasks", ctx.redirectedTo)
	assert.Equal(t, http.StatusFound, ctx.status)
}

func TestGuardware_KeepsQueryInResumeTarget(t *testing.T) {
	handler := newMiddleware(&fakeSession{})

	ctx := newRequest(http.MethodGet, "/tasks?page=2")
	require.NoError(t, handler(ctx))

	loc, err := auth.ParseLocation(ctx.redirectedTo)
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/tasks?page=2", loc.Get("redirect"))
}

func TestGuardware_UsesSeeOtherForPost(t *testing.T) {
	handler := newMiddleware(&fakeSession{})

	ctx := newRequest(http.MethodPost, "/storages")
	require.NoError(t, handler(ctx))

	assert.Equal(t, http.StatusSeeOther, ctx.status)
}

func TestGuardware_ExpiredTokenRedirects(t *testing.T) {
	session := &fakeSession{authenticated: true, valid: false}
	handler := newMiddleware(session)

	ctx := newRequest(http.MethodGet, "/data-sources")
	require.NoError(t, handler(ctx))

	assert.False(t, ctx.NextCalled)
	assert.Equal(t, "/login?redirect=/data-sources", ctx.redirectedTo)
	assert.False(t, session.authenticated)
}

func TestGuardware_AuthenticatedPassesThrough(t *testing.T) {
	handler := newMiddleware(&fakeSession{authenticated: true, valid: true})

	ctx := newRequest(http.MethodGet, "/tasks")
	require.NoError(t, handler(ctx))

	assert.True(t, ctx.NextCalled)
	assert.Empty(t, ctx.redirectedTo)
}

func TestGuardware_LoginWhileAuthenticated(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "no resume target", url: "/login", want: "/dashboard"},
		{name: "resume target", url: "/login?redirect=/tasks", want: "/tasks"},
		{name: "external target ignored", url: "/login?redirect=https://evil.example", want: "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newMiddleware(&fakeSession{authenticated: true, valid: true})

			ctx := newRequest(http.MethodGet, tt.url)
			require.NoError(t, handler(ctx))

			assert.False(t, ctx.NextCalled)
			assert.Equal(t, tt.want, ctx.redirectedTo)
		})
	}
}

func TestGuardware_RootForwardsToLanding(t *testing.T) {
	handler := newMiddleware(&fakeSession{})

	ctx := newRequest(http.MethodGet, "/")
	require.NoError(t, handler(ctx))

	assert.Equal(t, "/dashboard", ctx.redirectedTo)
}

type identitySession struct {
	fakeSession
	identity auth.Identity
}

func (s *identitySession) Identity() (auth.Identity, bool) {
	return s.identity, s.authenticated
}

func TestGuardware_StoresIdentity(t *testing.T) {
	session := &identitySession{
		fakeSession: fakeSession{authenticated: true, valid: true},
		identity:    auth.Identity{UserID: "u-1", Nickname: "alice"},
	}
	guard := auth.NewGuard(session, auth.WithGuardLogger(auth.NopLogger()))
	handler := guardware.New(guardware.Config{
		Guard:    guard,
		Identity: session,
	})(func(ctx router.Context) error { return nil })

	ctx := newRequest(http.MethodGet, "/tasks")
	require.NoError(t, handler(ctx))
	require.True(t, ctx.NextCalled)

	fromLocals, ok := auth.GetRouterIdentity(ctx, "")
	require.True(t, ok)
	assert.Equal(t, "alice", fromLocals.Nickname)

	fromCtx, ok := auth.IdentityFromContext(ctx.Context())
	require.True(t, ok)
	assert.Equal(t, "u-1", fromCtx.UserID)

	helpers := auth.TemplateHelpersWithRouter(ctx, "")
	assert.Equal(t, session.identity, helpers[auth.TemplateUserKey])
}

func TestGuardware_FilterSkips(t *testing.T) {
	guard := auth.NewGuard(&fakeSession{}, auth.WithGuardLogger(auth.NopLogger()))
	handler := guardware.New(guardware.Config{
		Guard: guard,
		Filter: func(ctx router.Context) bool {
			return ctx.Path() == "/tasks"
		},
	})(func(ctx router.Context) error { return nil })

	ctx := newRequest(http.MethodGet, "/tasks")
	require.NoError(t, handler(ctx))

	assert.True(t, ctx.NextCalled)
	assert.Empty(t, ctx.redirectedTo)
}

func TestGuardware_CustomRedirectHandler(t *testing.T) {
	var gotReason string
	sentinel := errors.New("stop")

	guard := auth.NewGuard(&fakeSession{}, auth.WithGuardLogger(auth.NopLogger()))
	handler := guardware.New(guardware.Config{
		Guard: guard,
		RedirectHandler: func(ctx router.Context, to auth.Location, reason string) error {
			gotReason = reason
			return sentinel
		},
	})(func(ctx router.Context) error { return nil })

	err := handler(newRequest(http.MethodGet, "/tasks"))
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, auth.ReasonUnauthenticated, gotReason)
}

func TestGuardware_RequiresGuard(t *testing.T) {
	assert.Panics(t, func() {
		guardware.New(guardware.Config{})(func(ctx router.Context) error { return nil })
	})
}

func TestRedirectStatus(t *testing.T) {
	assert.Equal(t, http.StatusFound, guardware.RedirectStatus(http.MethodGet))
	assert.Equal(t, http.StatusFound, guardware.RedirectStatus(http.MethodHead))
	assert.Equal(t, http.StatusSeeOther, guardware.RedirectStatus(http.MethodPost))
	assert.Equal(t, http.StatusSeeOther, guardware.RedirectStatus(http.MethodDelete))
}

func TestGuardware_StoresTemplateData(t *testing.T) {
	session := &identitySession{
		fakeSession: fakeSession{authenticated: true, valid: true},
		identity:    auth.Identity{UserID: "u-1", Nickname: "alice"},
	}
	guard := auth.NewGuard(session, auth.WithGuardLogger(auth.NopLogger()))
	handler := guardware.New(guardware.Config{
		Guard:           guard,
		Identity:        session,
		TemplateDataKey: "auth",
	})(func(ctx router.Context) error { return nil })

	ctx := newRequest(http.MethodGet, "/tasks")
	require.NoError(t, handler(ctx))

	data, ok := ctx.locals["auth"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, session.identity, data[auth.TemplateUserKey])
	assert.Equal(t, auth.DefaultLoginPath, data["login_path"])

	isAuthenticated, ok := data["is_authenticated"].(func(any) bool)
	require.True(t, ok)
	assert.True(t, isAuthenticated(data[auth.TemplateUserKey]))

	displayName, ok := data["display_name"].(func(any) string)
	require.True(t, ok)
	assert.Equal(t, "alice", displayName(data[auth.TemplateUserKey]))
}

func TestGuardware_NoTemplateDataWhenRedirected(t *testing.T) {
	guard := auth.NewGuard(&fakeSession{}, auth.WithGuardLogger(auth.NopLogger()))
	handler := guardware.New(guardware.Config{
		Guard:           guard,
		TemplateDataKey: "auth",
	})(func(ctx router.Context) error { return nil })

	ctx := newRequest(http.MethodGet, "/tasks")
	require.NoError(t, handler(ctx))
	assert.NotEmpty(t, ctx.redirectedTo)
	assert.NotContains(t, ctx.locals, "auth")
}
