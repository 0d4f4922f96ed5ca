package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-manager/gateway"
	"github.com/jrsteele09/go-session-manager/gateway/gatewayfakes"
	"github.com/jrsteele09/go-session-manager/internal/config"
	errs "github.com/jrsteele09/go-session-manager/internal/errors"
	"github.com/jrsteele09/go-session-manager/manager"
	"github.com/jrsteele09/go-session-manager/server"
	"github.com/jrsteele09/go-session-manager/sessions"
	"github.com/jrsteele09/go-session-manager/store"
)

const (
	testEmail    = "dash@example.com"
	testPassword = "Password123"
)

type serverFixture struct {
	gw      *gatewayfakes.FakeGateway
	manager *manager.Manager
	server  *server.Server
}

func setupServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	cookies := store.NewCookieJar(nil)
	sessionStore := store.New(store.NewInMemoryDurable(), cookies)
	gw := gatewayfakes.NewFakeGateway()

	mgr, err := manager.New(manager.Deps{Store: sessionStore, Gateway: gw})
	require.NoError(t, err)

	srv, err := server.New(config.New(), mgr, gw, cookies)
	require.NoError(t, err)

	return &serverFixture{gw: gw, manager: mgr, server: srv}
}

func (f *serverFixture) initialize(t *testing.T) {
	t.Helper()
	require.NoError(t, f.manager.Initialize(context.Background()))
}

func (f *serverFixture) login(t *testing.T, role sessions.RoleType) {
	t.Helper()
	f.gw.LoginFn = func(_ context.Context, _ gateway.Credentials) (*gateway.LoginResponse, error) {
		return &gateway.LoginResponse{
			AccessToken:  "access-token-1",
			RefreshToken: "refresh-token-1",
			User:         &sessions.User{ID: "u1", Email: testEmail, Role: role},
		}, nil
	}
	rec := f.do(postJSON("/login", gateway.Credentials{Email: testEmail, Password: testPassword}))
	require.Equal(t, http.StatusOK, rec.Code)
}

func (f *serverFixture) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, r)
	return rec
}

func postJSON(path string, payload interface{}) *http.Request {
	body, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func cookieNames(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	named := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		named[c.Name] = c
	}
	return named
}

func TestHealthz(t *testing.T) {
	fixture := setupServerFixture(t)
	rec := fixture.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginSetsTokenCookies(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.gw.LoginFn = func(_ context.Context, creds gateway.Credentials) (*gateway.LoginResponse, error) {
		require.Equal(t, testEmail, creds.Email)
		return &gateway.LoginResponse{
			AccessToken:  "access-token-1",
			RefreshToken: "refresh-token-1",
			User:         &sessions.User{ID: "u1", Email: testEmail, Role: sessions.RoleUser},
		}, nil
	}

	rec := fixture.do(postJSON("/login", gateway.Credentials{Email: testEmail, Password: testPassword}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, testEmail, user["email"])

	named := cookieNames(rec)
	require.Contains(t, named, store.CookieAccessToken)
	require.Contains(t, named, store.CookieRefreshToken)
	require.Equal(t, "access-token-1", named[store.CookieAccessToken].Value)
	require.Equal(t, "refresh-token-1", named[store.CookieRefreshToken].Value)
}

func TestLoginInvalidBody(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)

	r := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte("not json")))
	rec := fixture.do(r)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, fixture.gw.LoginCalls)
}

func TestLoginGatewayFailure(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.gw.LoginFn = func(_ context.Context, _ gateway.Credentials) (*gateway.LoginResponse, error) {
		return nil, errs.NewTransport("Login", "Invalid credentials", "Login failed", nil)
	}

	rec := fixture.do(postJSON("/login", gateway.Credentials{Email: testEmail, Password: testPassword}))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "Invalid credentials", decodeBody(t, rec)["message"])
}

func TestDashboardPendingBeforeInitialize(t *testing.T) {
	fixture := setupServerFixture(t)

	rec := fixture.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
	require.Empty(t, rec.Header().Get("Location"))
}

func TestDashboardDeniedWhenUnauthenticated(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)

	rec := fixture.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestDashboardAllowedAfterLogin(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.login(t, sessions.RoleUser)

	rec := fixture.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, string(sessions.StatusAuthenticated), body["status"])
}

func TestAdminRejectsNonAdmin(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.login(t, sessions.RoleUser)

	rec := fixture.do(httptest.NewRequest(http.MethodGet, "/admin", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestAdminAllowsAdmin(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.login(t, sessions.RoleAdmin)

	rec := fixture.do(httptest.NewRequest(http.MethodGet, "/admin", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(sessions.RoleAdmin), decodeBody(t, rec)["role"])
}

func TestLogoutClearsCookiesAndRedirects(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.login(t, sessions.RoleUser)

	rec := fixture.do(httptest.NewRequest(http.MethodPost, "/logout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/login", decodeBody(t, rec)["redirect"])

	named := cookieNames(rec)
	require.Contains(t, named, store.CookieAccessToken)
	require.Equal(t, -1, named[store.CookieAccessToken].MaxAge)
	require.Contains(t, named, store.CookieRefreshToken)
	require.Equal(t, -1, named[store.CookieRefreshToken].MaxAge)
}

func TestRefreshFailureRedirectsToLogin(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.login(t, sessions.RoleUser)
	fixture.gw.RefreshFn = func(_ context.Context, _, _ string) (string, error) {
		return "", errs.NewTransport("Refresh", "", "Token refresh failed", nil)
	}

	rec := fixture.do(httptest.NewRequest(http.MethodPost, "/refresh", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "/login", decodeBody(t, rec)["redirect"])
	require.Equal(t, sessions.StatusUnauthenticated, fixture.manager.Snapshot().Status)
}

func TestRefreshRotatesAccessCookie(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.login(t, sessions.RoleUser)
	fixture.gw.RefreshFn = func(_ context.Context, userID, refreshToken string) (string, error) {
		require.Equal(t, "u1", userID)
		require.Equal(t, "refresh-token-1", refreshToken)
		return "access-token-2", nil
	}

	rec := fixture.do(httptest.NewRequest(http.MethodPost, "/refresh", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	named := cookieNames(rec)
	require.Contains(t, named, store.CookieAccessToken)
	require.Equal(t, "access-token-2", named[store.CookieAccessToken].Value)
}

func TestAvatarServesBytes(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.login(t, sessions.RoleUser)
	fixture.gw.AvatarFn = func(_ context.Context, userID string) ([]byte, string, error) {
		require.Equal(t, "u1", userID)
		return []byte{0x89, 0x50}, "image/png", nil
	}

	rec := fixture.do(httptest.NewRequest(http.MethodGet, "/dashboard/avatar/u1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, []byte{0x89, 0x50}, rec.Body.Bytes())
}

func TestForgotPasswordPassThrough(t *testing.T) {
	fixture := setupServerFixture(t)
	fixture.initialize(t)
	fixture.gw.ForgotPasswordFn = func(_ context.Context, email string) (string, error) {
		require.Equal(t, testEmail, email)
		return "Reset email sent", nil
	}

	rec := fixture.do(postJSON("/forgot-password", map[string]string{"email": testEmail}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Reset email sent", decodeBody(t, rec)["message"])
}

func TestServerRequiresManager(t *testing.T) {
	_, err := server.New(config.New(), nil, gatewayfakes.NewFakeGateway(), nil)
	require.Error(t, err)
}
