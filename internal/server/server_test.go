// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/config"
	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:        "localhost",
			Port:        8080,
			BaseURL:     "http://localhost:8080",
			MaxBodySize: 1,
		},
		WebAuthn: config.WebAuthnConfig{
			RPID:          "localhost",
			RPOrigin:      "http://localhost:8080",
			RPDisplayName: "Kisan Bazaar",
		},
		Session: config.SessionConfig{
			CookieName: "_session",
			MaxAge:     3600,
			HashKey:    testHashKey,
		},
		Locale: config.LocaleConfig{
			PrefixRedirect: true,
		},
	}
}

func newTestServer(t *testing.T) (*Server, *repository.Repository) {
	t.Helper()
	require.NoError(t, i18n.Init())

	_, repo := testutil.NewTestDB(t)
	srv, err := New(newTestConfig(), repo)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv, repo
}

func get(srv *Server, path string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	return rec
}

func acceptLanguage(value string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Accept-Language", value)
	}
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_AnonymousPages(t *testing.T) {
	srv, repo := newTestServer(t)
	testutil.NewTestCrop(t, repo, "wheat", "Wheat", "गेहूँ")

	tests := []struct {
		path   string
		accept string
		status int
		target string
	}{
		{path: "/health", status: http.StatusOK},
		{path: "/", status: http.StatusOK},
		{path: "/marketplace", status: http.StatusOK},
		{path: "/prices", status: http.StatusOK},
		{path: "/auth/login", status: http.StatusOK},
		{path: "/api/crops", status: http.StatusOK},
		{path: "/api/listings", status: http.StatusOK},
		{path: "/api/market-prices", status: http.StatusOK},
		{path: "/hi/marketplace", status: http.StatusOK},
		{path: "/marketplace", accept: "hi-IN,hi;q=0.9", status: http.StatusTemporaryRedirect, target: "/hi/marketplace"},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.accept, func(t *testing.T) {
			rec := get(srv, tt.path, acceptLanguage(tt.accept))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.target != "" {
				assert.Equal(t, tt.target, rec.Header().Get("Location"))
			}
		})
	}
}

func TestServer_StaleSessionIsAnonymous(t *testing.T) {
	srv, _ := newTestServer(t)
	stale := &http.Cookie{Name: "_session", Value: "not-a-valid-session"}

	rec := get(srv, "/marketplace", func(r *http.Request) { r.AddCookie(stale) })
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(srv, "/api/profile", func(r *http.Request) { r.AddCookie(stale) })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_ShutdownClosesStreams(t *testing.T) {
	srv, _ := newTestServer(t)
	sub := srv.handlers.Hub().Subscribe("")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Echo.Server.Shutdown(ctx))

	assert.Eventually(t, func() bool {
		select {
		case _, open := <-sub.Events():
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, srv.handlers.Hub().ClientCount())
}

func TestServer_LocalePrefix(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/hi/prices")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Header().Get("Content-Language"))
	assert.Contains(t, rec.Body.String(), `lang="hi"`)
}

func TestServer_DefaultPrefixRedirects(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/en/prices")

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/prices", rec.Header().Get("Location"))
}

func TestServer_AcceptLanguageRedirects(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/marketplace", acceptLanguage("mr-IN,mr;q=0.9"))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/mr/marketplace", rec.Header().Get("Location"))
}

func TestServer_TrailingSlash(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/prices/")

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/prices", rec.Header().Get("Location"))
}

func TestServer_APINotRedirected(t *testing.T) {
	srv, repo := newTestServer(t)
	testutil.NewTestCrop(t, repo, "wheat", "Wheat", "गेहूँ")

	rec := get(srv, "/api/crops", acceptLanguage("hi"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Header().Get("Content-Language"))
	assert.Contains(t, rec.Body.String(), "गेहूँ")
}

func TestServer_ProfileRequiresLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/profile")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	rec = get(srv, "/ta/profile")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/ta/auth/login", rec.Header().Get("Location"))

	rec = get(srv, "/api/profile")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"not authenticated"}`, rec.Body.String())
}

func TestServer_StoredPreferenceRedirects(t *testing.T) {
	srv, repo := newTestServer(t)
	user := testutil.NewTestUser(t, repo, "ramesh", "Ramesh")
	testutil.NewTestProfile(t, repo, user.ID, "ta")

	cookie, err := newTestSessions(t).Create(user.ID, user.PublicID, user.Username)
	require.NoError(t, err)

	rec := get(srv, "/prices", func(r *http.Request) { r.AddCookie(cookie) })

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/ta/prices", rec.Header().Get("Location"))

	rec = get(srv, "/ta/profile", func(r *http.Request) { r.AddCookie(cookie) })

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lang="ta"`)
}

func TestServer_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<!doctype html>")

	rec = get(srv, "/api/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestServer_StaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/static/css/styles.css")

	assert.Equal(t, http.StatusOK, rec.Code)
}
