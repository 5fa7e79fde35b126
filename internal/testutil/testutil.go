// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/kisanbazaar/marketplace/internal/database"
	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates a test user in the database.
func NewTestUser(t *testing.T, repo *repository.Repository, username, displayName string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := repo.CreateUser(ctx, username, displayName)
	require.NoError(t, err)
	return user
}

// NewTestProfile stores a profile with the given preferred language for a user.
func NewTestProfile(t *testing.T, repo *repository.Repository, userID int64, language string) *models.Profile {
	t.Helper()
	p := &models.Profile{UserID: userID, Names: locale.Names{"en": "Test Farmer"}}
	p.SetLanguage(language)
	require.NoError(t, repo.UpsertProfile(context.Background(), p))
	return p
}

// NewTestCrop creates a crop with an English and a Hindi name.
func NewTestCrop(t *testing.T, repo *repository.Repository, slug, english, hindi string) *models.Crop {
	t.Helper()
	c := &models.Crop{
		Slug:     slug,
		Names:    locale.Names{"en": english, "hi": hindi},
		Category: "cereal",
		Unit:     "quintal",
	}
	require.NoError(t, repo.CreateCrop(context.Background(), c))
	return c
}

// NewTestListing creates an active listing of a crop for a seller.
func NewTestListing(t *testing.T, repo *repository.Repository, sellerID, cropID int64) *models.Listing {
	t.Helper()
	l := &models.Listing{
		SellerID:     sellerID,
		CropID:       cropID,
		Quantity:     10,
		Unit:         "quintal",
		PricePerUnit: 225000,
		Location:     "Nashik",
	}
	require.NoError(t, repo.CreateListing(context.Background(), l))
	return l
}

// NewTestCredential creates a test credential for a user.
func NewTestCredential(t *testing.T, repo *repository.Repository, userID int64, name string) *models.Credential {
	t.Helper()
	ctx := context.Background()
	cred := &models.Credential{
		UserID:       userID,
		CredentialID: []byte("test-credential-id-" + name),
		PublicKey:    []byte("test-public-key"),
		AAGUID:       []byte("test-aaguid-1234"),
		SignCount:    0,
		Name:         name,
	}
	err := repo.CreateCredential(ctx, cred)
	require.NoError(t, err)
	return cred
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
