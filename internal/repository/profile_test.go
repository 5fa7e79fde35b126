// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertProfile(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ramesh", "Ramesh Patil")

	p := &models.Profile{
		UserID:        user.ID,
		Names:         locale.Names{"en": "Ramesh Patil", "mr": "रमेश पाटील"},
		Phone:         "+919800000000",
		Village:       "Pimpalgaon",
		District:      "Nashik",
		State:         "Maharashtra",
		FarmSizeAcres: 4.5,
	}
	p.SetLanguage("mr")
	require.NoError(t, repo.UpsertProfile(ctx, p))
	assert.NotZero(t, p.CreatedAt)

	got, err := repo.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "mr", got.LanguageCode())
	assert.Equal(t, "रमेश पाटील", got.Names.Get("mr"))
	assert.InDelta(t, 4.5, got.FarmSizeAcres, 0.001)

	p.District = "Pune"
	p.SetLanguage("")
	require.NoError(t, repo.UpsertProfile(ctx, p))

	got, err = repo.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.District)
	assert.Empty(t, got.LanguageCode())
}

func TestUpsertProfile_UnsupportedLanguage(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	user := testutil.NewTestUser(t, repo, "testuser", "Test User")
	p := &models.Profile{UserID: user.ID}
	p.SetLanguage("fr")

	err := repo.UpsertProfile(context.Background(), p)

	assert.ErrorIs(t, err, locale.ErrUnsupportedLocale)
}

func TestGetProfile_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetProfile(context.Background(), 42)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetLanguage(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "testuser", "Test User")

	require.NoError(t, repo.SetLanguage(ctx, user.ID, "te"))
	got, err := repo.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "te", got.LanguageCode())

	require.NoError(t, repo.SetLanguage(ctx, user.ID, "ml"))
	got, err = repo.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ml", got.LanguageCode())

	assert.ErrorIs(t, repo.SetLanguage(ctx, user.ID, "xx"), locale.ErrUnsupportedLocale)
}

func TestGetPreference(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "testuser", "Test User")
	testutil.NewTestProfile(t, repo, user.ID, "kn")

	pref, err := repo.GetPreference(ctx, user.PublicID)

	require.NoError(t, err)
	assert.Equal(t, "kn", pref.LanguageCode)
}

func TestGetPreference_NoLanguage(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	user := testutil.NewTestUser(t, repo, "testuser", "Test User")
	testutil.NewTestProfile(t, repo, user.ID, "")

	pref, err := repo.GetPreference(context.Background(), user.PublicID)

	require.NoError(t, err)
	assert.Empty(t, pref.LanguageCode)
}

func TestGetPreference_NoProfile(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	user := testutil.NewTestUser(t, repo, "testuser", "Test User")

	_, err := repo.GetPreference(context.Background(), user.PublicID)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetPreference_UnknownIdentity(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetPreference(context.Background(), "nobody")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRepository_ImplementsPreferenceStore(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	var store locale.PreferenceStore = repo
	assert.NotNil(t, store)
}
