// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "testuser", "Test User")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "Test User", user.DisplayName)
	assert.Len(t, user.PublicID, 36)
	assert.NotZero(t, user.CreatedAt)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, "testuser", "Test User")
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, "testuser", "Test User")

	assert.Error(t, err)
}

func TestGetUserByID(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "testuser", "Test User")
	require.NoError(t, err)

	retrieved, err := repo.GetUserByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, created.Username, retrieved.Username)
}

func TestGetUserByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.GetUserByID(ctx, 999)

	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetUserByID_WithCredentials(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "testuser", "Test User")
	testutil.NewTestCredential(t, repo, user.ID, "credential-1")
	testutil.NewTestCredential(t, repo, user.ID, "credential-2")

	retrieved, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, retrieved.Credentials, 2)
	assert.Len(t, retrieved.WebAuthnCredentials(), 2)
}

func TestGetUserByUsername(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "testuser", "Test User")
	require.NoError(t, err)

	retrieved, err := repo.GetUserByUsername(ctx, "testuser")

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.GetUserByUsername(ctx, "nonexistent")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserExists(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, "testuser", "Test User")
	require.NoError(t, err)

	exists, err := repo.UserExists(ctx, "testuser")

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserExists_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	exists, err := repo.UserExists(ctx, "nonexistent")

	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetUserByPublicID(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created := testutil.NewTestUser(t, repo, "savita", "Savita Jadhav")

	retrieved, err := repo.GetUserByPublicID(ctx, created.PublicID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)

	_, err = repo.GetUserByPublicID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateUser_DistinctPublicIDs(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	a := testutil.NewTestUser(t, repo, "a", "")
	b := testutil.NewTestUser(t, repo, "b", "")

	assert.NotEqual(t, a.PublicID, b.PublicID)
}

func TestDeleteUser_CascadesProfile(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "testuser", "Test User")
	testutil.NewTestProfile(t, repo, user.ID, "hi")

	require.NoError(t, repo.DeleteUser(ctx, user.ID))

	_, err := repo.GetProfile(ctx, user.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteUser(ctx, user.ID), repository.ErrNotFound)
}
