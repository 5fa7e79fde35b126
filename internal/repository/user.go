// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"github.com/google/uuid"
)

const userColumns = "id, public_id, username, display_name, is_admin, created_at, updated_at"

// CreateUser creates a new user with a fresh public id.
func (r *Repository) CreateUser(ctx context.Context, username, displayName string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`INSERT INTO users (public_id, username, display_name) VALUES (?, ?, ?)
		 RETURNING `+userColumns,
		uuid.NewString(), username, displayName)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID with its credentials loaded.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = ?", id); err != nil {
		return nil, wrapError(err)
	}
	return r.withCredentials(ctx, &user)
}

// GetUserByPublicID retrieves a user by the public id carried in sessions.
func (r *Repository) GetUserByPublicID(ctx context.Context, publicID string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE public_id = ?", publicID); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username with its credentials loaded.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE username = ?", username); err != nil {
		return nil, wrapError(err)
	}
	return r.withCredentials(ctx, &user)
}

// UserExists checks if a user with the given username exists.
func (r *Repository) UserExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM users WHERE username = ?", username); err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteUser removes a user; profile, credentials and listings cascade.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *Repository) withCredentials(ctx context.Context, user *models.User) (*models.User, error) {
	creds, err := r.GetCredentialsByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Credentials = creds
	return user, nil
}
