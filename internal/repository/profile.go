// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
)

const profileColumns = `user_id, names, phone, email, village, district, state, farm_size_acres,
	language, created_at, updated_at`

// GetProfile retrieves the profile of a user.
func (r *Repository) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.GetContext(ctx, &p,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", userID); err != nil {
		return nil, wrapError(err)
	}
	return &p, nil
}

// UpsertProfile creates or replaces the profile of p.UserID and refreshes p
// from the stored row.
func (r *Repository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if code := p.LanguageCode(); code != "" && !locale.IsSupported(code) {
		return fmt.Errorf("%w: %q", locale.ErrUnsupportedLocale, code)
	}
	return r.db.GetContext(ctx, p,
		`INSERT INTO profiles (user_id, names, phone, email, village, district, state, farm_size_acres, language)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			names = excluded.names,
			phone = excluded.phone,
			email = excluded.email,
			village = excluded.village,
			district = excluded.district,
			state = excluded.state,
			farm_size_acres = excluded.farm_size_acres,
			language = excluded.language,
			updated_at = CURRENT_TIMESTAMP
		 RETURNING `+profileColumns,
		p.UserID, p.Names, p.Phone, p.Email, p.Village, p.District, p.State, p.FarmSizeAcres, p.Language)
}

// SetLanguage stores the preferred language of a user, creating an empty
// profile when none exists. An empty code clears the preference.
func (r *Repository) SetLanguage(ctx context.Context, userID int64, code string) error {
	if code != "" && !locale.IsSupported(code) {
		return fmt.Errorf("%w: %q", locale.ErrUnsupportedLocale, code)
	}
	lang := sql.NullString{String: code, Valid: code != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, language) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET language = excluded.language, updated_at = CURRENT_TIMESTAMP`,
		userID, lang)
	return err
}

// GetPreference returns the stored language preference for a public user id.
// It returns ErrNotFound when the user has no profile. A profile without a
// language yields the zero Preference.
func (r *Repository) GetPreference(ctx context.Context, identity string) (locale.Preference, error) {
	var lang sql.NullString
	err := r.db.GetContext(ctx, &lang,
		`SELECT p.language FROM profiles p
		 JOIN users u ON u.id = p.user_id
		 WHERE u.public_id = ?`, identity)
	if err != nil {
		return locale.Preference{}, wrapError(err)
	}
	return locale.Preference{LanguageCode: lang.String}, nil
}
