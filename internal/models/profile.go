// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"database/sql"
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
)

// Profile holds the farmer-facing details of a user.
type Profile struct { //nolint:govet // fieldalignment not critical for models
	UserID        int64          `db:"user_id" json:"-"`
	Names         locale.Names   `db:"names" json:"names"`
	Phone         string         `db:"phone" json:"phone"`
	Email         string         `db:"email" json:"email"`
	Village       string         `db:"village" json:"village"`
	District      string         `db:"district" json:"district"`
	State         string         `db:"state" json:"state"`
	FarmSizeAcres float64        `db:"farm_size_acres" json:"farm_size_acres"`
	Language      sql.NullString `db:"language" json:"-"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// LanguageCode returns the preferred language, or "" when none is stored.
func (p *Profile) LanguageCode() string {
	if p.Language.Valid {
		return p.Language.String
	}
	return ""
}

// SetLanguage stores code, clearing the preference when code is empty.
func (p *Profile) SetLanguage(code string) {
	p.Language = sql.NullString{String: code, Valid: code != ""}
}
