// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
)

// Crop is an entry of the crop catalogue.
type Crop struct { //nolint:govet // fieldalignment not critical for models
	ID        int64        `db:"id" json:"id"`
	Slug      string       `db:"slug" json:"slug"`
	Names     locale.Names `db:"names" json:"names"`
	Category  string       `db:"category" json:"category"`
	Unit      string       `db:"unit" json:"unit"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// Name returns the crop name in code, falling back to English.
func (c *Crop) Name(code string) string {
	return c.Names.Get(code)
}
