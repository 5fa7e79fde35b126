// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/kisanbazaar/marketplace/internal/models"
)

const cropColumns = "id, slug, names, category, unit, created_at"

// ListCrops returns the crop catalogue ordered by slug.
func (r *Repository) ListCrops(ctx context.Context) ([]models.Crop, error) {
	crops := []models.Crop{}
	if err := r.db.SelectContext(ctx, &crops, "SELECT "+cropColumns+" FROM crops ORDER BY slug"); err != nil {
		return nil, err
	}
	return crops, nil
}

// GetCrop retrieves a crop by ID.
func (r *Repository) GetCrop(ctx context.Context, id int64) (*models.Crop, error) {
	var c models.Crop
	if err := r.db.GetContext(ctx, &c, "SELECT "+cropColumns+" FROM crops WHERE id = ?", id); err != nil {
		return nil, wrapError(err)
	}
	return &c, nil
}

// GetCropBySlug retrieves a crop by its slug.
func (r *Repository) GetCropBySlug(ctx context.Context, slug string) (*models.Crop, error) {
	var c models.Crop
	if err := r.db.GetContext(ctx, &c, "SELECT "+cropColumns+" FROM crops WHERE slug = ?", slug); err != nil {
		return nil, wrapError(err)
	}
	return &c, nil
}

// CreateCrop inserts a crop and fills in its generated fields.
func (r *Repository) CreateCrop(ctx context.Context, c *models.Crop) error {
	return r.db.GetContext(ctx, c,
		"INSERT INTO crops (slug, names, category, unit) VALUES (?, ?, ?, ?) RETURNING "+cropColumns,
		c.Slug, c.Names, c.Category, c.Unit)
}

// UpsertCrop inserts a crop or updates the existing row with the same slug.
func (r *Repository) UpsertCrop(ctx context.Context, c *models.Crop) error {
	return r.db.GetContext(ctx, c,
		`INSERT INTO crops (slug, names, category, unit) VALUES (?, ?, ?, ?)
		 ON CONFLICT (slug) DO UPDATE SET
			names = excluded.names,
			category = excluded.category,
			unit = excluded.unit
		 RETURNING `+cropColumns,
		c.Slug, c.Names, c.Category, c.Unit)
}
