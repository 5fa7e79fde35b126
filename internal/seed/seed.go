// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package seed loads reference data into the database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"github.com/BurntSushi/toml"
)

//go:embed crops.toml
var cropsTOML string

type catalogue struct {
	Crops []struct {
		Slug     string            `toml:"slug"`
		Category string            `toml:"category"`
		Unit     string            `toml:"unit"`
		Names    map[string]string `toml:"names"`
	} `toml:"crop"`
}

// CropStore is the part of the repository the seeder writes to.
type CropStore interface {
	UpsertCrop(ctx context.Context, c *models.Crop) error
}

// Crops returns the embedded crop catalogue.
func Crops() ([]models.Crop, error) {
	var cat catalogue
	if _, err := toml.Decode(cropsTOML, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse crop catalogue: %w", err)
	}

	crops := make([]models.Crop, 0, len(cat.Crops))
	for _, c := range cat.Crops {
		names := locale.Names(c.Names)
		if err := names.Validate(); err != nil {
			return nil, fmt.Errorf("crop %q: %w", c.Slug, err)
		}
		if names[locale.Default] == "" {
			return nil, fmt.Errorf("crop %q: missing %s name", c.Slug, locale.Default)
		}
		crops = append(crops, models.Crop{
			Slug:     c.Slug,
			Category: c.Category,
			Unit:     c.Unit,
			Names:    names,
		})
	}
	return crops, nil
}

// Run upserts the crop catalogue and returns the number of crops written.
// Running it again updates names, categories and units in place.
func Run(ctx context.Context, store CropStore) (int, error) {
	crops, err := Crops()
	if err != nil {
		return 0, err
	}

	for i := range crops {
		if err := store.UpsertCrop(ctx, &crops[i]); err != nil {
			return i, fmt.Errorf("failed to seed crop %q: %w", crops[i].Slug, err)
		}
		slog.Debug("seeded crop", "slug", crops[i].Slug, "id", crops[i].ID)
	}

	slog.Info("crop catalogue seeded", "crops", len(crops))
	return len(crops), nil
}
