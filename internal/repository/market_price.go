// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/models"
)

const (
	priceColumns = `id, crop_id, market, state, min_price, max_price, modal_price, unit, recorded_on, created_at`

	// DefaultPriceLimit and MaxPriceLimit bound market price listings.
	DefaultPriceLimit = 50
	MaxPriceLimit     = 200
)

// CreateMarketPrice records a mandi price.
func (r *Repository) CreateMarketPrice(ctx context.Context, p *models.MarketPrice) error {
	return r.db.GetContext(ctx, p,
		`INSERT INTO market_prices (crop_id, market, state, min_price, max_price, modal_price, unit, recorded_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+priceColumns,
		p.CropID, p.Market, p.State, p.MinPrice, p.MaxPrice, p.ModalPrice, p.Unit, p.RecordedOn)
}

// ListMarketPrices returns recorded prices, most recent date first.
func (r *Repository) ListMarketPrices(ctx context.Context, f models.PriceFilter) ([]models.MarketPrice, error) {
	var (
		where []string
		args  []any
	)
	if f.CropID > 0 {
		where = append(where, "crop_id = ?")
		args = append(args, f.CropID)
	}
	if f.State != "" {
		where = append(where, "state = ?")
		args = append(args, f.State)
	}

	query := "SELECT " + priceColumns + " FROM market_prices"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_on DESC, id DESC LIMIT ?"
	args = append(args, clampLimit(f.Limit, DefaultPriceLimit, MaxPriceLimit))

	prices := []models.MarketPrice{}
	if err := r.db.SelectContext(ctx, &prices, query, args...); err != nil {
		return nil, err
	}
	return prices, nil
}
