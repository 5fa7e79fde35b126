// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// MarketPrice is one day's price range for a crop at a mandi.
// Prices are in paise per Unit.
type MarketPrice struct { //nolint:govet // fieldalignment not critical for models
	ID         int64     `db:"id" json:"id"`
	CropID     int64     `db:"crop_id" json:"crop_id"`
	Market     string    `db:"market" json:"market"`
	State      string    `db:"state" json:"state"`
	MinPrice   int64     `db:"min_price" json:"min_price"`
	MaxPrice   int64     `db:"max_price" json:"max_price"`
	ModalPrice int64     `db:"modal_price" json:"modal_price"`
	Unit       string    `db:"unit" json:"unit"`
	RecordedOn string    `db:"recorded_on" json:"recorded_on"` // YYYY-MM-DD
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PriceFilter narrows ListMarketPrices. Zero values mean "any".
type PriceFilter struct {
	CropID int64
	State  string
	Limit  int
}
