// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"slices"
	"time"
)

// Listing statuses.
const (
	ListingActive    = "active"
	ListingSold      = "sold"
	ListingWithdrawn = "withdrawn"
)

var listingStatuses = []string{ListingActive, ListingSold, ListingWithdrawn}

// ValidListingStatus reports whether s is a known listing status.
func ValidListingStatus(s string) bool {
	return slices.Contains(listingStatuses, s)
}

// Listing is a lot of produce offered by a seller.
type Listing struct { //nolint:govet // fieldalignment not critical for models
	ID           int64     `db:"id" json:"id"`
	SellerID     int64     `db:"seller_id" json:"-"`
	CropID       int64     `db:"crop_id" json:"crop_id"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	Unit         string    `db:"unit" json:"unit"`
	PricePerUnit int64     `db:"price_per_unit" json:"price_per_unit"` // paise
	Location     string    `db:"location" json:"location"`
	Description  string    `db:"description" json:"description"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ListingFilter narrows ListListings. Zero values mean "any".
type ListingFilter struct {
	CropID   int64
	SellerID int64
	Status   string
	Limit    int
	Offset   int
}

// Inquiry is a buyer's message about a listing.
type Inquiry struct { //nolint:govet // fieldalignment not critical for models
	ID        int64     `db:"id" json:"id"`
	ListingID int64     `db:"listing_id" json:"listing_id"`
	BuyerID   int64     `db:"buyer_id" json:"-"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
