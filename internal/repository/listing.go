// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/models"
)

const (
	listingColumns = `id, seller_id, crop_id, quantity, unit, price_per_unit, location, description,
	status, created_at, updated_at`

	defaultListingLimit = 20
	maxListingLimit     = 100
)

// ListListings returns listings matching the filter, newest first.
func (r *Repository) ListListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	var (
		where []string
		args  []any
	)
	if f.CropID > 0 {
		where = append(where, "crop_id = ?")
		args = append(args, f.CropID)
	}
	if f.SellerID > 0 {
		where = append(where, "seller_id = ?")
		args = append(args, f.SellerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := "SELECT " + listingColumns + " FROM listings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, clampLimit(f.Limit, defaultListingLimit, maxListingLimit), max(f.Offset, 0))

	listings := []models.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing retrieves a listing by ID.
func (r *Repository) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	var l models.Listing
	if err := r.db.GetContext(ctx, &l, "SELECT "+listingColumns+" FROM listings WHERE id = ?", id); err != nil {
		return nil, wrapError(err)
	}
	return &l, nil
}

// CreateListing inserts a listing. An empty status defaults to active.
func (r *Repository) CreateListing(ctx context.Context, l *models.Listing) error {
	if l.Status == "" {
		l.Status = models.ListingActive
	}
	return r.db.GetContext(ctx, l,
		`INSERT INTO listings (seller_id, crop_id, quantity, unit, price_per_unit, location, description, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+listingColumns,
		l.SellerID, l.CropID, l.Quantity, l.Unit, l.PricePerUnit, l.Location, l.Description, l.Status)
}

// UpdateListing writes the mutable fields of a listing.
func (r *Repository) UpdateListing(ctx context.Context, l *models.Listing) error {
	return wrapError(r.db.GetContext(ctx, l,
		`UPDATE listings SET quantity = ?, unit = ?, price_per_unit = ?, location = ?, description = ?,
			status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?
		 RETURNING `+listingColumns,
		l.Quantity, l.Unit, l.PricePerUnit, l.Location, l.Description, l.Status, l.ID))
}

// DeleteListing removes a listing and its inquiries.
func (r *Repository) DeleteListing(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// CreateInquiry stores a buyer message for a listing.
func (r *Repository) CreateInquiry(ctx context.Context, q *models.Inquiry) error {
	return r.db.GetContext(ctx, q,
		`INSERT INTO inquiries (listing_id, buyer_id, message) VALUES (?, ?, ?)
		 RETURNING id, listing_id, buyer_id, message, created_at`,
		q.ListingID, q.BuyerID, q.Message)
}

// ListInquiries returns the inquiries of a listing, oldest first.
func (r *Repository) ListInquiries(ctx context.Context, listingID int64) ([]models.Inquiry, error) {
	inquiries := []models.Inquiry{}
	if err := r.db.SelectContext(ctx, &inquiries,
		`SELECT id, listing_id, buyer_id, message, created_at FROM inquiries
		 WHERE listing_id = ? ORDER BY id`, listingID); err != nil {
		return nil, err
	}
	return inquiries, nil
}
