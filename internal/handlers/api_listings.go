// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/services/email"
	"github.com/labstack/echo/v4"
)

const (
	maxDescriptionLength = 2000
	maxInquiryLength     = 2000
	notifyTimeout        = 30 * time.Second
)

// ListingRequest is the request body of POST /api/listings.
type ListingRequest struct { //nolint:govet // fieldalignment not critical
	CropID       int64   `json:"crop_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"` // defaults to the crop's unit
	PricePerUnit int64   `json:"price_per_unit"`
	Location     string  `json:"location"`
	Description  string  `json:"description"`
}

// ListingUpdate is the request body of PUT /api/listings/:id. Omitted
// fields keep their value.
type ListingUpdate struct {
	Quantity     *float64 `json:"quantity"`
	Unit         *string  `json:"unit"`
	PricePerUnit *int64   `json:"price_per_unit"`
	Location     *string  `json:"location"`
	Description  *string  `json:"description"`
	Status       *string  `json:"status"`
}

// InquiryRequest is the request body of POST /api/listings/:id/inquiries.
type InquiryRequest struct {
	Message string `json:"message"`
}

// ListListings returns listings filtered by crop_id, seller_id and status.
func (h *Handlers) ListListings(c echo.Context) error {
	var f models.ListingFilter
	var ok bool
	if f.CropID, ok = queryID(c, "crop_id"); !ok {
		return jsonError(c, http.StatusBadRequest, "invalid crop_id")
	}
	if f.SellerID, ok = queryID(c, "seller_id"); !ok {
		return jsonError(c, http.StatusBadRequest, "invalid seller_id")
	}
	if f.Limit, ok = queryInt(c, "limit"); !ok {
		return jsonError(c, http.StatusBadRequest, "invalid limit")
	}
	if f.Offset, ok = queryInt(c, "offset"); !ok {
		return jsonError(c, http.StatusBadRequest, "invalid offset")
	}
	f.Status = c.QueryParam("status")
	if f.Status != "" && !models.ValidListingStatus(f.Status) {
		return jsonError(c, http.StatusBadRequest, "invalid status")
	}

	listings, err := h.repo.ListListings(c.Request().Context(), f)
	if err != nil {
		return h.storeError(c, err, "listings")
	}
	return c.JSON(http.StatusOK, listings)
}

// GetListing returns a single listing.
func (h *Handlers) GetListing(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid listing id")
	}
	listing, err := h.repo.GetListing(c.Request().Context(), id)
	if err != nil {
		return h.storeError(c, err, "listing")
	}
	return c.JSON(http.StatusOK, listing)
}

// CreateListing offers produce for sale as the signed-in user.
func (h *Handlers) CreateListing(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}

	var req ListingRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if req.Quantity <= 0 {
		return jsonError(c, http.StatusBadRequest, "quantity must be positive")
	}
	if req.PricePerUnit <= 0 {
		return jsonError(c, http.StatusBadRequest, "price must be positive")
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLength {
		return jsonError(c, http.StatusBadRequest, "description is too long")
	}

	ctx := c.Request().Context()
	crop, err := h.repo.GetCrop(ctx, req.CropID)
	if errors.Is(err, repository.ErrNotFound) {
		return jsonError(c, http.StatusBadRequest, "unknown crop")
	}
	if err != nil {
		return h.storeError(c, err, "crop")
	}

	listing := &models.Listing{
		SellerID:     user.ID,
		CropID:       crop.ID,
		Quantity:     req.Quantity,
		Unit:         strings.TrimSpace(req.Unit),
		PricePerUnit: req.PricePerUnit,
		Location:     strings.TrimSpace(req.Location),
		Description:  strings.TrimSpace(req.Description),
		Status:       models.ListingActive,
	}
	if listing.Unit == "" {
		listing.Unit = crop.Unit
	}
	if err := h.repo.CreateListing(ctx, listing); err != nil {
		return h.storeError(c, err, "listing")
	}
	return c.JSON(http.StatusCreated, listing)
}

// UpdateListing changes a listing owned by the signed-in user.
func (h *Handlers) UpdateListing(c echo.Context) error {
	listing, err := h.ownedListing(c)
	if err != nil || listing == nil {
		return err
	}

	var req ListingUpdate
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return jsonError(c, http.StatusBadRequest, "quantity must be positive")
		}
		listing.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		if unit := strings.TrimSpace(*req.Unit); unit != "" {
			listing.Unit = unit
		}
	}
	if req.PricePerUnit != nil {
		if *req.PricePerUnit <= 0 {
			return jsonError(c, http.StatusBadRequest, "price must be positive")
		}
		listing.PricePerUnit = *req.PricePerUnit
	}
	if req.Location != nil {
		listing.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		if utf8.RuneCountInString(*req.Description) > maxDescriptionLength {
			return jsonError(c, http.StatusBadRequest, "description is too long")
		}
		listing.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		if !models.ValidListingStatus(*req.Status) {
			return jsonError(c, http.StatusBadRequest, "invalid status")
		}
		listing.Status = *req.Status
	}

	if err := h.repo.UpdateListing(c.Request().Context(), listing); err != nil {
		return h.storeError(c, err, "listing")
	}
	return c.JSON(http.StatusOK, listing)
}

// DeleteListing removes a listing owned by the signed-in user.
func (h *Handlers) DeleteListing(c echo.Context) error {
	listing, err := h.ownedListing(c)
	if err != nil || listing == nil {
		return err
	}
	if err := h.repo.DeleteListing(c.Request().Context(), listing.ID); err != nil {
		return h.storeError(c, err, "listing")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListInquiries returns the inquiries of a listing to its seller.
func (h *Handlers) ListInquiries(c echo.Context) error {
	listing, err := h.ownedListing(c)
	if err != nil || listing == nil {
		return err
	}
	inquiries, err := h.repo.ListInquiries(c.Request().Context(), listing.ID)
	if err != nil {
		return h.storeError(c, err, "inquiries")
	}
	return c.JSON(http.StatusOK, inquiries)
}

// CreateInquiry stores a buyer's message and notifies the seller by e-mail
// when mail is configured.
func (h *Handlers) CreateInquiry(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid listing id")
	}

	var req InquiryRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return jsonError(c, http.StatusBadRequest, "message is required")
	}
	if utf8.RuneCountInString(req.Message) > maxInquiryLength {
		return jsonError(c, http.StatusBadRequest, "message is too long")
	}

	ctx := c.Request().Context()
	listing, err := h.repo.GetListing(ctx, id)
	if err != nil {
		return h.storeError(c, err, "listing")
	}
	if listing.SellerID == user.ID {
		return jsonError(c, http.StatusForbidden, "cannot inquire on your own listing")
	}
	if listing.Status != models.ListingActive {
		return jsonError(c, http.StatusConflict, "listing is not active")
	}

	inquiry := &models.Inquiry{ListingID: listing.ID, BuyerID: user.ID, Message: req.Message}
	if err := h.repo.CreateInquiry(ctx, inquiry); err != nil {
		return h.storeError(c, err, "inquiry")
	}

	if h.mail != nil {
		h.notify.Go(func() {
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
			defer cancel()
			h.notifySeller(nctx, listing, user, inquiry)
		})
	}
	return c.JSON(http.StatusCreated, inquiry)
}

// Wait blocks until pending seller notifications are sent.
func (h *Handlers) Wait() {
	h.notify.Wait()
}

func (h *Handlers) notifySeller(ctx context.Context, listing *models.Listing, buyer *models.User, inquiry *models.Inquiry) {
	log := h.logger.With("listing_id", listing.ID, "inquiry_id", inquiry.ID)

	profile, err := h.repo.GetProfile(ctx, listing.SellerID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && profile.Email == "") {
		log.Debug("seller has no e-mail address, skipping notification")
		return
	}
	if err != nil {
		log.Warn("failed to load seller profile", "error", err)
		return
	}
	crop, err := h.repo.GetCrop(ctx, listing.CropID)
	if err != nil {
		log.Warn("failed to load crop", "error", err)
		return
	}

	err = h.mail.NotifyInquiry(ctx, email.InquiryNotice{
		To:        profile.Email,
		Language:  profile.LanguageCode(),
		Buyer:     buyer.WebAuthnDisplayName(),
		Crop:      crop.Names,
		Message:   inquiry.Message,
		ListingID: listing.ID,
	})
	if err != nil {
		log.Error("failed to send inquiry notification", "error", err)
		return
	}
	log.Info("inquiry notification sent")
}

// ownedListing loads the listing in the id parameter and checks that the
// signed-in user sells it. A nil listing with a nil error means the
// response has been written.
func (h *Handlers) ownedListing(c echo.Context) (*models.Listing, error) {
	user := currentUser(c)
	if user == nil {
		return nil, jsonError(c, http.StatusUnauthorized, "not authenticated")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return nil, jsonError(c, http.StatusBadRequest, "invalid listing id")
	}
	listing, err := h.repo.GetListing(c.Request().Context(), id)
	if err != nil {
		return nil, h.storeError(c, err, "listing")
	}
	if listing.SellerID != user.ID {
		return nil, jsonError(c, http.StatusForbidden, "not your listing")
	}
	return listing, nil
}
