// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"net/http"

	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/middleware"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/templates"
	"github.com/labstack/echo/v4"
)

const (
	homeListings        = 6
	marketplaceListings = 50
)

// Home renders the home page with the newest active listings.
func (h *Handlers) Home(c echo.Context) error {
	ctx := c.Request().Context()
	listings, err := h.repo.ListListings(ctx, models.ListingFilter{
		Status: models.ListingActive,
		Limit:  homeListings,
	})
	if err != nil {
		return err
	}
	views, err := h.listingViews(ctx, listings)
	if err != nil {
		return err
	}
	return Render(c, http.StatusOK, templates.Home(views))
}

// Marketplace renders active listings, filtered by the crop query parameter.
func (h *Handlers) Marketplace(c echo.Context) error {
	ctx := c.Request().Context()
	cropID, ok := queryID(c, "crop")
	if !ok {
		cropID = 0
	}

	listings, err := h.repo.ListListings(ctx, models.ListingFilter{
		CropID: cropID,
		Status: models.ListingActive,
		Limit:  marketplaceListings,
	})
	if err != nil {
		return err
	}
	crops, err := h.repo.ListCrops(ctx)
	if err != nil {
		return err
	}
	views, err := h.listingViews(ctx, listings)
	if err != nil {
		return err
	}
	return Render(c, http.StatusOK, templates.Marketplace(views, crops, cropID))
}

// Listing renders a single listing.
func (h *Handlers) Listing(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.ErrNotFound
	}
	ctx := c.Request().Context()
	listing, err := h.repo.GetListing(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	views, err := h.listingViews(ctx, []models.Listing{*listing})
	if err != nil {
		return err
	}

	user := currentUser(c)
	canInquire := user != nil && user.ID != listing.SellerID && listing.Status == models.ListingActive
	return Render(c, http.StatusOK, templates.Listing(views[0], canInquire))
}

// Prices renders the latest market prices.
func (h *Handlers) Prices(c echo.Context) error {
	ctx := c.Request().Context()
	prices, err := h.repo.ListMarketPrices(ctx, models.PriceFilter{})
	if err != nil {
		return err
	}
	names, err := h.cropNames(ctx)
	if err != nil {
		return err
	}

	code := i18n.GetLocale(ctx)
	views := make([]templates.PriceView, len(prices))
	for i := range prices {
		views[i] = templates.PriceView{Price: prices[i], CropName: names[prices[i].CropID].Get(code)}
	}
	return Render(c, http.StatusOK, templates.Prices(views))
}

// ProfilePage renders the profile form of the signed-in user.
func (h *Handlers) ProfilePage(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return echo.ErrUnauthorized
	}
	profile, err := h.repo.GetProfile(c.Request().Context(), user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		profile = &models.Profile{UserID: user.ID}
	} else if err != nil {
		return err
	}
	return Render(c, http.StatusOK, templates.Profile(profile, c.QueryParam("saved") != ""))
}

// SetLanguage stores the language chosen in the switcher, makes it the
// routing locale and redirects to the profile page in that language.
// An empty language clears the stored preference.
func (h *Handlers) SetLanguage(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return echo.ErrUnauthorized
	}
	code := c.FormValue("language")
	if code != "" && !locale.IsSupported(code) {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported language")
	}
	if err := h.repo.SetLanguage(c.Request().Context(), user.ID, code); err != nil {
		return err
	}

	target := code
	if target == "" {
		target = i18n.GetLocale(c.Request().Context())
	}
	c.SetCookie(middleware.LocaleCookie(target, h.maxAge, h.secure))
	h.logger.Info("language preference saved", "user_id", user.ID, "language", code)

	return c.Redirect(http.StatusSeeOther, middleware.LocalizedPath(target, "/profile")+"?saved=1")
}

// listingViews resolves crop and seller names for display.
func (h *Handlers) listingViews(ctx context.Context, listings []models.Listing) ([]templates.ListingView, error) {
	names, err := h.cropNames(ctx)
	if err != nil {
		return nil, err
	}

	code := i18n.GetLocale(ctx)
	sellers := make(map[int64]string)
	views := make([]templates.ListingView, len(listings))
	for i := range listings {
		l := listings[i]
		seller, ok := sellers[l.SellerID]
		if !ok {
			u, err := h.repo.GetUserByID(ctx, l.SellerID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			if u != nil {
				seller = u.WebAuthnDisplayName()
			}
			sellers[l.SellerID] = seller
		}
		views[i] = templates.ListingView{Listing: l, CropName: names[l.CropID].Get(code), Seller: seller}
	}
	return views, nil
}

func (h *Handlers) cropNames(ctx context.Context) (map[int64]locale.Names, error) {
	crops, err := h.repo.ListCrops(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]locale.Names, len(crops))
	for _, crop := range crops {
		names[crop.ID] = crop.Names
	}
	return names, nil
}
