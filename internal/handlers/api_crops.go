// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"github.com/labstack/echo/v4"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CropResponse is a crop with its name resolved for the request locale.
type CropResponse struct {
	*models.Crop
	Name string `json:"name"`
}

// CropRequest is the request body of POST /api/crops.
type CropRequest struct {
	Slug     string       `json:"slug"`
	Names    locale.Names `json:"names"`
	Category string       `json:"category"`
	Unit     string       `json:"unit"`
}

func cropResponse(c *models.Crop, code string) CropResponse {
	return CropResponse{Crop: c, Name: c.Name(code)}
}

// ListCrops returns the crop catalogue.
func (h *Handlers) ListCrops(c echo.Context) error {
	crops, err := h.repo.ListCrops(c.Request().Context())
	if err != nil {
		return h.storeError(c, err, "crops")
	}

	code := i18n.GetLocale(c.Request().Context())
	out := make([]CropResponse, len(crops))
	for i := range crops {
		out[i] = cropResponse(&crops[i], code)
	}
	return c.JSON(http.StatusOK, out)
}

// GetCrop returns a single crop.
func (h *Handlers) GetCrop(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid crop id")
	}
	crop, err := h.repo.GetCrop(c.Request().Context(), id)
	if err != nil {
		return h.storeError(c, err, "crop")
	}
	return c.JSON(http.StatusOK, cropResponse(crop, i18n.GetLocale(c.Request().Context())))
}

// CreateCrop adds a crop to the catalogue.
func (h *Handlers) CreateCrop(c echo.Context) error {
	if currentUser(c) == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}

	var req CropRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if !slugPattern.MatchString(req.Slug) {
		return jsonError(c, http.StatusBadRequest, "slug must be lowercase letters, digits and dashes")
	}
	req.Names = req.Names.Clean()
	if err := req.Names.Validate(); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	if req.Names[locale.English] == "" {
		return jsonError(c, http.StatusBadRequest, "english name is required")
	}
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Unit == "" {
		return jsonError(c, http.StatusBadRequest, "unit is required")
	}

	ctx := c.Request().Context()
	_, err := h.repo.GetCropBySlug(ctx, req.Slug)
	switch {
	case err == nil:
		return jsonError(c, http.StatusConflict, "slug already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return h.storeError(c, err, "crop")
	}

	crop := &models.Crop{
		Slug:     req.Slug,
		Names:    req.Names,
		Category: strings.TrimSpace(req.Category),
		Unit:     req.Unit,
	}
	if err := h.repo.CreateCrop(ctx, crop); err != nil {
		return h.storeError(c, err, "crop")
	}
	return c.JSON(http.StatusCreated, cropResponse(crop, i18n.GetLocale(ctx)))
}
