// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"github.com/labstack/echo/v4"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 -]{6,18}[0-9]$`)

// ProfileRequest is the request body of PUT /api/profile.
type ProfileRequest struct { //nolint:govet // fieldalignment not critical
	Names         locale.Names `json:"names"`
	Phone         string       `json:"phone"`
	Email         string       `json:"email"`
	Village       string       `json:"village"`
	District      string       `json:"district"`
	State         string       `json:"state"`
	FarmSizeAcres float64      `json:"farm_size_acres"`
	Language      *string      `json:"language"` // nil keeps the stored preference
}

// ProfileResponse is a profile with its language preference.
type ProfileResponse struct {
	*models.Profile
	Language string `json:"language"`
}

func profileResponse(p *models.Profile) ProfileResponse {
	return ProfileResponse{Profile: p, Language: p.LanguageCode()}
}

// validate trims the request and checks every field.
func (req *ProfileRequest) validate() error {
	req.Names = req.Names.Clean()
	if err := req.Names.Validate(); err != nil {
		return err
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
		return errors.New("invalid phone number")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email != "" {
		addr, err := mail.ParseAddress(req.Email)
		if err != nil || addr.Address != req.Email {
			return errors.New("invalid email address")
		}
	}
	if req.FarmSizeAcres < 0 {
		return errors.New("farm size must not be negative")
	}
	if req.Language != nil && *req.Language != "" && !locale.IsSupported(*req.Language) {
		return locale.ErrUnsupportedLocale
	}
	req.Village = strings.TrimSpace(req.Village)
	req.District = strings.TrimSpace(req.District)
	req.State = strings.TrimSpace(req.State)
	return nil
}

// GetProfile returns the profile of the signed-in user.
func (h *Handlers) GetProfile(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}
	profile, err := h.repo.GetProfile(c.Request().Context(), user.ID)
	if err != nil {
		return h.storeError(c, err, "profile")
	}
	return c.JSON(http.StatusOK, profileResponse(profile))
}

// UpdateProfile creates or replaces the profile of the signed-in user.
func (h *Handlers) UpdateProfile(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if err := req.validate(); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	profile := &models.Profile{UserID: user.ID}
	existing, err := h.repo.GetProfile(ctx, user.ID)
	switch {
	case err == nil:
		profile.Language = existing.Language
	case !errors.Is(err, repository.ErrNotFound):
		return h.storeError(c, err, "profile")
	}

	profile.Names = req.Names
	profile.Phone = req.Phone
	profile.Email = req.Email
	profile.Village = req.Village
	profile.District = req.District
	profile.State = req.State
	profile.FarmSizeAcres = req.FarmSizeAcres
	if req.Language != nil {
		profile.SetLanguage(*req.Language)
	}

	if err := h.repo.UpsertProfile(ctx, profile); err != nil {
		return h.storeError(c, err, "profile")
	}
	return c.JSON(http.StatusOK, profileResponse(profile))
}
