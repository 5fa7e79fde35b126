// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/sse"
	"github.com/labstack/echo/v4"
)

// PriceEventName is the SSE event name of new market prices.
const PriceEventName = "price"

// PriceRequest is the request body of POST /api/market-prices.
type PriceRequest struct {
	CropID     int64  `json:"crop_id"`
	Market     string `json:"market"`
	State      string `json:"state"`
	MinPrice   int64  `json:"min_price"`
	MaxPrice   int64  `json:"max_price"`
	ModalPrice int64  `json:"modal_price"`
	Unit       string `json:"unit"`        // defaults to the crop's unit
	RecordedOn string `json:"recorded_on"` // YYYY-MM-DD, defaults to today
}

// PriceEvent is the payload of a price event.
type PriceEvent struct {
	*models.MarketPrice
	CropNames locale.Names `json:"crop_names"`
}

// PriceTopic is the hub topic carrying prices of one crop.
func PriceTopic(cropID int64) string {
	return "crop:" + strconv.FormatInt(cropID, 10)
}

func (req *PriceRequest) validate() error {
	req.Market = strings.TrimSpace(req.Market)
	req.State = strings.TrimSpace(req.State)
	req.Unit = strings.TrimSpace(req.Unit)
	switch {
	case req.Market == "":
		return errors.New("market is required")
	case req.MinPrice <= 0:
		return errors.New("prices must be positive")
	case req.MinPrice > req.ModalPrice || req.ModalPrice > req.MaxPrice:
		return errors.New("prices must satisfy min <= modal <= max")
	}
	if req.RecordedOn == "" {
		req.RecordedOn = time.Now().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, req.RecordedOn); err != nil {
		return errors.New("recorded_on must be a YYYY-MM-DD date")
	}
	return nil
}

// ListMarketPrices returns recorded prices filtered by crop_id and state.
func (h *Handlers) ListMarketPrices(c echo.Context) error {
	var f models.PriceFilter
	var ok bool
	if f.CropID, ok = queryID(c, "crop_id"); !ok {
		return jsonError(c, http.StatusBadRequest, "invalid crop_id")
	}
	if f.Limit, ok = queryInt(c, "limit"); !ok {
		return jsonError(c, http.StatusBadRequest, "invalid limit")
	}
	f.State = c.QueryParam("state")

	prices, err := h.repo.ListMarketPrices(c.Request().Context(), f)
	if err != nil {
		return h.storeError(c, err, "market prices")
	}
	return c.JSON(http.StatusOK, prices)
}

// CreateMarketPrice records a price and pushes it to stream subscribers.
func (h *Handlers) CreateMarketPrice(c echo.Context) error {
	if currentUser(c) == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}

	var req PriceRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if err := req.validate(); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	crop, err := h.repo.GetCrop(ctx, req.CropID)
	if errors.Is(err, repository.ErrNotFound) {
		return jsonError(c, http.StatusBadRequest, "unknown crop")
	}
	if err != nil {
		return h.storeError(c, err, "crop")
	}

	price := &models.MarketPrice{
		CropID:     crop.ID,
		Market:     req.Market,
		State:      req.State,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		ModalPrice: req.ModalPrice,
		Unit:       req.Unit,
		RecordedOn: req.RecordedOn,
	}
	if price.Unit == "" {
		price.Unit = crop.Unit
	}
	if err := h.repo.CreateMarketPrice(ctx, price); err != nil {
		return h.storeError(c, err, "market price")
	}

	event, err := sse.FormatJSONEvent(PriceEventName, PriceEvent{MarketPrice: price, CropNames: crop.Names})
	if err != nil {
		h.logger.Error("failed to encode price event", "error", err)
	} else {
		n := h.hub.Publish(PriceTopic(crop.ID), event)
		h.logger.Debug("price event published", "crop_id", crop.ID, "subscribers", n)
	}
	return c.JSON(http.StatusCreated, price)
}
