// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/sse"
	"github.com/labstack/echo/v4"
)

const reconnectDelay = 5 * time.Second

// PriceStream streams new market prices as Server-Sent Events. The optional
// crop_id query parameter limits the stream to one crop.
func (h *Handlers) PriceStream(c echo.Context) error {
	cropID, ok := queryID(c, "crop_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid crop_id")
	}
	topic := ""
	if cropID > 0 {
		topic = PriceTopic(cropID)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	sub := h.hub.Subscribe(topic)
	defer h.hub.Unsubscribe(sub)

	if _, err := w.Write([]byte(sse.FormatRetry(int(reconnectDelay.Milliseconds())) + sse.FormatEvent("connected", "ok"))); err != nil {
		return nil
	}
	w.Flush()

	ticker := time.NewTicker(h.beat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Write([]byte(sse.Heartbeat)); err != nil {
				return nil // Client disconnected
			}
			w.Flush()
		case msg, open := <-sub.Events():
			if !open {
				return nil
			}
			if _, err := w.Write([]byte(msg)); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
