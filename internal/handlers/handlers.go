// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/appcontext"
	"codeberg.org/kisanbazaar/marketplace/internal/middleware"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/services/email"
	"codeberg.org/kisanbazaar/marketplace/internal/sse"
	"github.com/labstack/echo/v4"
)

// DefaultHeartbeat is the interval of keep-alive comments on event streams.
const DefaultHeartbeat = 30 * time.Second

// Config holds the optional collaborators of Handlers.
type Config struct { //nolint:govet // fieldalignment not critical
	Hub           *sse.Hub
	Mail          *email.Service // nil disables inquiry notifications
	Logger        *slog.Logger
	SecureCookies bool
	CookieMaxAge  int // NEXT_LOCALE lifetime in seconds; zero uses the router default
	Heartbeat     time.Duration
}

// Handlers contains the page and JSON API handlers.
type Handlers struct {
	repo   *repository.Repository
	hub    *sse.Hub
	mail   *email.Service
	logger *slog.Logger
	secure bool
	maxAge int
	beat   time.Duration
	notify sync.WaitGroup
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, cfg Config) *Handlers {
	h := &Handlers{
		repo:   repo,
		hub:    cfg.Hub,
		mail:   cfg.Mail,
		logger: cfg.Logger,
		secure: cfg.SecureCookies,
		maxAge: cfg.CookieMaxAge,
		beat:   cfg.Heartbeat,
	}
	if h.hub == nil {
		h.hub = sse.NewHub()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxAge <= 0 {
		h.maxAge = middleware.DefaultCookieMaxAge
	}
	if h.beat <= 0 {
		h.beat = DefaultHeartbeat
	}
	return h
}

// Hub returns the hub new market prices are published to.
func (h *Handlers) Hub() *sse.Hub {
	return h.hub
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if h.repo != nil {
		if err := h.repo.Ping(c.Request().Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// jsonError writes the error envelope used by every API endpoint.
func jsonError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

// currentUser returns the signed-in user, or nil.
func currentUser(c echo.Context) *models.User {
	if cc := appcontext.From(c); cc != nil && cc.User != nil {
		return cc.User
	}
	return appcontext.UserFrom(c.Request().Context())
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryID parses an optional positive integer query parameter. A missing
// parameter yields zero.
func queryID(c echo.Context, name string) (int64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c echo.Context, name string) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil && n >= 0
}

// storeError maps repository errors to API responses.
func (h *Handlers) storeError(c echo.Context, err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, what+" not found")
	}
	h.logger.Error("database error", "error", err, "path", c.Path())
	return jsonError(c, http.StatusInternalServerError, "database error")
}
