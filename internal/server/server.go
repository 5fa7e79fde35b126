// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/assets"
	"codeberg.org/kisanbazaar/marketplace/internal/config"
	"codeberg.org/kisanbazaar/marketplace/internal/database"
	"codeberg.org/kisanbazaar/marketplace/internal/handlers"
	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/services/email"
	"codeberg.org/kisanbazaar/marketplace/internal/services/session"
	"codeberg.org/kisanbazaar/marketplace/internal/services/webauthn"
	"codeberg.org/kisanbazaar/marketplace/internal/sse"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Server bundles the echo instance with the services it owns.
type Server struct {
	Echo     *echo.Echo
	handlers *handlers.Handlers
	webauthn *webauthn.Service
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	srv, err := New(cfg, repository.New(db))
	if err != nil {
		return err
	}
	defer srv.Close()

	return startWithGracefulShutdown(ctx, srv, cfg)
}

// New wires services, middleware and routes into a ready echo instance.
func New(cfg *config.Config, repo *repository.Repository) (*Server, error) {
	secure := isSecure(cfg)

	sessions, err := session.NewManager(&cfg.Session, secure)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	wa, err := webauthn.NewService(&cfg.WebAuthn)
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn service: %w", err)
	}

	var mail *email.Service
	if cfg.SMTP.Enabled() {
		mail, err = email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
		if err != nil {
			wa.Close()
			return nil, fmt.Errorf("failed to create mail service: %w", err)
		}
		slog.Info("inquiry notifications enabled", "smtp_host", cfg.SMTP.Host)
	}

	h := handlers.New(repo, handlers.Config{
		Hub:           sse.NewHub(),
		Mail:          mail,
		Logger:        slog.Default(),
		SecureCookies: secure,
		CookieMaxAge:  cfg.Locale.CookieMaxAge,
	})
	auth := handlers.NewAuth(repo, wa, sessions, slog.Default())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler(slog.Default())

	setupMiddleware(e, cfg, findAssets(), sessions, repo)
	setupRoutes(e, h, auth)

	// Shutdown waits for idle connections; end open price streams first.
	// Both plain and TLS listeners are served by e.Server.
	e.Server.RegisterOnShutdown(func() { closeStreams(h.Hub()) })

	return &Server{Echo: e, handlers: h, webauthn: wa}, nil
}

// Close releases background resources. In-flight notifications are
// allowed to finish.
func (s *Server) Close() {
	s.handlers.Wait()
	s.webauthn.Close()
}

// closeStreams disconnects every price stream subscriber.
func closeStreams(hub *sse.Hub) {
	slog.Info("closing event streams",
		"clients", hub.ClientCount(),
		"dropped_events", hub.Dropped(),
	)
	hub.Close()
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers, auth *handlers.AuthHandlers) {
	requireAuth := RequireAuth()

	// Static files
	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", assets.FileServer())))

	e.GET("/health", h.Health)

	// Pages
	e.GET("/", h.Home)
	e.GET("/marketplace", h.Marketplace)
	e.GET("/marketplace/:id", h.Listing)
	e.GET("/prices", h.Prices)
	e.GET("/profile", h.ProfilePage, requireAuth)
	e.POST("/profile/language", h.SetLanguage, requireAuth)

	// Passkeys
	a := e.Group("/auth")
	a.GET("/register", auth.RegisterPage)
	a.POST("/register/begin", auth.RegisterBegin)
	a.POST("/register/finish", auth.RegisterFinish)
	a.GET("/login", auth.LoginPage)
	a.POST("/login/begin", auth.LoginBegin)
	a.POST("/login/finish", auth.LoginFinish)
	a.POST("/logout", auth.Logout)
	a.POST("/credentials/begin", auth.AddCredentialBegin, requireAuth)
	a.POST("/credentials/finish", auth.AddCredentialFinish, requireAuth)

	// JSON API
	api := e.Group("/api")
	api.GET("/profile", h.GetProfile, requireAuth)
	api.PUT("/profile", h.UpdateProfile, requireAuth)
	api.GET("/credentials", auth.ListCredentials, requireAuth)
	api.DELETE("/credentials/:id", auth.DeleteCredential, requireAuth)

	api.GET("/crops", h.ListCrops)
	api.GET("/crops/:id", h.GetCrop)
	api.POST("/crops", h.CreateCrop, requireAuth)

	api.GET("/listings", h.ListListings)
	api.GET("/listings/:id", h.GetListing)
	api.POST("/listings", h.CreateListing, requireAuth)
	api.PUT("/listings/:id", h.UpdateListing, requireAuth)
	api.DELETE("/listings/:id", h.DeleteListing, requireAuth)
	api.GET("/listings/:id/inquiries", h.ListInquiries, requireAuth)
	api.POST("/listings/:id/inquiries", h.CreateInquiry, requireAuth)

	api.GET("/market-prices", h.ListMarketPrices)
	api.POST("/market-prices", h.CreateMarketPrice, requireAuth)
	api.GET("/market-prices/stream", h.PriceStream)
}

func isSecure(cfg *config.Config) bool {
	return strings.HasPrefix(cfg.Server.BaseURL, "https://")
}

func startWithGracefulShutdown(ctx context.Context, srv *Server, cfg *config.Config) error {
	e := srv.Echo

	plan, err := setupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	// Channel for server errors
	errChan := make(chan error, 2)

	// HTTP redirect server for ACME mode
	var httpServer *http.Server

	switch plan.mode {
	case TLSModeOff:
		// Plain HTTP on configured port
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		// HTTPS on :443
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", plan.config); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		// HTTP redirect server on :80
		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           plan.challenge,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP to HTTPS redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeSelfSigned, TLSModeManual:
		// HTTPS on configured port
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, plan.config); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	// Wait for interrupt signal, cancellation or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown main server
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}

	// Shutdown HTTP redirect server if running
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}
