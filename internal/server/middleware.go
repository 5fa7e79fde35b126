// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/appcontext"
	"codeberg.org/kisanbazaar/marketplace/internal/config"
	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	localemw "codeberg.org/kisanbazaar/marketplace/internal/middleware"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const priceStreamPath = "/api/market-prices/stream"

func setupMiddleware(e *echo.Echo, cfg *config.Config, assets *appcontext.Assets, sessions *session.Manager, repo *repository.Repository) {
	// Pre-routing: the locale chain may strip a /<locale> prefix, so it has
	// to run before the router picks a route.
	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
	}))
	e.Pre(localeMiddleware(localeChain(cfg, sessions, repo)))

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == priceStreamPath
		},
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
	e.Use(staticCacheHeaders())
	e.Use(csrfMiddleware(cfg))
	e.Use(csrfToContext())
	e.Use(customContext(assets))
	e.Use(AuthMiddleware(sessions, repo))
}

// localeChain composes the preference override in front of the locale
// router: PreferredLocale(LocaleRouter(next)).
func localeChain(cfg *config.Config, sessions *session.Manager, prefs locale.PreferenceStore) func(http.Handler) http.Handler {
	preferred := localemw.PreferredLocale(localemw.PreferenceConfig{
		Identities:  sessions,
		Preferences: prefs,
		Logger:      slog.Default(),
	})
	router := localemw.LocaleRouter(localemw.RouterConfig{
		CookieMaxAge:   cfg.Locale.CookieMaxAge,
		PrefixRedirect: cfg.Locale.PrefixRedirect,
		Secure:         isSecure(cfg),
	})
	return func(next http.Handler) http.Handler {
		return preferred(router(next))
	}
}

// localeMiddleware runs net/http middleware as echo pre-middleware. Echo
// routes on the request it started with, so a rewritten path is copied
// back onto it before routing continues.
func localeMiddleware(chain func(http.Handler) http.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var err error
			original := c.Request()
			chain(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				original.URL.Path = r.URL.Path
				original.URL.RawPath = r.URL.RawPath
				c.SetRequest(r)
				err = next(c)
			})).ServeHTTP(c.Response(), original)
			return err
		}
	}
}

// csrfMiddleware configures CSRF protection. The token is read from the
// form field or, for fetch calls from app.js, the X-CSRF-Token header.
func csrfMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:csrf_token,header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSecure:   isSecure(cfg),
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

// csrfToContext copies the CSRF token to the request context.
func csrfToContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := c.Get("csrf").(string); ok {
				ctx := context.WithValue(c.Request().Context(), appcontext.CSRFToken{}, token)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// AuthMiddleware loads the signed-in user from the session cookie. Invalid
// sessions and deleted users are treated as anonymous.
func AuthMiddleware(sessions *session.Manager, repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := appcontext.From(c)
			if cc == nil {
				return next(c)
			}

			data, err := sessions.Parse(c.Request())
			if err != nil || data == nil {
				return next(c)
			}

			ctx := c.Request().Context()
			user, err := repo.GetUserByID(ctx, data.UserID)
			if err != nil {
				slog.Debug("session user not found", "user_id", data.UserID, "error", err)
				return next(c)
			}

			cc.User = user
			c.SetRequest(c.Request().WithContext(appcontext.WithUser(ctx, user)))
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests: pages redirect to the login page
// in the request locale, API calls get a 401 JSON error.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cc := appcontext.From(c); cc != nil && cc.IsAuthenticated() {
				return next(c)
			}
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			}
			code := i18n.GetLocale(c.Request().Context())
			return c.Redirect(http.StatusSeeOther, localemw.LocalizedPath(code, "/auth/login"))
		}
	}
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.String("locale", i18n.GetLocale(c.Request().Context())),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

// staticCacheHeaders adds cache headers for static assets.
func staticCacheHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if strings.HasPrefix(path, "/static/") {
				if isHashedAsset(path) {
					// Hashed assets get immutable caching
					c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
				} else if strings.Contains(path, ".dev.") {
					// Dev assets never cache
					c.Response().Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
				}
			}
			return next(c)
		}
	}
}

// isHashedAsset checks if the path contains a hash pattern like .abc12345.
func isHashedAsset(path string) bool {
	// Match pattern: name.HASH.ext where HASH is 8 hex characters
	parts := strings.Split(path, ".")
	if len(parts) >= 3 {
		hash := parts[len(parts)-2]
		if len(hash) == 8 {
			for _, c := range hash {
				isDigit := c >= '0' && c <= '9'
				isHexLetter := c >= 'a' && c <= 'f'
				if !isDigit && !isHexLetter {
					return false
				}
			}
			return true
		}
	}
	return false
}
