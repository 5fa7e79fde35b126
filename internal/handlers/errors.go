// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/middleware"
	"codeberg.org/kisanbazaar/marketplace/internal/templates"
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// ErrorHandler returns an echo.HTTPErrorHandler. API requests receive the
// JSON error envelope, page requests a localized error page. Unauthorized
// page requests are sent to the login page.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error("request failed", "error", err, "method", c.Request().Method, "path", c.Request().URL.Path)
			message = http.StatusText(code)
		}

		var respErr error
		switch {
		case strings.HasPrefix(c.Request().URL.Path, "/api/"):
			respErr = jsonError(c, code, strings.ToLower(message))
		case c.Request().Method == http.MethodHead:
			respErr = c.NoContent(code)
		case code == http.StatusUnauthorized:
			respErr = c.Redirect(http.StatusSeeOther, loginPath(c))
		default:
			respErr = Render(c, code, errorPage(code, message))
		}
		if respErr != nil {
			logger.Error("failed to write error response", "error", respErr)
		}
	}
}

func errorPage(code int, message string) templ.Component {
	switch {
	case code == http.StatusNotFound || code == http.StatusMethodNotAllowed:
		return templates.NotFound()
	case code >= http.StatusInternalServerError:
		return templates.ServerError()
	default:
		return templates.Error(code, http.StatusText(code), message)
	}
}

func loginPath(c echo.Context) string {
	return middleware.LocalizedPath(templates.Locale(c.Request().Context()), "/auth/login")
}
