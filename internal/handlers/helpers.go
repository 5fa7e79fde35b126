// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"fmt"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render renders a templ component with the given status code. Pages are
// localized from the cookie and Accept-Language, so caches must key on both.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := component.Render(c.Request().Context(), buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	header := c.Response().Header()
	header.Add(echo.HeaderVary, "Cookie")
	header.Add(echo.HeaderVary, "Accept-Language")
	return c.HTML(statusCode, buf.String())
}
