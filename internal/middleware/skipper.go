// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware contains the locale resolution chain. It is plain
// net/http middleware so it can sit in front of any router.
package middleware

import (
	"net/http"
	"strings"
)

// Skipper reports whether a request bypasses locale routing.
type Skipper func(r *http.Request) bool

var skippedPrefixes = []string{"/static/", "/api/"}

// DefaultSkipper skips static assets, the health check and the JSON API.
func DefaultSkipper(r *http.Request) bool {
	path := r.URL.Path
	if path == "/health" || path == "/api" || path == "/favicon.ico" || path == "/robots.txt" {
		return true
	}
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
