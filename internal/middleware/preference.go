// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
)

// PreferenceConfig configures PreferredLocale.
type PreferenceConfig struct {
	Identities  locale.IdentityResolver
	Preferences locale.PreferenceStore
	Logger      *slog.Logger
	Skipper     Skipper // defaults to DefaultSkipper
}

// PreferredLocale forces the stored language preference of a signed-in user
// onto the NEXT_LOCALE request cookie before the locale router sees the
// request.
//
// Anonymous requests, failed lookups, and missing or unsupported preferences
// pass through untouched. The incoming request is never modified; a rewrite
// produces a clone with a new Cookie header.
func PreferredLocale(cfg PreferenceConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Skipper == nil {
		cfg.Skipper = DefaultSkipper
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skipper(r) {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, withPreferredLocale(r, cfg))
		})
	}
}

func withPreferredLocale(r *http.Request, cfg PreferenceConfig) *http.Request {
	identity, ok := cfg.Identities.ResolveIdentity(r)
	if !ok {
		return r
	}

	ctx := r.Context()
	pref, err := cfg.Preferences.GetPreference(ctx, identity)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, repository.ErrNotFound) {
			level = slog.LevelDebug
		}
		cfg.Logger.LogAttrs(ctx, level, "preferred locale lookup failed",
			slog.String("identity", identity),
			slog.Any("error", err),
		)
		return r
	}

	code := pref.LanguageCode
	if !locale.IsSupported(code) {
		if code != "" {
			cfg.Logger.LogAttrs(ctx, slog.LevelDebug, "ignoring unsupported preferred locale",
				slog.String("identity", identity),
				slog.String("locale", code),
			)
		}
		return r
	}

	// HTTP/2 clients may split cookies over several header lines.
	header := strings.Join(r.Header.Values("Cookie"), "; ")
	rewritten := locale.RewriteCookie(header, code)
	if rewritten == header {
		return r
	}

	clone := r.Clone(ctx)
	clone.Header.Set("Cookie", rewritten)
	return clone
}
