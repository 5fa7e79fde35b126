// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"golang.org/x/text/language"
)

// DefaultCookieMaxAge keeps the locale cookie for a year.
const DefaultCookieMaxAge = 365 * 24 * 60 * 60

// RouterConfig configures LocaleRouter.
type RouterConfig struct { //nolint:govet // fieldalignment not critical
	Skipper        Skipper // defaults to DefaultSkipper
	CookieMaxAge   int     // defaults to DefaultCookieMaxAge
	PrefixRedirect bool    // redirect unprefixed pages to /<locale>/... for non-default locales
	Secure         bool    // mark the locale cookie Secure
}

// LocaleRouter resolves the request locale from the path prefix, the
// NEXT_LOCALE cookie or Accept-Language, in that order.
//
// Only non-default locales carry a prefix. /hi/prices is served as /prices
// in Hindi; /en/prices redirects to /prices. The resolved locale is stored
// with i18n.WithLocale and echoed in Content-Language.
func LocaleRouter(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.Skipper == nil {
		cfg.Skipper = DefaultSkipper
	}
	if cfg.CookieMaxAge == 0 {
		cfg.CookieMaxAge = DefaultCookieMaxAge
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skipper(r) {
				next.ServeHTTP(w, withLocale(w, r, negotiate(r)))
				return
			}

			if code, rest, ok := splitPrefix(r.URL.Path); ok {
				if code == locale.Default {
					setLocaleCookie(w, cfg, code)
					http.Redirect(w, r, withQuery(rest, r), http.StatusTemporaryRedirect)
					return
				}
				if current, _ := cookieLocale(r); current != code {
					setLocaleCookie(w, cfg, code)
				}
				next.ServeHTTP(w, withLocale(w, stripPrefix(r, rest), code))
				return
			}

			code := negotiate(r)
			if code != locale.Default && cfg.PrefixRedirect && isPageRequest(r) {
				http.Redirect(w, r, withQuery(localizedPath(code, r.URL.Path), r), http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, withLocale(w, r, code))
		})
	}
}

// LocalizedPath returns path as seen by a visitor browsing in code.
func LocalizedPath(code, path string) string {
	if code == locale.Default || !locale.IsSupported(code) {
		return path
	}
	return localizedPath(code, path)
}

func localizedPath(code, path string) string {
	if path == "/" || path == "" {
		return "/" + code
	}
	return "/" + code + path
}

// splitPrefix extracts a supported locale from the first path segment.
func splitPrefix(path string) (code, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	code, rest, found := strings.Cut(trimmed, "/")
	if !locale.IsSupported(code) {
		return "", "", false
	}
	if !found {
		return code, "/", true
	}
	return code, "/" + rest, true
}

func negotiate(r *http.Request) string {
	if code, ok := cookieLocale(r); ok {
		return code
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return i18n.MatchLanguage(accept).String()
	}
	return locale.Default
}

func cookieLocale(r *http.Request) (string, bool) {
	c, err := r.Cookie(locale.CookieName)
	if err != nil || !locale.IsSupported(c.Value) {
		return "", false
	}
	return c.Value, true
}

func isPageRequest(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

func stripPrefix(r *http.Request, rest string) *http.Request {
	u := *r.URL
	u.Path = rest
	u.RawPath = ""
	stripped := r.WithContext(r.Context())
	stripped.URL = &u
	return stripped
}

func withLocale(w http.ResponseWriter, r *http.Request, code string) *http.Request {
	w.Header().Set("Content-Language", code)
	return r.WithContext(i18n.WithLocale(r.Context(), language.Make(code)))
}

func withQuery(path string, r *http.Request) string {
	if r.URL.RawQuery == "" {
		return path
	}
	return path + "?" + r.URL.RawQuery
}

func setLocaleCookie(w http.ResponseWriter, cfg RouterConfig, code string) {
	http.SetCookie(w, LocaleCookie(code, cfg.CookieMaxAge, cfg.Secure))
}

// LocaleCookie builds the NEXT_LOCALE cookie. It stays readable from
// scripts so the language switcher can inspect it.
func LocaleCookie(code string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     locale.CookieName,
		Value:    code,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
