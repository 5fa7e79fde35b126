// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package locale defines the supported locales and the request-level
// contracts used to pick one of them.
package locale

import (
	"context"
	"net/http"
	"slices"

	"golang.org/x/text/language"
)

// Locale codes understood by the application.
const (
	English   = "en"
	Hindi     = "hi"
	Marathi   = "mr"
	Telugu    = "te"
	Tamil     = "ta"
	Kannada   = "kn"
	Malayalam = "ml"
	Punjabi   = "pa"
)

// Default is used whenever no other signal selects a locale.
const Default = English

// CookieName is the routing cookie read by the locale router.
const CookieName = "NEXT_LOCALE"

// supported is ordered; the order is the one shown in language pickers.
var supported = []string{English, Hindi, Marathi, Telugu, Tamil, Kannada, Malayalam, Punjabi}

var nativeNames = map[string]string{
	English:   "English",
	Hindi:     "हिन्दी",
	Marathi:   "मराठी",
	Telugu:    "తెలుగు",
	Tamil:     "தமிழ்",
	Kannada:   "ಕನ್ನಡ",
	Malayalam: "മലയാളം",
	Punjabi:   "ਪੰਜਾਬੀ",
}

// Supported returns the supported locale codes in display order.
// The returned slice is a copy.
func Supported() []string {
	return slices.Clone(supported)
}

// IsSupported reports whether code is one of the supported locales.
// The comparison is exact; "HI" or "hi-IN" are not supported codes.
func IsSupported(code string) bool {
	return slices.Contains(supported, code)
}

// Tags returns the supported locales as language tags, default first.
func Tags() []language.Tag {
	tags := make([]language.Tag, len(supported))
	for i, code := range supported {
		tags[i] = language.MustParse(code)
	}
	return tags
}

// DisplayName returns the native name of a supported locale, or the code
// itself for anything else.
func DisplayName(code string) string {
	if name, ok := nativeNames[code]; ok {
		return name
	}
	return code
}

// Preference is a stored language preference. An empty LanguageCode means
// the user has not chosen one.
type Preference struct {
	LanguageCode string
}

// IdentityResolver maps a request to the identity of its caller.
// Anonymous requests return ok == false; that is not an error.
type IdentityResolver interface {
	ResolveIdentity(r *http.Request) (identity string, ok bool)
}

// PreferenceStore looks up the stored preference for an identity.
type PreferenceStore interface {
	GetPreference(ctx context.Context, identity string) (Preference, error)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(r *http.Request) (string, bool)

// ResolveIdentity calls f(r).
func (f IdentityResolverFunc) ResolveIdentity(r *http.Request) (string, bool) {
	return f(r)
}

// PreferenceStoreFunc adapts a function to PreferenceStore.
type PreferenceStoreFunc func(ctx context.Context, identity string) (Preference, error)

// GetPreference calls f(ctx, identity).
func (f PreferenceStoreFunc) GetPreference(ctx context.Context, identity string) (Preference, error) {
	return f(ctx, identity)
}
