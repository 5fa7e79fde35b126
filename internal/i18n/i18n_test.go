// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"strings"
	"testing"

	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	err := i18n.Init()
	require.NoError(t, err)
}

func TestT(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "Kisan Bazaar", i18n.T(ctx, "app_name"))
}

func TestT_EverySupportedLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	english := i18n.T(i18n.WithLocale(context.Background(), language.English), "nav_marketplace")

	for _, code := range locale.Supported() {
		t.Run(code, func(t *testing.T) {
			ctx := i18n.WithLocale(context.Background(), language.MustParse(code))
			result := i18n.T(ctx, "nav_marketplace")

			assert.NotEqual(t, "nav_marketplace", result)
			if code != locale.English {
				assert.NotEqual(t, english, result)
			}
		})
	}
}

func TestT_Hindi(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.Hindi)

	assert.Equal(t, "किसान बाज़ार", i18n.T(ctx, "app_name"))
}

func TestT_UnknownKey(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	result := i18n.T(ctx, "unknown_key_that_does_not_exist")
	assert.Equal(t, "unknown_key_that_does_not_exist", result)
}

func TestT_NoLocaleContext(t *testing.T) {
	require.NoError(t, i18n.Init())

	assert.Equal(t, "Kisan Bazaar", i18n.T(context.Background(), "app_name"))
}

func TestTData(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	result := i18n.TData(ctx, "email_inquiry_subject", map[string]any{"Crop": "Wheat"})
	assert.Equal(t, "New inquiry for your Wheat listing", result)
}

func TestTPlural(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "1 listing", i18n.TPlural(ctx, "listings_count", 1))
	assert.Equal(t, "5 listings", i18n.TPlural(ctx, "listings_count", 5))
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		expected       string
		acceptLanguage string
	}{
		{"en", "en"},
		{"en", "en-US"},
		{"hi", "hi"},
		{"hi", "hi-IN"},
		{"ta", "ta-IN,ta;q=0.9"},
		{"pa", "pa-Guru-IN"},
		{"en", "fr"},
		{"en", ""},
		{"mr", "mr, en;q=0.9"},
		{"en", "en, kn;q=0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.acceptLanguage, func(t *testing.T) {
			tag := i18n.MatchLanguage(tt.acceptLanguage)
			assert.Equal(t, tt.expected, tag.String())
			assert.True(t, locale.IsSupported(tag.String()))
		})
	}
}

func TestWithLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.Tamil)

	assert.Equal(t, "ta", i18n.GetLocale(ctx))
}

func TestGetLocale_Default(t *testing.T) {
	assert.Equal(t, "en", i18n.GetLocale(context.Background()))
}

func TestFormatPrice(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)
	result := i18n.FormatPrice(ctx, 123450)

	assert.True(t, strings.HasPrefix(result, "₹"), result)
	assert.Contains(t, result, "1,234")
}
