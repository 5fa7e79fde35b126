// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates_test

import (
	"bytes"
	"context"
	"testing"

	"codeberg.org/kisanbazaar/marketplace/internal/appcontext"
	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/templates"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	return buf.String()
}

func localeCtx(t *testing.T, tag language.Tag) context.Context {
	t.Helper()
	require.NoError(t, i18n.Init())
	return i18n.WithLocale(context.Background(), tag)
}

func TestLayout_HTMLLang(t *testing.T) {
	out := render(t, localeCtx(t, language.Hindi), templates.Home(nil))

	assert.Contains(t, out, `<html lang="hi">`)
	assert.Contains(t, out, "किसान बाज़ार")
	assert.Contains(t, out, `href="/hi/marketplace"`)
}

func TestLayout_DefaultLocaleUnprefixed(t *testing.T) {
	out := render(t, localeCtx(t, language.English), templates.Home(nil))

	assert.Contains(t, out, `<html lang="en">`)
	assert.Contains(t, out, `href="/marketplace"`)
	assert.Contains(t, out, `href="/auth/login"`)
}

func TestLayout_AnonymousLanguageLinks(t *testing.T) {
	out := render(t, localeCtx(t, language.English), templates.Home(nil))

	for _, code := range locale.Supported() {
		assert.Contains(t, out, `href="/`+code+`"`)
		assert.Contains(t, out, locale.DisplayName(code))
	}
	assert.NotContains(t, out, `action="/profile/language"`)
}

func TestLayout_SignedInLanguagePicker(t *testing.T) {
	ctx := localeCtx(t, language.Tamil)
	ctx = appcontext.WithUser(ctx, &models.User{ID: 1, Username: "selvi"})
	ctx = context.WithValue(ctx, appcontext.CSRFToken{}, "tok123")

	out := render(t, ctx, templates.Home(nil))

	assert.Contains(t, out, `action="/profile/language"`)
	assert.Contains(t, out, `<option value="ta" selected="selected">`)
	assert.Contains(t, out, `name="csrf_token" value="tok123"`)
	assert.Contains(t, out, `action="/auth/logout"`)
}

func TestMarketplace_EscapesContent(t *testing.T) {
	ctx := localeCtx(t, language.English)
	listings := []templates.ListingView{{
		Listing:  models.Listing{ID: 9, Quantity: 2.5, Unit: "quintal", PricePerUnit: 210000, Description: "<script>alert(1)</script>"},
		CropName: "Wheat",
		Seller:   "Ramesh",
	}}

	out := render(t, ctx, templates.Marketplace(listings, nil, 0))

	assert.Contains(t, out, `id="listing-9"`)
	assert.Contains(t, out, "2.5 quintal")
	assert.Contains(t, out, "₹2,100.00")
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestMarketplace_Empty(t *testing.T) {
	ctx := localeCtx(t, language.English)
	crops := []models.Crop{{ID: 3, Names: locale.Names{"en": "Onion", "mr": "कांदा"}}}

	out := render(t, ctx, templates.Marketplace(nil, crops, 3))

	assert.Contains(t, out, "No active listings yet.")
	assert.Contains(t, out, `<option value="3" selected="selected">Onion</option>`)
}

func TestPrices(t *testing.T) {
	ctx := localeCtx(t, language.English)
	prices := []templates.PriceView{{
		Price:    models.MarketPrice{Market: "Lasalgaon", State: "Maharashtra", MinPrice: 100000, ModalPrice: 120000, MaxPrice: 150000, RecordedOn: "2025-03-01"},
		CropName: "Onion",
	}}

	out := render(t, ctx, templates.Prices(prices))

	assert.Contains(t, out, "Lasalgaon")
	assert.Contains(t, out, "2025-03-01")
	assert.Contains(t, out, `data-stream="/api/market-prices/stream"`)
}

func TestProfile(t *testing.T) {
	ctx := localeCtx(t, language.Marathi)
	p := &models.Profile{Names: locale.Names{"en": "Ramesh", "mr": "रमेश"}, Village: "Pimpalgaon"}

	out := render(t, ctx, templates.Profile(p, true))

	assert.Contains(t, out, `value="रमेश"`)
	assert.Contains(t, out, `value="Pimpalgaon"`)
	assert.Contains(t, out, `role="status"`)
}

func TestErrorPages(t *testing.T) {
	ctx := localeCtx(t, language.English)

	assert.Contains(t, render(t, ctx, templates.NotFound()), "Page not found")
	assert.Contains(t, render(t, ctx, templates.ServerError()), "Something went wrong")
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/prices", templates.Path(context.Background(), "/prices"))
	assert.Equal(t, "/kn/prices", templates.Path(i18n.WithLocale(context.Background(), language.Kannada), "/prices"))
}
