// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"github.com/a-h/templ"
)

// Layout wraps page content in the document shell with navigation and the
// language switcher.
func Layout(title string, content templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw("<!doctype html>")
		h.open("html", "lang", Locale(ctx))
		h.raw(`<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.elem("title", title+" · "+T(ctx, "app_name"))
		h.open("link", "rel", "stylesheet", "href", CSSPath(ctx))
		h.open("script", "src", JSPath(ctx), "defer", "defer")
		h.close("script")
		h.raw("</head>")

		h.open("body", "data-csrf-token", CSRFToken(ctx))
		nav(ctx, h)
		h.open("main", "class", "container")
		h.render(ctx, content)
		h.close("main")
		h.raw("</body></html>")
	})
}

func nav(ctx context.Context, h *html) {
	h.open("header", "class", "site-header")
	h.open("a", "class", "brand", "href", Path(ctx, "/"))
	h.text(T(ctx, "app_name"))
	h.close("a")

	h.raw("<nav><ul>")
	link := func(path, key string) {
		h.raw("<li>")
		h.open("a", "href", Path(ctx, path))
		h.text(T(ctx, key))
		h.raw("</a></li>")
	}
	link("/", "nav_home")
	link("/marketplace", "nav_marketplace")
	link("/prices", "nav_prices")
	if IsAuthenticated(ctx) {
		link("/profile", "nav_profile")
		h.raw("<li>")
		h.open("form", "method", "post", "action", "/auth/logout")
		h.csrf(ctx)
		h.elem("button", T(ctx, "nav_logout"), "type", "submit")
		h.raw("</form></li>")
	} else {
		link("/auth/login", "nav_login")
		link("/auth/register", "nav_register")
	}
	h.raw("</ul></nav>")

	languageSwitcher(ctx, h)
	h.close("header")
}

// languageSwitcher posts to the stored preference for signed-in users and
// links to the locale prefix for everyone else.
func languageSwitcher(ctx context.Context, h *html) {
	current := Locale(ctx)

	if IsAuthenticated(ctx) {
		h.open("form", "class", "language-switcher", "method", "post", "action", "/profile/language")
		h.csrf(ctx)
		h.open("label", "for", "language")
		h.text(T(ctx, "language_label"))
		h.close("label")
		h.open("select", "id", "language", "name", "language", "onchange", "this.form.submit()")
		for _, code := range locale.Supported() {
			if code == current {
				h.open("option", "value", code, "selected", "selected")
			} else {
				h.open("option", "value", code)
			}
			h.text(locale.DisplayName(code))
			h.close("option")
		}
		h.close("select")
		h.elem("button", T(ctx, "save"), "type", "submit")
		h.close("form")
		return
	}

	h.open("ul", "class", "language-switcher")
	for _, code := range locale.Supported() {
		h.raw("<li>")
		attrs := []string{"href", "/" + code, "hreflang", code, "lang", code}
		if code == current {
			attrs = append(attrs, "aria-current", "true")
		}
		h.open("a", attrs...)
		h.text(locale.DisplayName(code))
		h.raw("</a></li>")
	}
	h.close("ul")
}
