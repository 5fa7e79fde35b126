// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"strconv"

	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"github.com/a-h/templ"
)

// ListingView is a listing with its display names resolved.
type ListingView struct {
	Listing  models.Listing
	CropName string
	Seller   string
}

// PriceView is a market price with its crop name resolved.
type PriceView struct {
	Price    models.MarketPrice
	CropName string
}

// Home renders the landing page with the newest listings.
func Home(listings []ListingView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Layout(T(ctx, "nav_home"), component(func(ctx context.Context, h *html) {
			h.open("section", "class", "hero")
			h.elem("h1", T(ctx, "home_title"))
			h.elem("p", T(ctx, "tagline"))
			h.close("section")

			h.elem("h2", T(ctx, "home_latest_listings"))
			h.elem("p", i18n.TPlural(ctx, "listings_count", len(listings)), "class", "muted")
			listingCards(ctx, h, listings)
		})))
	})
}

// Marketplace renders active listings, optionally filtered by crop.
func Marketplace(listings []ListingView, crops []models.Crop, selected int64) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Layout(T(ctx, "marketplace_title"), component(func(ctx context.Context, h *html) {
			h.elem("h1", T(ctx, "marketplace_title"))

			h.open("form", "method", "get", "class", "filters", "action", Path(ctx, "/marketplace"))
			h.open("select", "name", "crop", "onchange", "this.form.submit()")
			h.elem("option", T(ctx, "price_crop"), "value", "")
			code := Locale(ctx)
			for i := range crops {
				id := strconv.FormatInt(crops[i].ID, 10)
				if crops[i].ID == selected {
					h.open("option", "value", id, "selected", "selected")
				} else {
					h.open("option", "value", id)
				}
				h.text(crops[i].Name(code))
				h.close("option")
			}
			h.close("select")
			h.close("form")

			if len(listings) == 0 {
				h.elem("p", T(ctx, "marketplace_empty"), "class", "empty")
				return
			}
			listingCards(ctx, h, listings)
		})))
	})
}

func listingCards(ctx context.Context, h *html, listings []ListingView) {
	h.open("ul", "class", "listings")
	for _, v := range listings {
		l := v.Listing
		h.open("li", "class", "listing", "id", "listing-"+strconv.FormatInt(l.ID, 10))
		h.open("h3")
		h.elem("a", v.CropName, "href", Path(ctx, "/marketplace/"+strconv.FormatInt(l.ID, 10)))
		h.close("h3")
		h.raw("<dl>")
		field := func(key, value string) {
			h.elem("dt", T(ctx, key))
			h.elem("dd", value)
		}
		field("listing_quantity", strconv.FormatFloat(l.Quantity, 'f', -1, 64)+" "+l.Unit)
		field("listing_price", Price(ctx, l.PricePerUnit)+" / "+l.Unit)
		if l.Location != "" {
			field("listing_location", l.Location)
		}
		if v.Seller != "" {
			field("listing_seller", v.Seller)
		}
		h.raw("</dl>")
		if l.Description != "" {
			h.elem("p", l.Description)
		}
		h.close("li")
	}
	h.close("ul")
}

// Listing renders a single listing. Signed-in buyers other than the seller
// get an inquiry form.
func Listing(v ListingView, canInquire bool) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Layout(v.CropName, component(func(ctx context.Context, h *html) {
			h.elem("h1", v.CropName)
			listingCards(ctx, h, []ListingView{v})
			if !canInquire {
				return
			}
			id := strconv.FormatInt(v.Listing.ID, 10)
			h.open("form", "class", "inquiry", "data-api", "/api/listings/"+id+"/inquiries")
			h.open("label", "for", "message")
			h.text(T(ctx, "inquiry_label"))
			h.close("label")
			h.raw(`<textarea id="message" name="message" required></textarea>`)
			h.elem("button", T(ctx, "inquiry_button"), "type", "submit")
			h.close("form")
			h.elem("p", T(ctx, "inquiry_sent"), "class", "notice", "role", "status", "hidden", "hidden")
		})))
	})
}

// Prices renders the latest mandi prices and subscribes to live updates.
func Prices(prices []PriceView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Layout(T(ctx, "prices_title"), component(func(ctx context.Context, h *html) {
			h.elem("h1", T(ctx, "prices_title"))
			if len(prices) == 0 {
				h.elem("p", T(ctx, "prices_empty"), "class", "empty")
			}

			h.open("table", "class", "prices", "data-stream", "/api/market-prices/stream")
			h.raw("<thead><tr>")
			for _, key := range []string{"price_crop", "price_market", "price_state", "price_min", "price_modal", "price_max", "price_date"} {
				h.elem("th", T(ctx, key))
			}
			h.raw("</tr></thead><tbody>")
			for _, v := range prices {
				p := v.Price
				h.raw("<tr>")
				h.elem("td", v.CropName)
				h.elem("td", p.Market)
				h.elem("td", p.State)
				h.elem("td", Price(ctx, p.MinPrice))
				h.elem("td", Price(ctx, p.ModalPrice))
				h.elem("td", Price(ctx, p.MaxPrice))
				h.elem("td", p.RecordedOn)
				h.raw("</tr>")
			}
			h.raw("</tbody></table>")
		})))
	})
}

// Profile renders the profile form of the signed-in user.
func Profile(profile *models.Profile, saved bool) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Layout(T(ctx, "profile_title"), component(func(ctx context.Context, h *html) {
			h.elem("h1", T(ctx, "profile_title"))
			if saved {
				h.elem("p", T(ctx, "profile_language_saved"), "class", "notice", "role", "status")
			}

			h.open("form", "class", "profile", "data-api", "/api/profile")
			input := func(key, name, kind, value string) {
				h.open("label", "for", name)
				h.text(T(ctx, key))
				h.close("label")
				h.open("input", "id", name, "name", name, "type", kind, "value", value)
			}
			input("profile_name", "name", "text", profile.Names[Locale(ctx)])
			input("profile_phone", "phone", "tel", profile.Phone)
			input("profile_email", "email", "email", profile.Email)
			input("profile_village", "village", "text", profile.Village)
			input("profile_district", "district", "text", profile.District)
			input("profile_state", "state", "text", profile.State)
			input("profile_farm_size", "farm_size_acres", "number", strconv.FormatFloat(profile.FarmSizeAcres, 'f', -1, 64))
			h.elem("button", T(ctx, "save"), "type", "submit")
			h.close("form")
		})))
	})
}

// Login renders the passkey sign-in page.
func Login() templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Layout(T(ctx, "login_title"), component(func(ctx context.Context, h *html) {
			h.elem("h1", T(ctx, "login_title"))
			h.elem("button", T(ctx, "login_button"), "type", "button", "data-passkey", "login")
			h.raw(`<p class="error" role="alert" hidden></p>`)
		})))
	})
}

// Register renders the account creation page.
func Register() templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Layout(T(ctx, "register_title"), component(func(ctx context.Context, h *html) {
			h.elem("h1", T(ctx, "register_title"))
			h.open("form", "data-passkey", "register")
			h.open("label", "for", "username")
			h.text(T(ctx, "username_label"))
			h.close("label")
			h.open("input", "id", "username", "name", "username", "required", "required", "autocomplete", "username webauthn")
			h.open("label", "for", "display_name")
			h.text(T(ctx, "display_name_label"))
			h.close("label")
			h.open("input", "id", "display_name", "name", "display_name")
			h.elem("button", T(ctx, "register_button"), "type", "submit")
			h.close("form")
			h.raw(`<p class="error" role="alert" hidden></p>`)
		})))
	})
}

// Error renders an error page.
func Error(code int, title, message string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Layout(title, component(func(ctx context.Context, h *html) {
			h.open("section", "class", "error-page")
			h.elem("p", strconv.Itoa(code), "class", "status-code")
			h.elem("h1", title)
			h.elem("p", message)
			h.open("a", "href", Path(ctx, "/"))
			h.text(T(ctx, "error_back_home"))
			h.close("a")
			h.close("section")
		})))
	})
}

// NotFound renders the localized 404 page.
func NotFound() templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Error(404, T(ctx, "error_404_title"), T(ctx, "error_404_message")))
	})
}

// ServerError renders the localized 500 page.
func ServerError() templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.render(ctx, Error(500, T(ctx, "error_500_title"), T(ctx, "error_500_message")))
	})
}
