// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n

import (
	"context"
	"embed"
	"fmt"

	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed translations/*.toml
var translationFS embed.FS

var bundle *i18n.Bundle

type localeContextKey struct{}
type localizerContextKey struct{}

// Init initializes the i18n bundle with one embedded catalog per supported locale.
func Init() error {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, code := range locale.Supported() {
		file := fmt.Sprintf("translations/active.%s.toml", code)
		if _, err := b.LoadMessageFileFS(translationFS, file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}

	bundle = b
	return nil
}

// WithLocale adds the locale to the context.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	code := lang.String()
	ctx = context.WithValue(ctx, localeContextKey{}, code)
	return context.WithValue(ctx, localizerContextKey{}, i18n.NewLocalizer(bundle, code))
}

// GetLocale returns the current locale from context.
func GetLocale(ctx context.Context) string {
	if code, ok := ctx.Value(localeContextKey{}).(string); ok {
		return code
	}
	return locale.Default
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	msg, err := getLocalizer(ctx).Localize(&i18n.LocalizeConfig{
		MessageID: messageID,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// TData translates a message with template data.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	msg, err := getLocalizer(ctx).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// TPlural translates a message with plural support.
func TPlural(ctx context.Context, messageID string, count int) string {
	msg, err := getLocalizer(ctx).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
	if err != nil {
		return messageID
	}
	return msg
}

// MatchLanguage matches the best supported locale for an Accept-Language header.
// The returned tag carries no region or extension, so tag.String() is always
// a supported code.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags := locale.Tags()
	_, idx := language.MatchStrings(language.NewMatcher(tags), acceptLanguage)
	return tags[idx]
}

// FormatPrice formats an amount given in paise as rupees, using the number
// conventions of the context locale.
func FormatPrice(ctx context.Context, paise int64) string {
	p := message.NewPrinter(language.Make(GetLocale(ctx)))
	return p.Sprintf("₹%.2f", float64(paise)/100)
}

func getLocalizer(ctx context.Context) *i18n.Localizer {
	if localizer, ok := ctx.Value(localizerContextKey{}).(*i18n.Localizer); ok {
		return localizer
	}
	return i18n.NewLocalizer(bundle, locale.Default)
}
