// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends marketplace notifications over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/config"
	"codeberg.org/kisanbazaar/marketplace/internal/i18n"
	"codeberg.org/kisanbazaar/marketplace/internal/locale"
	"github.com/wneessen/go-mail"
	"golang.org/x/text/language"
)

// Message is a plain text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Service composes localized notifications and hands them to a Sender.
type Service struct {
	sender  Sender
	baseURL string
}

// NewService creates a service delivering through the configured SMTP server.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	sender, err := NewSMTPSender(cfg)
	if err != nil {
		return nil, err
	}
	return New(sender, baseURL), nil
}

// New creates a service on top of an arbitrary sender.
func New(sender Sender, baseURL string) *Service {
	return &Service{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// InquiryNotice describes a new inquiry for a seller.
type InquiryNotice struct {
	To        string
	Language  string // seller's preferred language, may be empty
	Buyer     string
	Crop      locale.Names
	Message   string
	ListingID int64
}

// NotifyInquiry tells a seller about a buyer's inquiry, in the seller's
// preferred language.
func (s *Service) NotifyInquiry(ctx context.Context, n InquiryNotice) error {
	if n.To == "" {
		return errors.New("seller has no e-mail address")
	}

	code := n.Language
	if !locale.IsSupported(code) {
		code = locale.Default
	}
	ctx = i18n.WithLocale(ctx, language.Make(code))

	crop := n.Crop.Get(code)
	subject := i18n.TData(ctx, "email_inquiry_subject", map[string]any{"Crop": crop})
	body := i18n.TData(ctx, "email_inquiry_body", map[string]any{
		"Buyer":   n.Buyer,
		"Crop":    crop,
		"Message": n.Message,
	})
	body += "\n\n" + s.listingURL(code, n.ListingID) + "\n"

	return s.sender.Send(ctx, Message{To: n.To, Subject: subject, Body: body})
}

func (s *Service) listingURL(code string, listingID int64) string {
	prefix := ""
	if code != locale.Default {
		prefix = "/" + code
	}
	return fmt.Sprintf("%s%s/marketplace/%d", s.baseURL, prefix, listingID)
}

// SMTPSender delivers messages with go-mail.
type SMTPSender struct {
	cfg *config.SMTPConfig
}

// NewSMTPSender validates the SMTP configuration.
func NewSMTPSender(cfg *config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("SMTP from address is required")
	}
	switch cfg.TLS {
	case "", "none", "starttls", "tls":
	default:
		return nil, fmt.Errorf("unknown SMTP TLS mode %q", cfg.TLS)
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send dials the SMTP server and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.message(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (s *SMTPSender) message(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

func (s *SMTPSender) options() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}

	switch s.cfg.TLS {
	case "tls":
		opts = append(opts, mail.WithSSL(), mail.WithTLSPolicy(mail.TLSMandatory))
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}
