// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/config"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/acme/autocert"
)

// TLSMode is how the server terminates TLS.
type TLSMode string

const (
	TLSModeOff        TLSMode = "off"
	TLSModeACME       TLSMode = "acme"
	TLSModeSelfSigned TLSMode = "selfsigned"
	TLSModeManual     TLSMode = "manual"
)

const (
	selfSignedValidity = 365 * 24 * time.Hour
	renewBefore        = 30 * 24 * time.Hour
)

// portAvailable is replaced in tests.
var portAvailable = isPortAvailable

// tlsPlan is the resolved listener setup.
type tlsPlan struct {
	config    *tls.Config  // nil when mode is off
	challenge http.Handler // ACME HTTP-01 handler for :80, nil otherwise
	mode      TLSMode
}

// setupTLS resolves the TLS mode and loads or creates the certificate.
func setupTLS(cfg *config.Config) (*tlsPlan, error) {
	mode := resolveTLSMode(cfg)
	hosts := certHosts(cfg)
	slog.Info("TLS mode", "mode", mode, "hosts", hosts)

	switch mode {
	case TLSModeOff:
		return &tlsPlan{mode: mode}, nil
	case TLSModeACME:
		if err := validateACME(cfg); err != nil {
			return nil, err
		}
		return setupACME(cfg, hosts[0])
	case TLSModeSelfSigned:
		cert, err := loadOrCreateSelfSigned(filepath.Join(cfg.TLS.CertDir, "selfsigned"), hosts, time.Now())
		if err != nil {
			return nil, err
		}
		slog.Warn("using a self-signed certificate, browsers ask to accept it on first visit",
			"sha256", certFingerprint(cert))
		return &tlsPlan{mode: mode, config: newTLSConfig(cert)}, nil
	case TLSModeManual:
		cert, err := loadManual(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, err
		}
		slog.Info("using certificate", "cert", cfg.TLS.CertFile, "sha256", certFingerprint(cert))
		return &tlsPlan{mode: mode, config: newTLSConfig(cert)}, nil
	}
	return nil, fmt.Errorf("unknown TLS mode: %s", mode)
}

// resolveTLSMode honours an explicit mode and otherwise picks one from
// the host, the certificate files and the ACME prerequisites.
func resolveTLSMode(cfg *config.Config) TLSMode {
	switch mode := TLSMode(strings.ToLower(cfg.TLS.Mode)); mode {
	case TLSModeOff, TLSModeACME, TLSModeSelfSigned, TLSModeManual:
		return mode
	case "auto", "":
	default:
		slog.Warn("unknown TLS mode, using auto", "mode", mode)
	}

	switch {
	case config.IsLocalhost(cfg.Server.Host):
		return TLSModeOff
	case cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "":
		return TLSModeManual
	case canUseACME(cfg):
		return TLSModeACME
	default:
		return TLSModeSelfSigned
	}
}

// certHosts lists the names a certificate must cover. The public host
// from the base URL comes first, followed by the bind host when it is a
// concrete name.
func certHosts(cfg *config.Config) []string {
	var hosts []string
	if u, err := url.Parse(cfg.Server.BaseURL); err == nil && u.Hostname() != "" {
		hosts = append(hosts, u.Hostname())
	}
	switch host := cfg.Server.Host; host {
	case "", "0.0.0.0", "::":
	default:
		if !slices.Contains(hosts, host) {
			hosts = append(hosts, host)
		}
	}
	if len(hosts) == 0 {
		hosts = append(hosts, "localhost")
	}
	return hosts
}

func validateACME(cfg *config.Config) error {
	if cfg.Server.Port != 443 {
		slog.Warn("ACME mode listens on port 443, configured port is ignored", "port", cfg.Server.Port)
	}
	if cfg.TLS.Email == "" {
		return errors.New("ACME mode requires TLS_EMAIL to be set")
	}
	for _, port := range []int{80, 443} {
		if !portAvailable(port) {
			return fmt.Errorf("ACME mode requires port %d (port in use)", port)
		}
	}
	return nil
}

// canUseACME reports whether Let's Encrypt can issue a certificate for the
// host: a public DNS name, a contact e-mail and free ports 80 and 443.
func canUseACME(cfg *config.Config) bool {
	host := cfg.Server.Host
	if config.IsLocalhost(host) || net.ParseIP(host) != nil || cfg.TLS.Email == "" {
		return false
	}
	return portAvailable(80) && portAvailable(443)
}

func isPortAvailable(port int) bool {
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

func setupACME(cfg *config.Config, host string) (*tlsPlan, error) {
	dir := filepath.Join(cfg.TLS.CertDir, "acme")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create ACME cache directory: %w", err)
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Email:      cfg.TLS.Email,
		Cache:      autocert.DirCache(dir),
		HostPolicy: autocert.HostWhitelist(host),
	}
	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	return &tlsPlan{
		mode:      TLSModeACME,
		config:    tlsConfig,
		challenge: manager.HTTPHandler(nil),
	}, nil
}

// loadOrCreateSelfSigned reuses the certificate in dir while it covers
// hosts and is not close to expiry, and writes a fresh one otherwise.
func loadOrCreateSelfSigned(dir string, hosts []string, now time.Time) (*tls.Certificate, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create certificate directory: %w", err)
	}
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")

	if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
		reason := unusable(&cert, hosts, now)
		if reason == "" {
			return &cert, nil
		}
		slog.Info("replacing self-signed certificate", "reason", reason)
	} else if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("existing self-signed certificate unreadable, replacing it", "error", err)
	}

	certPEM, keyPEM, err := newSelfSigned(hosts, now)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(certFile, certPEM, 0o600); err != nil {
		return nil, fmt.Errorf("write certificate: %w", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		return nil, fmt.Errorf("write private key: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("load generated certificate: %w", err)
	}
	return &cert, nil
}

// unusable explains why cert cannot be served for hosts at now, or
// returns "" when it can.
func unusable(cert *tls.Certificate, hosts []string, now time.Time) string {
	if len(cert.Certificate) == 0 {
		return "empty certificate chain"
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return "unparsable certificate"
	}
	if leaf.NotAfter.Sub(now) < renewBefore {
		return "expiring soon"
	}
	for _, host := range hosts {
		if leaf.VerifyHostname(host) != nil {
			return "host " + host + " not covered"
		}
	}
	return ""
}

// newSelfSigned creates a P-256 certificate for hosts plus the loopback
// names, returned PEM encoded.
func newSelfSigned(hosts []string, now time.Time) (certPEM, keyPEM []byte, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Kisan Bazaar (self-signed)"},
			CommonName:   hosts[0],
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(selfSignedValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, host := range slices.Concat(hosts, []string{"localhost", "127.0.0.1", "::1"}) {
		if ip := net.ParseIP(host); ip != nil {
			if !slices.ContainsFunc(template.IPAddresses, ip.Equal) {
				template.IPAddresses = append(template.IPAddresses, ip)
			}
		} else if !slices.Contains(template.DNSNames, host) {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal private key: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}

func loadManual(certFile, keyFile string) (*tls.Certificate, error) {
	if certFile == "" || keyFile == "" {
		return nil, errors.New("manual TLS mode requires both cert-file and key-file")
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}
	return &cert, nil
}

// certFingerprint returns the colon separated SHA-256 of the leaf.
func certFingerprint(cert *tls.Certificate) string {
	if len(cert.Certificate) == 0 {
		return ""
	}
	sum := sha256.Sum256(cert.Certificate[0])
	return strings.ReplaceAll(fmt.Sprintf("% X", sum[:]), " ", ":")
}

func newTLSConfig(cert *tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	}
}

// startTLSServer serves e over TLS on addr. It uses e.Server so the
// shutdown hooks registered in New run for TLS listeners too.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.Server.TLSConfig = tlsConfig
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	return e.Server.Serve(e.TLSListener)
}
