// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package webauthn wraps passkey registration and login ceremonies.
package webauthn

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"codeberg.org/kisanbazaar/marketplace/internal/config"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// CeremonyTTL is how long a started ceremony can be finished.
const CeremonyTTL = 2 * time.Minute

var (
	ErrInvalidConfig    = errors.New("invalid webauthn config")
	ErrCeremonyNotFound = errors.New("ceremony not found")
	ErrCeremonyExpired  = errors.New("ceremony expired")
)

// Service runs WebAuthn ceremonies and keeps their challenges in memory
// until they are finished or expire.
type Service struct {
	wa         *webauthn.WebAuthn
	ceremonies *ceremonyStore
}

// NewService creates a new WebAuthn service.
func NewService(cfg *config.WebAuthnConfig) (*Service, error) {
	switch {
	case cfg.RPID == "":
		return nil, fmt.Errorf("%w: relying party id is required", ErrInvalidConfig)
	case cfg.RPOrigin == "":
		return nil, fmt.Errorf("%w: relying party origin is required", ErrInvalidConfig)
	case cfg.RPDisplayName == "":
		return nil, fmt.Errorf("%w: relying party display name is required", ErrInvalidConfig)
	}

	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPDisplayName,
		RPID:          cfg.RPID,
		RPOrigins:     []string{cfg.RPOrigin},
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementRequired,
			UserVerification: protocol.VerificationPreferred,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}

	return &Service{
		wa:         wa,
		ceremonies: newCeremonyStore(CeremonyTTL, time.Minute),
	}, nil
}

// Close stops the background expiry of stale ceremonies.
func (s *Service) Close() {
	s.ceremonies.close()
}

// BeginRegistration starts creating a passkey for user. The returned id
// identifies the ceremony in FinishRegistration.
func (s *Service) BeginRegistration(user webauthn.User) (*protocol.CredentialCreation, string, error) {
	options, data, err := s.wa.BeginRegistration(user,
		webauthn.WithExclusions(webauthn.Credentials(user.WebAuthnCredentials()).CredentialDescriptors()))
	if err != nil {
		return nil, "", err
	}
	return options, s.ceremonies.put(data), nil
}

// FinishRegistration verifies the attestation in r for a started ceremony.
func (s *Service) FinishRegistration(user webauthn.User, ceremonyID string, r *http.Request) (*webauthn.Credential, error) {
	data, err := s.ceremonies.take(ceremonyID)
	if err != nil {
		return nil, err
	}
	return s.wa.FinishRegistration(user, *data, r)
}

// BeginLogin starts a usernameless login.
func (s *Service) BeginLogin() (*protocol.CredentialAssertion, string, error) {
	options, data, err := s.wa.BeginDiscoverableLogin()
	if err != nil {
		return nil, "", err
	}
	return options, s.ceremonies.put(data), nil
}

// FinishLogin verifies the assertion in r. The handler maps the user handle
// sent by the authenticator to a stored user.
func (s *Service) FinishLogin(ceremonyID string, r *http.Request, handler webauthn.DiscoverableUserHandler) (*webauthn.Credential, error) {
	data, err := s.ceremonies.take(ceremonyID)
	if err != nil {
		return nil, err
	}
	return s.wa.FinishDiscoverableLogin(handler, *data, r)
}

type ceremony struct {
	data      *webauthn.SessionData
	expiresAt time.Time
}

// ceremonyStore holds challenges of unfinished ceremonies. Entries are
// single use.
type ceremonyStore struct { //nolint:govet // fieldalignment not critical
	mu      sync.Mutex
	entries map[string]ceremony
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func newCeremonyStore(ttl, sweep time.Duration) *ceremonyStore {
	s := &ceremonyStore{
		entries: make(map[string]ceremony),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.sweep(sweep)
	return s
}

func (s *ceremonyStore) put(data *webauthn.SessionData) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = ceremony{data: data, expiresAt: s.now().Add(s.ttl)}
	return id
}

func (s *ceremonyStore) take(id string) (*webauthn.SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrCeremonyNotFound
	}
	delete(s.entries, id)

	if s.now().After(entry.expiresAt) {
		return nil, ErrCeremonyExpired
	}
	return entry.data, nil
}

func (s *ceremonyStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *ceremonyStore) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

func (s *ceremonyStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expire()
		case <-s.done:
			return
		}
	}
}

func (s *ceremonyStore) close() {
	s.once.Do(func() { close(s.done) })
}
