// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"encoding/binary"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// User is an account holder: a farmer, a buyer, or both.
type User struct { //nolint:govet // fieldalignment not critical for models
	ID          int64        `db:"id" json:"-"`
	PublicID    string       `db:"public_id" json:"id"`
	Username    string       `db:"username" json:"username"`
	DisplayName string       `db:"display_name" json:"display_name"`
	IsAdmin     bool         `db:"is_admin" json:"is_admin"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	Credentials []Credential `db:"-" json:"-"`
}

// WebAuthnID returns the user handle: the numeric id, big endian.
func (u *User) WebAuthnID() []byte {
	id := make([]byte, 8)
	binary.BigEndian.PutUint64(id, uint64(u.ID)) //nolint:gosec // ids are positive
	return id
}

// WebAuthnName returns the username.
func (u *User) WebAuthnName() string {
	return u.Username
}

// WebAuthnDisplayName returns the display name, or the username if unset.
func (u *User) WebAuthnDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// WebAuthnIcon is always empty; icons were dropped from WebAuthn Level 2.
func (u *User) WebAuthnIcon() string {
	return ""
}

// WebAuthnCredentials returns the user's passkeys.
func (u *User) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, len(u.Credentials))
	for i := range u.Credentials {
		creds[i] = u.Credentials[i].ToWebAuthn()
	}
	return creds
}
