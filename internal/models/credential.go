// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Credential is a passkey registered by a user.
type Credential struct { //nolint:govet // fieldalignment not critical for models
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	CredentialID    []byte    `db:"credential_id" json:"-"`
	PublicKey       []byte    `db:"public_key" json:"-"`
	AAGUID          []byte    `db:"aaguid" json:"-"`
	SignCount       uint32    `db:"sign_count" json:"-"`
	Transports      string    `db:"transports" json:"-"` // comma-separated
	Name            string    `db:"name" json:"name"`
	BackupEligible  bool      `db:"backup_eligible" json:"-"`
	BackupState     bool      `db:"backup_state" json:"-"`
	AttestationType string    `db:"attestation_type" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ToWebAuthn converts the stored credential to a webauthn.Credential.
func (c *Credential) ToWebAuthn() webauthn.Credential {
	var transports []protocol.AuthenticatorTransport
	if c.Transports != "" {
		for t := range strings.SplitSeq(c.Transports, ",") {
			transports = append(transports, protocol.AuthenticatorTransport(t))
		}
	}
	return webauthn.Credential{
		ID:              c.CredentialID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			UserPresent:    true,
			UserVerified:   true,
			BackupEligible: c.BackupEligible,
			BackupState:    c.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    c.AAGUID,
			SignCount: c.SignCount,
		},
	}
}

// CredentialFromWebAuthn builds a storable credential for userID.
func CredentialFromWebAuthn(userID int64, cred *webauthn.Credential, name string) *Credential {
	return &Credential{
		UserID:          userID,
		CredentialID:    cred.ID,
		PublicKey:       cred.PublicKey,
		AAGUID:          cred.Authenticator.AAGUID,
		SignCount:       cred.Authenticator.SignCount,
		Transports:      TransportsFromWebAuthn(cred.Transport),
		Name:            name,
		BackupEligible:  cred.Flags.BackupEligible,
		BackupState:     cred.Flags.BackupState,
		AttestationType: cred.AttestationType,
	}
}

// TransportsFromWebAuthn converts WebAuthn transports to a comma-separated string.
func TransportsFromWebAuthn(transports []protocol.AuthenticatorTransport) string {
	strs := make([]string, len(transports))
	for i, t := range transports {
		strs[i] = string(t)
	}
	return strings.Join(strs, ",")
}
