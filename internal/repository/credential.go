// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"

	"codeberg.org/kisanbazaar/marketplace/internal/models"
)

const credentialColumns = `id, user_id, credential_id, public_key, aaguid, sign_count, transports,
	name, backup_eligible, backup_state, attestation_type, created_at`

// CreateCredential stores a new credential and fills in its ID.
func (r *Repository) CreateCredential(ctx context.Context, cred *models.Credential) error {
	return r.db.GetContext(ctx, cred,
		`INSERT INTO credentials (user_id, credential_id, public_key, aaguid, sign_count, transports,
			name, backup_eligible, backup_state, attestation_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+credentialColumns,
		cred.UserID, cred.CredentialID, cred.PublicKey, cred.AAGUID, cred.SignCount, cred.Transports,
		cred.Name, cred.BackupEligible, cred.BackupState, cred.AttestationType)
}

// GetCredentialsByUserID retrieves all credentials for a user.
func (r *Repository) GetCredentialsByUserID(ctx context.Context, userID int64) ([]models.Credential, error) {
	creds := []models.Credential{}
	if err := r.db.SelectContext(ctx, &creds,
		"SELECT "+credentialColumns+" FROM credentials WHERE user_id = ? ORDER BY id", userID); err != nil {
		return nil, err
	}
	return creds, nil
}

// UpdateCredentialSignCount updates the sign count for a credential.
func (r *Repository) UpdateCredentialSignCount(ctx context.Context, credentialID []byte, signCount uint32) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE credentials SET sign_count = ? WHERE credential_id = ?", signCount, credentialID)
	return err
}

// DeleteCredential deletes a credential by ID, ensuring it belongs to the given user.
func (r *Repository) DeleteCredential(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// CountUserCredentials counts the number of credentials for a user.
func (r *Repository) CountUserCredentials(ctx context.Context, userID int64) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM credentials WHERE user_id = ?", userID); err != nil {
		return 0, err
	}
	return count, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
