package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/apperrors"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/database"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
)

// CredentialRepository defines data access for encrypted offline credentials.
// Only the vault reads through this interface; nothing above the vault ever
// sees ciphertext or plaintext tokens.
type CredentialRepository interface {
	// Upsert creates or overwrites the owner's credential record.
	Upsert(ctx context.Context, record *models.CredentialRecord) error
	// Get returns the owner's credential record, or apperrors.ErrNotFound
	// when the user has not granted delegated access.
	Get(ctx context.Context, ownerID string) (*models.CredentialRecord, error)
}

type credentialRepository struct {
	db *database.DB
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(db *database.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Upsert(ctx context.Context, record *models.CredentialRecord) error {
	now := time.Now()
	record.UpdatedAt = now
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	query := `
		INSERT INTO credential_records (owner_id, encrypted_refresh_token, key_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id) DO UPDATE
		SET encrypted_refresh_token = EXCLUDED.encrypted_refresh_token,
		    key_version = EXCLUDED.key_version,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		record.OwnerID,
		record.EncryptedRefreshToken,
		record.KeyVersion,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert credential record: %w", err)
	}

	return nil
}

func (r *credentialRepository) Get(ctx context.Context, ownerID string) (*models.CredentialRecord, error) {
	query := `
		SELECT owner_id, encrypted_refresh_token, key_version, created_at, updated_at
		FROM credential_records
		WHERE owner_id = $1`

	var record models.CredentialRecord
	err := r.db.QueryRow(ctx, query, ownerID).Scan(
		&record.OwnerID,
		&record.EncryptedRefreshToken,
		&record.KeyVersion,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get credential record: %w", err)
	}

	return &record, nil
}

// Ensure credentialRepository implements CredentialRepository at compile time.
var _ CredentialRepository = (*credentialRepository)(nil)
