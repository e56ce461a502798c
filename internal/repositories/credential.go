package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

// CredentialRepository implements [models.CredentialStore] on the spotify_tokens table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Get retrieves the credential record for userID.
func (r *CredentialRepository) Get(ctx context.Context, userID string) (*models.CredentialRecord, error) {
	query := `
		SELECT user_id, access_token, refresh_token, scope, token_type, expires_at
		FROM spotify_tokens
		WHERE user_id = ?
	`

	var (
		rec       models.CredentialRecord
		expiresAt string
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID, &rec.AccessToken, &rec.RefreshToken, &rec.Scope, &rec.TokenType, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	if rec.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert inserts record or replaces every column of the existing row for the same user.
func (r *CredentialRepository) Upsert(ctx context.Context, record *models.CredentialRecord) error {
	if record.UserID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO spotify_tokens (user_id, access_token, refresh_token, scope, token_type, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			scope = excluded.scope,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		record.UserID, record.AccessToken, record.RefreshToken, record.Scope, record.TokenType, formatTime(record.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}
