package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

type credentialRow struct {
	bun.BaseModel `bun:"table:spotify_tokens"`

	UserID       string    `bun:"user_id,pk"`
	AccessToken  string    `bun:"access_token,notnull"`
	RefreshToken string    `bun:"refresh_token,notnull,default:''"`
	Scope        string    `bun:"scope,notnull,default:''"`
	TokenType    string    `bun:"token_type,notnull,default:'Bearer'"`
	ExpiresAt    time.Time `bun:"expires_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type transferLogRow struct {
	bun.BaseModel `bun:"table:transfer_logs"`

	ID                 string    `bun:"id,pk"`
	UserID             string    `bun:"user_id,notnull"`
	SourceService      string    `bun:"source_service,notnull"`
	TargetService      string    `bun:"target_service,notnull"`
	SourcePlaylistID   string    `bun:"source_playlist_id,notnull"`
	SourcePlaylistName string    `bun:"source_playlist_name,notnull"`
	TargetPlaylistID   string    `bun:"target_playlist_id,notnull"`
	TargetPlaylistName string    `bun:"target_playlist_name,notnull"`
	TotalTracks        int       `bun:"total_tracks,notnull"`
	SuccessCount       int       `bun:"success_count,notnull"`
	FailCount          int       `bun:"fail_count,notnull"`
	Status             string    `bun:"status,notnull"`
	Message            string    `bun:"message,nullzero"`
	CreatedAt          time.Time `bun:"created_at,notnull"`
}

// PostgresStore implements [models.CredentialStore] and [models.TransferLogSink] with bun over Postgres.
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore wraps an open bun handle.
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateSchema creates both tables when they do not exist.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	for _, model := range []any{(*credentialRow)(nil), (*transferLogRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	_, err := s.db.NewCreateIndex().
		Model((*transferLogRow)(nil)).
		Index("idx_transfer_logs_user_created").
		IfNotExists().
		Column("user_id", "created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Get retrieves the credential record for userID.
func (s *PostgresStore) Get(ctx context.Context, userID string) (*models.CredentialRecord, error) {
	row := new(credentialRow)
	err := s.db.NewSelect().Model(row).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}
	return credentialFromRow(row), nil
}

// Upsert inserts record or replaces the existing row for the same user.
func (s *PostgresStore) Upsert(ctx context.Context, record *models.CredentialRecord) error {
	if record.UserID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}

	row := credentialToRow(record)
	row.UpdatedAt = time.Now().UTC()

	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("scope = EXCLUDED.scope").
		Set("token_type = EXCLUDED.token_type").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}

// Append inserts entry, assigning an ID and creation time when they are unset.
func (s *PostgresStore) Append(ctx context.Context, entry *models.TransferLogEntry) error {
	if entry.UserID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.NewInsert().Model(transferLogToRow(entry)).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert transfer log: %w", err)
	}
	return nil
}

// List returns the user's entries, newest first.
func (s *PostgresStore) List(ctx context.Context, userID string, limit int) ([]models.TransferLogEntry, error) {
	var rows []transferLogRow
	q := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query transfer logs: %w", err)
	}

	entries := make([]models.TransferLogEntry, len(rows))
	for i := range rows {
		entries[i] = transferLogFromRow(&rows[i])
	}
	return entries, nil
}

func credentialToRow(r *models.CredentialRecord) *credentialRow {
	return &credentialRow{
		UserID:       r.UserID,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Scope:        r.Scope,
		TokenType:    r.TokenType,
		ExpiresAt:    r.ExpiresAt.UTC(),
	}
}

func credentialFromRow(row *credentialRow) *models.CredentialRecord {
	return &models.CredentialRecord{
		UserID:       row.UserID,
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		Scope:        row.Scope,
		TokenType:    row.TokenType,
		ExpiresAt:    row.ExpiresAt.UTC(),
	}
}

func transferLogToRow(e *models.TransferLogEntry) *transferLogRow {
	return &transferLogRow{
		ID:                 e.ID,
		UserID:             e.UserID,
		SourceService:      e.SourceService,
		TargetService:      e.TargetService,
		SourcePlaylistID:   e.SourcePlaylistID,
		SourcePlaylistName: e.SourcePlaylistName,
		TargetPlaylistID:   e.TargetPlaylistID,
		TargetPlaylistName: e.TargetPlaylistName,
		TotalTracks:        e.TotalTracks,
		SuccessCount:       e.SuccessCount,
		FailCount:          e.FailCount,
		Status:             e.Status,
		Message:            e.Message,
		CreatedAt:          e.CreatedAt.UTC(),
	}
}

func transferLogFromRow(row *transferLogRow) models.TransferLogEntry {
	return models.TransferLogEntry{
		ID:                 row.ID,
		UserID:             row.UserID,
		SourceService:      row.SourceService,
		TargetService:      row.TargetService,
		SourcePlaylistID:   row.SourcePlaylistID,
		SourcePlaylistName: row.SourcePlaylistName,
		TargetPlaylistID:   row.TargetPlaylistID,
		TargetPlaylistName: row.TargetPlaylistName,
		TotalTracks:        row.TotalTracks,
		SuccessCount:       row.SuccessCount,
		FailCount:          row.FailCount,
		Status:             row.Status,
		Message:            row.Message,
		CreatedAt:          row.CreatedAt.UTC(),
	}
}
