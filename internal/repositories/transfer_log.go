package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

// TransferLogRepository implements [models.TransferLogSink] on the transfer_logs table.
// Rows are never updated or deleted.
type TransferLogRepository struct {
	db *sql.DB
}

// NewTransferLogRepository creates a new [TransferLogRepository] with the given database connection
func NewTransferLogRepository(db *sql.DB) *TransferLogRepository {
	return &TransferLogRepository{db: db}
}

// Append inserts entry, assigning an ID and creation time when they are unset.
func (r *TransferLogRepository) Append(ctx context.Context, entry *models.TransferLogEntry) error {
	if entry.UserID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transfer_logs (
			id, user_id, source_service, target_service,
			source_playlist_id, source_playlist_name, target_playlist_id, target_playlist_name,
			total_tracks, success_count, fail_count, status, message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var message sql.NullString
	if entry.Message != "" {
		message = sql.NullString{String: entry.Message, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.SourceService, entry.TargetService,
		entry.SourcePlaylistID, entry.SourcePlaylistName, entry.TargetPlaylistID, entry.TargetPlaylistName,
		entry.TotalTracks, entry.SuccessCount, entry.FailCount, entry.Status, message, formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer log: %w", err)
	}
	return nil
}

// List returns the user's entries, newest first.
func (r *TransferLogRepository) List(ctx context.Context, userID string, limit int) ([]models.TransferLogEntry, error) {
	query := `
		SELECT id, user_id, source_service, target_service,
			source_playlist_id, source_playlist_name, target_playlist_id, target_playlist_name,
			total_tracks, success_count, fail_count, status, message, created_at
		FROM transfer_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer logs: %w", err)
	}
	defer rows.Close()

	var entries []models.TransferLogEntry
	for rows.Next() {
		var (
			e         models.TransferLogEntry
			message   sql.NullString
			createdAt string
		)
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.SourceService, &e.TargetService,
			&e.SourcePlaylistID, &e.SourcePlaylistName, &e.TargetPlaylistID, &e.TargetPlaylistName,
			&e.TotalTracks, &e.SuccessCount, &e.FailCount, &e.Status, &message, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transfer log: %w", err)
		}
		e.Message = message.String
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfer logs: %w", err)
	}
	return entries, nil
}
