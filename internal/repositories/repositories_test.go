package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()
	expires := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Get missing", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		_, err := repo.Get(ctx, "nobody")
		if !errors.Is(err, shared.ErrCredentialNotFound) {
			t.Fatalf("expected ErrCredentialNotFound, got %v", err)
		}
	})

	t.Run("Upsert then Get", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		rec := &models.CredentialRecord{
			UserID:       "u1",
			AccessToken:  "access",
			RefreshToken: "refresh",
			Scope:        "playlist-read-private",
			TokenType:    "Bearer",
			ExpiresAt:    expires,
		}

		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got.AccessToken != "access" || got.RefreshToken != "refresh" {
			t.Errorf("unexpected tokens: %+v", got)
		}
		if !got.ExpiresAt.Equal(expires) {
			t.Errorf("expected expires_at %v, got %v", expires, got.ExpiresAt)
		}
	})

	t.Run("Upsert replaces", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCredentialRepository(db)

		first := &models.CredentialRecord{UserID: "u1", AccessToken: "a1", RefreshToken: "r1", ExpiresAt: expires}
		second := &models.CredentialRecord{UserID: "u1", AccessToken: "a2", RefreshToken: "", ExpiresAt: expires.Add(time.Hour)}

		if err := repo.Upsert(ctx, first); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Upsert(ctx, second); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.AccessToken != "a2" {
			t.Errorf("expected a2, got %s", got.AccessToken)
		}
		if got.RefreshToken != "" {
			t.Errorf("expected whole-record replacement, got refresh token %q", got.RefreshToken)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM spotify_tokens").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("expected one row per user, got %d", count)
		}
	})

	t.Run("Upsert requires user", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		err := repo.Upsert(ctx, &models.CredentialRecord{AccessToken: "a"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestTransferLogRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	entry := func(user, playlist string, at time.Time) *models.TransferLogEntry {
		return &models.TransferLogEntry{
			UserID:             user,
			SourceService:      models.SourceService,
			TargetService:      models.TargetService,
			SourcePlaylistID:   playlist,
			SourcePlaylistName: "Road Trip",
			TargetPlaylistID:   "yt-" + playlist,
			TargetPlaylistName: "Road Trip",
			TotalTracks:        3,
			SuccessCount:       1,
			FailCount:          2,
			Status:             models.StatusFinished,
			CreatedAt:          at,
		}
	}

	t.Run("Append assigns id", func(t *testing.T) {
		repo := NewTransferLogRepository(setupTestDB(t))
		e := entry("u1", "p1", time.Time{})

		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if e.ID == "" {
			t.Error("expected generated id")
		}
		if e.CreatedAt.IsZero() {
			t.Error("expected created_at to be set")
		}
	})

	t.Run("List newest first", func(t *testing.T) {
		repo := NewTransferLogRepository(setupTestDB(t))

		for i, id := range []string{"p1", "p2", "p3"} {
			if err := repo.Append(ctx, entry("u1", id, base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if err := repo.Append(ctx, entry("u2", "other", base)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries, err := repo.List(ctx, "u1", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].SourcePlaylistID != "p3" || entries[2].SourcePlaylistID != "p1" {
			t.Errorf("expected newest first, got %s..%s", entries[0].SourcePlaylistID, entries[2].SourcePlaylistID)
		}
		if entries[0].SuccessCount+entries[0].FailCount != entries[0].TotalTracks {
			t.Error("counters did not round-trip")
		}
		if entries[0].Message != "" {
			t.Errorf("expected empty message, got %q", entries[0].Message)
		}
	})

	t.Run("List with limit", func(t *testing.T) {
		repo := NewTransferLogRepository(setupTestDB(t))
		for i := range 5 {
			if err := repo.Append(ctx, entry("u1", "p", base.Add(time.Duration(i)*time.Second))); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		entries, err := repo.List(ctx, "u1", 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 entries, got %d", len(entries))
		}
	})

	t.Run("Message round-trips", func(t *testing.T) {
		repo := NewTransferLogRepository(setupTestDB(t))
		e := entry("u1", "p1", base)
		e.Message = "2 tracks not found"
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries, err := repo.List(ctx, "u1", 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if entries[0].Message != "2 tracks not found" {
			t.Errorf("unexpected message %q", entries[0].Message)
		}
		if !entries[0].CreatedAt.Equal(base) {
			t.Errorf("expected %v, got %v", base, entries[0].CreatedAt)
		}
	})
}

func TestPostgresRowConversion(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	rec := &models.CredentialRecord{UserID: "u1", AccessToken: "a", RefreshToken: "r", ExpiresAt: at}
	back := credentialFromRow(credentialToRow(rec))
	if back.UserID != "u1" || back.RefreshToken != "r" {
		t.Errorf("unexpected credential %+v", back)
	}
	if back.ExpiresAt.Location() != time.UTC || !back.ExpiresAt.Equal(at) {
		t.Errorf("expected UTC instant %v, got %v", at, back.ExpiresAt)
	}

	e := &models.TransferLogEntry{ID: "x", UserID: "u1", TotalTracks: 3, SuccessCount: 1, FailCount: 2, CreatedAt: at}
	got := transferLogFromRow(transferLogToRow(e))
	if got.TotalTracks != 3 || got.FailCount != 2 || !got.CreatedAt.Equal(at) {
		t.Errorf("unexpected entry %+v", got)
	}
}
