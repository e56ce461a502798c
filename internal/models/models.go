// package models defines the data model for the playlist transfer service
package models

import (
	"context"
	"time"
)

const (
	SourceService = "spotify"
	TargetService = "ytmusic"

	StatusFinished = "finished"
)

// CredentialRecord is the persisted OAuth state for one user of the source service.
//
// ExpiresAt is the authoritative expiry of AccessToken. A record with an empty RefreshToken cannot be refreshed.
type CredentialRecord struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Scope        string    `json:"scope"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Stale reports whether the access token expires within margin of now.
func (c *CredentialRecord) Stale(now time.Time, margin time.Duration) bool {
	return !now.Before(c.ExpiresAt.Add(-margin))
}

// TokenData is the token endpoint response for both grant types.
type TokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// PlaylistSummary is a source playlist as it appears in the user's listing.
type PlaylistSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrackEnvelope is one raw item of a source playlist. Track is nil when the
// underlying track was removed or is unavailable.
type TrackEnvelope struct {
	AddedAt string       `json:"added_at"`
	IsLocal bool         `json:"is_local"`
	Track   *SourceTrack `json:"track"`
}

// SourceTrack is the nested track object of a [TrackEnvelope].
type SourceTrack struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Artists []SourceArtist `json:"artists"`
}

// SourceArtist names one credited artist.
type SourceArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NormalizedTrack is the search key sent to the target service.
type NormalizedTrack struct {
	Title       string   `json:"title"`
	ArtistNames []string `json:"artist_names"`
}

// Candidate is one target search result, in backend rank order.
type Candidate struct {
	VideoID string   `json:"video_id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
}

// TransferLogEntry is the append-only record of one completed transfer.
type TransferLogEntry struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	SourceService      string    `json:"source_service"`
	TargetService      string    `json:"target_service"`
	SourcePlaylistID   string    `json:"source_playlist_id"`
	SourcePlaylistName string    `json:"source_playlist_name"`
	TargetPlaylistID   string    `json:"target_playlist_id"`
	TargetPlaylistName string    `json:"target_playlist_name"`
	TotalTracks        int       `json:"total_tracks"`
	SuccessCount       int       `json:"success_count"`
	FailCount          int       `json:"fail_count"`
	Status             string    `json:"status"`
	Message            string    `json:"message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// CredentialStore persists one [CredentialRecord] per user.
type CredentialStore interface {
	// Get returns shared.ErrCredentialNotFound when no record exists.
	Get(ctx context.Context, userID string) (*CredentialRecord, error)
	// Upsert replaces any existing record for the same user.
	Upsert(ctx context.Context, record *CredentialRecord) error
}

// TransferLogSink is the append-only store of [TransferLogEntry] values.
type TransferLogSink interface {
	Append(ctx context.Context, entry *TransferLogEntry) error
	// List returns at most limit entries for userID, newest first. limit <= 0 means no limit.
	List(ctx context.Context, userID string, limit int) ([]TransferLogEntry, error)
}
