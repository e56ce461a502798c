// package services defines the interfaces the transfer needs from each music service
//
// Spotify (source), YouTube Music via proxy (target)
package services

import (
	"context"

	"github.com/desertthunder/plmove/internal/models"
)

// PlaylistSource reads a user's playlists from the source service.
type PlaylistSource interface {
	// ListPlaylists returns every playlist in the user's library, in page order.
	ListPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error)

	// ListPlaylistTracks returns every raw item of a playlist, in page order.
	ListPlaylistTracks(ctx context.Context, userID, playlistID string) ([]models.TrackEnvelope, error)
}

// TrackSearcher is the target's black-box song search.
type TrackSearcher interface {
	Search(ctx context.Context, query string) ([]models.Candidate, error)
}

// Resolver maps a normalized track to a target id.
type Resolver interface {
	Resolve(ctx context.Context, track models.NormalizedTrack) models.Resolution
}

// PlaylistPublisher creates playlists on the target and appends items to them.
type PlaylistPublisher interface {
	CreatePlaylist(ctx context.Context, title, description string) (string, error)
	AddItem(ctx context.Context, playlistID, videoID string) error
}

var (
	_ PlaylistSource    = (*SpotifyService)(nil)
	_ TrackSearcher     = (*YouTubeService)(nil)
	_ PlaylistPublisher = (*YouTubeService)(nil)
	_ Resolver          = (*TrackResolver)(nil)
)
