package tasks

import (
	"strings"

	"github.com/desertthunder/plmove/internal/models"
)

// Normalize reduces raw playlist items to search keys.
//
// Items without a nested track, or whose track has no title, are dropped.
// Order is preserved, as is the order of artist names.
func Normalize(envelopes []models.TrackEnvelope) []models.NormalizedTrack {
	tracks := make([]models.NormalizedTrack, 0, len(envelopes))
	for _, env := range envelopes {
		if env.Track == nil {
			continue
		}
		title := strings.TrimSpace(env.Track.Name)
		if title == "" {
			continue
		}

		artists := make([]string, 0, len(env.Track.Artists))
		for _, a := range env.Track.Artists {
			if name := strings.TrimSpace(a.Name); name != "" {
				artists = append(artists, name)
			}
		}
		tracks = append(tracks, models.NormalizedTrack{Title: title, ArtistNames: artists})
	}
	return tracks
}
