package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plmove/internal/tasks"
)

// PlaylistsList prints the user's Spotify playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	userID := cmd.String("user")

	r.logger.Debug("listing playlists", "user", userID)
	playlists, err := r.spotify.ListPlaylists(ctx, userID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists found\n")
	}
	for i, p := range playlists {
		r.writePlain("%3d. %s  (%s)\n", i+1, p.Name, p.ID)
	}
	return r.writePlain("\n%d playlists\n", len(playlists))
}

// PlaylistsTracks prints the normalized tracks of one playlist, the search keys a transfer would use.
func (r *Runner) PlaylistsTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	userID := cmd.String("user")
	playlistID := cmd.String("playlist")

	envelopes, err := r.spotify.ListPlaylistTracks(ctx, userID, playlistID)
	if err != nil {
		return err
	}
	tracks := tasks.Normalize(envelopes)

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	for i, t := range tracks {
		r.writePlain("%3d. %s - %s\n", i+1, strings.Join(t.ArtistNames, ", "), t.Title)
	}
	if skipped := len(envelopes) - len(tracks); skipped > 0 {
		r.writePlain("\n%d tracks (%d unavailable items skipped)\n", len(tracks), skipped)
		return nil
	}
	return r.writePlain("\n%d tracks\n", len(tracks))
}
