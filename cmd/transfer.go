package main

import (
	"context"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plmove/internal/formatter"
	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/tasks"
)

// TransferRun copies one Spotify playlist to a new YouTube Music playlist.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	playlistID := cmd.String("playlist")
	useJSON := cmd.Bool("json")

	r.logger.Info("starting transfer", "user", userID, "playlist", playlistID)

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	var playlistName string
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			if pl, ok := update.Data.(*models.PlaylistSummary); ok {
				playlistName = pl.Name
			}
			if useJSON {
				continue
			}
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteLog:
				r.writePlain("🗒  %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Run(ctx, userID, playlistID, progressCh)
	close(progressCh)
	wg.Wait()

	if result == nil {
		return err
	}

	if useJSON {
		if werr := r.writeJSON(result, true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Transfer Complete!")
	r.writePlain("%s", formatter.SummarizeTransfer(playlistName, result))
	return err
}
