package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/plmove/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	CreatePlaylist
	SearchTracks
	AddTracks
	WriteLog
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case AddTracks:
		return "add_tracks"
	case WriteLog:
		return "write_log"
	default:
		return ""
	}
}

func fetchingSourceUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: "Fetching source playlist from Spotify...",
	}
}

func foundPlaylistUpdate(pl *models.PlaylistSummary, items, tracks int) ProgressUpdate {
	msg := fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Name, tracks)
	if skipped := items - tracks; skipped > 0 {
		msg = fmt.Sprintf("Found playlist: %s (%d tracks, %d unavailable skipped)", pl.Name, tracks, skipped)
	}
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    pl,
	}
}

func createDestinationUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q on YouTube Music...", name),
	}
}

func createPlaylistUpdate(name, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", name, id),
		Data:    id,
	}
}

func searchTracksUpdate(step, total int, tr models.NormalizedTrack) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, strings.Join(tr.ArtistNames, ", "), tr.Title),
	}
}

func trackOutcomeUpdate(step, total int, o models.TrackOutcome) ProgressUpdate {
	mark := "✗"
	if o.Succeeded() {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, o),
		Data:    o,
	}
}

func writeLogUpdate(r *models.TransferResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteLog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recording transfer: %d added, %d failed", r.SuccessCount, r.FailCount),
		Data:    r,
	}
}
