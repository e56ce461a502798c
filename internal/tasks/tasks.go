package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/services"
	"github.com/desertthunder/plmove/internal/shared"
)

// DescriptionFor returns the target playlist description for a source playlist id.
func DescriptionFor(sourcePlaylistID string) string {
	return fmt.Sprintf("Copied from Spotify (%s)", sourcePlaylistID)
}

// TransferEngine copies a source playlist to the target, one track at a time.
type TransferEngine struct {
	source    services.PlaylistSource
	resolver  services.Resolver
	publisher services.PlaylistPublisher
	logs      models.TransferLogSink
	logger    *log.Logger
	now       func() time.Time
}

// NewTransferEngine creates a new TransferEngine with the provided collaborators.
func NewTransferEngine(source services.PlaylistSource, resolver services.Resolver, publisher services.PlaylistPublisher, logs models.TransferLogSink) *TransferEngine {
	return &TransferEngine{
		source:    source,
		resolver:  resolver,
		publisher: publisher,
		logs:      logs,
		logger:    log.New(io.Discard),
		now:       time.Now,
	}
}

// WithLogger sets the logger used for phase and per-track messages.
func (e *TransferEngine) WithLogger(l *log.Logger) *TransferEngine {
	if l != nil {
		e.logger = l
	}
	return e
}

// WithClock replaces the clock used for log entry timestamps.
func (e *TransferEngine) WithClock(now func() time.Time) *TransferEngine {
	if now != nil {
		e.now = now
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *TransferEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Transfer copies sourcePlaylistID for userID. See [TransferEngine.Run].
func (e *TransferEngine) Transfer(ctx context.Context, userID, sourcePlaylistID string) (*models.TransferResult, error) {
	return e.Run(ctx, userID, sourcePlaylistID, nil)
}

// Run performs a full Spotify → YouTube Music playlist transfer.
//
// Fatal errors (unknown playlist, listing or auth failures, target creation)
// return before any log entry is written. Per-track failures are recorded as
// outcomes. If the log sink fails, the result is returned with the error.
// A target playlist that was already created is left in place.
func (e *TransferEngine) Run(ctx context.Context, userID, sourcePlaylistID string, progress chan<- ProgressUpdate) (*models.TransferResult, error) {
	if e.source == nil || e.resolver == nil || e.publisher == nil || e.logs == nil {
		return nil, fmt.Errorf("%w: transfer engine is missing a collaborator", shared.ErrServiceUnavailable)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if sourcePlaylistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	logger := e.logger.With("user", userID, "playlist", sourcePlaylistID)

	e.sendProgress(progress, fetchingSourceUpdate())
	playlists, err := e.source.ListPlaylists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	var playlist *models.PlaylistSummary
	for i := range playlists {
		if playlists[i].ID == sourcePlaylistID {
			playlist = &playlists[i]
			break
		}
	}
	if playlist == nil {
		return nil, &shared.PlaylistNotFoundError{PlaylistID: sourcePlaylistID}
	}

	envelopes, err := e.source.ListPlaylistTracks(ctx, userID, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist tracks: %w", err)
	}

	tracks := Normalize(envelopes)
	total := len(tracks)
	logger.Info("fetched source playlist", "name", playlist.Name, "items", len(envelopes), "tracks", total)
	e.sendProgress(progress, foundPlaylistUpdate(playlist, len(envelopes), total))

	e.sendProgress(progress, createDestinationUpdate(playlist.Name))
	targetID, err := e.publisher.CreatePlaylist(ctx, playlist.Name, DescriptionFor(playlist.ID))
	if err != nil {
		return nil, err
	}
	logger.Info("created target playlist", "target", targetID)
	e.sendProgress(progress, createPlaylistUpdate(playlist.Name, targetID))

	result := &models.TransferResult{TargetPlaylistID: targetID}
	for i, track := range tracks {
		e.sendProgress(progress, searchTracksUpdate(i+1, total, track))

		outcome := e.transferTrack(ctx, targetID, track)
		result.Record(outcome)

		if !outcome.Succeeded() {
			logger.Warn("track not transferred", "title", track.Title, "outcome", outcome.Kind, "err", outcome.Err)
		} else {
			logger.Debug("track added", "title", track.Title, "video", outcome.VideoID)
		}
		e.sendProgress(progress, trackOutcomeUpdate(i+1, total, outcome))
	}

	entry := &models.TransferLogEntry{
		ID:                 shared.GenerateID(),
		UserID:             userID,
		SourceService:      models.SourceService,
		TargetService:      models.TargetService,
		SourcePlaylistID:   playlist.ID,
		SourcePlaylistName: playlist.Name,
		TargetPlaylistID:   targetID,
		TargetPlaylistName: playlist.Name,
		TotalTracks:        result.TotalTracks,
		SuccessCount:       result.SuccessCount,
		FailCount:          result.FailCount,
		Status:             models.StatusFinished,
		CreatedAt:          e.now().UTC(),
	}

	e.sendProgress(progress, writeLogUpdate(result))
	if err := e.logs.Append(ctx, entry); err != nil {
		logger.Error("failed to record transfer", "err", err)
		return result, fmt.Errorf("failed to record transfer log: %w", err)
	}

	logger.Info("transfer finished", "success", result.SuccessCount, "failed", result.FailCount)
	return result, nil
}

// transferTrack resolves one track and adds it when resolved.
func (e *TransferEngine) transferTrack(ctx context.Context, targetID string, track models.NormalizedTrack) models.TrackOutcome {
	res := e.resolver.Resolve(ctx, track)
	switch res.Kind {
	case models.Resolved:
		if err := e.publisher.AddItem(ctx, targetID, res.VideoID); err != nil {
			return models.TrackOutcome{Track: track, Kind: models.OutcomeAddFailed, VideoID: res.VideoID, Err: err}
		}
		return models.TrackOutcome{Track: track, Kind: models.OutcomeAdded, VideoID: res.VideoID}
	case models.SearchFailed:
		return models.TrackOutcome{Track: track, Kind: models.OutcomeSearchFailed, Err: res.Err}
	default:
		return models.TrackOutcome{Track: track, Kind: models.OutcomeUnresolved}
	}
}
