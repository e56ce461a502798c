package models

import "fmt"

// ResolutionKind tags a [Resolution].
type ResolutionKind int

const (
	Resolved ResolutionKind = iota
	Unresolved
	SearchFailed
)

func (k ResolutionKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	case SearchFailed:
		return "search_failed"
	default:
		return "unknown"
	}
}

// Resolution is the result of looking up one track on the target.
// VideoID is set only for [Resolved]; Err only for [SearchFailed].
type Resolution struct {
	Kind    ResolutionKind
	VideoID string
	Err     error
}

func NewResolved(videoID string) Resolution { return Resolution{Kind: Resolved, VideoID: videoID} }

func NewUnresolved() Resolution { return Resolution{Kind: Unresolved} }

func NewSearchFailed(err error) Resolution { return Resolution{Kind: SearchFailed, Err: err} }

// OutcomeKind tags a [TrackOutcome].
type OutcomeKind int

const (
	OutcomeAdded OutcomeKind = iota
	OutcomeUnresolved
	OutcomeSearchFailed
	OutcomeAddFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAdded:
		return "added"
	case OutcomeUnresolved:
		return "unresolved"
	case OutcomeSearchFailed:
		return "search_failed"
	case OutcomeAddFailed:
		return "add_failed"
	default:
		return "unknown"
	}
}

// TrackOutcome records what happened to one normalized track during a transfer.
type TrackOutcome struct {
	Track   NormalizedTrack
	Kind    OutcomeKind
	VideoID string
	Err     error
}

// Succeeded reports whether the track landed in the target playlist.
func (o TrackOutcome) Succeeded() bool { return o.Kind == OutcomeAdded }

func (o TrackOutcome) String() string {
	switch o.Kind {
	case OutcomeAdded:
		return fmt.Sprintf("%s: added %s", o.Track.Title, o.VideoID)
	case OutcomeAddFailed:
		return fmt.Sprintf("%s: add %s failed: %v", o.Track.Title, o.VideoID, o.Err)
	case OutcomeSearchFailed:
		return fmt.Sprintf("%s: search failed: %v", o.Track.Title, o.Err)
	default:
		return fmt.Sprintf("%s: %s", o.Track.Title, o.Kind)
	}
}

// TransferResult summarizes one playlist transfer.
//
// SuccessCount + FailCount == TotalTracks == len(Outcomes).
type TransferResult struct {
	TargetPlaylistID string         `json:"target_playlist_id"`
	TotalTracks      int            `json:"total_tracks"`
	SuccessCount     int            `json:"success_count"`
	FailCount        int            `json:"fail_count"`
	Outcomes         []TrackOutcome `json:"-"`
}

// Record appends o and updates the counters.
func (r *TransferResult) Record(o TrackOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.TotalTracks++
	if o.Succeeded() {
		r.SuccessCount++
	} else {
		r.FailCount++
	}
}

// Failed returns the outcomes that did not add a track.
func (r *TransferResult) Failed() []TrackOutcome {
	var failed []TrackOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}
