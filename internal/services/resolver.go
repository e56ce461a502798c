package services

import (
	"context"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

// TrackResolver maps a normalized track to a target video id by search.
//
// With a zero threshold the first candidate wins. A positive threshold picks
// the first candidate, in rank order, whose Jaro-Winkler similarity to the
// query is at least threshold.
type TrackResolver struct {
	searcher  TrackSearcher
	threshold float64
}

// NewTrackResolver creates a resolver over searcher.
func NewTrackResolver(searcher TrackSearcher, threshold float64) *TrackResolver {
	return &TrackResolver{searcher: searcher, threshold: threshold}
}

// Query builds the search string: title then space-joined artist names.
func Query(track models.NormalizedTrack) string {
	return strings.TrimSpace(track.Title + " " + strings.Join(track.ArtistNames, " "))
}

// Resolve searches for track and returns the chosen candidate.
// Zero candidates is [models.Unresolved]; a search error is [models.SearchFailed].
func (r *TrackResolver) Resolve(ctx context.Context, track models.NormalizedTrack) models.Resolution {
	query := Query(track)

	candidates, err := r.searcher.Search(ctx, query)
	if err != nil {
		return models.NewSearchFailed(err)
	}
	if len(candidates) == 0 {
		return models.NewUnresolved()
	}

	if r.threshold <= 0 {
		if id := candidates[0].VideoID; id != "" {
			return models.NewResolved(id)
		}
		return models.NewUnresolved()
	}

	want := shared.NormalizeText(query)
	for _, c := range candidates {
		if c.VideoID == "" {
			continue
		}
		if Similarity(want, candidateText(c)) >= r.threshold {
			return models.NewResolved(c.VideoID)
		}
	}
	return models.NewUnresolved()
}

// Similarity scores two normalized strings in [0, 1].
func Similarity(a, b string) float64 {
	return strutil.Similarity(a, b, metrics.NewJaroWinkler())
}

func candidateText(c models.Candidate) string {
	return shared.NormalizeText(c.Title + " " + strings.Join(c.Artists, " "))
}
