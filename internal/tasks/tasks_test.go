package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/services"
	"github.com/desertthunder/plmove/internal/shared"
	th "github.com/desertthunder/plmove/internal/testing"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	source    *th.FakeSource
	searcher  *th.FakeSearcher
	publisher *th.FakePublisher
	logs      *th.MemoryLogSink
}

func newRoadTripFixture() *fixture {
	return &fixture{
		source: &th.FakeSource{
			Playlists: []models.PlaylistSummary{
				{ID: "other", Name: "Other"},
				{ID: "pl1", Name: "Road Trip"},
			},
			Tracks: map[string][]models.TrackEnvelope{
				"pl1": {
					th.Envelope("Song A", "Artist A"),
					{AddedAt: "2025-01-01T00:00:00Z"},
					th.Envelope("Song B", "Artist B"),
					th.Envelope("Song C", "Artist C", "Guest"),
				},
			},
		},
		searcher: &th.FakeSearcher{Results: map[string][]models.Candidate{
			"Song A Artist A":       {{VideoID: "vidA", Title: "Song A"}},
			"Song C Artist C Guest": {{VideoID: "vidC", Title: "Song C"}},
		}},
		publisher: &th.FakePublisher{
			PlaylistID: "ytpl",
			AddErrs:    map[string]error{"vidC": errors.New("proxy returned 500")},
		},
		logs: &th.MemoryLogSink{},
	}
}

func (f *fixture) engine() *TransferEngine {
	resolver := services.NewTrackResolver(f.searcher, 0)
	return NewTransferEngine(f.source, resolver, f.publisher, f.logs).WithClock(func() time.Time { return fixedNow })
}

func TestTransferEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("Run", func(t *testing.T) {
		t.Run("transfers a playlist and records a log entry", func(t *testing.T) {
			f := newRoadTripFixture()

			result, err := f.engine().Transfer(ctx, "u1", "pl1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.TargetPlaylistID != "ytpl" {
				t.Errorf("expected target ytpl, got %s", result.TargetPlaylistID)
			}
			if result.TotalTracks != 3 || result.SuccessCount != 1 || result.FailCount != 2 {
				t.Errorf("expected {3,1,2}, got {%d,%d,%d}", result.TotalTracks, result.SuccessCount, result.FailCount)
			}
			if len(result.Outcomes) != 3 {
				t.Fatalf("expected 3 outcomes, got %d", len(result.Outcomes))
			}

			wantKinds := []models.OutcomeKind{models.OutcomeAdded, models.OutcomeUnresolved, models.OutcomeAddFailed}
			for i, want := range wantKinds {
				if got := result.Outcomes[i].Kind; got != want {
					t.Errorf("outcome %d: expected %v, got %v", i, want, got)
				}
			}

			if len(f.publisher.Created) != 1 || f.publisher.Created[0] != "Road Trip" {
				t.Errorf("expected one playlist named Road Trip, got %v", f.publisher.Created)
			}
			if f.publisher.Descriptions[0] != "Copied from Spotify (pl1)" {
				t.Errorf("unexpected description %q", f.publisher.Descriptions[0])
			}
			if len(f.publisher.Added) != 1 || f.publisher.Added[0] != "vidA" {
				t.Errorf("expected only vidA added, got %v", f.publisher.Added)
			}

			if len(f.logs.Entries) != 1 {
				t.Fatalf("expected 1 log entry, got %d", len(f.logs.Entries))
			}
			entry := f.logs.Entries[0]
			if entry.UserID != "u1" || entry.SourceService != "spotify" || entry.TargetService != "ytmusic" {
				t.Errorf("unexpected entry identity: %+v", entry)
			}
			if entry.SourcePlaylistID != "pl1" || entry.SourcePlaylistName != "Road Trip" {
				t.Errorf("unexpected source fields: %+v", entry)
			}
			if entry.TargetPlaylistID != "ytpl" || entry.TargetPlaylistName != "Road Trip" {
				t.Errorf("unexpected target fields: %+v", entry)
			}
			if entry.TotalTracks != 3 || entry.SuccessCount != 1 || entry.FailCount != 2 {
				t.Errorf("unexpected counts: %+v", entry)
			}
			if entry.Status != models.StatusFinished {
				t.Errorf("expected status finished, got %s", entry.Status)
			}
			if entry.Message != "" {
				t.Errorf("expected empty message, got %q", entry.Message)
			}
			if !entry.CreatedAt.Equal(fixedNow) {
				t.Errorf("expected created_at %v, got %v", fixedNow, entry.CreatedAt)
			}
			if entry.ID == "" {
				t.Error("expected entry id to be set")
			}
		})

		t.Run("queries are issued in playlist order", func(t *testing.T) {
			f := newRoadTripFixture()
			if _, err := f.engine().Transfer(ctx, "u1", "pl1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := []string{"Song A Artist A", "Song B Artist B", "Song C Artist C Guest"}
			if len(f.searcher.Queries) != len(want) {
				t.Fatalf("expected %d queries, got %v", len(want), f.searcher.Queries)
			}
			for i := range want {
				if f.searcher.Queries[i] != want[i] {
					t.Errorf("query %d: expected %q, got %q", i, want[i], f.searcher.Queries[i])
				}
			}
		})

		t.Run("search failure is counted and the run continues", func(t *testing.T) {
			f := newRoadTripFixture()
			f.searcher.Errs = map[string]error{"Song A Artist A": errors.New("timeout")}

			result, err := f.engine().Transfer(ctx, "u1", "pl1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.SuccessCount != 0 || result.FailCount != 3 {
				t.Errorf("expected 0 success and 3 failed, got %d/%d", result.SuccessCount, result.FailCount)
			}
			if result.Outcomes[0].Kind != models.OutcomeSearchFailed {
				t.Errorf("expected search_failed, got %v", result.Outcomes[0].Kind)
			}
		})

		t.Run("empty playlist still creates target and logs", func(t *testing.T) {
			f := newRoadTripFixture()
			f.source.Tracks["pl1"] = nil

			result, err := f.engine().Transfer(ctx, "u1", "pl1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.TotalTracks != 0 || result.SuccessCount != 0 || result.FailCount != 0 {
				t.Errorf("expected zero counts, got %+v", result)
			}
			if len(f.publisher.Created) != 1 {
				t.Errorf("expected target playlist to be created")
			}
			if len(f.logs.Entries) != 1 {
				t.Errorf("expected 1 log entry, got %d", len(f.logs.Entries))
			}
		})

		t.Run("counter invariant holds", func(t *testing.T) {
			f := newRoadTripFixture()
			result, err := f.engine().Transfer(ctx, "u1", "pl1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.SuccessCount+result.FailCount != result.TotalTracks {
				t.Errorf("success + fail != total: %+v", result)
			}
			if len(result.Failed()) != result.FailCount {
				t.Errorf("expected %d failed outcomes, got %d", result.FailCount, len(result.Failed()))
			}
		})
	})

	t.Run("Errors", func(t *testing.T) {
		t.Run("unknown playlist", func(t *testing.T) {
			f := newRoadTripFixture()

			result, err := f.engine().Transfer(ctx, "u1", "missing")
			if result != nil {
				t.Errorf("expected nil result, got %+v", result)
			}
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
			}
			var nf *shared.PlaylistNotFoundError
			if !errors.As(err, &nf) || nf.PlaylistID != "missing" {
				t.Errorf("expected PlaylistNotFoundError for missing, got %v", err)
			}
			if len(f.publisher.Created) != 0 {
				t.Error("expected no target playlist")
			}
			if f.source.TrackCalls != 0 {
				t.Error("expected tracks not to be listed")
			}
			if len(f.logs.Entries) != 0 {
				t.Error("expected no log entry")
			}
		})

		t.Run("playlist listing fails", func(t *testing.T) {
			f := newRoadTripFixture()
			f.source.ListErr = shared.ErrNotConnected

			_, err := f.engine().Transfer(ctx, "u1", "pl1")
			if !errors.Is(err, shared.ErrNotConnected) {
				t.Fatalf("expected ErrNotConnected, got %v", err)
			}
			if len(f.logs.Entries) != 0 {
				t.Error("expected no log entry")
			}
		})

		t.Run("track listing fails", func(t *testing.T) {
			f := newRoadTripFixture()
			f.source.TracksErr = shared.ErrAPIRequest

			_, err := f.engine().Transfer(ctx, "u1", "pl1")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if len(f.publisher.Created) != 0 || len(f.logs.Entries) != 0 {
				t.Error("expected no side effects")
			}
		})

		t.Run("target creation fails", func(t *testing.T) {
			f := newRoadTripFixture()
			f.publisher.CreateErr = errors.New("proxy unavailable")

			result, err := f.engine().Transfer(ctx, "u1", "pl1")
			if result != nil {
				t.Errorf("expected nil result, got %+v", result)
			}
			if !errors.Is(err, shared.ErrTargetCreate) {
				t.Fatalf("expected ErrTargetCreate, got %v", err)
			}
			if len(f.searcher.Queries) != 0 {
				t.Error("expected no searches")
			}
			if len(f.logs.Entries) != 0 {
				t.Error("expected no log entry")
			}
		})

		t.Run("log sink fails", func(t *testing.T) {
			f := newRoadTripFixture()
			f.logs.AppendErr = errors.New("disk full")

			result, err := f.engine().Transfer(ctx, "u1", "pl1")
			if err == nil {
				t.Fatal("expected error")
			}
			if result == nil {
				t.Fatal("expected result alongside the error")
			}
			if result.TotalTracks != 3 || result.SuccessCount != 1 {
				t.Errorf("unexpected result %+v", result)
			}
		})

		t.Run("missing arguments", func(t *testing.T) {
			f := newRoadTripFixture()
			if _, err := f.engine().Transfer(ctx, "", "pl1"); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument for user, got %v", err)
			}
			if _, err := f.engine().Transfer(ctx, "u1", ""); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument for playlist, got %v", err)
			}
			if f.source.ListCalls != 0 {
				t.Error("expected no source calls")
			}
		})

		t.Run("missing collaborator", func(t *testing.T) {
			e := NewTransferEngine(nil, nil, nil, nil)
			if _, err := e.Transfer(ctx, "u1", "pl1"); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("Progress", func(t *testing.T) {
		t.Run("emits phases in order", func(t *testing.T) {
			f := newRoadTripFixture()
			progress := make(chan ProgressUpdate, 64)

			if _, err := f.engine().Run(ctx, "u1", "pl1", progress); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			close(progress)

			var phases []Phase
			for u := range progress {
				phases = append(phases, u.Phase)
			}
			if len(phases) == 0 {
				t.Fatal("expected progress updates")
			}
			if phases[0] != FetchSource {
				t.Errorf("expected first phase fetch_source, got %v", phases[0])
			}
			if phases[len(phases)-1] != WriteLog {
				t.Errorf("expected last phase write_log, got %v", phases[len(phases)-1])
			}
			for i := 1; i < len(phases); i++ {
				if phases[i] < phases[i-1] && !(phases[i] == SearchTracks && phases[i-1] == AddTracks) {
					t.Errorf("phase went backwards at %d: %v after %v", i, phases[i], phases[i-1])
				}
			}
		})

		t.Run("full channel does not block", func(t *testing.T) {
			f := newRoadTripFixture()
			progress := make(chan ProgressUpdate)

			done := make(chan struct{})
			go func() {
				defer close(done)
				_, _ = f.engine().Run(ctx, "u1", "pl1", progress)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("run blocked on an unread progress channel")
			}
		})
	})
}

func TestNormalize(t *testing.T) {
	t.Run("drops items without a track or title", func(t *testing.T) {
		envelopes := []models.TrackEnvelope{
			th.Envelope("One", "A"),
			{AddedAt: "2025-01-01T00:00:00Z"},
			th.Envelope("  ", "B"),
			th.Envelope("Two", "C", "D"),
		}

		got := Normalize(envelopes)
		if len(got) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(got))
		}
		if got[0].Title != "One" || got[1].Title != "Two" {
			t.Errorf("unexpected order: %+v", got)
		}
		if len(got[1].ArtistNames) != 2 || got[1].ArtistNames[0] != "C" || got[1].ArtistNames[1] != "D" {
			t.Errorf("unexpected artists: %v", got[1].ArtistNames)
		}
	})

	t.Run("track without artists", func(t *testing.T) {
		got := Normalize([]models.TrackEnvelope{th.Envelope("Solo")})
		if len(got) != 1 || len(got[0].ArtistNames) != 0 {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := Normalize(nil); len(got) != 0 {
			t.Errorf("expected no tracks, got %d", len(got))
		}
	})
}

func TestPhaseString(t *testing.T) {
	tc := map[Phase]string{
		FetchSource:    "fetch_source",
		CreatePlaylist: "create_playlist",
		SearchTracks:   "search_tracks",
		AddTracks:      "add_tracks",
		WriteLog:       "write_log",
		Phase(99):      "",
	}
	for p, want := range tc {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}

func TestDescriptionFor(t *testing.T) {
	if got := DescriptionFor("abc"); got != "Copied from Spotify (abc)" {
		t.Errorf("unexpected description %q", got)
	}
}
