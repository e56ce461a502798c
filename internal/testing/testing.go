// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

// MemoryCredentialStore is an in-memory [models.CredentialStore].
type MemoryCredentialStore struct {
	mu      sync.Mutex
	records map[string]models.CredentialRecord
	Upserts int
	GetErr  error
}

func NewMemoryCredentialStore(records ...models.CredentialRecord) *MemoryCredentialStore {
	s := &MemoryCredentialStore{records: make(map[string]models.CredentialRecord)}
	for _, r := range records {
		s.records[r.UserID] = r
	}
	return s
}

func (s *MemoryCredentialStore) Get(ctx context.Context, userID string) (*models.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	r, ok := s.records[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}
	return &r, nil
}

func (s *MemoryCredentialStore) Upsert(ctx context.Context, record *models.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = *record
	s.Upserts++
	return nil
}

// MemoryLogSink is an in-memory [models.TransferLogSink]. AppendErr makes every Append fail.
type MemoryLogSink struct {
	mu        sync.Mutex
	Entries   []models.TransferLogEntry
	AppendErr error
}

func (s *MemoryLogSink) Append(ctx context.Context, entry *models.TransferLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	s.Entries = append(s.Entries, *entry)
	return nil
}

func (s *MemoryLogSink) List(ctx context.Context, userID string, limit int) ([]models.TransferLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TransferLogEntry
	for _, e := range s.Entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FakeSource is a canned playlist source.
type FakeSource struct {
	Playlists  []models.PlaylistSummary
	Tracks     map[string][]models.TrackEnvelope
	ListErr    error
	TracksErr  error
	TrackCalls int
	ListCalls  int
}

func (f *FakeSource) ListPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error) {
	f.ListCalls++
	return f.Playlists, f.ListErr
}

func (f *FakeSource) ListPlaylistTracks(ctx context.Context, userID, playlistID string) ([]models.TrackEnvelope, error) {
	f.TrackCalls++
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	return f.Tracks[playlistID], nil
}

// FakeSearcher answers searches from a query-keyed table. Missing queries return no candidates.
type FakeSearcher struct {
	Results map[string][]models.Candidate
	Errs    map[string]error
	Queries []string
}

func (f *FakeSearcher) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	f.Queries = append(f.Queries, query)
	if err, ok := f.Errs[query]; ok {
		return nil, err
	}
	return f.Results[query], nil
}

// FakePublisher records created playlists and added items.
type FakePublisher struct {
	PlaylistID   string
	CreateErr    error
	AddErrs      map[string]error
	Created      []string
	Descriptions []string
	Added        []string
}

func (f *FakePublisher) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	if f.CreateErr != nil {
		return "", &shared.TargetCreateError{Title: title, Err: f.CreateErr}
	}
	f.Created = append(f.Created, title)
	f.Descriptions = append(f.Descriptions, description)
	return f.PlaylistID, nil
}

func (f *FakePublisher) AddItem(ctx context.Context, playlistID, videoID string) error {
	if err, ok := f.AddErrs[videoID]; ok {
		return err
	}
	f.Added = append(f.Added, videoID)
	return nil
}

// Envelope builds a raw playlist item with the given title and artists.
func Envelope(title string, artists ...string) models.TrackEnvelope {
	track := &models.SourceTrack{Name: title}
	for _, a := range artists {
		track.Artists = append(track.Artists, models.SourceArtist{Name: a})
	}
	return models.TrackEnvelope{AddedAt: "2025-01-01T00:00:00Z", Track: track}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
