// YouTube Music target publisher
//
// Communicates with the ytmusicapi proxy server. The proxy handles YouTube
// Music authentication; this client only forwards the auth file path.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

const (
	defaultYTBaseURL string = "http://localhost:8080"
	defaultPrivacy   string = "PRIVATE"
)

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeSearchResult is one song returned by the proxy's search endpoint.
type YouTubeSearchResult struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	ResultType  string          `json:"resultType,omitempty"`
	DurationSec int             `json:"duration_seconds,omitempty"`
}

// YouTubeService creates playlists and searches songs through the proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	privacy    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// YouTubeOption configures a [YouTubeService].
type YouTubeOption func(*YouTubeService)

// WithAuthFile sends path in the X-Auth-File header on every request.
func WithAuthFile(path string) YouTubeOption {
	return func(y *YouTubeService) { y.authFile = path }
}

// WithPrivacy sets the privacy status of created playlists.
func WithPrivacy(privacy string) YouTubeOption {
	return func(y *YouTubeService) {
		if privacy != "" {
			y.privacy = strings.ToUpper(privacy)
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) YouTubeOption {
	return func(y *YouTubeService) {
		if c != nil {
			y.httpClient = c
		}
	}
}

// WithRateLimit paces requests to rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) YouTubeOption {
	return func(y *YouTubeService) {
		if rps > 0 {
			y.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			y.limiter = nil
		}
	}
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string, opts ...YouTubeOption) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	y := &YouTubeService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		privacy:    defaultPrivacy,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Privacy returns the privacy status used for created playlists.
func (y *YouTubeService) Privacy() string {
	return y.privacy
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CreatePlaylist creates an empty playlist and returns its id.
//
// Calls POST /api/playlists on the proxy. Any failure is a [shared.TargetCreateError].
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	req := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         title,
		Description:   description,
		PrivacyStatus: y.privacy,
	}

	var resp struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.doRequest(ctx, http.MethodPost, "/api/playlists", req, &resp); err != nil {
		return "", &shared.TargetCreateError{Title: title, Err: err}
	}
	if resp.PlaylistID == "" {
		return "", &shared.TargetCreateError{Title: title, Err: fmt.Errorf("empty playlist id in response")}
	}
	return resp.PlaylistID, nil
}

// Search runs a song-scoped search and returns candidates in backend rank order.
//
// Calls GET /api/search?q={query}&filter=songs on the proxy.
func (y *YouTubeService) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("filter", "songs")

	var results []YouTubeSearchResult
	if err := y.doRequest(ctx, http.MethodGet, "/api/search?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, len(results))
	for i, r := range results {
		artists := make([]string, len(r.Artists))
		for j, a := range r.Artists {
			artists[j] = a.Name
		}
		candidates[i] = models.Candidate{VideoID: r.VideoID, Title: r.Title, Artists: artists}
	}
	return candidates, nil
}

// AddItem appends one video to playlistID.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) AddItem(ctx context.Context, playlistID, videoID string) error {
	req := struct {
		VideoIDs []string `json:"video_ids"`
	}{
		VideoIDs: []string{videoID},
	}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	if err := y.doRequest(ctx, http.MethodPost, endpoint, req, nil); err != nil {
		return fmt.Errorf("failed to add %s to %s: %w", videoID, playlistID, err)
	}
	return nil
}
