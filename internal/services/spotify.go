// Spotify source client
//
// Covers the OAuth authorization-code flow, the refresh-on-read token gate and
// the two paginated listings the transfer needs.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1/"

	// StalenessMargin is how long before expiry a stored access token is refreshed.
	StalenessMargin = 60 * time.Second

	defaultExpiresIn  = 3600
	playlistPageLimit = 50
	trackPageLimit    = 100
)

// SpotifyScopes is the fixed scope set requested during authorization.
var SpotifyScopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// SpotifyOptions configures a [SpotifyService].
//
// AuthURL, TokenURL and APIBaseURL default to the public Spotify endpoints.
type SpotifyOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL    string
	TokenURL   string
	APIBaseURL string

	HTTPClient *http.Client
	Logger     *log.Logger
	Now        func() time.Time
}

// SpotifyService is the source client. It reads and writes credentials through a [models.CredentialStore].
type SpotifyService struct {
	config     *oauth2.Config
	store      models.CredentialStore
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
	now        func() time.Time
}

// NewSpotifyService creates a new Spotify source client backed by store.
func NewSpotifyService(opts SpotifyOptions, store models.CredentialStore) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: credential store is required", shared.ErrInvalidInput)
	}

	authURL, tokenURL, baseURL := opts.AuthURL, opts.TokenURL, opts.APIBaseURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       SpotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store:      store,
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
		now:        now,
	}, nil
}

// AuthorizeURL returns the consent URL for state. The result depends only on
// configuration and state.
func (s *SpotifyService) AuthorizeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "false"))
}

// tokenContext routes oauth2 token requests through the configured HTTP client.
func (s *SpotifyService) tokenContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// ExchangeCode trades an authorization code for tokens with a single token endpoint call.
func (s *SpotifyService) ExchangeCode(ctx context.Context, code string) (*models.TokenData, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	token, err := s.config.Exchange(s.tokenContext(ctx), code)
	if err != nil {
		return nil, &shared.AuthExchangeError{StatusCode: retrieveStatus(err), Err: err}
	}
	return tokenData(token), nil
}

// Refresh obtains a new access token for refreshToken.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*models.TokenData, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	src := s.config.TokenSource(s.tokenContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, &shared.AuthRefreshError{StatusCode: retrieveStatus(err), Err: err}
	}
	return tokenData(token), nil
}

// SaveToken persists data as the user's full credential record.
//
// expires_at is computed from the injected clock. A missing expires_in counts
// as one hour, and a missing refresh token keeps the previously stored one.
func (s *SpotifyService) SaveToken(ctx context.Context, userID string, data *models.TokenData) (*models.CredentialRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	expiresIn := data.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	refreshToken := data.RefreshToken
	if refreshToken == "" {
		prev, err := s.store.Get(ctx, userID)
		switch {
		case err == nil:
			refreshToken = prev.RefreshToken
		case !errors.Is(err, shared.ErrCredentialNotFound):
			return nil, fmt.Errorf("failed to load previous credential: %w", err)
		}
	}

	tokenType := data.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	rec := &models.CredentialRecord{
		UserID:       userID,
		AccessToken:  data.AccessToken,
		RefreshToken: refreshToken,
		Scope:        data.Scope,
		TokenType:    tokenType,
		ExpiresAt:    s.now().UTC().Add(time.Duration(expiresIn) * time.Second),
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}
	return rec, nil
}

// Credential returns the stored record for userID, or [shared.ErrNotConnected].
func (s *SpotifyService) Credential(ctx context.Context, userID string) (*models.CredentialRecord, error) {
	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, shared.ErrCredentialNotFound) {
		return nil, shared.ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return rec, nil
}

// ValidAccessToken returns an access token that is not within [StalenessMargin] of expiry,
// refreshing and persisting a new one when needed. It never returns a stale token.
func (s *SpotifyService) ValidAccessToken(ctx context.Context, userID string) (string, error) {
	rec, err := s.Credential(ctx, userID)
	if err != nil {
		return "", err
	}

	if !rec.Stale(s.now(), StalenessMargin) {
		return rec.AccessToken, nil
	}

	if rec.RefreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}

	s.logger.Debug("refreshing spotify token", "user", userID, "expires_at", rec.ExpiresAt)
	data, err := s.Refresh(ctx, rec.RefreshToken)
	if err != nil {
		return "", err
	}

	if data.RefreshToken == "" {
		data.RefreshToken = rec.RefreshToken
	}
	updated, err := s.SaveToken(ctx, userID, data)
	if err != nil {
		return "", err
	}
	return updated.AccessToken, nil
}

// bearerClient returns an HTTP client that sends accessToken on every request.
func (s *SpotifyService) bearerClient(accessToken string) *http.Client {
	return &http.Client{
		Timeout: s.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   s.httpClient.Transport,
		},
	}
}

// ListPlaylists returns every playlist in the user's library, in page order.
func (s *SpotifyService) ListPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error) {
	token, err := s.ValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	client := spotify.New(s.bearerClient(token), spotify.WithBaseURL(s.baseURL))

	page, err := client.CurrentUsersPlaylists(ctx, spotify.Limit(playlistPageLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: list playlists: %v", shared.ErrAPIRequest, err)
	}

	var playlists []models.PlaylistSummary
	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, models.PlaylistSummary{ID: string(p.ID), Name: p.Name})
		}

		err = client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list playlists: %v", shared.ErrAPIRequest, err)
		}
	}

	s.logger.Debug("listed playlists", "user", userID, "count", len(playlists))
	return playlists, nil
}

type trackPage struct {
	Items []models.TrackEnvelope `json:"items"`
	Next  *string                `json:"next"`
}

// ListPlaylistTracks returns every raw item of playlistID, following next links until absent.
func (s *SpotifyService) ListPlaylistTracks(ctx context.Context, userID, playlistID string) ([]models.TrackEnvelope, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	token, err := s.ValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	client := s.bearerClient(token)

	next := fmt.Sprintf("%splaylists/%s/tracks?limit=%d", s.baseURL, url.PathEscape(playlistID), trackPageLimit)

	var items []models.TrackEnvelope
	for next != "" {
		var page trackPage
		if err := s.doRequest(ctx, client, next, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	s.logger.Debug("listed playlist tracks", "playlist", playlistID, "count", len(items))
	return items, nil
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, client *http.Client, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// tokenData converts an oauth2 token into the endpoint's response shape.
func tokenData(t *oauth2.Token) *models.TokenData {
	data := &models.TokenData{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if scope, ok := t.Extra("scope").(string); ok {
		data.Scope = scope
	}

	switch v := t.Extra("expires_in").(type) {
	case float64:
		data.ExpiresIn = int(v)
	case int64:
		data.ExpiresIn = int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			data.ExpiresIn = int(n)
		}
	}
	return data
}

// retrieveStatus extracts the token endpoint's HTTP status from an oauth2 error, or 0.
func retrieveStatus(err error) int {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode
	}
	return 0
}
