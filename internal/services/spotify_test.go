package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
	th "github.com/desertthunder/plmove/internal/testing"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// spotifyFixture fakes the accounts and Web API hosts on one server.
type spotifyFixture struct {
	srv          *httptest.Server
	tokenCalls   atomic.Int32
	tokenStatus  int
	tokenBody    map[string]any
	lastForm     url.Values
	lastAuthUser string
	api          http.Handler
}

func newSpotifyFixture(t *testing.T) *spotifyFixture {
	t.Helper()
	f := &spotifyFixture{
		tokenStatus: http.StatusOK,
		tokenBody: map[string]any{
			"access_token":  "new_access",
			"refresh_token": "new_refresh",
			"expires_in":    3600,
			"scope":         "playlist-read-private",
			"token_type":    "Bearer",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token form: %v", err)
		}
		f.lastForm = r.PostForm
		f.lastAuthUser, _, _ = r.BasicAuth()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		if f.tokenStatus != http.StatusOK {
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		json.NewEncoder(w).Encode(f.tokenBody)
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		if f.api == nil {
			http.NotFound(w, r)
			return
		}
		f.api.ServeHTTP(w, r)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *spotifyFixture) service(t *testing.T, store models.CredentialStore) *SpotifyService {
	t.Helper()
	svc, err := NewSpotifyService(SpotifyOptions{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://127.0.0.1:3000/callback",
		AuthURL:      f.srv.URL + "/authorize",
		TokenURL:     f.srv.URL + "/api/token",
		APIBaseURL:   f.srv.URL + "/v1",
		HTTPClient:   f.srv.Client(),
		Now:          func() time.Time { return fixedNow },
	}, store)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return svc
}

func storedRecord(expiresIn time.Duration, refresh string) models.CredentialRecord {
	return models.CredentialRecord{
		UserID:       "u1",
		AccessToken:  "old_access",
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    fixedNow.Add(expiresIn),
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		store := th.NewMemoryCredentialStore()

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(SpotifyOptions{ClientSecret: "s"}, store)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(SpotifyOptions{ClientID: "id"}, store)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			svc, err := NewSpotifyService(SpotifyOptions{ClientID: "id", ClientSecret: "s"}, store)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.baseURL != spotifyBaseURL {
				t.Errorf("expected base URL %s, got %s", spotifyBaseURL, svc.baseURL)
			}
			if svc.config.Endpoint.TokenURL != "https://accounts.spotify.com/api/token" {
				t.Errorf("unexpected token URL %s", svc.config.Endpoint.TokenURL)
			}
		})
	})

	t.Run("AuthorizeURL", func(t *testing.T) {
		f := newSpotifyFixture(t)
		svc := f.service(t, th.NewMemoryCredentialStore())

		first := svc.AuthorizeURL("state-123")
		second := svc.AuthorizeURL("state-123")
		if first != second {
			t.Errorf("expected identical URLs, got %q and %q", first, second)
		}

		u, err := url.Parse(first)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		q := u.Query()

		want := map[string]string{
			"client_id":     "test_client_id",
			"response_type": "code",
			"redirect_uri":  "http://127.0.0.1:3000/callback",
			"state":         "state-123",
			"show_dialog":   "false",
			"scope":         "playlist-read-private playlist-read-collaborative playlist-modify-public playlist-modify-private",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("expected %s=%q, got %q", k, v, got)
			}
		}

		if f.tokenCalls.Load() != 0 {
			t.Error("building the URL must not call the token endpoint")
		}
	})

	t.Run("ExchangeCode", func(t *testing.T) {
		t.Run("success", func(t *testing.T) {
			f := newSpotifyFixture(t)
			svc := f.service(t, th.NewMemoryCredentialStore())

			data, err := svc.ExchangeCode(context.Background(), "auth-code")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if f.tokenCalls.Load() != 1 {
				t.Errorf("expected one token call, got %d", f.tokenCalls.Load())
			}
			if f.lastForm.Get("grant_type") != "authorization_code" {
				t.Errorf("expected authorization_code grant, got %s", f.lastForm.Get("grant_type"))
			}
			if f.lastForm.Get("code") != "auth-code" {
				t.Errorf("expected code auth-code, got %s", f.lastForm.Get("code"))
			}
			if f.lastAuthUser != "test_client_id" {
				t.Errorf("expected basic auth with client id, got %q", f.lastAuthUser)
			}

			if data.AccessToken != "new_access" || data.RefreshToken != "new_refresh" {
				t.Errorf("unexpected token data %+v", data)
			}
			if data.ExpiresIn != 3600 {
				t.Errorf("expected expires_in 3600, got %d", data.ExpiresIn)
			}
			if data.Scope != "playlist-read-private" {
				t.Errorf("expected scope, got %q", data.Scope)
			}
		})

		t.Run("rejected", func(t *testing.T) {
			f := newSpotifyFixture(t)
			f.tokenStatus = http.StatusBadRequest
			svc := f.service(t, th.NewMemoryCredentialStore())

			_, err := svc.ExchangeCode(context.Background(), "bad-code")
			var exErr *shared.AuthExchangeError
			if !errors.As(err, &exErr) {
				t.Fatalf("expected AuthExchangeError, got %v", err)
			}
			if exErr.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", exErr.StatusCode)
			}
			if !errors.Is(err, shared.ErrAuthExchange) {
				t.Error("expected errors.Is ErrAuthExchange")
			}
			if f.tokenCalls.Load() != 1 {
				t.Errorf("expected exactly one attempt, got %d", f.tokenCalls.Load())
			}
		})

		t.Run("missing code", func(t *testing.T) {
			f := newSpotifyFixture(t)
			svc := f.service(t, th.NewMemoryCredentialStore())
			if _, err := svc.ExchangeCode(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("SaveToken", func(t *testing.T) {
		f := newSpotifyFixture(t)

		t.Run("defaults expires_in", func(t *testing.T) {
			store := th.NewMemoryCredentialStore()
			svc := f.service(t, store)

			rec, err := svc.SaveToken(context.Background(), "u1", &models.TokenData{AccessToken: "a", RefreshToken: "r"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !rec.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
				t.Errorf("expected expiry one hour out, got %v", rec.ExpiresAt)
			}
			if rec.TokenType != "Bearer" {
				t.Errorf("expected Bearer token type, got %q", rec.TokenType)
			}
		})

		t.Run("preserves refresh token", func(t *testing.T) {
			store := th.NewMemoryCredentialStore(storedRecord(time.Hour, "keep_me"))
			svc := f.service(t, store)

			if _, err := svc.SaveToken(context.Background(), "u1", &models.TokenData{AccessToken: "a2", ExpiresIn: 120}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got, _ := store.Get(context.Background(), "u1")
			if got.RefreshToken != "keep_me" {
				t.Errorf("expected refresh token to be preserved, got %q", got.RefreshToken)
			}
			if got.AccessToken != "a2" {
				t.Errorf("expected access token a2, got %q", got.AccessToken)
			}
			if !got.ExpiresAt.Equal(fixedNow.Add(2 * time.Minute)) {
				t.Errorf("unexpected expiry %v", got.ExpiresAt)
			}
		})
	})

	t.Run("ValidAccessToken", func(t *testing.T) {
		ctx := context.Background()

		t.Run("not connected", func(t *testing.T) {
			f := newSpotifyFixture(t)
			svc := f.service(t, th.NewMemoryCredentialStore())

			if _, err := svc.ValidAccessToken(ctx, "u1"); !errors.Is(err, shared.ErrNotConnected) {
				t.Errorf("expected ErrNotConnected, got %v", err)
			}
		})

		t.Run("refreshes when 30 seconds from expiry", func(t *testing.T) {
			f := newSpotifyFixture(t)
			delete(f.tokenBody, "refresh_token")
			store := th.NewMemoryCredentialStore(storedRecord(30*time.Second, "refresh-1"))
			svc := f.service(t, store)

			token, err := svc.ValidAccessToken(ctx, "u1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token != "new_access" {
				t.Errorf("expected refreshed token, got %q", token)
			}
			if f.lastForm.Get("grant_type") != "refresh_token" || f.lastForm.Get("refresh_token") != "refresh-1" {
				t.Errorf("unexpected refresh form %v", f.lastForm)
			}

			rec, _ := store.Get(ctx, "u1")
			if rec.AccessToken != "new_access" {
				t.Errorf("expected persisted token, got %q", rec.AccessToken)
			}
			if rec.RefreshToken != "refresh-1" {
				t.Errorf("expected preserved refresh token, got %q", rec.RefreshToken)
			}
			if !rec.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
				t.Errorf("expected new expiry, got %v", rec.ExpiresAt)
			}
		})

		t.Run("refresh iff within margin", func(t *testing.T) {
			tc := []struct {
				lifetime time.Duration
				refresh  bool
			}{
				{-time.Hour, true},
				{0, true},
				{30 * time.Second, true},
				{59 * time.Second, true},
				{60 * time.Second, true},
				{61 * time.Second, false},
				{time.Hour, false},
			}

			for _, tt := range tc {
				t.Run(tt.lifetime.String(), func(t *testing.T) {
					f := newSpotifyFixture(t)
					svc := f.service(t, th.NewMemoryCredentialStore(storedRecord(tt.lifetime, "r")))

					token, err := svc.ValidAccessToken(ctx, "u1")
					if err != nil {
						t.Fatalf("expected no error, got %v", err)
					}

					refreshed := f.tokenCalls.Load() == 1
					if refreshed != tt.refresh {
						t.Errorf("refreshed = %v, want %v", refreshed, tt.refresh)
					}
					if tt.refresh && token == "old_access" {
						t.Error("returned a stale token")
					}
					if !tt.refresh && token != "old_access" {
						t.Errorf("expected stored token, got %q", token)
					}
				})
			}
		})

		t.Run("stale without refresh token", func(t *testing.T) {
			f := newSpotifyFixture(t)
			svc := f.service(t, th.NewMemoryCredentialStore(storedRecord(10*time.Second, "")))

			if _, err := svc.ValidAccessToken(ctx, "u1"); !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
			if f.tokenCalls.Load() != 0 {
				t.Error("expected no token call")
			}
		})

		t.Run("refresh rejected", func(t *testing.T) {
			f := newSpotifyFixture(t)
			f.tokenStatus = http.StatusBadRequest
			store := th.NewMemoryCredentialStore(storedRecord(10*time.Second, "revoked"))
			svc := f.service(t, store)

			_, err := svc.ValidAccessToken(ctx, "u1")
			var rErr *shared.AuthRefreshError
			if !errors.As(err, &rErr) {
				t.Fatalf("expected AuthRefreshError, got %v", err)
			}
			if rErr.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rErr.StatusCode)
			}
			if store.Upserts != 0 {
				t.Error("expected stored record to be left untouched")
			}
		})
	})

	t.Run("ListPlaylists", func(t *testing.T) {
		ctx := context.Background()

		t.Run("aggregates pages in order", func(t *testing.T) {
			f := newSpotifyFixture(t)
			var auth []string
			f.api = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/me/playlists" {
					http.NotFound(w, r)
					return
				}
				auth = append(auth, r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")

				switch r.URL.Query().Get("offset") {
				case "":
					if r.URL.Query().Get("limit") != "50" {
						t.Errorf("expected limit=50, got %s", r.URL.Query().Get("limit"))
					}
					fmt.Fprintf(w, `{"items":[{"id":"p1","name":"Road Trip"},{"id":"p2","name":"Focus"}],"total":3,"next":"%s/v1/me/playlists?offset=2&limit=50"}`, f.srv.URL)
				default:
					fmt.Fprint(w, `{"items":[{"id":"p3","name":"Sleep"}],"total":3,"next":null}`)
				}
			})
			svc := f.service(t, th.NewMemoryCredentialStore(storedRecord(time.Hour, "r")))

			playlists, err := svc.ListPlaylists(ctx, "u1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := []string{"p1", "p2", "p3"}
			if len(playlists) != len(want) {
				t.Fatalf("expected %d playlists, got %d", len(want), len(playlists))
			}
			for i, id := range want {
				if playlists[i].ID != id {
					t.Errorf("playlist %d: expected %s, got %s", i, id, playlists[i].ID)
				}
			}
			if playlists[0].Name != "Road Trip" {
				t.Errorf("expected Road Trip, got %s", playlists[0].Name)
			}

			for _, a := range auth {
				if a != "Bearer old_access" {
					t.Errorf("expected bearer token on every page, got %q", a)
				}
			}
		})

		t.Run("non-2xx is fatal", func(t *testing.T) {
			f := newSpotifyFixture(t)
			f.api = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":{"status":500,"message":"boom"}}`)
			})
			svc := f.service(t, th.NewMemoryCredentialStore(storedRecord(time.Hour, "r")))

			if _, err := svc.ListPlaylists(ctx, "u1"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("not connected", func(t *testing.T) {
			f := newSpotifyFixture(t)
			svc := f.service(t, th.NewMemoryCredentialStore())
			if _, err := svc.ListPlaylists(ctx, "u1"); !errors.Is(err, shared.ErrNotConnected) {
				t.Errorf("expected ErrNotConnected, got %v", err)
			}
		})
	})

	t.Run("ListPlaylistTracks", func(t *testing.T) {
		ctx := context.Background()

		t.Run("follows next and keeps null tracks", func(t *testing.T) {
			f := newSpotifyFixture(t)
			var pages int
			f.api = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasPrefix(r.URL.Path, "/v1/playlists/p1/tracks") {
					http.NotFound(w, r)
					return
				}
				if r.Header.Get("Authorization") != "Bearer old_access" {
					t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
				}
				pages++
				w.Header().Set("Content-Type", "application/json")

				if r.URL.Query().Get("offset") == "" {
					if r.URL.Query().Get("limit") != "100" {
						t.Errorf("expected limit=100, got %s", r.URL.Query().Get("limit"))
					}
					fmt.Fprintf(w, `{"items":[
						{"added_at":"2025-01-01T00:00:00Z","is_local":false,"track":{"id":"t1","name":"Song A","artists":[{"name":"Artist A"}]}},
						{"added_at":"2025-01-02T00:00:00Z","is_local":false,"track":null}
					],"next":"%s/v1/playlists/p1/tracks?offset=100&limit=100"}`, f.srv.URL)
					return
				}
				fmt.Fprint(w, `{"items":[{"added_at":"2025-01-03T00:00:00Z","track":{"id":"t3","name":"Song C","artists":[{"name":"X"},{"name":"Y"}]}}],"next":null}`)
			})
			svc := f.service(t, th.NewMemoryCredentialStore(storedRecord(time.Hour, "r")))

			items, err := svc.ListPlaylistTracks(ctx, "u1", "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if pages != 2 {
				t.Errorf("expected 2 page requests, got %d", pages)
			}
			if len(items) != 3 {
				t.Fatalf("expected 3 items, got %d", len(items))
			}
			if items[0].Track == nil || items[0].Track.Name != "Song A" {
				t.Errorf("unexpected first item %+v", items[0])
			}
			if items[1].Track != nil {
				t.Error("expected nil track for removed item")
			}
			if got := items[2].Track.Artists; len(got) != 2 || got[1].Name != "Y" {
				t.Errorf("unexpected artists %+v", got)
			}
		})

		t.Run("refreshes once per listing", func(t *testing.T) {
			f := newSpotifyFixture(t)
			f.api = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer new_access" {
					t.Errorf("expected refreshed token, got %q", r.Header.Get("Authorization"))
				}
				w.Header().Set("Content-Type", "application/json")
				if r.URL.Query().Get("offset") == "" {
					fmt.Fprintf(w, `{"items":[],"next":"%s/v1/playlists/p1/tracks?offset=100"}`, f.srv.URL)
					return
				}
				fmt.Fprint(w, `{"items":[],"next":null}`)
			})
			svc := f.service(t, th.NewMemoryCredentialStore(storedRecord(30*time.Second, "r")))

			if _, err := svc.ListPlaylistTracks(ctx, "u1", "p1"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if f.tokenCalls.Load() != 1 {
				t.Errorf("expected one refresh, got %d", f.tokenCalls.Load())
			}
		})

		t.Run("non-2xx is fatal", func(t *testing.T) {
			f := newSpotifyFixture(t)
			f.api = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error":{"status":404,"message":"Not found."}}`)
			})
			svc := f.service(t, th.NewMemoryCredentialStore(storedRecord(time.Hour, "r")))

			_, err := svc.ListPlaylistTracks(ctx, "u1", "missing")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "Not found.") {
				t.Errorf("expected API message in error, got %v", err)
			}
		})
	})
}
