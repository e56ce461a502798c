// Package services implements the clients a playlist transfer talks to.
//
// # Spotify
//
// [SpotifyService] is the source. It builds the authorization URL, exchanges
// codes and refreshes tokens through [oauth2.Config], and persists every token
// response as a full [models.CredentialRecord]. [SpotifyService.ValidAccessToken]
// refreshes a stored token once it is within [StalenessMargin] of expiry.
//
// Playlist listings use github.com/zmb3/spotify/v2 and follow next links until
// the last page. Track listings are decoded here so items whose track was
// removed keep a nil Track.
//
// # YouTube Music
//
// [YouTubeService] is the target. It talks to the ytmusicapi proxy; the auth
// file path is sent via the X-Auth-File header on each request. Requests can be
// paced with a token bucket limiter.
//
// # Resolution
//
// [TrackResolver] turns a [models.NormalizedTrack] into a [models.Resolution]
// by searching the target. The first candidate wins unless a similarity
// threshold is configured.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.AuthExchangeError] : the token endpoint rejected a code
//   - [shared.AuthRefreshError] : the token endpoint rejected a refresh token
//   - [shared.TargetCreateError] : the target playlist could not be created
//   - [shared.ErrNotConnected] : no stored credential for the user
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services
