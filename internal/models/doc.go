// Package models defines domain entities and persistence interfaces for the plmove playlist transfer service.
//
// The package contains three categories of types:
//
// 1. Source data: values read from Spotify
//   - [PlaylistSummary] : a playlist in the user's listing
//   - [TrackEnvelope] : a raw playlist item whose track may be missing
//   - [NormalizedTrack] : title and ordered artist names used as the search key
//
// 2. Transfer results: tagged values produced while copying a playlist
//   - [Resolution] : Resolved, Unresolved or SearchFailed
//   - [TrackOutcome] : Added, Unresolved, SearchFailed or AddFailed
//   - [TransferResult] : counters plus per-track outcomes
//
// 3. Persistent records and the interfaces that store them
//   - [CredentialRecord] via [CredentialStore]
//   - [TransferLogEntry] via [TransferLogSink]
package models
