// Package tasks orchestrates playlist transfers between music services with real-time progress reporting.
//
// # Transfer
//
// [TransferEngine.Run] copies one Spotify playlist to YouTube Music:
//
//  1. Lists the user's playlists and finds the exact id
//  2. Lists every item of that playlist
//  3. Normalizes items to title plus artist names, dropping removed tracks
//  4. Creates the target playlist
//  5. Resolves and adds each track in order, recording a [models.TrackOutcome]
//  6. Appends one [models.TransferLogEntry] with status "finished"
//
// Runs are sequential: every remote call completes before the next begins.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking; a nil channel disables them.
//
// # Failure Model
//
// Fatal errors stop the run before a log entry is written. Per-track failures
// never stop it; they are counted in [models.TransferResult.FailCount].
// Target playlists are not rolled back.
package tasks
