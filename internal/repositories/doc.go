// Package repositories implements persistence for credentials and transfer history.
//
// Key Implementations:
//   - [CredentialRepository] : SQLite spotify_tokens table, one row per user, upserted on user_id
//   - [TransferLogRepository] : SQLite transfer_logs table, append-only, listed newest first
//   - [PostgresStore] : both stores on Postgres through bun, for hosted deployments
//
// Timestamps are stored as ISO-8601 UTC text in SQLite and as timestamptz in Postgres.
package repositories
