package postgres

import "context"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		anonymous BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS capture_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		project TEXT,
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		ended_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS capture_sessions_user_idx ON capture_sessions (user_id, status)`,
	`CREATE TABLE IF NOT EXISTS capture_messages (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES capture_sessions (id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		sequence INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS capture_messages_session_idx ON capture_messages (session_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		payload JSONB,
		read BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_read_idx ON notifications (user_id, read, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS processed_files (
		path TEXT NOT NULL,
		user_id TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (path, user_id)
	)`,
}

// Migrate applies the relational schema. Statements are idempotent
// (IF NOT EXISTS) so re-running it against an already-migrated database
// is a no-op.
func Migrate(ctx context.Context, c *Client) error {
	for _, stmt := range schemaStatements {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
