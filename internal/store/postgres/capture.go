package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/continuum-dev/continuum/internal/model"
)

// CreateCaptureSession opens a new session row, the durable counterpart
// to the batcher's in-memory session state (spec.md section 4.10).
func (c *Client) CreateCaptureSession(ctx context.Context, s *model.CaptureSession) error {
	query := `
		INSERT INTO capture_sessions (id, user_id, project, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.pool.Exec(ctx, query, s.ID, s.UserID, s.Project, model.CaptureSessionOpen, s.StartedAt)
	if err != nil {
		return fmt.Errorf("postgres: create capture session %s: %w", s.ID, err)
	}
	return nil
}

// CompleteCaptureSession marks a session completed, called by the
// capture-complete route handler after it flushes the session's batch.
func (c *Client) CompleteCaptureSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	query := `UPDATE capture_sessions SET status = $1, ended_at = $2 WHERE id = $3`
	_, err := c.pool.Exec(ctx, query, model.CaptureSessionCompleted, endedAt, sessionID)
	if err != nil {
		return fmt.Errorf("postgres: complete capture session %s: %w", sessionID, err)
	}
	return nil
}

// AppendBatch persists one flushed batch of capture messages inside a
// single transaction, per spec.md section 4.10's "flush writes are
// transactional per batch".
func (c *Client) AppendBatch(ctx context.Context, sessionID string, messages []model.CaptureMessage) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO capture_messages (session_id, role, content, sequence, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, m := range messages {
		if _, err := tx.Exec(ctx, query, sessionID, m.Role, m.Content, m.Sequence, m.CreatedAt); err != nil {
			return fmt.Errorf("postgres: append batch message seq=%d: %w", m.Sequence, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit batch: %w", err)
	}
	return nil
}

// ListMessages returns a session's messages in arrival order, the
// ordering guarantee spec.md section 5 requires the batcher to preserve.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]model.CaptureMessage, error) {
	query := `
		SELECT id, session_id, role, content, sequence, created_at
		FROM capture_messages
		WHERE session_id = $1
		ORDER BY sequence ASC
	`
	rows, err := c.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list messages for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []model.CaptureMessage
	for rows.Next() {
		var m model.CaptureMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Sequence, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
