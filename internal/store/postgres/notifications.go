package postgres

import (
	"context"
	"fmt"

	"github.com/continuum-dev/continuum/internal/model"
)

// CreateNotification persists a new, unread notification.
// notify.Service.Emit calls this before publishing to the websocket
// hub, so the durable record always exists even if no connection is live.
func (c *Client) CreateNotification(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, body, payload, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
	`
	_, err := c.pool.Exec(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Body, n.Payload, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create notification %s: %w", n.ID, err)
	}
	return nil
}

// ListNotifications returns a user's notifications, unread-first and
// newest-first within each read state, per spec.md section 4.9.
func (c *Client) ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	limit = effectiveLimit(limit, 50)
	query := `
		SELECT id, user_id, type, title, body, payload, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY read ASC, created_at DESC
		LIMIT $2
	`
	rows, err := c.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// RecentUnread fetches up to limit unread notifications oldest-first,
// the exact replay spec.md section 4.9 mandates on websocket connect.
func (c *Client) RecentUnread(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	limit = effectiveLimit(limit, 20)
	query := `
		SELECT id, user_id, type, title, body, payload, read, created_at
		FROM notifications
		WHERE user_id = $1 AND read = false
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := c.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent unread for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead acks a single notification, the in-band `{"ack": "<id>"}`
// path from the websocket handler as well as the REST mark-read route.
func (c *Client) MarkRead(ctx context.Context, userID, notificationID string) error {
	query := `UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`
	_, err := c.pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("postgres: mark read %s: %w", notificationID, err)
	}
	return nil
}

// MarkAllRead acks every unread notification for a user in one
// statement, backing `POST /api/notifications` read-all.
func (c *Client) MarkAllRead(ctx context.Context, userID string) error {
	query := `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`
	_, err := c.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("postgres: mark all read for %s: %w", userID, err)
	}
	return nil
}
