package postgres

import (
	"context"
	"fmt"

	"github.com/continuum-dev/continuum/internal/model"
)

// EnsureUser inserts a user row if none exists, marking it anonymous
// only for model.AnonymousUserID; an existing row is left unchanged.
func (c *Client) EnsureUser(ctx context.Context, userID string) error {
	query := `
		INSERT INTO users (id, anonymous)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := c.pool.Exec(ctx, query, userID, userID == model.AnonymousUserID)
	if err != nil {
		return fmt.Errorf("postgres: ensure user: %w", err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT id, anonymous, created_at FROM users WHERE id = $1`
	var u model.User
	err := c.pool.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Anonymous, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: get user %s: %w", userID, err)
	}
	return &u, nil
}
