// Package postgres is Continuum's relational store: users, capture
// sessions, capture messages, notifications, and the processed-files
// ledger (spec.md section 6, storage collaborator (b)). The graph store
// owns decisions and entities; this package owns everything that isn't
// a knowledge-graph node.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/continuum-dev/continuum/internal/errors"
)

// Client wraps a pooled PostgreSQL connection.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient builds a connection pool from discrete parameters and
// verifies connectivity before returning, so startup fails fast rather
// than surfacing the error on the first query.
func NewClient(ctx context.Context, host string, port int, database, user, password string) (*Client, error) {
	if host == "" || database == "" || user == "" {
		return nil, fmt.Errorf("postgres: credentials missing: host=%s db=%s user=%s", host, database, user)
	}

	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, database, user, password,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Client{pool: pool}, nil
}

func (c *Client) Close() {
	c.pool.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return errors.Storage(err, "postgres unreachable")
	}
	return nil
}
