// Package graph is the labeled-property-graph backend for decisions,
// entities, and their relationships (spec.md sections 3, 4.5), backed
// by Neo4j. It implements internal/resolve.Store so the entity resolver
// never depends on this package directly.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/continuum-dev/continuum/internal/logging"
)

// Client wraps the Neo4j driver with fixed connection-pool settings (50
// connections, 60s acquisition timeout, 5s socket connect timeout). It
// sets no per-query timeout: a query runs until its ctx is done.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewClient dials uri and verifies connectivity before returning, so
// startup fails fast rather than deferring the error to the first query.
func NewClient(ctx context.Context, uri, user, password, database string) (*Client, error) {
	if uri == "" || user == "" || password == "" {
		return nil, fmt.Errorf("graph: uri, user, and password are required")
	}
	if database == "" {
		database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(uri,
		neo4j.BasicAuth(user, password, ""),
		func(cfg *neo4j.Config) {
			cfg.MaxConnectionPoolSize = 50
			cfg.ConnectionAcquisitionTimeout = 60 * time.Second
			cfg.MaxConnectionLifetime = time.Hour
			cfg.SocketConnectTimeout = 5 * time.Second
			cfg.SocketKeepalive = true
		})
	if err != nil {
		return nil, fmt.Errorf("graph: new driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("graph: connect to %s: %w", uri, err)
	}

	logging.Info("graph: connected", "uri", uri, "database", database)
	return &Client{driver: driver, database: database}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("graph: close: %w", err)
	}
	return nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph: health check: %w", err)
	}
	return nil
}

// write runs fn inside a managed write transaction against the default
// database, scoping session acquisition and release to the call so a
// cancelled context releases the connection at the next suspension
// point (spec.md section 5's cancellation invariant).
func (c *Client) write(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, fn)
	return err
}

// read runs fn inside a managed read transaction, routed to a reader
// replica where the deployment has one.
func (c *Client) read(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, fn)
}

// run executes a single query via ExecuteQuery with read-replica routing,
// for simple lookups that don't need multi-statement transaction control.
func (c *Client) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, c.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithReadersRouting(),
		neo4j.ExecuteQueryWithDatabase(c.database))
	if err != nil {
		return nil, fmt.Errorf("graph: query: %w", err)
	}
	return result, nil
}
