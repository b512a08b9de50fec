// Package vesper is the entry point of the query engine: it opens the
// configured backend adapter, binds it to a schema registry, and exposes
// query execution and transactions through one client.
package vesper

import (
	"context"
	"fmt"

	"github.com/vesperdb/vesper/adapters/database"
	"github.com/vesperdb/vesper/adapters/database/mysql"
	"github.com/vesperdb/vesper/adapters/database/postgres"
	"github.com/vesperdb/vesper/adapters/database/sqlite"
	"github.com/vesperdb/vesper/config"
	"github.com/vesperdb/vesper/internal/debug"
	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/query/executor"
	"github.com/vesperdb/vesper/runtime/types"
	"github.com/vesperdb/vesper/schema"
)

// Client is the top-level handle. It is safe for concurrent use.
type Client struct {
	adapter  database.Adapter
	registry *schema.Registry
	exec     *executor.Executor
}

// Open validates the configuration, connects the provider's adapter and
// returns a client bound to the registry.
func Open(ctx context.Context, cfg config.Config, registry *schema.Registry) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	debug.Init(cfg.Debug)

	var (
		adapter database.Adapter
		err     error
	)
	switch cfg.Provider {
	case "postgres", "postgresql":
		adapter, err = postgres.Open(ctx, cfg)
	case "mysql":
		adapter, err = mysql.Open(ctx, cfg)
	case "sqlite", "sqlite3":
		adapter, err = sqlite.Open(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return FromAdapter(adapter, registry), nil
}

// FromAdapter returns a client over an already-open adapter. Useful for
// tests and for adapters constructed with custom options.
func FromAdapter(adapter database.Adapter, registry *schema.Registry) *Client {
	return &Client{
		adapter:  adapter,
		registry: registry,
		exec:     executor.New(adapter, registry),
	}
}

// Use appends a middleware to the executor chain. Call before issuing
// queries.
func (c *Client) Use(mw executor.Middleware) { c.exec.Use(mw) }

// Registry returns the schema registry the client compiles against.
func (c *Client) Registry() *schema.Registry { return c.registry }

// Executor returns the underlying executor.
func (c *Client) Executor() *executor.Executor { return c.exec }

// Adapter returns the underlying adapter.
func (c *Client) Adapter() database.Adapter { return c.adapter }

// Query executes a read.
func (c *Client) Query(ctx context.Context, q *ast.Query) ([]*types.Record, error) {
	return c.exec.Query(ctx, q)
}

// QueryOne executes a read and returns its first row, if any.
func (c *Client) QueryOne(ctx context.Context, q *ast.Query) (*types.Record, error) {
	return c.exec.QueryOne(ctx, q)
}

// QueryGrouped executes a join-aware read with nested relation records.
func (c *Client) QueryGrouped(ctx context.Context, q *ast.Query) ([]*executor.Entity, error) {
	return c.exec.QueryGrouped(ctx, q)
}

// Mutate executes a write.
func (c *Client) Mutate(ctx context.Context, q *ast.Query) (*executor.MutationResult, error) {
	return c.exec.Mutate(ctx, q)
}

// Count returns the number of rows matching the query's filter.
func (c *Client) Count(ctx context.Context, q *ast.Query) (int64, error) {
	return c.exec.Count(ctx, q)
}

// InTransaction runs fn inside one transaction. See executor.InTransaction.
func (c *Client) InTransaction(ctx context.Context, isolation database.IsolationLevel, fn func(*executor.ScopedExecutor) error) error {
	return c.exec.InTransaction(ctx, isolation, fn)
}

// Ping verifies the backend connection.
func (c *Client) Ping(ctx context.Context) error { return c.adapter.Ping(ctx) }

// Close releases the underlying connection pool.
func (c *Client) Close() error { return c.adapter.Close() }
