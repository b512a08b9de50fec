// Package postgres implements the database adapter for the Postgres family.
// Two drivers are supported: lib/pq (the default) and pgx through its
// database/sql shim; both report SQLSTATE codes, so classification handles
// either error shape.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver, registered as "pgx"
	_ "github.com/lib/pq"              // default PostgreSQL driver

	"github.com/vesperdb/vesper/adapters/database"
	"github.com/vesperdb/vesper/config"
	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/runtime/types"
)

// Open connects to Postgres and wraps the pool in an adapter. cfg.Driver
// selects "postgres" (lib/pq) or "pgx"; empty means lib/pq.
func Open(ctx context.Context, cfg config.Config) (*database.SQLAdapter, error) {
	driver := cfg.Driver
	switch driver {
	case "", "postgres", "postgresql":
		driver = "postgres"
	case "pgx":
	default:
		return nil, fmt.Errorf("postgres: unknown driver %q", cfg.Driver)
	}

	db, err := sql.Open(driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	applyPool(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeoutOrDefault())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return database.New(db, Options()), nil
}

// Options returns the adapter options for a Postgres pool. Exposed so tests
// and callers with an existing *sql.DB can build the adapter directly.
func Options() database.Options {
	return database.Options{
		Name:     "postgres",
		Dialect:  compiler.Postgres,
		TagOf:    tagOf,
		Classify: classify,
		// RETURNING covers read-back; lib/pq has no LastInsertId.
		SupportsLastInsertID: false,
	}
}

func applyPool(db *sql.DB, cfg config.Config) {
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns((cfg.MaxConnections + 1) / 2)
	}
	if cfg.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)
	}
}

// tagOf maps Postgres wire type names, as reported by both drivers, to type
// tags.
func tagOf(dbType string) (types.Tag, bool) {
	switch dbType {
	case "INT2", "INT4":
		return types.TagInt32, true
	case "INT8":
		return types.TagInt64, true
	case "FLOAT4", "FLOAT8":
		return types.TagFloat64, true
	case "NUMERIC":
		return types.TagDecimal, true
	case "BOOL":
		return types.TagBool, true
	case "TEXT", "VARCHAR", "BPCHAR", "NAME", "CHAR":
		return types.TagText, true
	case "TIMESTAMP", "TIMESTAMPTZ", "DATE":
		return types.TagTimestamp, true
	case "JSON", "JSONB":
		return types.TagJSON, true
	case "BYTEA":
		return types.TagBytes, true
	case "UUID":
		return types.TagUUID, true
	default:
		return 0, false
	}
}
