// Package sqlite implements the database adapter for SQLite, including the
// in-memory databases the test suite leans on.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/vesperdb/vesper/adapters/database"
	"github.com/vesperdb/vesper/config"
	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/runtime/types"
)

// Open opens (or creates) the SQLite database named by the URL and wraps it
// in an adapter.
func Open(ctx context.Context, cfg config.Config) (*database.SQLAdapter, error) {
	db, err := sql.Open("sqlite3", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return database.New(db, Options()), nil
}

// Options returns the adapter options for a SQLite handle.
func Options() database.Options {
	return database.Options{
		Name:                 "sqlite",
		Dialect:              compiler.SQLite,
		TagOf:                tagOf,
		Classify:             classify,
		SupportsLastInsertID: true,
		SupportsIsolation:    supportsIsolation,
	}
}

// supportsIsolation mirrors what the driver accepts: serializable is the
// native mode and read-uncommitted is available through the shared cache
// pragma. Anything in between has no SQLite equivalent.
func supportsIsolation(l database.IsolationLevel) bool {
	switch l {
	case database.LevelDefault, database.LevelSerializable, database.LevelReadUncommitted:
		return true
	default:
		return false
	}
}

// tagOf maps declared SQLite column types to type tags. SQLite columns have
// type affinity rather than strict types, so this follows the declared name.
func tagOf(dbType string) (types.Tag, bool) {
	switch dbType {
	case "INT", "INTEGER", "SMALLINT", "MEDIUMINT", "BIGINT":
		return types.TagInt64, true
	case "REAL", "FLOAT", "DOUBLE":
		return types.TagFloat64, true
	case "NUMERIC", "DECIMAL":
		return types.TagDecimal, true
	case "BOOLEAN", "BOOL":
		return types.TagBool, true
	case "TEXT", "VARCHAR", "CHAR", "CLOB", "NVARCHAR":
		return types.TagText, true
	case "DATE", "DATETIME", "TIMESTAMP":
		return types.TagTimestamp, true
	case "JSON", "JSONB":
		return types.TagJSON, true
	case "BLOB":
		return types.TagBytes, true
	case "UUID":
		return types.TagUUID, true
	default:
		return 0, false
	}
}
