// Package database defines the contract every backend driver implements:
// execute one compiled statement and return a typed result set or an
// affected-row count, and open transactions scoped to a single handle. The
// concrete adapters live in the postgres, mysql and sqlite subpackages; all
// of them are thin tables over the shared database/sql core in this package.
package database

import (
	"context"
	"database/sql"

	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/runtime/types"
)

// IsolationLevel is the requested transaction isolation intent. It is passed
// through to the backend unchanged; an adapter that cannot honor the request
// reports UnsupportedIsolationError instead of downgrading silently.
type IsolationLevel uint8

const (
	LevelDefault IsolationLevel = iota
	LevelReadUncommitted
	LevelReadCommitted
	LevelRepeatableRead
	LevelSerializable
)

// String returns the SQL-standard name of the level.
func (l IsolationLevel) String() string {
	switch l {
	case LevelDefault:
		return "default"
	case LevelReadUncommitted:
		return "read uncommitted"
	case LevelReadCommitted:
		return "read committed"
	case LevelRepeatableRead:
		return "repeatable read"
	case LevelSerializable:
		return "serializable"
	default:
		return "unknown"
	}
}

func (l IsolationLevel) sqlLevel() sql.IsolationLevel {
	switch l {
	case LevelReadUncommitted:
		return sql.LevelReadUncommitted
	case LevelReadCommitted:
		return sql.LevelReadCommitted
	case LevelRepeatableRead:
		return sql.LevelRepeatableRead
	case LevelSerializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// ResultSet is one decoded tabular result. Row values align positionally
// with Columns; Tags carries the column type tags the values were decoded
// under. A result set is produced by one adapter call and consumed once.
type ResultSet struct {
	Columns []string
	Tags    []types.Tag
	Rows    [][]types.Value
}

// ExecResult reports the outcome of a statement that returns no rows.
type ExecResult struct {
	Affected     int64
	LastInsertID int64
	HasInsertID  bool
}

// Queryer is the execution surface shared by an adapter and a transaction
// handle.
type Queryer interface {
	// QueryRaw executes a statement that returns rows.
	QueryRaw(ctx context.Context, stmt *compiler.Statement) (*ResultSet, error)

	// ExecRaw executes a statement and returns its affected-row count.
	ExecRaw(ctx context.Context, stmt *compiler.Statement) (ExecResult, error)
}

// Adapter is one backend driver. Adapters are safe for concurrent use by
// independent calls; only transaction handles are single-caller.
type Adapter interface {
	Queryer

	// Name identifies the backend provider.
	Name() string

	// Dialect returns the SQL dialect statements must be compiled for.
	Dialect() compiler.Dialect

	// Begin opens a transaction with the requested isolation intent.
	Begin(ctx context.Context, isolation IsolationLevel) (Tx, error)

	// Ping verifies the connection.
	Ping(ctx context.Context) error

	// Close releases the underlying pool.
	Close() error
}

// Tx is a live transaction handle. It owns one backend session: it is not
// safe for concurrent use, and it must be committed or rolled back exactly
// once. The executor never shares a handle across goroutines.
type Tx interface {
	Queryer

	Commit() error
	Rollback() error
}
