package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/runtime/types"
)

// Options parameterize the shared database/sql adapter core. Each backend
// package supplies its dialect, its column-type table and its native error
// classifier; everything else is common.
type Options struct {
	// Name identifies the provider ("postgres", "mysql", "sqlite", ...).
	Name string

	// Dialect is the SQL variant statements are compiled for.
	Dialect compiler.Dialect

	// TagOf maps an upper-cased driver column type name to a type tag.
	// Returning false lets the core infer the tag from the scanned value.
	TagOf func(databaseTypeName string) (types.Tag, bool)

	// Classify maps a native driver error to the typed taxonomy, or returns
	// nil when it does not recognize the error.
	Classify func(err error) error

	// SupportsLastInsertID gates ExecResult.LastInsertID; lib/pq has no
	// last-insert mechanism while mysql and sqlite do.
	SupportsLastInsertID bool

	// SupportsIsolation rejects isolation intents the backend cannot honor
	// before a transaction is opened. Nil accepts all levels.
	SupportsIsolation func(IsolationLevel) bool
}

// SQLAdapter implements Adapter over a database/sql pool. The zero value is
// unusable; construct with New.
type SQLAdapter struct {
	db   *sql.DB
	opts Options
}

// New wraps an open pool in an adapter. The adapter takes ownership: Close
// closes the pool.
func New(db *sql.DB, opts Options) *SQLAdapter {
	return &SQLAdapter{db: db, opts: opts}
}

// Name implements Adapter.
func (a *SQLAdapter) Name() string { return a.opts.Name }

// Dialect implements Adapter.
func (a *SQLAdapter) Dialect() compiler.Dialect { return a.opts.Dialect }

// Ping implements Adapter.
func (a *SQLAdapter) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return a.wrapErr(ctx, err)
	}
	return nil
}

// Close implements Adapter.
func (a *SQLAdapter) Close() error { return a.db.Close() }

// DB exposes the underlying pool for schema setup in tests and callers that
// need raw access.
func (a *SQLAdapter) DB() *sql.DB { return a.db }

// QueryRaw implements Queryer.
func (a *SQLAdapter) QueryRaw(ctx context.Context, stmt *compiler.Statement) (*ResultSet, error) {
	return a.query(ctx, a.db, stmt)
}

// ExecRaw implements Queryer.
func (a *SQLAdapter) ExecRaw(ctx context.Context, stmt *compiler.Statement) (ExecResult, error) {
	return a.exec(ctx, a.db, stmt)
}

// Begin implements Adapter.
func (a *SQLAdapter) Begin(ctx context.Context, isolation IsolationLevel) (Tx, error) {
	if a.opts.SupportsIsolation != nil && !a.opts.SupportsIsolation(isolation) {
		return nil, &UnsupportedIsolationError{Provider: a.opts.Name, Level: isolation}
	}
	var txOpts *sql.TxOptions
	if isolation != LevelDefault {
		txOpts = &sql.TxOptions{Isolation: isolation.sqlLevel()}
	}
	tx, err := a.db.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, a.wrapErr(ctx, err)
	}
	return &sqlTx{tx: tx, a: a}, nil
}

// runner is the subset of *sql.DB and *sql.Tx the core needs.
type runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (a *SQLAdapter) query(ctx context.Context, r runner, stmt *compiler.Statement) (*ResultSet, error) {
	rows, err := r.QueryContext(ctx, stmt.Text, encodeArgs(stmt)...)
	if err != nil {
		return nil, a.wrapErr(ctx, err)
	}
	defer rows.Close()

	rs, err := a.decodeRows(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, a.wrapErr(ctx, err)
	}
	return rs, nil
}

func (a *SQLAdapter) exec(ctx context.Context, r runner, stmt *compiler.Statement) (ExecResult, error) {
	res, err := r.ExecContext(ctx, stmt.Text, encodeArgs(stmt)...)
	if err != nil {
		return ExecResult{}, a.wrapErr(ctx, err)
	}
	out := ExecResult{}
	if n, err := res.RowsAffected(); err == nil {
		out.Affected = n
	}
	if a.opts.SupportsLastInsertID {
		if id, err := res.LastInsertId(); err == nil {
			out.LastInsertID = id
			out.HasInsertID = true
		}
	}
	return out, nil
}

// wrapErr classifies a driver error into the typed taxonomy. Deadline expiry
// maps to TimeoutError; plain cancellation propagates unchanged so callers
// can keep matching context.Canceled.
func (a *SQLAdapter) wrapErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	if errors.Is(err, sql.ErrTxDone) {
		return ErrTxDone
	}
	if a.opts.Classify != nil {
		if classified := a.opts.Classify(err); classified != nil {
			return classified
		}
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return &ConnectionError{Err: err}
	}
	return &BackendError{Message: err.Error(), Err: err}
}

func encodeArgs(stmt *compiler.Statement) []any {
	if len(stmt.Args) == 0 {
		return nil
	}
	out := make([]any, len(stmt.Args))
	for i, v := range stmt.Args {
		out[i] = v.Driver()
	}
	return out
}

// sqlTx is the single-caller transaction handle. A mutex serializes Commit
// and Rollback so the handle finishes exactly once even when the executor's
// deferred rollback races a commit error path.
type sqlTx struct {
	tx   *sql.Tx
	a    *SQLAdapter
	mu   sync.Mutex
	done bool
}

func (t *sqlTx) QueryRaw(ctx context.Context, stmt *compiler.Statement) (*ResultSet, error) {
	return t.a.query(ctx, t.tx, stmt)
}

func (t *sqlTx) ExecRaw(ctx context.Context, stmt *compiler.Statement) (ExecResult, error) {
	return t.a.exec(ctx, t.tx, stmt)
}

// Commit marks the handle finished only on success, so a failed commit can
// still be followed by a Rollback attempt. database/sql usually finishes the
// transaction itself on a failed commit; the follow-up Rollback then reports
// ErrTxDone, which callers treat as benign.
func (t *sqlTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	if err := t.tx.Commit(); err != nil {
		return t.a.wrapErr(context.Background(), err)
	}
	t.done = true
	return nil
}

func (t *sqlTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return t.a.wrapErr(context.Background(), err)
	}
	return nil
}
