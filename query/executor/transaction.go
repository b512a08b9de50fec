package executor

import (
	"context"
	"errors"

	"github.com/vesperdb/vesper/adapters/database"
)

// ScopedExecutor runs operations inside one transaction. It holds the
// transaction handle exclusively: it must stay on the goroutine that opened
// it, and it is only valid until InTransaction returns.
type ScopedExecutor struct {
	session
	tx database.Tx
}

// InTransaction runs fn inside a transaction with the requested isolation
// intent. The transaction commits when fn returns nil and rolls back when fn
// returns an error or panics; a context cancelled mid-body surfaces as fn's
// error and rolls back like any other failure. A rollback or commit that
// itself fails is reported as TransactionAbortedError carrying the original
// failure.
func (e *Executor) InTransaction(ctx context.Context, isolation database.IsolationLevel, fn func(*ScopedExecutor) error) error {
	tx, err := e.adapter.Begin(ctx, isolation)
	if err != nil {
		return err
	}

	scoped := &ScopedExecutor{
		session: session{
			q:        tx,
			dialect:  e.dialect,
			registry: e.registry,
			mws:      e.mws,
			cache:    e.cache,
		},
		tx: tx,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, database.ErrTxDone) {
			return &TransactionAbortedError{Err: err, RollbackErr: rbErr}
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		// Best-effort rollback; the driver usually finished the transaction
		// already and reports ErrTxDone, which is fine.
		aborted := &TransactionAbortedError{Err: err}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, database.ErrTxDone) {
			aborted.RollbackErr = rbErr
		}
		return aborted
	}
	return nil
}
