package executor

import (
	"fmt"

	"github.com/vesperdb/vesper/query/ast"
)

// ExecutionError wraps any failure surfaced while running one operation,
// carrying the action and collection that failed. The underlying compile or
// adapter error stays reachable through Unwrap.
type ExecutionError struct {
	Action     ast.Action
	Collection string
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.Collection, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TransactionAbortedError reports a transaction that could not finish
// cleanly: either rollback itself failed after the body errored, or commit
// failed. Err is the failure that ended the transaction.
type TransactionAbortedError struct {
	Err         error
	RollbackErr error
}

func (e *TransactionAbortedError) Error() string {
	if e.RollbackErr != nil {
		return fmt.Sprintf("transaction aborted: %v (rollback failed: %v)", e.Err, e.RollbackErr)
	}
	return fmt.Sprintf("transaction aborted: %v", e.Err)
}

func (e *TransactionAbortedError) Unwrap() error { return e.Err }
