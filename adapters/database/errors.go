package database

import (
	"errors"
	"fmt"

	"github.com/vesperdb/vesper/runtime/types"
)

// ErrRecordNotFound reports that a read expecting a row found none.
var ErrRecordNotFound = errors.New("record not found")

// ErrTxDone reports a second Commit or Rollback on the same handle.
var ErrTxDone = errors.New("transaction already finished")

// UniqueConstraintError is a backend duplicate-key rejection, classified from
// the native error code. Field is populated when the backend reports which
// key collided.
type UniqueConstraintError struct {
	Constraint string
	Field      string
	Value      string
	Err        error
}

func (e *UniqueConstraintError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("unique constraint violation on field %q", e.Field)
	}
	return fmt.Sprintf("unique constraint violation (%s)", e.Constraint)
}

func (e *UniqueConstraintError) Unwrap() error { return e.Err }

// ForeignKeyError is a backend referential-integrity rejection.
type ForeignKeyError struct {
	Constraint string
	Err        error
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("foreign key violation (%s)", e.Constraint)
}

func (e *ForeignKeyError) Unwrap() error { return e.Err }

// TimeoutError reports that the backend cancelled the statement for taking
// too long, or that the call's deadline expired.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("query timeout: %v", e.Err) }

func (e *TimeoutError) Unwrap() error { return e.Err }

// ConnectionError reports a lost or unusable backend connection.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("connection lost: %v", e.Err) }

func (e *ConnectionError) Unwrap() error { return e.Err }

// BackendError carries a backend failure that matched no specific category.
// The raw code and message stay available for diagnostics.
type BackendError struct {
	Code    string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

func (e *BackendError) Unwrap() error { return e.Err }

// ConversionError reports a column value the adapter could not decode under
// its type tag. Conversion failures are surfaced, never silently coerced to
// null or stringified.
type ConversionError struct {
	Column string
	Tag    types.Tag
	Raw    any
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot decode column %q as %s from %T", e.Column, e.Tag, e.Raw)
}

// UnsupportedIsolationError reports an isolation intent the backend cannot
// honor.
type UnsupportedIsolationError struct {
	Provider string
	Level    IsolationLevel
}

func (e *UnsupportedIsolationError) Error() string {
	return fmt.Sprintf("%s does not support isolation level %s", e.Provider, e.Level)
}
