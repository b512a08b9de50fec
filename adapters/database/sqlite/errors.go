package sqlite

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/vesperdb/vesper/adapters/database"
)

// classify translates sqlite3 errors into the adapter error taxonomy using
// the extended result codes.
func classify(err error) error {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return nil
	}

	switch serr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		field := fieldFromMessage(serr.Error())
		return &database.UniqueConstraintError{
			Constraint: field,
			Field:      field,
			Err:        err,
		}
	case sqlite3.ErrConstraintForeignKey:
		return &database.ForeignKeyError{Err: err}
	}

	switch serr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrInterrupt:
		return &database.TimeoutError{Err: err}
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return &database.ConnectionError{Err: err}
	}

	return &database.BackendError{
		Code:    serr.Code.Error(),
		Message: serr.Error(),
	}
}

// fieldFromMessage extracts the column name from constraint messages of the
// form "UNIQUE constraint failed: users.email".
func fieldFromMessage(msg string) string {
	const marker = "constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	// Multi-column constraints list "t.a, t.b"; take the first column.
	if j := strings.IndexByte(rest, ','); j >= 0 {
		rest = rest[:j]
	}
	rest = strings.TrimSpace(rest)
	if j := strings.IndexByte(rest, '.'); j >= 0 {
		rest = rest[j+1:]
	}
	return rest
}
