package mysql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/vesperdb/vesper/adapters/database"
)

// dupRe matches messages like
// `Duplicate entry 'a@x.com' for key 'users.users_email_unique'`.
var dupRe = regexp.MustCompile(`Duplicate entry '(.*)' for key '([^']+)'`)

// fkRe extracts the constraint name from referential-integrity messages.
var fkRe = regexp.MustCompile("CONSTRAINT `([^`]+)`")

// classify maps a MySQL error onto the typed taxonomy by errno.
func classify(err error) error {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return &database.ConnectionError{Err: err}
	}

	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return nil
	}

	switch myErr.Number {
	case 1062, 1586: // ER_DUP_ENTRY
		value, key := parseDuplicate(myErr.Message)
		return &database.UniqueConstraintError{
			Constraint: key,
			Field:      fieldFromKey(key),
			Value:      value,
			Err:        err,
		}
	case 1216, 1217, 1451, 1452: // referential integrity failures
		constraint := ""
		if m := fkRe.FindStringSubmatch(myErr.Message); m != nil {
			constraint = m[1]
		}
		return &database.ForeignKeyError{Constraint: constraint, Err: err}
	case 1205, 3024: // lock wait timeout, query exceeded max_execution_time
		return &database.TimeoutError{Err: err}
	case 1053, 2006, 2013: // server shutdown, gone away, lost connection
		return &database.ConnectionError{Err: err}
	default:
		return &database.BackendError{
			Code:    fmt.Sprintf("%d", myErr.Number),
			Message: myErr.Message,
			Err:     err,
		}
	}
}

func parseDuplicate(message string) (value, key string) {
	m := dupRe.FindStringSubmatch(message)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// fieldFromKey recovers the column from key names like "users.email" or
// "users_email_unique".
func fieldFromKey(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	key = strings.TrimSuffix(key, "_unique")
	key = strings.TrimSuffix(key, "_key")
	if i := strings.LastIndex(key, "_"); i >= 0 {
		return key[i+1:]
	}
	return key
}
