package postgres

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/vesperdb/vesper/adapters/database"
)

// detailRe extracts the key and value from constraint-violation detail lines
// like `Key (email)=(a@x.com) already exists.`.
var detailRe = regexp.MustCompile(`Key \(([^)]+)\)=\((.*)\)`)

// classify maps a Postgres error, from either driver, onto the typed
// taxonomy by SQLSTATE. Unrecognized states fall through to a BackendError
// carrying the raw code.
func classify(err error) error {
	var code, constraint, detail, message string

	var pqErr *pq.Error
	var pgxErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
		constraint = pqErr.Constraint
		detail = pqErr.Detail
		message = pqErr.Message
	case errors.As(err, &pgxErr):
		code = pgxErr.Code
		constraint = pgxErr.ConstraintName
		detail = pgxErr.Detail
		message = pgxErr.Message
	default:
		return nil
	}

	switch {
	case code == "23505":
		field, value := parseDetail(detail)
		if field == "" {
			field = fieldFromConstraint(constraint)
		}
		return &database.UniqueConstraintError{
			Constraint: constraint,
			Field:      field,
			Value:      value,
			Err:        err,
		}
	case code == "23503":
		return &database.ForeignKeyError{Constraint: constraint, Err: err}
	case code == "57014": // query_canceled, e.g. statement_timeout
		return &database.TimeoutError{Err: err}
	case strings.HasPrefix(code, "08"): // connection exception class
		return &database.ConnectionError{Err: err}
	default:
		return &database.BackendError{Code: code, Message: message, Err: err}
	}
}

func parseDetail(detail string) (field, value string) {
	m := detailRe.FindStringSubmatch(detail)
	if m == nil {
		return "", ""
	}
	// Composite keys come back as "a, b"; report the first column.
	field = strings.TrimSpace(strings.Split(m[1], ",")[0])
	return field, m[2]
}

// fieldFromConstraint recovers the column from default constraint names like
// "users_email_key".
func fieldFromConstraint(constraint string) string {
	s := strings.TrimSuffix(constraint, "_key")
	s = strings.TrimSuffix(s, "_idx")
	if i := strings.LastIndex(s, "_"); i >= 0 {
		return s[i+1:]
	}
	return ""
}
