package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperdb/vesper/adapters/database"
)

func TestClassifyUniqueViolation(t *testing.T) {
	err := &pq.Error{
		Code:       "23505",
		Constraint: "users_email_key",
		Detail:     `Key (email)=(a@x.com) already exists.`,
		Message:    `duplicate key value violates unique constraint "users_email_key"`,
	}

	classified := classify(err)
	var uniqueErr *database.UniqueConstraintError
	require.ErrorAs(t, classified, &uniqueErr)
	assert.Equal(t, "users_email_key", uniqueErr.Constraint)
	assert.Equal(t, "email", uniqueErr.Field)
	assert.Equal(t, "a@x.com", uniqueErr.Value)
	assert.ErrorIs(t, classified, err, "native error stays reachable")
}

func TestClassifyUniqueViolationWithoutDetail(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "users_email_key"}

	var uniqueErr *database.UniqueConstraintError
	require.ErrorAs(t, classify(err), &uniqueErr)
	assert.Equal(t, "email", uniqueErr.Field, "field recovered from constraint name")
}

func TestClassifyHandlesPgxErrors(t *testing.T) {
	err := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "users_email_key",
		Detail:         `Key (email)=(b@x.com) already exists.`,
	}

	var uniqueErr *database.UniqueConstraintError
	require.ErrorAs(t, classify(err), &uniqueErr)
	assert.Equal(t, "b@x.com", uniqueErr.Value)
}

func TestClassifyCompositeKeyDetail(t *testing.T) {
	err := &pq.Error{
		Code:   "23505",
		Detail: `Key (org_id, email)=(1, a@x.com) already exists.`,
	}

	var uniqueErr *database.UniqueConstraintError
	require.ErrorAs(t, classify(err), &uniqueErr)
	assert.Equal(t, "org_id", uniqueErr.Field, "first column of a composite key")
}

func TestClassifyOtherStates(t *testing.T) {
	var fkErr *database.ForeignKeyError
	require.ErrorAs(t,
		classify(&pq.Error{Code: "23503", Constraint: "posts_author_fkey"}), &fkErr)
	assert.Equal(t, "posts_author_fkey", fkErr.Constraint)

	var timeoutErr *database.TimeoutError
	assert.ErrorAs(t, classify(&pq.Error{Code: "57014"}), &timeoutErr)

	var connErr *database.ConnectionError
	assert.ErrorAs(t, classify(&pq.Error{Code: "08006"}), &connErr)

	var backendErr *database.BackendError
	require.ErrorAs(t, classify(&pq.Error{Code: "42P01", Message: "relation missing"}), &backendErr)
	assert.Equal(t, "42P01", backendErr.Code)
}

func TestClassifyIgnoresForeignErrors(t *testing.T) {
	assert.Nil(t, classify(errors.New("not a postgres error")))
}
