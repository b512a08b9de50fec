package sqlite

import (
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperdb/vesper/adapters/database"
)

func TestClassifyConstraintViolations(t *testing.T) {
	unique := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	var uniqueErr *database.UniqueConstraintError
	assert.ErrorAs(t, classify(unique), &uniqueErr)

	pk := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}
	assert.ErrorAs(t, classify(pk), &uniqueErr)

	fk := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}
	var fkErr *database.ForeignKeyError
	assert.ErrorAs(t, classify(fk), &fkErr)
}

func TestClassifyBusyAndInterrupt(t *testing.T) {
	var timeoutErr *database.TimeoutError
	assert.ErrorAs(t, classify(sqlite3.Error{Code: sqlite3.ErrBusy}), &timeoutErr)
	assert.ErrorAs(t, classify(sqlite3.Error{Code: sqlite3.ErrLocked}), &timeoutErr)
	assert.ErrorAs(t, classify(sqlite3.Error{Code: sqlite3.ErrInterrupt}), &timeoutErr)
}

func TestClassifyConnectionAndFallback(t *testing.T) {
	var connErr *database.ConnectionError
	assert.ErrorAs(t, classify(sqlite3.Error{Code: sqlite3.ErrCantOpen}), &connErr)

	var backendErr *database.BackendError
	require.ErrorAs(t, classify(sqlite3.Error{Code: sqlite3.ErrError}), &backendErr)

	assert.Nil(t, classify(errors.New("unrelated")))
}

func TestFieldFromMessage(t *testing.T) {
	cases := map[string]string{
		"UNIQUE constraint failed: users.email":          "email",
		"UNIQUE constraint failed: users.org_id, users.email": "org_id",
		"PRIMARY KEY constraint failed: users.id":        "id",
		"no marker here":                                 "",
	}
	for msg, want := range cases {
		assert.Equal(t, want, fieldFromMessage(msg), "message %q", msg)
	}
}

func TestSupportsIsolation(t *testing.T) {
	assert.True(t, supportsIsolation(database.LevelDefault))
	assert.True(t, supportsIsolation(database.LevelSerializable))
	assert.True(t, supportsIsolation(database.LevelReadUncommitted))
	assert.False(t, supportsIsolation(database.LevelReadCommitted))
	assert.False(t, supportsIsolation(database.LevelRepeatableRead))
}

func TestTagTable(t *testing.T) {
	tag, ok := tagOf("INTEGER")
	require.True(t, ok)
	assert.Equal(t, tag.String(), "int64")

	_, ok = tagOf("GEOMETRY")
	assert.False(t, ok)
}
