package executor

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperdb/vesper/adapters/database"
	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/query/cache"
	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/runtime/types"
	"github.com/vesperdb/vesper/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	reg.Register(schema.NewCollection("User",
		schema.Field{Name: "id", Type: schema.Int, ID: true},
		schema.Field{Name: "email", Type: schema.String, Unique: true},
		schema.Field{Name: "age", Type: schema.Int},
	).WithRelations(schema.Relation{
		Name:       "posts",
		Collection: "Post",
		ForeignKey: "authorId",
		List:       true,
	}))
	reg.Register(schema.NewCollection("Post",
		schema.Field{Name: "id", Type: schema.Int, ID: true},
		schema.Field{Name: "title", Type: schema.String},
		schema.Field{Name: "authorId", Type: schema.Int},
	))
	return reg
}

func testTagOf(dbType string) (types.Tag, bool) {
	switch dbType {
	case "INTEGER":
		return types.TagInt64, true
	case "TEXT":
		return types.TagText, true
	default:
		return 0, false
	}
}

func newMockExecutor(t *testing.T, opts database.Options) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	if opts.Dialect.Name == "" {
		opts.Dialect = compiler.SQLite
	}
	if opts.TagOf == nil {
		opts.TagOf = testTagOf
	}
	adapter := database.New(db, opts)
	t.Cleanup(func() { adapter.Close() })
	return New(adapter, testRegistry(t)), mock
}

func userRows(pairs ...[2]any) *sqlmock.Rows {
	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INTEGER", int64(0)),
		sqlmock.NewColumn("email").OfType("TEXT", ""),
	)
	for _, p := range pairs {
		rows.AddRow(p[0], p[1])
	}
	return rows
}

func TestQueryMapsRecords(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	mock.ExpectQuery(`SELECT * FROM "User" WHERE "age" > ?`).
		WithArgs(int64(18)).
		WillReturnRows(userRows(
			[2]any{int64(1), "ada@x.com"},
			[2]any{int64(2), "bob@x.com"},
		))

	recs, err := e.Query(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionFindMany,
		Filter:     ast.Gt("age", types.Int64(18)),
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	email, ok := recs[0].Get("email")
	require.True(t, ok)
	assert.Equal(t, "ada@x.com", email.AsText())
	assert.Equal(t, []string{"id", "email"}, recs[0].Keys())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRejectsMutations(t *testing.T) {
	e, _ := newMockExecutor(t, database.Options{})

	_, err := e.Query(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionDeleteMany,
	})
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ast.ActionDeleteMany, execErr.Action)
}

func TestFindOneNotFound(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	mock.ExpectQuery(`SELECT * FROM "User" WHERE "id" = ? LIMIT 1`).
		WithArgs(int64(9)).
		WillReturnRows(userRows())

	_, err := e.Query(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionFindOne,
		Filter:     ast.Equals("id", types.Int64(9)),
	})
	assert.ErrorIs(t, err, database.ErrRecordNotFound)
}

func TestQueryOneFindFirstEmpty(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	mock.ExpectQuery(`SELECT * FROM "User" LIMIT 1`).WillReturnRows(userRows())

	rec, err := e.QueryOne(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionFindFirst,
	})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMutateCreateWithReturning(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	mock.ExpectQuery(`INSERT INTO "User" ("email") VALUES (?) RETURNING *`).
		WithArgs("ada@x.com").
		WillReturnRows(userRows([2]any{int64(1), "ada@x.com"}))

	res, err := e.Mutate(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionCreate,
		Data:       []ast.Assignment{{Field: "email", Value: types.Text("ada@x.com")}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)
	require.Len(t, res.Records, 1)

	id, _ := res.Records[0].Get("id")
	assert.Equal(t, int64(1), id.AsInt64())
}

// Without RETURNING the executor reads the created row back by its
// last-insert id.
func TestMutateCreateReadsBackByInsertID(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{
		Dialect:              compiler.MySQL,
		SupportsLastInsertID: true,
	})

	mock.ExpectExec("INSERT INTO `User` (`email`) VALUES (?)").
		WithArgs("ada@x.com").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT * FROM `User` WHERE `id` = ? LIMIT 1").
		WithArgs(int64(7)).
		WillReturnRows(userRows([2]any{int64(7), "ada@x.com"}))

	res, err := e.Mutate(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionCreate,
		Data:       []ast.Assignment{{Field: "email", Value: types.Text("ada@x.com")}},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	id, _ := res.Records[0].Get("id")
	assert.Equal(t, int64(7), id.AsInt64())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutateUpdateNoMatch(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	mock.ExpectQuery(`UPDATE "User" SET "email" = ? WHERE "id" = ? RETURNING *`).
		WithArgs("x@x.com", int64(404)).
		WillReturnRows(userRows())

	_, err := e.Mutate(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionUpdate,
		Filter:     ast.Equals("id", types.Int64(404)),
		Data:       []ast.Assignment{{Field: "email", Value: types.Text("x@x.com")}},
	})
	assert.ErrorIs(t, err, database.ErrRecordNotFound)
}

func TestMutateUnfilteredBulkDelete(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	mock.ExpectExec(`DELETE FROM "User"`).WillReturnResult(sqlmock.NewResult(0, 12))

	res, err := e.Mutate(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionDeleteMany,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Affected)
	assert.Empty(t, res.Records)
}

func TestMutateRejectsReads(t *testing.T) {
	e, _ := newMockExecutor(t, database.Options{})

	_, err := e.Mutate(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionFindMany,
	})
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("COUNT(*)").OfType("", int64(0)),
	).AddRow(int64(42))
	mock.ExpectQuery(`SELECT COUNT(*) FROM "User" WHERE "age" > ?`).
		WithArgs(int64(18)).
		WillReturnRows(rows)

	n, err := e.Count(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionCount,
		Filter:     ast.Gt("age", types.Int64(18)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestMiddlewareChainOrderAndEvent(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	var order []string
	var seen *QueryEvent
	e.Use(func(ctx context.Context, event *QueryEvent, next func() error) error {
		order = append(order, "outer-before")
		err := next()
		order = append(order, "outer-after")
		seen = event
		return err
	})
	e.Use(func(ctx context.Context, event *QueryEvent, next func() error) error {
		order = append(order, "inner-before")
		err := next()
		order = append(order, "inner-after")
		return err
	})

	mock.ExpectQuery(`SELECT * FROM "User"`).WillReturnRows(userRows())

	_, err := e.Query(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionFindMany,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"outer-before", "inner-before", "inner-after", "outer-after"}, order)
	require.NotNil(t, seen)
	assert.Equal(t, `SELECT * FROM "User"`, seen.SQL)
	assert.Zero(t, seen.Args)
	assert.NoError(t, seen.Err)
	assert.False(t, seen.End.IsZero())
}

func TestStatementCache(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})
	c := cache.NewLRU(8, 0)
	e.SetCache(c)

	q := &ast.Query{
		Collection: "User",
		Action:     ast.ActionFindMany,
		Filter:     ast.Equals("age", types.Int64(30)),
	}

	mock.ExpectQuery(`SELECT * FROM "User" WHERE "age" = ?`).
		WithArgs(int64(30)).
		WillReturnRows(userRows())
	mock.ExpectQuery(`SELECT * FROM "User" WHERE "age" = ?`).
		WithArgs(int64(30)).
		WillReturnRows(userRows())

	_, err := e.Query(context.Background(), q)
	require.NoError(t, err)
	_, err = e.Query(context.Background(), q)
	require.NoError(t, err)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCompileErrorsWrapAsExecutionErrors(t *testing.T) {
	e, _ := newMockExecutor(t, database.Options{})

	_, err := e.Query(context.Background(), &ast.Query{
		Collection: "Nope",
		Action:     ast.ActionFindMany,
	})
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, compiler.ErrUnknownCollection)
}

func TestQueryNilFilterNodeFailsCleanly(t *testing.T) {
	e, _ := newMockExecutor(t, database.Options{})
	e.SetCache(cache.NewLRU(4, 0))

	_, err := e.Query(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionFindMany,
		Filter:     ast.Not(nil),
	})
	assert.ErrorIs(t, err, compiler.ErrInvalidFilter)
}
