package executor

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperdb/vesper/adapters/database"
	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/runtime/types"
)

func joinedResultSet() *database.ResultSet {
	return &database.ResultSet{
		Columns: []string{"id", "email", "posts__id", "posts__title"},
		Rows: [][]types.Value{
			{types.Int64(1), types.Text("ada@x.com"), types.Int64(10), types.Text("first")},
			{types.Int64(1), types.Text("ada@x.com"), types.Int64(11), types.Text("second")},
			{types.Int64(2), types.Text("bob@x.com"), types.Null(), types.Null()},
		},
	}
}

func TestRegroupNestsChildren(t *testing.T) {
	col := testRegistry(t).Lookup("User")
	entities := Regroup(joinedResultSet(), col)
	require.Len(t, entities, 2)

	ada := entities[0]
	email, _ := ada.Record.Get("email")
	assert.Equal(t, "ada@x.com", email.AsText())
	assert.Equal(t, []string{"id", "email"}, ada.Record.Keys())

	posts := ada.Relations["posts"]
	require.Len(t, posts, 2)
	title, _ := posts[0].Get("title")
	assert.Equal(t, "first", title.AsText())
	title, _ = posts[1].Get("title")
	assert.Equal(t, "second", title.AsText())

	// Unmatched LEFT JOIN: parent kept, no children.
	bob := entities[1]
	assert.Empty(t, bob.Relations["posts"])
}

func TestRegroupCollapsesCrossProduct(t *testing.T) {
	rs := &database.ResultSet{
		Columns: []string{"id", "posts__id"},
		Rows: [][]types.Value{
			{types.Int64(1), types.Int64(10)},
			{types.Int64(1), types.Int64(10)},
			{types.Int64(1), types.Int64(11)},
		},
	}
	col := testRegistry(t).Lookup("User")

	entities := Regroup(rs, col)
	require.Len(t, entities, 1)
	assert.Len(t, entities[0].Relations["posts"], 2)
}

func TestRegroupWithoutIDColumn(t *testing.T) {
	// No id projected: parents collapse on the full column fingerprint.
	rs := &database.ResultSet{
		Columns: []string{"email", "posts__title"},
		Rows: [][]types.Value{
			{types.Text("ada@x.com"), types.Text("first")},
			{types.Text("ada@x.com"), types.Text("second")},
			{types.Text("bob@x.com"), types.Text("third")},
		},
	}
	col := testRegistry(t).Lookup("User")

	entities := Regroup(rs, col)
	require.Len(t, entities, 2)
	assert.Len(t, entities[0].Relations["posts"], 2)
	assert.Len(t, entities[1].Relations["posts"], 1)
}

func TestRegroupIgnoresUnknownRelationAliases(t *testing.T) {
	// A column whose prefix is not a declared relation stays on the parent.
	rs := &database.ResultSet{
		Columns: []string{"id", "stats__total"},
		Rows: [][]types.Value{
			{types.Int64(1), types.Int64(5)},
		},
	}
	col := testRegistry(t).Lookup("User")

	entities := Regroup(rs, col)
	require.Len(t, entities, 1)
	assert.Empty(t, entities[0].Relations)

	v, ok := entities[0].Record.Get("stats__total")
	require.True(t, ok)
	assert.Equal(t, int64(5), v.AsInt64())
}

func TestEntityRelationAccessor(t *testing.T) {
	rec := types.NewRecord(1)
	rec.Set("id", types.Int64(10))
	ent := &Entity{
		Record:    types.NewRecord(0),
		Relations: map[string][]*types.Record{"profile": {rec}},
	}
	assert.Same(t, rec, ent.Relation("profile"))
	assert.Nil(t, ent.Relation("posts"))
}

func TestQueryGroupedEndToEnd(t *testing.T) {
	e, mock := newMockExecutor(t, database.Options{})

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INTEGER", int64(0)),
		sqlmock.NewColumn("email").OfType("TEXT", ""),
		sqlmock.NewColumn("posts__id").OfType("INTEGER", int64(0)),
		sqlmock.NewColumn("posts__title").OfType("TEXT", ""),
		sqlmock.NewColumn("posts__authorId").OfType("INTEGER", int64(0)),
	).
		AddRow(int64(1), "ada@x.com", int64(10), "first", int64(1)).
		AddRow(int64(1), "ada@x.com", int64(11), "second", int64(1))

	mock.ExpectQuery(`SELECT "User"."id" AS "id", "User"."email" AS "email", ` +
		`"Post"."id" AS "posts__id", "Post"."title" AS "posts__title", "Post"."authorId" AS "posts__authorId" ` +
		`FROM "User" LEFT JOIN "Post" ON "Post"."authorId" = "User"."id"`).
		WillReturnRows(rows)

	entities, err := e.QueryGrouped(context.Background(), &ast.Query{
		Collection: "User",
		Action:     ast.ActionFindMany,
		Select:     []string{"id", "email"},
		Include:    []string{"posts"},
	})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Len(t, entities[0].Relations["posts"], 2)
}
