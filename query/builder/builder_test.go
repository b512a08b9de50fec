package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/runtime/types"
)

func TestBuildFindMany(t *testing.T) {
	q, err := Model("User").
		Action(ast.ActionFindMany).
		Where(ast.Contains("email", "@x.com")).
		Select("id", "email").
		OrderBy("createdAt", ast.SortDesc).
		Take(10).
		Skip(20).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "User", q.Collection)
	assert.Equal(t, ast.ActionFindMany, q.Action)
	assert.Equal(t, []string{"id", "email"}, q.Select)
	require.NotNil(t, q.Take)
	assert.Equal(t, 10, *q.Take)
	require.NotNil(t, q.Skip)
	assert.Equal(t, 20, *q.Skip)
	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, ast.SortDesc, q.OrderBy[0].Direction)
}

func TestBuildMutationPayload(t *testing.T) {
	q, err := Model("User").
		Action(ast.ActionCreate).
		Set("email", types.Text("a@x.com")).
		Set("age", types.Int64(30)).
		Build()
	require.NoError(t, err)

	require.Len(t, q.Data, 2)
	assert.Equal(t, "email", q.Data[0].Field)
	assert.Equal(t, "age", q.Data[1].Field)
}

func TestBuildCreateManyRows(t *testing.T) {
	q, err := Model("User").
		Action(ast.ActionCreateMany).
		Row(ast.Assignment{Field: "email", Value: types.Text("a@x.com")}).
		Row(ast.Assignment{Field: "email", Value: types.Text("b@x.com")}).
		Build()
	require.NoError(t, err)
	assert.Len(t, q.Rows, 2)
}

func TestBuildUpsertParts(t *testing.T) {
	q, err := Model("User").
		Action(ast.ActionUpsert).
		Set("email", types.Text("a@x.com")).
		Set("name", types.Text("Ada")).
		OnConflict("email").
		OnConflictSet("name", types.Text("Ada Lovelace")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"email"}, q.ConflictOn)
	require.Len(t, q.OnConflictUpdate, 1)
	assert.Equal(t, "name", q.OnConflictUpdate[0].Field)
}

func TestBuildValidation(t *testing.T) {
	_, err := Model("").Action(ast.ActionFindMany).Build()
	assert.ErrorIs(t, err, ErrNoCollection)

	_, err = Model("User").Build()
	assert.Error(t, err, "missing action")

	_, err = Model("User").Action(ast.Action("explode")).Build()
	assert.Error(t, err)
}

// A misuse in the middle of a chain surfaces at Build, and the first error
// wins.
func TestBuildDeferredErrors(t *testing.T) {
	_, err := Model("User").
		Action(ast.ActionFindMany).
		Take(-1).
		Skip(-2).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "take")
}

// The built query must not alias the builder's internal slices.
func TestBuildCopiesState(t *testing.T) {
	b := Model("User").
		Action(ast.ActionFindMany).
		Select("id")

	q1, err := b.Build()
	require.NoError(t, err)

	b.Select("email")
	q2, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"id"}, q1.Select)
	assert.Equal(t, []string{"id", "email"}, q2.Select)
}
