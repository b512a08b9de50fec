package columns

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/runtime/types"
)

func TestTextColumn(t *testing.T) {
	f := Text("email").Contains("@x.com")
	require.Equal(t, ast.FilterLeaf, f.Kind)
	assert.Equal(t, "email", f.Field)
	assert.Equal(t, ast.OpContains, f.Op)
	assert.Equal(t, types.KindText, f.Value.Kind())

	in := Text("email").In("a@x.com", "b@x.com")
	assert.Equal(t, ast.OpIn, in.Op)
	require.Len(t, in.Values, 2)
	assert.Equal(t, "b@x.com", in.Values[1].AsText())

	assert.True(t, Text("name").IsNull().Value.IsNull())
}

func TestIntColumn(t *testing.T) {
	f := Int("age").Gte(18)
	assert.Equal(t, ast.OpGte, f.Op)
	assert.Equal(t, types.KindInt64, f.Value.Kind())
	assert.Equal(t, int64(18), f.Value.AsInt64())

	assert.Equal(t, ast.OpNotIn, Int("age").NotIn(1, 2).Op)
}

func TestTimeColumn(t *testing.T) {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f := Time("createdAt").Before(at)
	assert.Equal(t, ast.OpLt, f.Op)
	assert.True(t, f.Value.AsTimestamp().Equal(at))
	assert.Equal(t, ast.OpGte, Time("createdAt").AtOrAfter(at).Op)
}

func TestBoolAndUUIDColumns(t *testing.T) {
	assert.True(t, Bool("active").IsTrue().Value.AsBool())
	assert.False(t, Bool("active").IsFalse().Value.AsBool())

	id := uuid.New()
	f := UUID("ownerId").Equals(id)
	assert.Equal(t, types.KindUUID, f.Value.Kind())
	assert.Equal(t, id, f.Value.AsUUID())
}

// Filters built through typed columns evaluate like hand-built ones.
func TestColumnsAgreeWithReferenceEvaluation(t *testing.T) {
	rec := types.NewRecord(2)
	rec.Set("email", types.Text("ada@x.com"))
	rec.Set("age", types.Int64(36))

	f := ast.And(
		Text("email").EndsWith("@x.com"),
		Int("age").Gt(18),
	)
	assert.True(t, f.Matches(rec))
	assert.False(t, ast.And(f, Int("age").Lt(20)).Matches(rec))
}
