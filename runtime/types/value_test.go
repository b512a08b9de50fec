package types

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindNull, Null().Kind())
	assert.True(t, Null().IsNull())
	assert.Equal(t, KindInt64, Int64(1).Kind())
	assert.Equal(t, KindText, Text("x").Kind())
	assert.Equal(t, KindBool, Bool(true).Kind())
	assert.Equal(t, KindFloat64, Float64(1.5).Kind())
	assert.Equal(t, KindBigInt, BigInt(big.NewInt(7)).Kind())
	assert.Equal(t, KindDecimal, DecimalValue(NewDecimal("1.20")).Kind())
	assert.Equal(t, KindJSON, JSON([]byte(`{"a":1}`)).Kind())
	assert.Equal(t, KindBytes, Bytes([]byte{1, 2}).Kind())
	assert.Equal(t, KindUUID, UUID(uuid.New()).Kind())
	assert.Equal(t, KindTimestamp, Timestamp(time.Now()).Kind())
}

func TestTimestampNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, loc)

	v := Timestamp(at)
	assert.Equal(t, time.UTC, v.AsTimestamp().Location())
	assert.True(t, v.AsTimestamp().Equal(at))
}

func TestBytesAreCopied(t *testing.T) {
	buf := []byte{1, 2, 3}
	v := Bytes(buf)
	buf[0] = 9

	assert.Equal(t, []byte{1, 2, 3}, v.AsBytes())

	out := v.AsBytes()
	out[0] = 7
	assert.Equal(t, []byte{1, 2, 3}, v.AsBytes(), "accessor hands out a copy")
}

func TestEqualRequiresSameKind(t *testing.T) {
	assert.True(t, Int64(1).Equal(Int64(1)))
	assert.False(t, Int64(1).Equal(Int64(2)))
	assert.False(t, Int64(1).Equal(Text("1")), "kind matters")
	assert.True(t, Null().Equal(Null()))

	a := Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := Timestamp(time.Date(2024, 1, 1, 3, 0, 0, 0, time.FixedZone("X", 3*3600)))
	assert.True(t, a.Equal(b), "same instant, different zones")
}

func TestCompare(t *testing.T) {
	lt := func(a, b Value) {
		t.Helper()
		cmp, ok := a.Compare(b)
		require.True(t, ok)
		assert.Equal(t, -1, cmp)
		cmp, ok = b.Compare(a)
		require.True(t, ok)
		assert.Equal(t, 1, cmp)
	}

	lt(Int64(1), Int64(2))
	lt(Float64(1.5), Float64(2.5))
	lt(Text("a"), Text("b"))
	lt(BigInt(big.NewInt(10)), BigInt(big.NewInt(11)))
	lt(DecimalValue(NewDecimal("1.10")), DecimalValue(NewDecimal("1.2")))
	lt(
		Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Timestamp(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	)

	// Equal decimals with different renderings.
	cmp, ok := DecimalValue(NewDecimal("1.50")).Compare(DecimalValue(NewDecimal("1.5")))
	require.True(t, ok)
	assert.Zero(t, cmp)

	_, ok = Int64(1).Compare(Text("1"))
	assert.False(t, ok, "cross-kind comparison has no order")
	_, ok = Bool(true).Compare(Bool(false))
	assert.False(t, ok, "booleans have no order")
}

func TestDriverRepresentations(t *testing.T) {
	assert.Nil(t, Null().Driver())
	assert.Equal(t, int64(5), Int64(5).Driver())
	assert.Equal(t, "123456789012345678901234567890",
		BigInt(mustBig(t, "123456789012345678901234567890")).Driver())
	assert.Equal(t, "12.340", DecimalValue(NewDecimal("12.340")).Driver())
	assert.Equal(t, []byte(`{"a":1}`), JSON([]byte(`{"a":1}`)).Driver())

	id := uuid.New()
	assert.Equal(t, id.String(), UUID(id).Driver())
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 12.50 ")
	require.NoError(t, err)
	assert.Equal(t, "12.50", d.String())

	f, err := d.Float64()
	require.NoError(t, err)
	assert.InDelta(t, 12.5, f, 1e-9)

	_, err = ParseDecimal("not a number")
	assert.Error(t, err)
}

func TestRecordOrderAndOverwrite(t *testing.T) {
	rec := NewRecord(3)
	rec.Set("a", Int64(1))
	rec.Set("b", Text("x"))
	rec.Set("c", Bool(true))
	rec.Set("b", Text("y"))

	assert.Equal(t, []string{"a", "b", "c"}, rec.Keys(), "overwrite keeps position")
	assert.Equal(t, 3, rec.Len())

	v, ok := rec.Get("b")
	require.True(t, ok)
	assert.Equal(t, "y", v.AsText())

	_, ok = rec.Get("missing")
	assert.False(t, ok)

	var visited []string
	rec.Range(func(key string, _ Value) bool {
		visited = append(visited, key)
		return key != "b"
	})
	assert.Equal(t, []string{"a", "b"}, visited, "range stops when fn returns false")
}

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return n
}
