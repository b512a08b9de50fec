// Package columns provides typed column handles for building filters. Each
// column type exposes only the comparisons its scalar type supports and
// constructs values with the right kind, so a filter built through it cannot
// mix types.
package columns

import (
	"time"

	"github.com/google/uuid"

	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/runtime/types"
)

// TextColumn is a handle on a string field.
type TextColumn struct{ name string }

// Text returns a handle on the named string field.
func Text(name string) TextColumn { return TextColumn{name: name} }

func (c TextColumn) Equals(v string) *ast.Filter     { return ast.Equals(c.name, types.Text(v)) }
func (c TextColumn) NotEquals(v string) *ast.Filter  { return ast.NotEquals(c.name, types.Text(v)) }
func (c TextColumn) Lt(v string) *ast.Filter         { return ast.Lt(c.name, types.Text(v)) }
func (c TextColumn) Lte(v string) *ast.Filter        { return ast.Lte(c.name, types.Text(v)) }
func (c TextColumn) Gt(v string) *ast.Filter         { return ast.Gt(c.name, types.Text(v)) }
func (c TextColumn) Gte(v string) *ast.Filter        { return ast.Gte(c.name, types.Text(v)) }
func (c TextColumn) Contains(v string) *ast.Filter   { return ast.Contains(c.name, v) }
func (c TextColumn) StartsWith(v string) *ast.Filter { return ast.StartsWith(c.name, v) }
func (c TextColumn) EndsWith(v string) *ast.Filter   { return ast.EndsWith(c.name, v) }
func (c TextColumn) IsNull() *ast.Filter             { return ast.Equals(c.name, types.Null()) }

func (c TextColumn) In(vs ...string) *ast.Filter {
	return ast.In(c.name, textValues(vs)...)
}

func (c TextColumn) NotIn(vs ...string) *ast.Filter {
	return ast.NotIn(c.name, textValues(vs)...)
}

func textValues(vs []string) []types.Value {
	out := make([]types.Value, len(vs))
	for i, v := range vs {
		out[i] = types.Text(v)
	}
	return out
}

// IntColumn is a handle on an integer field.
type IntColumn struct{ name string }

// Int returns a handle on the named integer field.
func Int(name string) IntColumn { return IntColumn{name: name} }

func (c IntColumn) Equals(v int64) *ast.Filter    { return ast.Equals(c.name, types.Int64(v)) }
func (c IntColumn) NotEquals(v int64) *ast.Filter { return ast.NotEquals(c.name, types.Int64(v)) }
func (c IntColumn) Lt(v int64) *ast.Filter        { return ast.Lt(c.name, types.Int64(v)) }
func (c IntColumn) Lte(v int64) *ast.Filter       { return ast.Lte(c.name, types.Int64(v)) }
func (c IntColumn) Gt(v int64) *ast.Filter        { return ast.Gt(c.name, types.Int64(v)) }
func (c IntColumn) Gte(v int64) *ast.Filter       { return ast.Gte(c.name, types.Int64(v)) }
func (c IntColumn) IsNull() *ast.Filter           { return ast.Equals(c.name, types.Null()) }

func (c IntColumn) In(vs ...int64) *ast.Filter {
	return ast.In(c.name, intValues(vs)...)
}

func (c IntColumn) NotIn(vs ...int64) *ast.Filter {
	return ast.NotIn(c.name, intValues(vs)...)
}

func intValues(vs []int64) []types.Value {
	out := make([]types.Value, len(vs))
	for i, v := range vs {
		out[i] = types.Int64(v)
	}
	return out
}

// FloatColumn is a handle on a float field.
type FloatColumn struct{ name string }

// Float returns a handle on the named float field.
func Float(name string) FloatColumn { return FloatColumn{name: name} }

func (c FloatColumn) Equals(v float64) *ast.Filter { return ast.Equals(c.name, types.Float64(v)) }
func (c FloatColumn) Lt(v float64) *ast.Filter     { return ast.Lt(c.name, types.Float64(v)) }
func (c FloatColumn) Lte(v float64) *ast.Filter    { return ast.Lte(c.name, types.Float64(v)) }
func (c FloatColumn) Gt(v float64) *ast.Filter     { return ast.Gt(c.name, types.Float64(v)) }
func (c FloatColumn) Gte(v float64) *ast.Filter    { return ast.Gte(c.name, types.Float64(v)) }
func (c FloatColumn) IsNull() *ast.Filter          { return ast.Equals(c.name, types.Null()) }

// BoolColumn is a handle on a boolean field.
type BoolColumn struct{ name string }

// Bool returns a handle on the named boolean field.
func Bool(name string) BoolColumn { return BoolColumn{name: name} }

func (c BoolColumn) Equals(v bool) *ast.Filter { return ast.Equals(c.name, types.Bool(v)) }
func (c BoolColumn) IsTrue() *ast.Filter       { return c.Equals(true) }
func (c BoolColumn) IsFalse() *ast.Filter      { return c.Equals(false) }
func (c BoolColumn) IsNull() *ast.Filter       { return ast.Equals(c.name, types.Null()) }

// TimeColumn is a handle on a timestamp field.
type TimeColumn struct{ name string }

// Time returns a handle on the named timestamp field.
func Time(name string) TimeColumn { return TimeColumn{name: name} }

func (c TimeColumn) Equals(v time.Time) *ast.Filter { return ast.Equals(c.name, types.Timestamp(v)) }
func (c TimeColumn) Before(v time.Time) *ast.Filter { return ast.Lt(c.name, types.Timestamp(v)) }
func (c TimeColumn) After(v time.Time) *ast.Filter  { return ast.Gt(c.name, types.Timestamp(v)) }
func (c TimeColumn) AtOrBefore(v time.Time) *ast.Filter {
	return ast.Lte(c.name, types.Timestamp(v))
}
func (c TimeColumn) AtOrAfter(v time.Time) *ast.Filter {
	return ast.Gte(c.name, types.Timestamp(v))
}
func (c TimeColumn) IsNull() *ast.Filter { return ast.Equals(c.name, types.Null()) }

// UUIDColumn is a handle on a uuid field.
type UUIDColumn struct{ name string }

// UUID returns a handle on the named uuid field.
func UUID(name string) UUIDColumn { return UUIDColumn{name: name} }

func (c UUIDColumn) Equals(v uuid.UUID) *ast.Filter { return ast.Equals(c.name, types.UUID(v)) }
func (c UUIDColumn) NotEquals(v uuid.UUID) *ast.Filter {
	return ast.NotEquals(c.name, types.UUID(v))
}
func (c UUIDColumn) IsNull() *ast.Filter { return ast.Equals(c.name, types.Null()) }

func (c UUIDColumn) In(vs ...uuid.UUID) *ast.Filter {
	out := make([]types.Value, len(vs))
	for i, v := range vs {
		out[i] = types.UUID(v)
	}
	return ast.In(c.name, out...)
}
