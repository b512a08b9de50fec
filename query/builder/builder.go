// Package builder provides the fluent construction surface for queries. A
// Builder accumulates the parts of one operation and Build produces the final
// immutable representation; the builder itself is single-use and not safe for
// concurrent mutation.
package builder

import (
	"errors"
	"fmt"

	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/runtime/types"
)

// ErrNoCollection is returned by Build when Model was never called.
var ErrNoCollection = errors.New("builder: no collection set")

// Builder accumulates the parts of a query.
type Builder struct {
	q    ast.Query
	rows [][]ast.Assignment
	err  error
}

// Model starts a builder targeting the named collection.
func Model(collection string) *Builder {
	return &Builder{q: ast.Query{Collection: collection}}
}

// Action sets the requested operation.
func (b *Builder) Action(a ast.Action) *Builder {
	b.q.Action = a
	return b
}

// Where sets the filter tree. Calling it twice replaces the tree; combine
// conditions with ast.And/ast.Or instead.
func (b *Builder) Where(f *ast.Filter) *Builder {
	b.q.Filter = f
	return b
}

// Set appends one field/value pair to the mutation payload.
func (b *Builder) Set(field string, v types.Value) *Builder {
	b.q.Data = append(b.q.Data, ast.Assignment{Field: field, Value: v})
	return b
}

// Data appends a batch of payload assignments, preserving order.
func (b *Builder) Data(assigns ...ast.Assignment) *Builder {
	b.q.Data = append(b.q.Data, assigns...)
	return b
}

// Row appends one payload row for createMany.
func (b *Builder) Row(assigns ...ast.Assignment) *Builder {
	b.rows = append(b.rows, assigns)
	return b
}

// Select restricts the projection to the named fields.
func (b *Builder) Select(fields ...string) *Builder {
	b.q.Select = append(b.q.Select, fields...)
	return b
}

// Include joins in the named relations on read.
func (b *Builder) Include(relations ...string) *Builder {
	b.q.Include = append(b.q.Include, relations...)
	return b
}

// OrderBy appends one ordering term.
func (b *Builder) OrderBy(field string, dir ast.SortDirection) *Builder {
	b.q.OrderBy = append(b.q.OrderBy, ast.OrderBy{Field: field, Direction: dir})
	return b
}

// Take limits the number of returned rows.
func (b *Builder) Take(n int) *Builder {
	if n < 0 {
		b.fail(fmt.Errorf("builder: negative take %d", n))
		return b
	}
	b.q.Take = &n
	return b
}

// Skip offsets the returned rows.
func (b *Builder) Skip(n int) *Builder {
	if n < 0 {
		b.fail(fmt.Errorf("builder: negative skip %d", n))
		return b
	}
	b.q.Skip = &n
	return b
}

// OnConflict sets the upsert conflict target columns.
func (b *Builder) OnConflict(fields ...string) *Builder {
	b.q.ConflictOn = append(b.q.ConflictOn, fields...)
	return b
}

// OnConflictSet appends an assignment applied when an upsert collides.
func (b *Builder) OnConflictSet(field string, v types.Value) *Builder {
	b.q.OnConflictUpdate = append(b.q.OnConflictUpdate, ast.Assignment{Field: field, Value: v})
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build finalizes the accumulated state into an immutable query. The first
// builder misuse error, if any, is reported here rather than at the call that
// caused it, so fluent chains stay unconditional.
func (b *Builder) Build() (*ast.Query, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.q.Collection == "" {
		return nil, ErrNoCollection
	}
	if !b.q.Action.Known() {
		return nil, fmt.Errorf("builder: unknown action %q", b.q.Action)
	}

	q := b.q
	q.Data = append([]ast.Assignment(nil), b.q.Data...)
	q.Select = append([]string(nil), b.q.Select...)
	q.Include = append([]string(nil), b.q.Include...)
	q.OrderBy = append([]ast.OrderBy(nil), b.q.OrderBy...)
	q.ConflictOn = append([]string(nil), b.q.ConflictOn...)
	q.OnConflictUpdate = append([]ast.Assignment(nil), b.q.OnConflictUpdate...)
	if len(b.rows) > 0 {
		q.Rows = make([][]ast.Assignment, len(b.rows))
		for i, r := range b.rows {
			q.Rows[i] = append([]ast.Assignment(nil), r...)
		}
	}
	return &q, nil
}
