// Package executor runs query representations against a database adapter:
// it compiles them for the adapter's dialect, dispatches the statements, and
// maps result sets into records. It also coordinates transactions through
// scoped executors holding an exclusive handle.
package executor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vesperdb/vesper/adapters/database"
	"github.com/vesperdb/vesper/internal/debug"
	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/query/cache"
	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/query/optimizer"
	"github.com/vesperdb/vesper/runtime/types"
	"github.com/vesperdb/vesper/schema"
)

// MutationResult reports the outcome of a write. Records carries the rows
// the backend returned (or the follow-up read produced); Affected is the
// backend's row count.
type MutationResult struct {
	Affected int64
	Records  []*types.Record
}

// session is the execution core shared by the adapter-level Executor and the
// transaction-scoped one. It is bound to one Queryer and one dialect.
type session struct {
	q        database.Queryer
	dialect  compiler.Dialect
	registry *schema.Registry
	mws      []Middleware
	cache    *cache.LRU
}

// Executor executes queries against one adapter. It is safe for concurrent
// use; transactional work goes through InTransaction.
type Executor struct {
	session
	adapter database.Adapter
}

// New returns an executor bound to the adapter and schema registry.
func New(adapter database.Adapter, registry *schema.Registry) *Executor {
	return &Executor{
		session: session{
			q:        adapter,
			dialect:  adapter.Dialect(),
			registry: registry,
		},
		adapter: adapter,
	}
}

// Use appends a middleware to the chain. Middlewares run in registration
// order around every statement, including those inside transactions opened
// afterwards. Not safe to call concurrently with query execution.
func (e *Executor) Use(mw Middleware) {
	e.mws = append(e.mws, mw)
}

// SetCache enables the compiled-statement cache. Transactions opened after
// the call share it. Call before issuing queries.
func (e *Executor) SetCache(c *cache.LRU) {
	e.cache = c
}

// Adapter returns the underlying adapter.
func (e *Executor) Adapter() database.Adapter { return e.adapter }

func (s *session) fail(q *ast.Query, err error) error {
	return &ExecutionError{Action: q.Action, Collection: q.Collection, Err: err}
}

func (s *session) compile(q *ast.Query) (*compiler.Statement, error) {
	q = optimizer.Normalize(q)
	if s.cache != nil {
		if stmt, ok := s.cache.Get(cacheKey(q, s.dialect)); ok {
			return stmt, nil
		}
	}
	stmt, err := compiler.Compile(q, s.dialect, s.registry)
	if err != nil {
		return nil, s.fail(q, err)
	}
	if s.cache != nil {
		s.cache.Set(cacheKey(q, s.dialect), stmt)
	}
	return stmt, nil
}

func (s *session) runQuery(ctx context.Context, stmt *compiler.Statement) (*database.ResultSet, error) {
	var rs *database.ResultSet
	err := s.dispatch(ctx, stmt.Text, len(stmt.Args), func() error {
		var err error
		rs, err = s.q.QueryRaw(ctx, stmt)
		return err
	})
	return rs, err
}

func (s *session) runExec(ctx context.Context, stmt *compiler.Statement) (database.ExecResult, error) {
	var res database.ExecResult
	err := s.dispatch(ctx, stmt.Text, len(stmt.Args), func() error {
		var err error
		res, err = s.q.ExecRaw(ctx, stmt)
		return err
	})
	return res, err
}

// Query executes a read and returns its rows as records. When the query
// includes relations the rows come back flat, with relation columns under
// aliased names; use QueryGrouped to nest them instead. FindOne with no
// matching row fails with ErrRecordNotFound.
func (s *session) Query(ctx context.Context, q *ast.Query) ([]*types.Record, error) {
	if q.Action.Mutation() || q.Action == ast.ActionCount {
		return nil, s.fail(q, fmt.Errorf("action %q is not a read", q.Action))
	}
	stmt, err := s.compile(q)
	if err != nil {
		return nil, err
	}
	rs, err := s.runQuery(ctx, stmt)
	if err != nil {
		return nil, s.fail(q, err)
	}
	recs := recordsFrom(rs)
	if q.Action == ast.ActionFindOne && len(recs) == 0 {
		return nil, s.fail(q, database.ErrRecordNotFound)
	}
	return recs, nil
}

// QueryOne executes a read and returns its first row. FindFirst with no
// matching row returns (nil, nil); FindOne surfaces ErrRecordNotFound.
func (s *session) QueryOne(ctx context.Context, q *ast.Query) (*types.Record, error) {
	recs, err := s.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// Count returns the number of rows matching the query's filter. The query's
// action is forced to count.
func (s *session) Count(ctx context.Context, q *ast.Query) (int64, error) {
	if q.Action != ast.ActionCount {
		cq := *q
		cq.Action = ast.ActionCount
		q = &cq
	}
	stmt, err := s.compile(q)
	if err != nil {
		return 0, err
	}
	rs, err := s.runQuery(ctx, stmt)
	if err != nil {
		return 0, s.fail(q, err)
	}
	if len(rs.Rows) == 0 || len(rs.Rows[0]) == 0 {
		return 0, s.fail(q, fmt.Errorf("count returned no rows"))
	}
	n, err := countValue(rs.Rows[0][0])
	if err != nil {
		return 0, s.fail(q, err)
	}
	return n, nil
}

// Mutate executes a write. For backends that support RETURNING, single-row
// creates, updates and upserts come back with the written record; on other
// backends a create or upsert triggers a follow-up read by last-insert id or
// a unique key from the payload, and updates report the affected count only.
// A bulk mutation with no filter runs against the whole collection and is
// logged at Warn.
func (s *session) Mutate(ctx context.Context, q *ast.Query) (*MutationResult, error) {
	if !q.Action.Mutation() {
		return nil, s.fail(q, fmt.Errorf("action %q is not a mutation", q.Action))
	}
	if (q.Action == ast.ActionUpdateMany || q.Action == ast.ActionDeleteMany) && q.Filter == nil {
		debug.Warn("unfiltered mutation affects the whole collection",
			"collection", q.Collection, "action", string(q.Action))
	}

	stmt, err := s.compile(q)
	if err != nil {
		return nil, err
	}

	if stmt.WantsRows {
		rs, err := s.runQuery(ctx, stmt)
		if err != nil {
			return nil, s.fail(q, err)
		}
		recs := recordsFrom(rs)
		if len(recs) == 0 && q.Action.RequiresFilter() {
			return nil, s.fail(q, database.ErrRecordNotFound)
		}
		return &MutationResult{Affected: int64(len(recs)), Records: recs}, nil
	}

	res, err := s.runExec(ctx, stmt)
	if err != nil {
		return nil, s.fail(q, err)
	}
	if res.Affected == 0 && q.Action.RequiresFilter() {
		return nil, s.fail(q, database.ErrRecordNotFound)
	}

	out := &MutationResult{Affected: res.Affected}
	if q.Action == ast.ActionCreate || q.Action == ast.ActionUpsert {
		rec, err := s.readBack(ctx, q, res)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out.Records = []*types.Record{rec}
		}
	}
	return out, nil
}

// QueryRaw executes a prebuilt statement that returns rows. The escape hatch
// for SQL the compiler cannot express; values still travel as parameters.
func (s *session) QueryRaw(ctx context.Context, stmt *compiler.Statement) (*database.ResultSet, error) {
	return s.runQuery(ctx, stmt)
}

// ExecRaw executes a prebuilt statement and returns its affected-row count.
func (s *session) ExecRaw(ctx context.Context, stmt *compiler.Statement) (database.ExecResult, error) {
	return s.runExec(ctx, stmt)
}

// readBack recovers the row a RETURNING-less insert wrote: by last-insert id
// when the backend reported one and the collection has an integer id, else
// by a unique field supplied in the payload. Returns nil when nothing
// identifies the row.
func (s *session) readBack(ctx context.Context, q *ast.Query, res database.ExecResult) (*types.Record, error) {
	col := s.registry.Lookup(q.Collection)
	if col == nil {
		return nil, nil
	}

	var filter *ast.Filter
	if res.HasInsertID && res.LastInsertID != 0 {
		if id := col.ID(); id != nil && (id.Type == schema.Int || id.Type == schema.BigInt) {
			filter = ast.Equals(id.Name, types.Int64(res.LastInsertID))
		}
	}
	if filter == nil {
		filter = uniqueFilterFromPayload(col, q.Data)
	}
	if filter == nil {
		return nil, nil
	}

	return s.QueryOne(ctx, &ast.Query{
		Collection: q.Collection,
		Action:     ast.ActionFindFirst,
		Filter:     filter,
	})
}

func uniqueFilterFromPayload(col *schema.Collection, data []ast.Assignment) *ast.Filter {
	for _, a := range data {
		fd := col.Field(a.Field)
		if fd != nil && (fd.ID || fd.Unique) {
			return ast.Equals(a.Field, a.Value)
		}
	}
	return nil
}

// recordsFrom zips a result set into records, one per row, preserving column
// order.
func recordsFrom(rs *database.ResultSet) []*types.Record {
	out := make([]*types.Record, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		rec := types.NewRecord(len(rs.Columns))
		for i, name := range rs.Columns {
			rec.Set(name, row[i])
		}
		out = append(out, rec)
	}
	return out
}

func countValue(v types.Value) (int64, error) {
	switch v.Kind() {
	case types.KindInt64:
		return v.AsInt64(), nil
	case types.KindFloat64:
		return int64(v.AsFloat64()), nil
	case types.KindText:
		return strconv.ParseInt(v.AsText(), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count value of kind %s", v.Kind())
	}
}
