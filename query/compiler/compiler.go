// Package compiler translates a query representation into a parameterized
// SQL statement for a given dialect. Compilation is a pure function of its
// inputs: it performs no I/O, and the same query, dialect and schema always
// yield a byte-identical statement. Identifiers from the schema layer are
// quoted and interpolated; user-supplied values only ever travel as
// positional arguments.
package compiler

import (
	"strconv"
	"strings"

	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/runtime/types"
	"github.com/vesperdb/vesper/schema"
)

// Compile translates q into a statement for dialect d. The registry supplies
// the per-collection field-type tables used to validate operator
// applicability and assign argument type tags.
func Compile(q *ast.Query, d Dialect, reg *schema.Registry) (*Statement, error) {
	col := reg.Lookup(q.Collection)
	if col == nil {
		return nil, errUnknownCollection(q.Collection)
	}
	if !q.Action.Known() {
		return nil, errUnknownAction(q.Collection, q.Action)
	}
	if q.Action.RequiresFilter() && q.Filter == nil {
		return nil, errMissingFilter(q.Collection, q.Action)
	}

	c := &compilation{d: d, col: col, reg: reg}

	var err error
	switch q.Action {
	case ast.ActionFindOne, ast.ActionFindFirst, ast.ActionFindMany:
		err = c.compileSelect(q)
	case ast.ActionCount:
		err = c.compileCount(q)
	case ast.ActionCreate, ast.ActionCreateMany:
		err = c.compileInsert(q)
	case ast.ActionUpdate, ast.ActionUpdateMany:
		err = c.compileUpdate(q)
	case ast.ActionUpsert:
		err = c.compileUpsert(q)
	case ast.ActionDelete, ast.ActionDeleteMany:
		err = c.compileDelete(q)
	}
	if err != nil {
		return nil, err
	}

	return &Statement{
		Text:      c.sb.String(),
		Args:      c.args,
		ArgTypes:  c.tags,
		WantsRows: c.wantsRows,
	}, nil
}

// compilation accumulates the statement text and argument list for one
// Compile call.
type compilation struct {
	sb        strings.Builder
	args      []types.Value
	tags      []types.Tag
	d         Dialect
	col       *schema.Collection
	reg       *schema.Registry
	qualify   bool // prefix columns with their table; set when joins are present
	wantsRows bool
}

// ident writes one quoted identifier, doubling embedded quote characters.
func (c *compilation) ident(name string) {
	c.sb.WriteRune(c.d.Quote)
	for _, r := range name {
		if r == c.d.Quote {
			c.sb.WriteRune(r)
		}
		c.sb.WriteRune(r)
	}
	c.sb.WriteRune(c.d.Quote)
}

// column writes a (possibly table-qualified) column reference for a field of
// the target collection.
func (c *compilation) column(fd *schema.Field) {
	if c.qualify {
		c.ident(c.col.Table)
		c.sb.WriteByte('.')
	}
	c.ident(fd.Column)
}

// addArg writes the next positional placeholder and records the argument and
// its type tag.
func (c *compilation) addArg(v types.Value, tag types.Tag) {
	if c.d.Placeholder == PlaceholderDollar {
		c.sb.WriteByte('$')
		c.sb.WriteString(strconv.Itoa(len(c.args) + 1))
	} else {
		c.sb.WriteByte('?')
	}
	c.args = append(c.args, v)
	c.tags = append(c.tags, tag)
}

func (c *compilation) field(name string) (*schema.Field, error) {
	fd := c.col.Field(name)
	if fd == nil {
		return nil, errUnknownField(c.col.Name, name)
	}
	return fd, nil
}

func (c *compilation) compileSelect(q *ast.Query) error {
	if len(q.Include) > 0 {
		return c.compileSelectWithJoins(q)
	}
	c.wantsRows = true

	c.sb.WriteString("SELECT ")
	if len(q.Select) == 0 {
		c.sb.WriteByte('*')
	} else {
		for i, name := range q.Select {
			if i > 0 {
				c.sb.WriteString(", ")
			}
			fd, err := c.field(name)
			if err != nil {
				return err
			}
			c.ident(fd.Column)
		}
	}
	c.sb.WriteString(" FROM ")
	c.ident(c.col.Table)

	if err := c.writeWhere(q.Filter); err != nil {
		return err
	}
	if err := c.writeOrderBy(q.OrderBy); err != nil {
		return err
	}
	return c.writeLimit(q)
}

func (c *compilation) compileCount(q *ast.Query) error {
	c.wantsRows = true
	c.sb.WriteString("SELECT COUNT(*) FROM ")
	c.ident(c.col.Table)
	return c.writeWhere(q.Filter)
}

// writeInsertBody writes `INSERT INTO t (cols) VALUES (...)[, (...)]` from
// the payload rows and returns the ordered field list.
func (c *compilation) writeInsertBody(q *ast.Query, verb string) ([]*schema.Field, error) {
	rows := q.Rows
	if len(rows) == 0 {
		if len(q.Data) == 0 {
			return nil, errEmptyPayload(c.col.Name, q.Action)
		}
		rows = [][]ast.Assignment{q.Data}
	}
	if len(rows[0]) == 0 {
		return nil, errEmptyPayload(c.col.Name, q.Action)
	}

	fields := make([]*schema.Field, len(rows[0]))
	c.sb.WriteString(verb)
	c.sb.WriteByte(' ')
	c.ident(c.col.Table)
	c.sb.WriteString(" (")
	for i, a := range rows[0] {
		if i > 0 {
			c.sb.WriteString(", ")
		}
		fd, err := c.field(a.Field)
		if err != nil {
			return nil, err
		}
		fields[i] = fd
		c.ident(fd.Column)
	}
	c.sb.WriteString(") VALUES ")

	for r, row := range rows {
		if len(row) != len(fields) {
			return nil, errPayloadShape(c.col.Name, r)
		}
		if r > 0 {
			c.sb.WriteString(", ")
		}
		c.sb.WriteByte('(')
		for i, a := range row {
			if a.Field != fields[i].Name {
				return nil, errPayloadShape(c.col.Name, r)
			}
			if i > 0 {
				c.sb.WriteString(", ")
			}
			c.addArg(a.Value, fields[i].Type.Tag())
		}
		c.sb.WriteByte(')')
	}
	return fields, nil
}

func (c *compilation) compileInsert(q *ast.Query) error {
	if _, err := c.writeInsertBody(q, "INSERT INTO"); err != nil {
		return err
	}
	if c.d.SupportsReturning {
		c.sb.WriteString(" RETURNING *")
		c.wantsRows = true
	}
	return nil
}

func (c *compilation) compileUpdate(q *ast.Query) error {
	if len(q.Data) == 0 {
		return errEmptyPayload(c.col.Name, q.Action)
	}

	c.sb.WriteString("UPDATE ")
	c.ident(c.col.Table)
	c.sb.WriteString(" SET ")
	for i, a := range q.Data {
		if i > 0 {
			c.sb.WriteString(", ")
		}
		fd, err := c.field(a.Field)
		if err != nil {
			return err
		}
		c.ident(fd.Column)
		c.sb.WriteString(" = ")
		c.addArg(a.Value, fd.Type.Tag())
	}

	if err := c.writeWhere(q.Filter); err != nil {
		return err
	}
	if q.Action == ast.ActionUpdate && c.d.SupportsReturning {
		c.sb.WriteString(" RETURNING *")
		c.wantsRows = true
	}
	return nil
}

func (c *compilation) compileDelete(q *ast.Query) error {
	c.sb.WriteString("DELETE FROM ")
	c.ident(c.col.Table)
	return c.writeWhere(q.Filter)
}

func (c *compilation) compileUpsert(q *ast.Query) error {
	if c.d.Upsert == UpsertUnsupported {
		return errUnsupportedFeature(c.col.Name, "upsert is not available for dialect "+c.d.Name)
	}

	verb := "INSERT INTO"
	if c.d.Upsert == UpsertInsertOrReplace {
		verb = "INSERT OR REPLACE INTO"
	}
	fields, err := c.writeInsertBody(q, verb)
	if err != nil {
		return err
	}

	switch c.d.Upsert {
	case UpsertOnConflict:
		if err := c.writeOnConflict(q, fields); err != nil {
			return err
		}
	case UpsertOnDuplicateKey:
		if err := c.writeOnDuplicateKey(q, fields); err != nil {
			return err
		}
	case UpsertInsertOrReplace:
		// The verb already carries the conflict semantics.
	}

	if c.d.SupportsReturning {
		c.sb.WriteString(" RETURNING *")
		c.wantsRows = true
	}
	return nil
}

// conflictTarget resolves the upsert conflict columns: the explicit target
// when given, the identifier field otherwise.
func (c *compilation) conflictTarget(q *ast.Query) ([]*schema.Field, error) {
	if len(q.ConflictOn) > 0 {
		out := make([]*schema.Field, len(q.ConflictOn))
		for i, name := range q.ConflictOn {
			fd, err := c.field(name)
			if err != nil {
				return nil, err
			}
			out[i] = fd
		}
		return out, nil
	}
	if id := c.col.ID(); id != nil {
		return []*schema.Field{id}, nil
	}
	return nil, errNoConflictTarget(c.col.Name)
}

func (c *compilation) writeOnConflict(q *ast.Query, inserted []*schema.Field) error {
	target, err := c.conflictTarget(q)
	if err != nil {
		return err
	}
	c.sb.WriteString(" ON CONFLICT (")
	for i, fd := range target {
		if i > 0 {
			c.sb.WriteString(", ")
		}
		c.ident(fd.Column)
	}
	c.sb.WriteString(") DO UPDATE SET ")

	if len(q.OnConflictUpdate) > 0 {
		for i, a := range q.OnConflictUpdate {
			if i > 0 {
				c.sb.WriteString(", ")
			}
			fd, err := c.field(a.Field)
			if err != nil {
				return err
			}
			c.ident(fd.Column)
			c.sb.WriteString(" = ")
			c.addArg(a.Value, fd.Type.Tag())
		}
		return nil
	}

	// Default: keep the inserted values for every non-target column.
	wrote := false
	for _, fd := range inserted {
		if fieldIn(fd, target) {
			continue
		}
		if wrote {
			c.sb.WriteString(", ")
		}
		c.ident(fd.Column)
		c.sb.WriteString(" = excluded.")
		c.ident(fd.Column)
		wrote = true
	}
	if !wrote {
		return errUnsupportedFeature(c.col.Name, "upsert payload has no updatable column")
	}
	return nil
}

func (c *compilation) writeOnDuplicateKey(q *ast.Query, inserted []*schema.Field) error {
	c.sb.WriteString(" ON DUPLICATE KEY UPDATE ")

	if len(q.OnConflictUpdate) > 0 {
		for i, a := range q.OnConflictUpdate {
			if i > 0 {
				c.sb.WriteString(", ")
			}
			fd, err := c.field(a.Field)
			if err != nil {
				return err
			}
			c.ident(fd.Column)
			c.sb.WriteString(" = ")
			c.addArg(a.Value, fd.Type.Tag())
		}
		return nil
	}

	target, err := c.conflictTarget(q)
	if err != nil {
		return err
	}
	wrote := false
	for _, fd := range inserted {
		if fieldIn(fd, target) {
			continue
		}
		if wrote {
			c.sb.WriteString(", ")
		}
		c.ident(fd.Column)
		c.sb.WriteString(" = VALUES(")
		c.ident(fd.Column)
		c.sb.WriteByte(')')
		wrote = true
	}
	if !wrote {
		return errUnsupportedFeature(c.col.Name, "upsert payload has no updatable column")
	}
	return nil
}

func fieldIn(fd *schema.Field, set []*schema.Field) bool {
	for _, s := range set {
		if s.Name == fd.Name {
			return true
		}
	}
	return false
}

func (c *compilation) writeOrderBy(terms []ast.OrderBy) error {
	if len(terms) == 0 {
		return nil
	}
	c.sb.WriteString(" ORDER BY ")
	for i, t := range terms {
		if i > 0 {
			c.sb.WriteString(", ")
		}
		fd, err := c.field(t.Field)
		if err != nil {
			return err
		}
		c.column(fd)
		if t.Direction == ast.SortDesc {
			c.sb.WriteString(" DESC")
		} else {
			c.sb.WriteString(" ASC")
		}
	}
	return nil
}

// writeLimit writes LIMIT/OFFSET. findOne and findFirst force LIMIT 1 so a
// single-row read stays single-row even when the caller omits take. The
// bounds are schema-independent integers, not user values, so they are
// rendered inline.
func (c *compilation) writeLimit(q *ast.Query) error {
	limit := q.Take
	if q.Action == ast.ActionFindOne || q.Action == ast.ActionFindFirst {
		one := 1
		limit = &one
	}
	if limit != nil {
		c.sb.WriteString(" LIMIT ")
		c.sb.WriteString(strconv.Itoa(*limit))
	}
	if q.Skip != nil {
		c.sb.WriteString(" OFFSET ")
		c.sb.WriteString(strconv.Itoa(*q.Skip))
	}
	return nil
}
