package compiler

import (
	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/runtime/types"
	"github.com/vesperdb/vesper/schema"
)

// writeWhere writes the WHERE clause for the filter tree, or nothing when the
// filter is nil. Whether nil is acceptable for the action was already decided
// by Compile.
func (c *compilation) writeWhere(f *ast.Filter) error {
	if f == nil {
		return nil
	}
	c.sb.WriteString(" WHERE ")
	return c.writeFilter(f)
}

func (c *compilation) writeFilter(f *ast.Filter) error {
	// A nil node inside the tree is a construction bug, e.g. Not(nil) or a
	// junction built around a nil child. Reject it here instead of panicking.
	if f == nil {
		return errInvalidFilter(c.col.Name, "nil filter node")
	}
	switch f.Kind {
	case ast.FilterAnd:
		// An empty conjunction matches everything. Emitted explicitly so the
		// clause never degenerates into invalid SQL.
		if len(f.Children) == 0 {
			c.sb.WriteString("TRUE")
			return nil
		}
		return c.writeJunction(f.Children, " AND ")
	case ast.FilterOr:
		// An empty disjunction matches nothing.
		if len(f.Children) == 0 {
			c.sb.WriteString("FALSE")
			return nil
		}
		return c.writeJunction(f.Children, " OR ")
	case ast.FilterNot:
		c.sb.WriteString("NOT (")
		if len(f.Children) == 1 {
			if err := c.writeFilter(f.Children[0]); err != nil {
				return err
			}
		} else {
			c.sb.WriteString("TRUE")
		}
		c.sb.WriteByte(')')
		return nil
	case ast.FilterLeaf:
		return c.writeLeaf(f)
	default:
		return errUnsupportedFeature(c.col.Name, "unknown filter node")
	}
}

func (c *compilation) writeJunction(children []*ast.Filter, sep string) error {
	for i, child := range children {
		if child == nil {
			return errInvalidFilter(c.col.Name, "nil filter node")
		}
		if i > 0 {
			c.sb.WriteString(sep)
		}
		composite := child.Kind != ast.FilterLeaf
		if composite {
			c.sb.WriteByte('(')
		}
		if err := c.writeFilter(child); err != nil {
			return err
		}
		if composite {
			c.sb.WriteByte(')')
		}
	}
	return nil
}

func (c *compilation) writeLeaf(f *ast.Filter) error {
	fd, err := c.field(f.Field)
	if err != nil {
		return err
	}
	if !operatorAllowed(f.Op, fd.Type) {
		return errUnsupportedOperator(c.col.Name, f.Field, f.Op, fd.Type)
	}
	tag := fd.Type.Tag()

	switch f.Op {
	case ast.OpEquals:
		c.column(fd)
		if f.Value.IsNull() {
			c.sb.WriteString(" IS NULL")
			return nil
		}
		c.sb.WriteString(" = ")
		c.addArg(f.Value, tag)
	case ast.OpNot:
		c.column(fd)
		if f.Value.IsNull() {
			c.sb.WriteString(" IS NOT NULL")
			return nil
		}
		c.sb.WriteString(" <> ")
		c.addArg(f.Value, tag)
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		c.column(fd)
		switch f.Op {
		case ast.OpLt:
			c.sb.WriteString(" < ")
		case ast.OpLte:
			c.sb.WriteString(" <= ")
		case ast.OpGt:
			c.sb.WriteString(" > ")
		default:
			c.sb.WriteString(" >= ")
		}
		c.addArg(f.Value, tag)
	case ast.OpIn:
		// One placeholder per element. An empty list matches nothing, the
		// same explicit constant rule as Or with no children.
		if len(f.Values) == 0 {
			c.sb.WriteString("FALSE")
			return nil
		}
		c.column(fd)
		c.sb.WriteString(" IN (")
		for i, v := range f.Values {
			if i > 0 {
				c.sb.WriteString(", ")
			}
			c.addArg(v, tag)
		}
		c.sb.WriteByte(')')
	case ast.OpNotIn:
		if len(f.Values) == 0 {
			c.sb.WriteString("TRUE")
			return nil
		}
		c.column(fd)
		c.sb.WriteString(" NOT IN (")
		for i, v := range f.Values {
			if i > 0 {
				c.sb.WriteString(", ")
			}
			c.addArg(v, tag)
		}
		c.sb.WriteByte(')')
	case ast.OpContains:
		c.column(fd)
		c.sb.WriteString(" LIKE ")
		c.addArg(types.Text("%"+f.Value.AsText()+"%"), tag)
	case ast.OpStartsWith:
		c.column(fd)
		c.sb.WriteString(" LIKE ")
		c.addArg(types.Text(f.Value.AsText()+"%"), tag)
	case ast.OpEndsWith:
		c.column(fd)
		c.sb.WriteString(" LIKE ")
		c.addArg(types.Text("%"+f.Value.AsText()), tag)
	default:
		return errUnsupportedOperator(c.col.Name, f.Field, f.Op, fd.Type)
	}
	return nil
}

// operatorAllowed is the compile-time applicability check of operators
// against the declared field type. A mismatch is a compile error, never a
// runtime SQL failure.
func operatorAllowed(op ast.Operator, t schema.ScalarType) bool {
	switch op {
	case ast.OpEquals, ast.OpNot, ast.OpIn, ast.OpNotIn:
		return true
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		switch t {
		case schema.String, schema.Int, schema.BigInt, schema.Float,
			schema.Decimal, schema.DateTime:
			return true
		}
		return false
	case ast.OpContains, ast.OpStartsWith, ast.OpEndsWith:
		return t == schema.String
	default:
		return false
	}
}
