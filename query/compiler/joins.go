package compiler

import (
	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/schema"
)

// RelationSeparator joins a relation name and a column name in the aliases of
// join-aware projections. The executor's regrouping step splits on it.
const RelationSeparator = "__"

// compileSelectWithJoins emits a flat join-aware SELECT: every included
// relation contributes a LEFT JOIN derived from its declared keys, and every
// projected column is aliased so result rows can be regrouped by parent key
// afterwards. The regrouping itself is a post-processing step over the result
// set and does not concern the compiler.
func (c *compilation) compileSelectWithJoins(q *ast.Query) error {
	c.wantsRows = true
	c.qualify = true

	type joined struct {
		rel *schema.Relation
		col *schema.Collection
	}
	joins := make([]joined, 0, len(q.Include))
	for _, name := range q.Include {
		rel := c.col.Relation(name)
		if rel == nil {
			return errUnknownRelation(c.col.Name, name)
		}
		related := c.reg.Lookup(rel.Collection)
		if related == nil {
			return errUnknownCollection(rel.Collection)
		}
		joins = append(joins, joined{rel: rel, col: related})
	}

	// Projection: parent columns under their own names, relation columns
	// under "<relation><sep><field>".
	c.sb.WriteString("SELECT ")
	parentFields := c.col.Fields
	if len(q.Select) > 0 {
		parentFields = nil
		for _, name := range q.Select {
			fd, err := c.field(name)
			if err != nil {
				return err
			}
			parentFields = append(parentFields, *fd)
		}
	}
	wrote := false
	for i := range parentFields {
		if wrote {
			c.sb.WriteString(", ")
		}
		c.qualified(c.col.Table, parentFields[i].Column)
		c.sb.WriteString(" AS ")
		c.ident(parentFields[i].Name)
		wrote = true
	}
	for _, j := range joins {
		for i := range j.col.Fields {
			if wrote {
				c.sb.WriteString(", ")
			}
			c.qualified(j.col.Table, j.col.Fields[i].Column)
			c.sb.WriteString(" AS ")
			c.ident(j.rel.Name + RelationSeparator + j.col.Fields[i].Name)
			wrote = true
		}
	}

	c.sb.WriteString(" FROM ")
	c.ident(c.col.Table)

	for _, j := range joins {
		if err := c.writeJoin(j.rel, j.col); err != nil {
			return err
		}
	}

	if err := c.writeWhere(q.Filter); err != nil {
		return err
	}
	if err := c.writeOrderBy(q.OrderBy); err != nil {
		return err
	}
	return c.writeLimit(q)
}

// writeJoin writes the LEFT JOIN fragment(s) for one relation. One-to-many
// joins on the foreign key held by the related collection; many-to-one joins
// on the foreign key held by this collection; many-to-many goes through the
// declared join table with two fragments.
func (c *compilation) writeJoin(rel *schema.Relation, related *schema.Collection) error {
	if rel.JoinTable != "" {
		localKey, err := c.field(rel.LocalKey)
		if err != nil {
			return err
		}
		farKey := related.Field(rel.ForeignKey)
		if farKey == nil {
			return errUnknownField(related.Name, rel.ForeignKey)
		}

		c.sb.WriteString(" LEFT JOIN ")
		c.ident(rel.JoinTable)
		c.sb.WriteString(" ON ")
		c.qualified(rel.JoinTable, rel.JoinLocalKey)
		c.sb.WriteString(" = ")
		c.qualified(c.col.Table, localKey.Column)

		c.sb.WriteString(" LEFT JOIN ")
		c.ident(related.Table)
		c.sb.WriteString(" ON ")
		c.qualified(related.Table, farKey.Column)
		c.sb.WriteString(" = ")
		c.qualified(rel.JoinTable, rel.JoinForeignKey)
		return nil
	}

	c.sb.WriteString(" LEFT JOIN ")
	c.ident(related.Table)
	c.sb.WriteString(" ON ")
	if rel.List {
		fk := related.Field(rel.ForeignKey)
		if fk == nil {
			return errUnknownField(related.Name, rel.ForeignKey)
		}
		localKey, err := c.field(rel.LocalKey)
		if err != nil {
			return err
		}
		c.qualified(related.Table, fk.Column)
		c.sb.WriteString(" = ")
		c.qualified(c.col.Table, localKey.Column)
	} else {
		fk, err := c.field(rel.ForeignKey)
		if err != nil {
			return err
		}
		farKey := related.Field(rel.LocalKey)
		if farKey == nil {
			return errUnknownField(related.Name, rel.LocalKey)
		}
		c.qualified(c.col.Table, fk.Column)
		c.sb.WriteString(" = ")
		c.qualified(related.Table, farKey.Column)
	}
	return nil
}

func (c *compilation) qualified(table, column string) {
	c.ident(table)
	c.sb.WriteByte('.')
	c.ident(column)
}
