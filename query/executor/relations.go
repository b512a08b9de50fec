package executor

import (
	"context"
	"strings"

	"github.com/vesperdb/vesper/adapters/database"
	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/runtime/types"
	"github.com/vesperdb/vesper/schema"
)

// Entity is a parent record with its relation records nested under the
// relation names. Non-list relations hold at most one record.
type Entity struct {
	Record    *types.Record
	Relations map[string][]*types.Record
}

// Relation returns the single nested record of a non-list relation, or nil.
func (e *Entity) Relation(name string) *types.Record {
	recs := e.Relations[name]
	if len(recs) == 0 {
		return nil
	}
	return recs[0]
}

// QueryGrouped executes a join-aware read and regroups the flat rows into
// entities, nesting each included relation's records under its name.
func (s *session) QueryGrouped(ctx context.Context, q *ast.Query) ([]*Entity, error) {
	stmt, err := s.compile(q)
	if err != nil {
		return nil, err
	}
	rs, err := s.runQuery(ctx, stmt)
	if err != nil {
		return nil, s.fail(q, err)
	}
	col := s.registry.Lookup(q.Collection)
	entities := Regroup(rs, col)
	if q.Action == ast.ActionFindOne && len(entities) == 0 {
		return nil, s.fail(q, database.ErrRecordNotFound)
	}
	return entities, nil
}

// Regroup splits the flat rows of a joined result set into one entity per
// distinct parent, collecting relation columns (aliased with the relation
// separator) into nested records. It is a pure transformation: the result
// set is only read, parent order follows first appearance, and children
// duplicated by the join cross product are collapsed.
func Regroup(rs *database.ResultSet, col *schema.Collection) []*Entity {
	type relColumn struct {
		idx   int
		rel   string
		field string
	}
	var parentIdx []int
	var relCols []relColumn
	for i, name := range rs.Columns {
		j := strings.Index(name, compiler.RelationSeparator)
		if j > 0 && col != nil && col.Relation(name[:j]) != nil {
			relCols = append(relCols, relColumn{
				idx:   i,
				rel:   name[:j],
				field: name[j+len(compiler.RelationSeparator):],
			})
			continue
		}
		parentIdx = append(parentIdx, i)
	}

	// Parents are identified by their id column when projected, else by the
	// fingerprint of every parent column.
	keyIdx := parentIdx
	if col != nil {
		if id := col.ID(); id != nil {
			for _, i := range parentIdx {
				if rs.Columns[i] == id.Name {
					keyIdx = []int{i}
					break
				}
			}
		}
	}

	var out []*Entity
	byKey := make(map[string]*Entity)
	seen := make(map[string]map[string]bool) // parent key -> child fingerprints

	for _, row := range rs.Rows {
		key := fingerprint(row, keyIdx)
		ent, ok := byKey[key]
		if !ok {
			rec := types.NewRecord(len(parentIdx))
			for _, i := range parentIdx {
				rec.Set(rs.Columns[i], row[i])
			}
			ent = &Entity{Record: rec, Relations: make(map[string][]*types.Record)}
			byKey[key] = ent
			seen[key] = make(map[string]bool)
			out = append(out, ent)
		}

		// One child record per relation per row. A child whose columns are
		// all null is an unmatched LEFT JOIN and is skipped.
		children := make(map[string]*types.Record)
		nonNull := make(map[string]bool)
		var order []string
		for _, rc := range relCols {
			child, ok := children[rc.rel]
			if !ok {
				child = types.NewRecord(4)
				children[rc.rel] = child
				order = append(order, rc.rel)
			}
			child.Set(rc.field, row[rc.idx])
			if !row[rc.idx].IsNull() {
				nonNull[rc.rel] = true
			}
		}
		for _, rel := range order {
			if !nonNull[rel] {
				continue
			}
			child := children[rel]
			fp := rel + "\x00" + childFingerprint(child)
			if seen[key][fp] {
				continue
			}
			seen[key][fp] = true
			ent.Relations[rel] = append(ent.Relations[rel], child)
		}
	}
	return out
}

func fingerprint(row []types.Value, idx []int) string {
	var sb strings.Builder
	for _, i := range idx {
		sb.WriteString(row[i].String())
		sb.WriteByte(0)
	}
	return sb.String()
}

func childFingerprint(rec *types.Record) string {
	var sb strings.Builder
	rec.Range(func(key string, v types.Value) bool {
		sb.WriteString(key)
		sb.WriteByte(0)
		sb.WriteString(v.String())
		sb.WriteByte(0)
		return true
	})
	return sb.String()
}
