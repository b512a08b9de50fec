// Package optimizer normalizes query representations before compilation.
// The rewrites are purely structural and never change what a query matches:
// nested junctions of the same kind are flattened, single-child junctions
// collapse into the child, and double negation cancels.
package optimizer

import "github.com/vesperdb/vesper/query/ast"

// Normalize returns a query with its filter simplified. The input is never
// modified; when nothing changes the same pointer comes back.
func Normalize(q *ast.Query) *ast.Query {
	if q == nil || q.Filter == nil {
		return q
	}
	simplified := Simplify(q.Filter)
	if simplified == q.Filter {
		return q
	}
	out := *q
	out.Filter = simplified
	return &out
}

// Simplify rewrites a filter tree into an equivalent, smaller one. Empty
// junctions are kept as-is: And of nothing and Or of nothing have defined
// truth values that the compiler emits directly.
func Simplify(f *ast.Filter) *ast.Filter {
	if f == nil {
		return nil
	}
	switch f.Kind {
	case ast.FilterAnd, ast.FilterOr:
		return simplifyJunction(f)
	case ast.FilterNot:
		return simplifyNot(f)
	default:
		return f
	}
}

func simplifyJunction(f *ast.Filter) *ast.Filter {
	children := make([]*ast.Filter, 0, len(f.Children))
	changed := false
	for _, child := range f.Children {
		// A nil child is a malformed tree; keep it for the compiler to
		// reject with a proper error.
		if child == nil {
			children = append(children, nil)
			continue
		}
		s := Simplify(child)
		if s != child {
			changed = true
		}
		// Same-kind junctions flatten into the parent.
		if s.Kind == f.Kind && len(s.Children) > 0 {
			children = append(children, s.Children...)
			changed = true
			continue
		}
		children = append(children, s)
	}
	if len(children) == 1 && children[0] != nil {
		return children[0]
	}
	if !changed {
		return f
	}
	out := *f
	out.Children = children
	return &out
}

func simplifyNot(f *ast.Filter) *ast.Filter {
	if len(f.Children) == 0 || f.Children[0] == nil {
		return f
	}
	inner := Simplify(f.Children[0])
	// Double negation cancels only when the inner Not is well formed.
	if inner.Kind == ast.FilterNot && len(inner.Children) == 1 && inner.Children[0] != nil {
		return inner.Children[0]
	}
	if inner == f.Children[0] {
		return f
	}
	return ast.Not(inner)
}
