package ast

import (
	"strings"

	"github.com/vesperdb/vesper/runtime/types"
)

// Operator is a filter leaf operator.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpNot        Operator = "not"
	OpIn         Operator = "in"
	OpNotIn      Operator = "notIn"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
)

// FilterKind discriminates the filter union.
type FilterKind uint8

const (
	FilterLeaf FilterKind = iota
	FilterAnd
	FilterOr
	FilterNot
)

// Assignment is one field/value pair of a mutation payload.
type Assignment struct {
	Field string
	Value types.Value
}

// Filter is a boolean expression tree over field conditions. A leaf holds a
// field, an operator and a value (or a value list for in/notIn); the
// composite kinds hold children. Build trees with the constructor functions;
// treat built trees as immutable.
type Filter struct {
	Kind FilterKind

	// Leaf only.
	Field  string
	Op     Operator
	Value  types.Value
	Values []types.Value // in / notIn

	// And/Or: all children. Not: exactly one child.
	Children []*Filter
}

func leaf(field string, op Operator, v types.Value) *Filter {
	return &Filter{Kind: FilterLeaf, Field: field, Op: op, Value: v}
}

// Equals matches rows whose field equals v; a null v matches IS NULL.
func Equals(field string, v types.Value) *Filter { return leaf(field, OpEquals, v) }

// NotEquals matches rows whose field differs from v; a null v matches IS NOT NULL.
func NotEquals(field string, v types.Value) *Filter { return leaf(field, OpNot, v) }

// Lt matches rows whose field is strictly less than v.
func Lt(field string, v types.Value) *Filter { return leaf(field, OpLt, v) }

// Lte matches rows whose field is at most v.
func Lte(field string, v types.Value) *Filter { return leaf(field, OpLte, v) }

// Gt matches rows whose field is strictly greater than v.
func Gt(field string, v types.Value) *Filter { return leaf(field, OpGt, v) }

// Gte matches rows whose field is at least v.
func Gte(field string, v types.Value) *Filter { return leaf(field, OpGte, v) }

// In matches rows whose field equals any of the listed values.
func In(field string, vs ...types.Value) *Filter {
	return &Filter{Kind: FilterLeaf, Field: field, Op: OpIn, Values: vs}
}

// NotIn matches rows whose field equals none of the listed values.
func NotIn(field string, vs ...types.Value) *Filter {
	return &Filter{Kind: FilterLeaf, Field: field, Op: OpNotIn, Values: vs}
}

// Contains matches text fields containing the substring.
func Contains(field, substr string) *Filter {
	return leaf(field, OpContains, types.Text(substr))
}

// StartsWith matches text fields with the given prefix.
func StartsWith(field, prefix string) *Filter {
	return leaf(field, OpStartsWith, types.Text(prefix))
}

// EndsWith matches text fields with the given suffix.
func EndsWith(field, suffix string) *Filter {
	return leaf(field, OpEndsWith, types.Text(suffix))
}

// And matches rows satisfying every child. With no children it matches all
// rows.
func And(children ...*Filter) *Filter {
	return &Filter{Kind: FilterAnd, Children: children}
}

// Or matches rows satisfying at least one child. With no children it matches
// no rows.
func Or(children ...*Filter) *Filter {
	return &Filter{Kind: FilterOr, Children: children}
}

// Not matches rows the child rejects.
func Not(child *Filter) *Filter {
	return &Filter{Kind: FilterNot, Children: []*Filter{child}}
}

// Matches evaluates the filter against an in-memory record. It is the
// reference semantics the compiled SQL must agree with; tests compare the two
// and callers can use it for client-side predicate checks. Fields absent from
// the record evaluate as null.
func (f *Filter) Matches(rec *types.Record) bool {
	if f == nil {
		return true
	}
	switch f.Kind {
	case FilterAnd:
		for _, c := range f.Children {
			if !c.Matches(rec) {
				return false
			}
		}
		return true
	case FilterOr:
		for _, c := range f.Children {
			if c.Matches(rec) {
				return true
			}
		}
		return false
	case FilterNot:
		if len(f.Children) != 1 {
			return false
		}
		return !f.Children[0].Matches(rec)
	case FilterLeaf:
		v, _ := rec.Get(f.Field)
		return leafMatches(f, v)
	default:
		return false
	}
}

func leafMatches(f *Filter, v types.Value) bool {
	switch f.Op {
	case OpEquals:
		if f.Value.IsNull() {
			return v.IsNull()
		}
		return v.Equal(f.Value)
	case OpNot:
		if f.Value.IsNull() {
			return !v.IsNull()
		}
		return !v.Equal(f.Value)
	case OpIn:
		for _, c := range f.Values {
			if v.Equal(c) {
				return true
			}
		}
		return false
	case OpNotIn:
		for _, c := range f.Values {
			if v.Equal(c) {
				return false
			}
		}
		return true
	case OpLt, OpLte, OpGt, OpGte:
		cmp, ok := v.Compare(f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case OpLt:
			return cmp < 0
		case OpLte:
			return cmp <= 0
		case OpGt:
			return cmp > 0
		default:
			return cmp >= 0
		}
	case OpContains:
		return v.Kind() == types.KindText && strings.Contains(v.AsText(), f.Value.AsText())
	case OpStartsWith:
		return v.Kind() == types.KindText && strings.HasPrefix(v.AsText(), f.Value.AsText())
	case OpEndsWith:
		return v.Kind() == types.KindText && strings.HasSuffix(v.AsText(), f.Value.AsText())
	default:
		return false
	}
}
