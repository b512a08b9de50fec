package compiler

import (
	"errors"
	"fmt"

	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/schema"
)

// Sentinel categories for errors.Is matching. Every concrete compile error
// wraps exactly one of these.
var (
	ErrUnknownAction       = errors.New("unknown action")
	ErrUnknownCollection   = errors.New("unknown collection")
	ErrUnknownField        = errors.New("unknown field")
	ErrUnknownRelation     = errors.New("unknown relation")
	ErrMissingFilter       = errors.New("missing filter")
	ErrInvalidFilter       = errors.New("invalid filter tree")
	ErrEmptyPayload        = errors.New("empty payload")
	ErrPayloadShape        = errors.New("inconsistent payload rows")
	ErrNoConflictTarget    = errors.New("no conflict target")
	ErrUnsupportedOperator = errors.New("unsupported operator for field type")
	ErrUnsupportedFeature  = errors.New("unsupported dialect feature")
)

// Error is a deterministic, caller-fixable compilation failure. It carries
// the collection, field and operator context needed to correct the query
// representation; it never reflects backend state.
type Error struct {
	Category   error // one of the sentinel categories above
	Collection string
	Field      string
	Operator   ast.Operator
	Detail     string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("compile: %s", e.Category)
	if e.Collection != "" {
		msg += fmt.Sprintf(" (collection %q", e.Collection)
		if e.Field != "" {
			msg += fmt.Sprintf(", field %q", e.Field)
		}
		if e.Operator != "" {
			msg += fmt.Sprintf(", operator %q", e.Operator)
		}
		msg += ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Category }

func errUnknownAction(collection string, a ast.Action) error {
	return &Error{Category: ErrUnknownAction, Collection: collection, Detail: string(a)}
}

func errUnknownCollection(collection string) error {
	return &Error{Category: ErrUnknownCollection, Collection: collection}
}

func errUnknownField(collection, field string) error {
	return &Error{Category: ErrUnknownField, Collection: collection, Field: field}
}

func errUnknownRelation(collection, relation string) error {
	return &Error{Category: ErrUnknownRelation, Collection: collection, Detail: relation}
}

func errMissingFilter(collection string, a ast.Action) error {
	return &Error{
		Category:   ErrMissingFilter,
		Collection: collection,
		Detail:     fmt.Sprintf("%s must identify its target row", a),
	}
}

func errInvalidFilter(collection, detail string) error {
	return &Error{Category: ErrInvalidFilter, Collection: collection, Detail: detail}
}

func errEmptyPayload(collection string, a ast.Action) error {
	return &Error{Category: ErrEmptyPayload, Collection: collection, Detail: string(a)}
}

func errPayloadShape(collection string, row int) error {
	return &Error{
		Category:   ErrPayloadShape,
		Collection: collection,
		Detail:     fmt.Sprintf("row %d does not match the field set of row 0", row),
	}
}

func errNoConflictTarget(collection string) error {
	return &Error{
		Category:   ErrNoConflictTarget,
		Collection: collection,
		Detail:     "upsert needs conflict columns or an identifier field",
	}
}

func errUnsupportedOperator(collection, field string, op ast.Operator, t schema.ScalarType) error {
	return &Error{
		Category:   ErrUnsupportedOperator,
		Collection: collection,
		Field:      field,
		Operator:   op,
		Detail:     fmt.Sprintf("field type %s", t),
	}
}

func errUnsupportedFeature(collection, detail string) error {
	return &Error{Category: ErrUnsupportedFeature, Collection: collection, Detail: detail}
}
