// Package ast defines the intermediate representation of a query: the target
// collection, the requested action, and the filter, payload, ordering and
// pagination components the compiler translates into SQL. The representation
// carries no SQL knowledge of its own.
package ast

// Action identifies the requested operation.
type Action string

const (
	ActionFindOne    Action = "findOne"
	ActionFindFirst  Action = "findFirst"
	ActionFindMany   Action = "findMany"
	ActionCreate     Action = "create"
	ActionCreateMany Action = "createMany"
	ActionUpdate     Action = "update"
	ActionUpdateMany Action = "updateMany"
	ActionUpsert     Action = "upsert"
	ActionDelete     Action = "delete"
	ActionDeleteMany Action = "deleteMany"
	ActionCount      Action = "count"
)

// Known reports whether the action is part of the closed action set.
func (a Action) Known() bool {
	switch a {
	case ActionFindOne, ActionFindFirst, ActionFindMany,
		ActionCreate, ActionCreateMany,
		ActionUpdate, ActionUpdateMany, ActionUpsert,
		ActionDelete, ActionDeleteMany, ActionCount:
		return true
	}
	return false
}

// Mutation reports whether the action writes.
func (a Action) Mutation() bool {
	switch a {
	case ActionCreate, ActionCreateMany, ActionUpdate, ActionUpdateMany,
		ActionUpsert, ActionDelete, ActionDeleteMany:
		return true
	}
	return false
}

// RequiresFilter reports whether the action targets a single row and must
// therefore carry a filter identifying it. Bulk actions deliberately accept a
// nil filter; the executor logs full-table mutations instead of rejecting
// them.
func (a Action) RequiresFilter() bool {
	switch a {
	case ActionFindOne, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// SortDirection orders a result column.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// OrderBy is one ordering term.
type OrderBy struct {
	Field     string
	Direction SortDirection
}

// Query is the immutable representation of one operation. Build instances
// through the query/builder package; the compiler treats the struct as
// read-only.
type Query struct {
	Collection string
	Action     Action

	Filter  *Filter
	Data    []Assignment   // payload for Create/Update/Upsert, in declaration order
	Rows    [][]Assignment // payload rows for CreateMany
	Select  []string       // projection; empty means all columns
	Include []string       // relations to join in, by declared relation name
	OrderBy []OrderBy
	Take    *int
	Skip    *int

	// Upsert only: the conflict target and the assignments applied when the
	// insert collides. Empty ConflictOn falls back to the identifier field.
	ConflictOn       []string
	OnConflictUpdate []Assignment
}
