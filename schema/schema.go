// Package schema holds the per-collection field-type tables the compiler
// consumes. The tables are normally emitted by the code-generation layer from
// a schema definition; hand-built tables work the same way and are what the
// tests use.
package schema

import (
	"fmt"
	"sync"

	"github.com/vesperdb/vesper/runtime/types"
)

// ScalarType is the declared type of a field.
type ScalarType uint8

const (
	String ScalarType = iota
	Int
	BigInt
	Float
	Decimal
	Boolean
	DateTime
	Json
	Bytes
	Uuid
)

// String returns the schema-level name of the scalar type.
func (s ScalarType) String() string {
	switch s {
	case String:
		return "String"
	case Int:
		return "Int"
	case BigInt:
		return "BigInt"
	case Float:
		return "Float"
	case Decimal:
		return "Decimal"
	case Boolean:
		return "Boolean"
	case DateTime:
		return "DateTime"
	case Json:
		return "Json"
	case Bytes:
		return "Bytes"
	case Uuid:
		return "Uuid"
	default:
		return fmt.Sprintf("ScalarType(%d)", uint8(s))
	}
}

// Tag maps the declared type to the wire-level type tag used for argument
// and column serialization.
func (s ScalarType) Tag() types.Tag {
	switch s {
	case String:
		return types.TagText
	case Int:
		return types.TagInt64
	case BigInt:
		return types.TagBigInt
	case Float:
		return types.TagFloat64
	case Decimal:
		return types.TagDecimal
	case Boolean:
		return types.TagBool
	case DateTime:
		return types.TagTimestamp
	case Json:
		return types.TagJSON
	case Bytes:
		return types.TagBytes
	case Uuid:
		return types.TagUUID
	default:
		return types.TagText
	}
}

// Field describes one scalar field of a collection.
type Field struct {
	Name     string
	Column   string // database column; defaults to Name
	Type     ScalarType
	Nullable bool
	Unique   bool
	ID       bool
}

// Relation describes a declared relation used by join-aware reads. For
// many-to-many relations the join-table fields are set and ForeignKey names
// the key on the far side of the join table.
type Relation struct {
	Name       string
	Collection string // related collection name
	ForeignKey string // key holding the reference
	LocalKey   string // key being referenced, usually the ID
	List       bool   // true for one-to-many and many-to-many

	JoinTable      string // set only for many-to-many
	JoinLocalKey   string // join-table column referencing this collection
	JoinForeignKey string // join-table column referencing the related collection
}

// Collection is the field-type table for one model.
type Collection struct {
	Name      string
	Table     string // database table; defaults to Name
	Fields    []Field
	Relations []Relation

	fieldIndex map[string]int
	relIndex   map[string]int
}

// NewCollection builds a collection table and indexes its fields.
func NewCollection(name string, fields ...Field) *Collection {
	c := &Collection{
		Name:       name,
		Table:      name,
		Fields:     fields,
		fieldIndex: make(map[string]int, len(fields)),
		relIndex:   map[string]int{},
	}
	for i := range c.Fields {
		if c.Fields[i].Column == "" {
			c.Fields[i].Column = c.Fields[i].Name
		}
		c.fieldIndex[c.Fields[i].Name] = i
	}
	return c
}

// WithTable overrides the database table name.
func (c *Collection) WithTable(table string) *Collection {
	c.Table = table
	return c
}

// WithRelations attaches relation metadata.
func (c *Collection) WithRelations(rels ...Relation) *Collection {
	c.Relations = append(c.Relations, rels...)
	for i := range c.Relations {
		if c.Relations[i].LocalKey == "" {
			if id := c.ID(); id != nil {
				c.Relations[i].LocalKey = id.Name
			}
		}
		c.relIndex[c.Relations[i].Name] = i
	}
	return c
}

// Field returns the named field, or nil when the collection has no such field.
func (c *Collection) Field(name string) *Field {
	i, ok := c.fieldIndex[name]
	if !ok {
		return nil
	}
	return &c.Fields[i]
}

// Relation returns the named relation, or nil.
func (c *Collection) Relation(name string) *Relation {
	i, ok := c.relIndex[name]
	if !ok {
		return nil
	}
	return &c.Relations[i]
}

// ID returns the identifier field, or nil when none is declared.
func (c *Collection) ID() *Field {
	for i := range c.Fields {
		if c.Fields[i].ID {
			return &c.Fields[i]
		}
	}
	return nil
}

// UniqueFields returns the fields usable as a unique lookup key, the
// identifier first.
func (c *Collection) UniqueFields() []Field {
	var out []Field
	if id := c.ID(); id != nil {
		out = append(out, *id)
	}
	for i := range c.Fields {
		if c.Fields[i].Unique && !c.Fields[i].ID {
			out = append(out, c.Fields[i])
		}
	}
	return out
}

// Registry maps collection names to their field tables. Safe for concurrent
// use; registration normally happens once at startup from generated code.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{collections: make(map[string]*Collection)}
}

// Register adds or replaces a collection table.
func (r *Registry) Register(c *Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[c.Name] = c
}

// Lookup returns the named collection, or nil when unregistered.
func (r *Registry) Lookup(name string) *Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collections[name]
}
