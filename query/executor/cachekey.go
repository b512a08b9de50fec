package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/vesperdb/vesper/query/ast"
	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/runtime/types"
)

// cacheKey builds a canonical fingerprint of a query under a dialect.
// Identical fingerprints compile to identical statements, so the statement
// cache keys on it. Values are part of the key: the compiler bakes argument
// values into the statement it returns.
func cacheKey(q *ast.Query, d compiler.Dialect) string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	sb.WriteByte(0)
	sb.WriteString(q.Collection)
	sb.WriteByte(0)
	sb.WriteString(string(q.Action))
	sb.WriteByte(0)

	writeFilterKey(&sb, q.Filter)
	writeAssignmentsKey(&sb, q.Data)
	for _, row := range q.Rows {
		sb.WriteByte('r')
		writeAssignmentsKey(&sb, row)
	}
	for _, name := range q.Select {
		sb.WriteByte('s')
		sb.WriteString(name)
		sb.WriteByte(0)
	}
	for _, name := range q.Include {
		sb.WriteByte('i')
		sb.WriteString(name)
		sb.WriteByte(0)
	}
	for _, o := range q.OrderBy {
		sb.WriteByte('o')
		sb.WriteString(o.Field)
		sb.WriteByte(0)
		sb.WriteString(string(o.Direction))
		sb.WriteByte(0)
	}
	if q.Take != nil {
		sb.WriteByte('t')
		sb.WriteString(strconv.Itoa(*q.Take))
	}
	if q.Skip != nil {
		sb.WriteByte('k')
		sb.WriteString(strconv.Itoa(*q.Skip))
	}
	for _, name := range q.ConflictOn {
		sb.WriteByte('c')
		sb.WriteString(name)
		sb.WriteByte(0)
	}
	writeAssignmentsKey(&sb, q.OnConflictUpdate)

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func writeFilterKey(sb *strings.Builder, f *ast.Filter) {
	if f == nil {
		sb.WriteByte('_')
		return
	}
	switch f.Kind {
	case ast.FilterLeaf:
		sb.WriteByte('l')
		sb.WriteString(f.Field)
		sb.WriteByte(0)
		sb.WriteString(string(f.Op))
		sb.WriteByte(0)
		writeValueKey(sb, f.Value)
		for _, v := range f.Values {
			writeValueKey(sb, v)
		}
	default:
		sb.WriteByte('j')
		sb.WriteByte(byte('0' + f.Kind))
		sb.WriteByte('(')
		for _, c := range f.Children {
			writeFilterKey(sb, c)
		}
		sb.WriteByte(')')
	}
}

func writeAssignmentsKey(sb *strings.Builder, data []ast.Assignment) {
	for _, a := range data {
		sb.WriteByte('a')
		sb.WriteString(a.Field)
		sb.WriteByte(0)
		writeValueKey(sb, a.Value)
	}
}

// writeValueKey writes the value's kind alongside its text so values of
// different kinds with equal renderings stay distinct. Byte payloads go in
// as hex because their display form is lossy.
func writeValueKey(sb *strings.Builder, v types.Value) {
	sb.WriteString(v.Kind().String())
	sb.WriteByte(':')
	if v.Kind() == types.KindBytes {
		sb.WriteString(hex.EncodeToString(v.AsBytes()))
	} else {
		sb.WriteString(v.String())
	}
	sb.WriteByte(0)
}
