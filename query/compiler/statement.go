package compiler

import "github.com/vesperdb/vesper/runtime/types"

// Statement is one compiled, parameterized SQL statement. Text never contains
// a literal user value; every value travels in Args, positionally matched to
// the placeholders in Text and typed by ArgTypes. Statements are immutable
// once returned and safe to log.
type Statement struct {
	Text     string
	Args     []types.Value
	ArgTypes []types.Tag

	// WantsRows reports whether the statement returns a result set (a read,
	// or a mutation compiled with RETURNING) rather than an affected-row
	// count.
	WantsRows bool
}
