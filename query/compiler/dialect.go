package compiler

// PlaceholderStyle selects how positional parameters are written.
type PlaceholderStyle uint8

const (
	// PlaceholderQuestion writes `?` for every parameter.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar writes `$1`, `$2`, ... in argument order.
	PlaceholderDollar
)

// UpsertFamily selects the syntax used for upsert statements.
type UpsertFamily uint8

const (
	// UpsertUnsupported makes upsert compilation fail fast.
	UpsertUnsupported UpsertFamily = iota
	// UpsertOnConflict is `INSERT ... ON CONFLICT (...) DO UPDATE SET ...`.
	UpsertOnConflict
	// UpsertOnDuplicateKey is `INSERT ... ON DUPLICATE KEY UPDATE ...`.
	UpsertOnDuplicateKey
	// UpsertInsertOrReplace is `INSERT OR REPLACE INTO ...`.
	UpsertInsertOrReplace
)

// Dialect describes the SQL syntax variant of one backend family. It is a
// plain descriptor: the compiler branches on its fields and nothing else, so
// a new backend with a known syntax needs no compiler changes.
type Dialect struct {
	Name              string
	Quote             rune
	Placeholder       PlaceholderStyle
	SupportsReturning bool
	Upsert            UpsertFamily
	SupportsArrays    bool
}

// Predefined dialects for the supported backend families.
var (
	Postgres = Dialect{
		Name:              "postgres",
		Quote:             '"',
		Placeholder:       PlaceholderDollar,
		SupportsReturning: true,
		Upsert:            UpsertOnConflict,
		SupportsArrays:    true,
	}

	MySQL = Dialect{
		Name:        "mysql",
		Quote:       '`',
		Placeholder: PlaceholderQuestion,
		Upsert:      UpsertOnDuplicateKey,
	}

	// SQLite supports RETURNING since 3.35.
	SQLite = Dialect{
		Name:              "sqlite",
		Quote:             '"',
		Placeholder:       PlaceholderQuestion,
		SupportsReturning: true,
		Upsert:            UpsertOnConflict,
	}
)
