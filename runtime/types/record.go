package types

// Record is an insertion-ordered mapping from column name to value. It is the
// unit the executor produces for each result row; iteration order always
// matches the column order of the statement that produced it.
type Record struct {
	keys   []string
	index  map[string]int
	values []Value
}

// NewRecord returns an empty record sized for n columns.
func NewRecord(n int) *Record {
	return &Record{
		keys:   make([]string, 0, n),
		index:  make(map[string]int, n),
		values: make([]Value, 0, n),
	}
}

// Set appends the column, or overwrites it in place if already present.
func (r *Record) Set(key string, v Value) {
	if i, ok := r.index[key]; ok {
		r.values[i] = v
		return
	}
	r.index[key] = len(r.keys)
	r.keys = append(r.keys, key)
	r.values = append(r.values, v)
}

// Get returns the value for the column and whether it is present.
func (r *Record) Get(key string) (Value, bool) {
	i, ok := r.index[key]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Keys returns the column names in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r *Record) Len() int {
	return len(r.keys)
}

// Range calls fn for every column in insertion order until fn returns false.
func (r *Record) Range(fn func(key string, v Value) bool) {
	for i, k := range r.keys {
		if !fn(k, r.values[i]) {
			return
		}
	}
}
