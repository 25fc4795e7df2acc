// Package normalize implements the relational normalization engine: the
// dependency-aware scheduler, transform primitives, and foreign-key resolver
// that turn a declarative project model into a consistent set of tabular
// results with surrogate identifiers assigned and foreign keys resolved.
package normalize

// Row is a single record: column name to typed value. Values may be any of
// string, int64, float64, bool, time.Time, nil, or a driver-specific scalar —
// the engine treats them opaquely except where a predicate (IsNull,
// IsEmptyString) needs to inspect one.
type Row map[string]any

// Table is an ordered multiset of rows over a fixed, ordered set of named
// columns. Column order is significant (it is preserved through subset and
// append) but row order carries no meaning beyond insertion order.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable returns an empty table with the given column order.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: make([]Row, 0)}
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is part of the declared column set.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the subset of names absent from the table's column
// list, preserving the order in which they were requested.
func (t *Table) MissingColumns(names []string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Clone returns a deep-enough copy: a new Columns slice and a new Rows slice
// of shallow-copied row maps. Transform primitives never mutate their input
// table in place; they build and return a new one.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		rows[i] = nr
	}
	return &Table{Columns: cols, Rows: rows}
}

// withColumnOrder appends name to t's column order in place if not already
// present, leaving Rows untouched (callers are expected to have already
// populated the value on every row).
func (t *Table) withColumnOrder(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// IsNull reports whether v represents an absent/NA value.
func IsNull(v any) bool {
	return v == nil
}

// IsEmptyString reports whether v is the empty string (not NA, a genuine "").
func IsEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s == ""
}

// rowKey builds a comparable key from the values of cols in a row, used for
// grouping/deduplication. nil-safe: missing or nil values become the
// sentinel "\x00nil".
func rowKey(r Row, cols []string) string {
	// A length-prefixed join avoids accidental collisions between
	// e.g. ["ab", "c"] and ["a", "bc"].
	var b []byte
	for _, c := range cols {
		v := r[c]
		s := valueToString(v)
		b = append(b, byte(len(s)>>8), byte(len(s)))
		b = append(b, s...)
	}
	return string(b)
}

func valueToString(v any) string {
	if v == nil {
		return "\x00nil"
	}
	switch x := v.(type) {
	case string:
		return "s:" + x
	default:
		return "v:" + toComparableString(x)
	}
}
