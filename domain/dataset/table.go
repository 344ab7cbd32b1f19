package dataset

import (
	"encoding/json"
	"fmt"
	"sort"

	"surveydash/domain/core"
)

// Row is one survey response. Index is the position of the row in the table it
// was loaded into and is kept by every derived table.
type Row struct {
	Index  int
	values map[string]Value
}

// Get returns the value for a column, missing when absent
func (r Row) Get(column string) Value {
	if v, ok := r.values[column]; ok {
		return v
	}
	return Missing()
}

// Table is an ordered set of rows with an insertion-ordered column set.
// Operations return new tables; a table handed to a caller is never mutated.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New creates an empty table with the given columns
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.EnsureColumn(c)
	}
	return t
}

// FromRecords builds a table from a header and string records
func FromRecords(header []string, records [][]string) *Table {
	t := New(header...)
	for _, rec := range records {
		values := make(map[string]Value, len(header))
		for i, cell := range rec {
			if i < len(header) {
				values[header[i]] = NewString(cell)
			}
		}
		t.AppendRow(values)
	}
	return t
}

// EnsureColumn appends a column if the table does not have it yet
func (t *Table) EnsureColumn(name string) {
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
}

// AppendRow adds a row. Keys that are not yet columns are added in sorted order.
func (t *Table) AppendRow(values map[string]Value) {
	var unknown []string
	for k := range values {
		if _, ok := t.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		t.EnsureColumn(k)
	}

	row := Row{Index: len(t.rows), values: make(map[string]Value, len(values))}
	for k, v := range values {
		if !v.IsMissing() {
			row.values[k] = v
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the column names in insertion order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// RequireColumns fails with ErrColumnNotFound for the first absent column
func (t *Table) RequireColumns(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return core.NewColumnNotFoundError(n)
		}
	}
	return nil
}

// Row returns the i-th row
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns the rows in order
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Column returns the values of a column in row order
func (t *Table) Column(name string) ([]Value, error) {
	if err := t.RequireColumns(name); err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Get(name)
	}
	return out, nil
}

// Where returns a table holding the rows that satisfy pred
func (t *Table) Where(pred func(Row) bool) *Table {
	out := t.emptyCopy()
	for _, r := range t.rows {
		if pred(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Take returns the rows at the given positions, in the order given
func (t *Table) Take(positions []int) *Table {
	out := t.emptyCopy()
	out.rows = make([]Row, 0, len(positions))
	for _, p := range positions {
		out.rows = append(out.rows, t.rows[p])
	}
	return out
}

// WithColumn returns a copy of the table with the column added, or replaced
// when it already exists
func (t *Table) WithColumn(name string, values []Value) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.rows))
	}
	out := t.emptyCopy()
	out.EnsureColumn(name)
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		vals := make(map[string]Value, len(r.values)+1)
		for k, v := range r.values {
			vals[k] = v
		}
		if values[i].IsMissing() {
			delete(vals, name)
		} else {
			vals[name] = values[i]
		}
		out.rows[i] = Row{Index: r.Index, values: vals}
	}
	return out, nil
}

// Select returns a projection onto the given columns
func (t *Table) Select(columns ...string) (*Table, error) {
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}
	return t.project(columns), nil
}

// DropEmptyColumns removes every column that is missing in all rows
func (t *Table) DropEmptyColumns() *Table {
	seen := make(map[string]bool, len(t.columns))
	for _, r := range t.rows {
		for k := range r.values {
			seen[k] = true
		}
	}
	var keep []string
	for _, c := range t.columns {
		if seen[c] {
			keep = append(keep, c)
		}
	}
	if len(keep) == len(t.columns) {
		return t
	}
	return t.project(keep)
}

// Records renders the table as a header and text rows
func (t *Table) Records() ([]string, [][]string) {
	header := t.Columns()
	rows := make([][]string, len(t.rows))
	for i, r := range t.rows {
		rec := make([]string, len(header))
		for j, c := range header {
			rec[j] = r.Get(c).Text()
		}
		rows[i] = rec
	}
	return header, rows
}

// MarshalJSON encodes the column list, the source row indices and one value
// array per row.
func (t *Table) MarshalJSON() ([]byte, error) {
	header := t.Columns()
	index := make([]int, len(t.rows))
	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		index[i] = r.Index
		vals := make([]Value, len(header))
		for j, c := range header {
			vals[j] = r.Get(c)
		}
		rows[i] = vals
	}
	return json.Marshal(struct {
		Columns []string  `json:"columns"`
		Index   []int     `json:"index"`
		Rows    [][]Value `json:"rows"`
	}{header, index, rows})
}

// Concat stacks tables. The column set starts with columns and is extended
// with any column the tables add; row indices are kept.
func Concat(columns []string, tables ...*Table) *Table {
	out := New(columns...)
	for _, tb := range tables {
		if tb == nil {
			continue
		}
		for _, c := range tb.columns {
			out.EnsureColumn(c)
		}
		out.rows = append(out.rows, tb.rows...)
	}
	return out
}

func (t *Table) project(columns []string) *Table {
	out := New(columns...)
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		vals := make(map[string]Value, len(columns))
		for _, c := range columns {
			if v, ok := r.values[c]; ok {
				vals[c] = v
			}
		}
		out.rows[i] = Row{Index: r.Index, values: vals}
	}
	return out
}

func (t *Table) emptyCopy() *Table {
	return New(t.columns...)
}
