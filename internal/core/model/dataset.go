package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Column is a named, typed column. Kind is the common kind of the
// column's non-null cells, KindNull when every cell is null.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Numeric mirrors the loader's notion of a numeric column: numbers,
// booleans and all-null columns.
func (c Column) Numeric() bool {
	return c.Kind == KindNumber || c.Kind == KindBool || c.Kind == KindNull
}

func (c Column) Textual() bool { return c.Kind == KindText }

// Dataset is an ordered set of rows over a fixed ordered set of unique
// columns. Datasets are immutable by convention: every transformation
// returns a new Dataset.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    [][]Value
}

// NewDataset builds a dataset and infers column kinds. Columns whose
// non-null cells disagree on kind are coerced to text.
func NewDataset(names []string, rows [][]Value) (*Dataset, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := index[n]; dup {
			return nil, fmt.Errorf("duplicate column name %q", n)
		}
		index[n] = i
	}

	normalized := make([][]Value, len(rows))
	for i, r := range rows {
		if len(r) > len(names) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i, len(r), len(names))
		}
		row := make([]Value, len(names))
		copy(row, r)
		normalized[i] = row
	}

	columns := make([]Column, len(names))
	for c, n := range names {
		kind := KindNull
		mixed := false
		for _, r := range normalized {
			k := r[c].Kind()
			if k == KindNull {
				continue
			}
			if kind == KindNull {
				kind = k
			} else if kind != k {
				mixed = true
			}
		}
		if mixed {
			kind = KindText
			for _, r := range normalized {
				if !r[c].IsNull() && r[c].Kind() != KindText {
					r[c] = Text(r[c].String())
				}
			}
		}
		columns[c] = Column{Name: n, Kind: kind}
	}

	return &Dataset{columns: columns, index: index, rows: normalized}, nil
}

// MustDataset is NewDataset for literals in tests and fixtures.
func MustDataset(names []string, rows [][]Value) *Dataset {
	ds, err := NewDataset(names, rows)
	if err != nil {
		panic(err)
	}
	return ds
}

func (d *Dataset) Len() int { return len(d.rows) }
func (d *Dataset) Width() int { return len(d.columns) }

func (d *Dataset) Columns() []Column {
	return append([]Column(nil), d.columns...)
}

func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ColumnIndexes resolves names to positions, failing with a SchemaError
// listing the requested and available columns.
func (d *Dataset) ColumnIndexes(names []string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, n := range names {
		j, ok := d.index[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		idx[i] = j
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Requested: names, Missing: missing, Available: d.ColumnNames()}
	}
	return idx, nil
}

// TextColumns returns the names of textual columns in column order.
func (d *Dataset) TextColumns() []string {
	var out []string
	for _, c := range d.columns {
		if c.Textual() {
			out = append(out, c.Name)
		}
	}
	return out
}

func (d *Dataset) At(row, col int) Value { return d.rows[row][col] }

func (d *Dataset) Value(row int, column string) Value {
	i, ok := d.index[column]
	if !ok {
		return Null()
	}
	return d.rows[row][i]
}

// ColumnValues returns a copy of one column.
func (d *Dataset) ColumnValues(column string) []Value {
	i, ok := d.index[column]
	if !ok {
		return nil
	}
	out := make([]Value, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i]
	}
	return out
}

func (d *Dataset) Row(i int) []Value {
	return append([]Value(nil), d.rows[i]...)
}

// Record renders a row as a column-name keyed map.
func (d *Dataset) Record(i int) map[string]Value {
	rec := make(map[string]Value, len(d.columns))
	for c, col := range d.columns {
		rec[col.Name] = d.rows[i][c]
	}
	return rec
}

// Records renders the given rows, restricted to columns when non-empty.
func (d *Dataset) Records(rows []int, columns ...string) []map[string]Value {
	out := make([]map[string]Value, 0, len(rows))
	for _, r := range rows {
		if len(columns) == 0 {
			out = append(out, d.Record(r))
			continue
		}
		rec := make(map[string]Value, len(columns))
		for _, c := range columns {
			rec[c] = d.Value(r, c)
		}
		out = append(out, rec)
	}
	return out
}

// JoinKey is the space-joined concatenation of the non-null values at
// the given column positions.
func (d *Dataset) JoinKey(row int, cols []int) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		v := d.rows[row][c]
		if v.IsNull() {
			continue
		}
		parts = append(parts, v.String())
	}
	return strings.Join(parts, " ")
}

// TupleKey encodes the full tuple at cols for exact grouping. Each part
// is length-prefixed, so distinct tuples never share a key.
func (d *Dataset) TupleKey(row int, cols []int) string {
	var b strings.Builder
	for _, c := range cols {
		k := d.rows[row][c].key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// Select returns a new dataset holding the given rows in the given order.
func (d *Dataset) Select(rows []int) *Dataset {
	out := make([][]Value, len(rows))
	for i, r := range rows {
		out[i] = append([]Value(nil), d.rows[r]...)
	}
	return d.derive(d.columns, out)
}

// Slice returns rows [from, to).
func (d *Dataset) Slice(from, to int) *Dataset {
	if to > len(d.rows) {
		to = len(d.rows)
	}
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return d.Select(idx)
}

// Without returns a new dataset with the given rows dropped.
func (d *Dataset) Without(drop map[int]bool) *Dataset {
	keep := make([]int, 0, len(d.rows))
	for i := range d.rows {
		if !drop[i] {
			keep = append(keep, i)
		}
	}
	return d.Select(keep)
}

// WithColumn returns a new dataset with one column's values replaced.
func (d *Dataset) WithColumn(name string, values []Value) (*Dataset, error) {
	c, ok := d.index[name]
	if !ok {
		return nil, &SchemaError{Requested: []string{name}, Missing: []string{name}, Available: d.ColumnNames()}
	}
	if len(values) != len(d.rows) {
		return nil, fmt.Errorf("column %q: got %d values for %d rows", name, len(values), len(d.rows))
	}
	rows := make([][]Value, len(d.rows))
	for i, r := range d.rows {
		row := append([]Value(nil), r...)
		row[c] = values[i]
		rows[i] = row
	}
	return NewDataset(d.ColumnNames(), rows)
}

func (d *Dataset) derive(columns []Column, rows [][]Value) *Dataset {
	return &Dataset{columns: append([]Column(nil), columns...), index: d.index, rows: rows}
}
