// Package dataset provides an immutable, column-typed table whose rows are
// addressable both by position and by a unique key.
//
// Every transformation returns a new Dataset. Rows hold a pointer to the
// schema of the stage that produced them, so a row taken from an older
// stage never sees columns added later.
package dataset

import (
	"errors"
	"fmt"
	"sort"
)

// Common errors returned by the dataset package.
var (
	// ErrColumnNotFound is returned when a column name is not part of a schema.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrDuplicateKey is returned when two rows share a key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrKeyNotFound is returned when a key does not address any row.
	ErrKeyNotFound = errors.New("key not found")

	// ErrTypeMismatch is returned when a value does not match its column type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Column describes one named, typed column.
type Column struct {
	Name string
	Type Type
}

// schema holds the column list plus lookup tables, built once per stage.
type schema struct {
	columns []Column
	index   map[string]int
}

func newSchema(cols []Column) (*schema, error) {
	s := &schema{columns: make([]Column, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, ok := s.index[c.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
		}
		s.columns[i] = c
		s.index[c.Name] = i
	}
	return s, nil
}

// Row is one immutable record.
type Row struct {
	schema *schema
	values []Value
	key    string
}

// Key returns the row's unique key.
func (r Row) Key() string { return r.key }

// Get returns the value of the named column.
func (r Row) Get(name string) (Value, error) {
	if r.schema == nil {
		return Value{}, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	i, ok := r.schema.index[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return r.values[i], nil
}

// Lookup is like Get but reports absence with a bool.
func (r Row) Lookup(name string) (Value, bool) {
	if r.schema == nil {
		return Value{}, false
	}
	i, ok := r.schema.index[name]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Has reports whether the row carries the named column.
func (r Row) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Values returns a copy of the row's values in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns the row as plain Go values keyed by column name.
func (r Row) Map() map[string]any {
	if r.schema == nil {
		return map[string]any{}
	}
	m := make(map[string]any, len(r.values))
	for i, c := range r.schema.columns {
		m[c.Name] = r.values[i].Interface()
	}
	return m
}

// Dataset is an ordered, keyed collection of rows sharing one schema.
type Dataset struct {
	schema    *schema
	rows      []Row
	keyColumn string
	byKey     map[string]int
}

// New builds a Dataset. Every record must have one value per column whose
// type matches the column (nulls of any type are accepted and retyped).
// keyColumn names the column whose values must be unique.
func New(columns []Column, records [][]Value, keyColumn string) (*Dataset, error) {
	s, err := newSchema(columns)
	if err != nil {
		return nil, err
	}
	ki, ok := s.index[keyColumn]
	if !ok {
		return nil, fmt.Errorf("key %w: %s", ErrColumnNotFound, keyColumn)
	}
	rows := make([]Row, len(records))
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("record %d: got %d values, want %d", i+1, len(rec), len(columns))
		}
		vals := make([]Value, len(rec))
		for j, v := range rec {
			if v.IsNull() {
				v = Null(columns[j].Type)
			} else if v.Type() != columns[j].Type {
				return nil, fmt.Errorf("record %d column %s: %w: got %s, want %s",
					i+1, columns[j].Name, ErrTypeMismatch, v.Type(), columns[j].Type)
			}
			vals[j] = v
		}
		rows[i] = Row{schema: s, values: vals, key: vals[ki].String()}
	}
	return build(s, rows, keyColumn)
}

func build(s *schema, rows []Row, keyColumn string) (*Dataset, error) {
	byKey := make(map[string]int, len(rows))
	for i, r := range rows {
		if _, dup := byKey[r.key]; dup {
			return nil, fmt.Errorf("%w: %q in column %s", ErrDuplicateKey, r.key, keyColumn)
		}
		byKey[r.key] = i
	}
	return &Dataset{schema: s, rows: rows, keyColumn: keyColumn, byKey: byKey}, nil
}

// Columns returns a copy of the column list.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.schema.columns))
	copy(out, d.schema.columns)
	return out
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.schema.columns))
	for i, c := range d.schema.columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the named column.
func (d *Dataset) Column(name string) (Column, error) {
	i, ok := d.schema.index[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return d.schema.columns[i], nil
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.schema.index[name]
	return ok
}

// KeyColumn returns the name of the key column.
func (d *Dataset) KeyColumn() string { return d.keyColumn }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns the row at position i.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Rows returns the rows in order. The slice is a copy; rows are immutable.
func (d *Dataset) Rows() []Row {
	out := make([]Row, len(d.rows))
	copy(out, d.rows)
	return out
}

// Keys returns the row keys in order.
func (d *Dataset) Keys() []string {
	out := make([]string, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.key
	}
	return out
}

// RowByKey returns the row with the given key.
func (d *Dataset) RowByKey(key string) (Row, bool) {
	i, ok := d.byKey[key]
	if !ok {
		return Row{}, false
	}
	return d.rows[i], true
}

// Get is a template-friendly alias of RowByKey that errors on unknown keys.
func (d *Dataset) Get(key string) (Row, error) {
	r, ok := d.RowByKey(key)
	if !ok {
		return Row{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return r, nil
}

// Subset returns the rows named by keys, in the order given. Repeated keys
// collapse to their first occurrence.
func (d *Dataset) Subset(keys []string) (*Dataset, error) {
	seen := make(map[string]struct{}, len(keys))
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		i, ok := d.byKey[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, k)
		}
		seen[k] = struct{}{}
		rows = append(rows, d.rows[i])
	}
	return build(d.schema, rows, d.keyColumn)
}

// Group is one partition produced by GroupBy.
type Group struct {
	Value   Value
	Dataset *Dataset
}

// GroupBy partitions rows by the value of column. Groups appear in the order
// their first row appears; null values form one group.
func (d *Dataset) GroupBy(column string) ([]Group, error) {
	ci, ok := d.schema.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	order := []string{}
	parts := map[string]*Group{}
	members := map[string][]Row{}
	for _, r := range d.rows {
		v := r.values[ci]
		gk := v.groupKey()
		if _, ok := parts[gk]; !ok {
			parts[gk] = &Group{Value: v}
			order = append(order, gk)
		}
		members[gk] = append(members[gk], r)
	}
	out := make([]Group, 0, len(order))
	for _, gk := range order {
		g := parts[gk]
		sub, err := build(d.schema, members[gk], d.keyColumn)
		if err != nil {
			return nil, err
		}
		g.Dataset = sub
		out = append(out, *g)
	}
	return out, nil
}

// Rekey returns the same rows addressed by a different unique column.
func (d *Dataset) Rekey(column string) (*Dataset, error) {
	if column == d.keyColumn {
		return d, nil
	}
	ci, ok := d.schema.index[column]
	if !ok {
		return nil, fmt.Errorf("key %w: %s", ErrColumnNotFound, column)
	}
	rows := make([]Row, len(d.rows))
	for i, r := range d.rows {
		rows[i] = Row{schema: r.schema, values: r.values, key: r.values[ci].String()}
	}
	return build(d.schema, rows, column)
}

// OrderBy returns the rows sorted by column. Ties keep their current order
// and nulls sort last in both directions.
func (d *Dataset) OrderBy(column string, reverse bool) (*Dataset, error) {
	ci, ok := d.schema.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	rows := d.Rows()
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].values[ci], rows[j].values[ci]
		if a.IsNull() || b.IsNull() {
			return !a.IsNull() && b.IsNull()
		}
		if reverse {
			return Compare(a, b) > 0
		}
		return Compare(a, b) < 0
	})
	return build(d.schema, rows, d.keyColumn)
}

// Values returns the values of column in row order.
func (d *Dataset) Values(column string) ([]Value, error) {
	ci, ok := d.schema.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	out := make([]Value, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.values[ci]
	}
	return out, nil
}

// WithColumns returns a new Dataset with cols appended. values[i] holds the
// new values for row i, one per appended column.
func (d *Dataset) WithColumns(cols []Column, values [][]Value) (*Dataset, error) {
	if len(values) != len(d.rows) {
		return nil, fmt.Errorf("got values for %d rows, want %d", len(values), len(d.rows))
	}
	all := append(d.Columns(), cols...)
	s, err := newSchema(all)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(d.rows))
	for i, r := range d.rows {
		if len(values[i]) != len(cols) {
			return nil, fmt.Errorf("row %q: got %d new values, want %d", r.key, len(values[i]), len(cols))
		}
		vals := make([]Value, 0, len(all))
		vals = append(vals, r.values...)
		for j, v := range values[i] {
			if v.IsNull() {
				v = Null(cols[j].Type)
			} else if v.Type() != cols[j].Type {
				return nil, fmt.Errorf("row %q column %s: %w: got %s, want %s",
					r.key, cols[j].Name, ErrTypeMismatch, v.Type(), cols[j].Type)
			}
			vals = append(vals, v)
		}
		rows[i] = Row{schema: s, values: vals, key: r.key}
	}
	return &Dataset{schema: s, rows: rows, keyColumn: d.keyColumn, byKey: d.byKey}, nil
}
