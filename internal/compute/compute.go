// Package compute derives new columns from a dataset.
//
// Compute runs every computation in two phases: Prepare is called once with
// the whole input dataset, then Run is called for each row. Nothing from Run
// is ever fed back into Prepare, so Prepare-built state is read-only while
// rows are answered.
package compute

import (
	"fmt"

	"github.com/KaramelBytes/robowriter/internal/dataset"
)

// Computation produces one column value per row.
type Computation interface {
	// Type is the semantic type of every non-null value Run returns.
	Type() dataset.Type
	// Prepare is called once with the full input dataset before any Run.
	Prepare(ds *dataset.Dataset) error
	// Run returns the value for one row of the prepared dataset.
	Run(row dataset.Row) (dataset.Value, error)
}

// Named pairs an output column name with its computation.
type Named struct {
	Name        string
	Computation Computation
}

// Compute returns a new dataset with one column appended per computation,
// in the order given. All computations see only the columns of ds.
func Compute(ds *dataset.Dataset, comps []Named) (*dataset.Dataset, error) {
	if len(comps) == 0 {
		return ds, nil
	}
	cols := make([]dataset.Column, len(comps))
	for i, c := range comps {
		if c.Computation == nil {
			return nil, newError(ErrConfiguration, "column %s has no computation", c.Name)
		}
		if ds.HasColumn(c.Name) {
			return nil, fmt.Errorf("compute column %s: %w", c.Name, dataset.ErrDuplicateColumn)
		}
		cols[i] = dataset.Column{Name: c.Name, Type: c.Computation.Type()}
	}
	for _, c := range comps {
		if err := c.Computation.Prepare(ds); err != nil {
			return nil, fmt.Errorf("prepare column %s: %w", c.Name, err)
		}
	}
	values := make([][]dataset.Value, ds.Len())
	for i, row := range ds.Rows() {
		values[i] = make([]dataset.Value, len(comps))
		for j, c := range comps {
			v, err := c.Computation.Run(row)
			if err != nil {
				return nil, &RowError{Column: c.Name, Key: row.Key(), Err: err}
			}
			if !v.IsNull() && v.Type() != cols[j].Type {
				return nil, &RowError{Column: c.Name, Key: row.Key(),
					Err: newError(ErrTypeMismatch, "got %s, want %s", v.Type(), cols[j].Type)}
			}
			values[i][j] = v
		}
	}
	return ds.WithColumns(cols, values)
}

// Formula is a pure row function with a declared result type.
type Formula struct {
	typ dataset.Type
	fn  func(dataset.Row) (dataset.Value, error)
}

// NewFormula wraps fn as a Computation returning values of type t.
func NewFormula(t dataset.Type, fn func(dataset.Row) (dataset.Value, error)) *Formula {
	return &Formula{typ: t, fn: fn}
}

// Type implements Computation.
func (f *Formula) Type() dataset.Type { return f.typ }

// Prepare implements Computation. Formulas carry no cross-row state.
func (f *Formula) Prepare(*dataset.Dataset) error { return nil }

// Run implements Computation.
func (f *Formula) Run(row dataset.Row) (dataset.Value, error) { return f.fn(row) }
