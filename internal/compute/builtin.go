package compute

import (
	"github.com/KaramelBytes/robowriter/internal/dataset"
)

// IsGrowing is true when column holds a value greater than zero.
func IsGrowing(column string) *Formula {
	return NewFormula(dataset.Boolean, func(row dataset.Row) (dataset.Value, error) {
		pos, err := positive(row, column)
		if err != nil {
			return dataset.Value{}, err
		}
		return dataset.NewBool(pos), nil
	})
}

// ConsecutiveDevelopment counts how many trailing columns, walking backward
// from the last one, share the last column's sign (positive or not).
// columns are ordered oldest first.
func ConsecutiveDevelopment(columns []string) *Formula {
	return NewFormula(dataset.Number, func(row dataset.Row) (dataset.Value, error) {
		if len(columns) == 0 {
			return dataset.NewInt(0), nil
		}
		anchor, err := positive(row, columns[len(columns)-1])
		if err != nil {
			return dataset.Value{}, err
		}
		var n int64
		for i := len(columns) - 1; i >= 0; i-- {
			pos, err := positive(row, columns[i])
			if err != nil {
				return dataset.Value{}, err
			}
			if pos != anchor {
				break
			}
			n++
		}
		return dataset.NewInt(n), nil
	})
}

// positive reports whether column holds a number > 0. Nulls count as not positive.
func positive(row dataset.Row, column string) (bool, error) {
	v, err := row.Get(column)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return false, nil
	}
	d, ok := v.Number()
	if !ok {
		return false, newError(ErrTypeMismatch, "column %s is %s, want number", column, v.Type())
	}
	return d.IsPositive(), nil
}
