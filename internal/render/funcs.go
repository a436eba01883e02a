package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/KaramelBytes/robowriter/internal/dataset"
)

// FuncMap returns the helpers available to every report template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"round":  round,
		"abs":    abs,
		"pct":    pct,
		"lower":  func(v interface{}) string { return strings.ToLower(text(v)) },
		"upper":  func(v interface{}) string { return strings.ToUpper(text(v)) },
		"join":   join,
		"is":     is,
		"get":    get,
		"sortby": sortby,
	}
}

// toDecimal accepts dataset values, decimals and anything cast can print as a number.
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case dataset.Value:
		return x.Number()
	case decimal.Decimal:
		return x, true
	case bool:
		return decimal.Decimal{}, false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func text(v interface{}) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return cast.ToString(v)
}

// round formats v with exactly places decimals. Nulls and non-numbers render empty.
func round(v interface{}, places int) string {
	d, ok := toDecimal(v)
	if !ok {
		return ""
	}
	return d.StringFixed(int32(places))
}

func abs(v interface{}) string {
	d, ok := toDecimal(v)
	if !ok {
		return ""
	}
	return d.Abs().String()
}

// pct formats v as a percentage with one decimal, e.g. "33.3%".
func pct(v interface{}) string {
	d, ok := toDecimal(v)
	if !ok {
		return ""
	}
	return d.StringFixed(1) + "%"
}

func join(sep string, v interface{}) (string, error) {
	switch x := v.(type) {
	case []dataset.Value:
		parts := make([]string, len(x))
		for i, val := range x {
			parts[i] = val.String()
		}
		return strings.Join(parts, sep), nil
	case []dataset.Row:
		parts := make([]string, len(x))
		for i, r := range x {
			parts[i] = r.Key()
		}
		return strings.Join(parts, sep), nil
	}
	parts, err := cast.ToStringSliceE(v)
	if err != nil {
		return "", fmt.Errorf("join: %w", err)
	}
	return strings.Join(parts, sep), nil
}

// is reports whether v is true. Null booleans are false.
func is(v interface{}) bool {
	if x, ok := v.(dataset.Value); ok {
		b, _ := x.Bool()
		return b
	}
	return cast.ToBool(v)
}

func get(row dataset.Row, column string) (dataset.Value, error) {
	return row.Get(column)
}

// sortby returns the rows of ds ordered by column. Nulls sort last.
func sortby(ds *dataset.Dataset, column string, reverse bool) ([]dataset.Row, error) {
	if ds == nil {
		return nil, nil
	}
	sorted, err := ds.OrderBy(column, reverse)
	if err != nil {
		return nil, err
	}
	return sorted.Rows(), nil
}
