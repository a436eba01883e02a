package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type is the semantic type of a column.
type Type int

const (
	// Text holds free-form strings.
	Text Type = iota
	// Number holds exact decimal values.
	Number
	// Boolean holds true/false flags.
	Boolean
	// Date holds calendar dates (with optional time of day).
	Date
)

// String returns the lower-case name used in configuration files.
func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseType maps a configuration name to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string":
		return Text, nil
	case "number", "numeric", "decimal":
		return Number, nil
	case "boolean", "bool":
		return Boolean, nil
	case "date", "datetime":
		return Date, nil
	default:
		return Text, fmt.Errorf("unknown column type %q", s)
	}
}

// Value is a typed cell. The zero Value is a null Text.
type Value struct {
	typ   Type
	valid bool
	num   decimal.Decimal
	text  string
	flag  bool
	date  time.Time
}

// NewNumber returns a non-null Number value.
func NewNumber(d decimal.Decimal) Value { return Value{typ: Number, valid: true, num: d} }

// NewInt returns a non-null Number value holding an integer.
func NewInt(i int64) Value { return NewNumber(decimal.NewFromInt(i)) }

// NewText returns a non-null Text value.
func NewText(s string) Value { return Value{typ: Text, valid: true, text: s} }

// NewBool returns a non-null Boolean value.
func NewBool(b bool) Value { return Value{typ: Boolean, valid: true, flag: b} }

// NewDate returns a non-null Date value.
func NewDate(t time.Time) Value { return Value{typ: Date, valid: true, date: t} }

// Null returns a null value of the given type.
func Null(t Type) Value { return Value{typ: t} }

// Type reports the semantic type.
func (v Value) Type() Type { return v.typ }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return !v.valid }

// Number returns the decimal and true when v is a non-null Number.
func (v Value) Number() (decimal.Decimal, bool) {
	if v.typ != Number || !v.valid {
		return decimal.Zero, false
	}
	return v.num, true
}

// Text returns the string and true when v is a non-null Text.
func (v Value) Text() (string, bool) {
	if v.typ != Text || !v.valid {
		return "", false
	}
	return v.text, true
}

// Bool returns the flag and true when v is a non-null Boolean.
func (v Value) Bool() (bool, bool) {
	if v.typ != Boolean || !v.valid {
		return false, false
	}
	return v.flag, true
}

// Date returns the time and true when v is a non-null Date.
func (v Value) Date() (time.Time, bool) {
	if v.typ != Date || !v.valid {
		return time.Time{}, false
	}
	return v.date, true
}

// String formats the value for display and for row keys. Nulls format as "".
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.typ {
	case Number:
		return v.num.String()
	case Boolean:
		if v.flag {
			return "true"
		}
		return "false"
	case Date:
		if v.date.Hour() == 0 && v.date.Minute() == 0 && v.date.Second() == 0 {
			return v.date.Format("2006-01-02")
		}
		return v.date.Format(time.RFC3339)
	default:
		return v.text
	}
}

// Interface returns a plain Go value: float64 for numbers, string, bool,
// time.Time, or nil for nulls. Intended for interpreters and templates;
// the float conversion is lossy and never fed back into ranking.
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.typ {
	case Number:
		return v.num.InexactFloat64()
	case Boolean:
		return v.flag
	case Date:
		return v.date
	default:
		return v.text
	}
}

// Equal reports whether two values have the same type, nullness and content.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ || v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	switch v.typ {
	case Number:
		return v.num.Equal(o.num)
	case Boolean:
		return v.flag == o.flag
	case Date:
		return v.date.Equal(o.date)
	default:
		return v.text == o.text
	}
}

// Compare orders two values of the same type. Nulls sort after non-nulls.
// Values of different types compare by their string form.
func Compare(a, b Value) int {
	switch {
	case !a.valid && !b.valid:
		return 0
	case !a.valid:
		return 1
	case !b.valid:
		return -1
	}
	if a.typ != b.typ {
		return strings.Compare(a.String(), b.String())
	}
	switch a.typ {
	case Number:
		return a.num.Cmp(b.num)
	case Boolean:
		switch {
		case a.flag == b.flag:
			return 0
		case !a.flag:
			return -1
		default:
			return 1
		}
	case Date:
		return a.date.Compare(b.date)
	default:
		return strings.Compare(a.text, b.text)
	}
}

// groupKey identifies a value for partitioning; nulls share one key.
func (v Value) groupKey() string {
	if !v.valid {
		return "\x00null"
	}
	return v.typ.String() + "\x00" + v.String()
}
