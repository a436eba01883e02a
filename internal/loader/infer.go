package loader

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/robowriter/internal/dataset"
)

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

// inferColumn picks the narrowest type that parses every non-empty cell of
// column j: boolean, then number, then date, then text. A column with no
// values at all is text.
func inferColumn(records [][]string, j int, opt Options) dataset.Type {
	boolOK, numOK, dateOK := true, true, true
	seen := false
	for _, rec := range records {
		if j >= len(rec) {
			continue
		}
		v := strings.TrimSpace(rec[j])
		if v == "" {
			continue
		}
		seen = true
		if boolOK {
			_, boolOK = parseBool(v)
		}
		if numOK {
			_, numOK = parseNumber(v, opt)
		}
		if dateOK {
			_, dateOK = parseDate(v)
		}
		if !boolOK && !numOK && !dateOK {
			return dataset.Text
		}
	}
	switch {
	case !seen:
		return dataset.Text
	case boolOK:
		return dataset.Boolean
	case numOK:
		return dataset.Number
	case dateOK:
		return dataset.Date
	}
	return dataset.Text
}

// parseCell converts one raw cell into a value of type t. Blank cells are null.
func parseCell(raw string, t dataset.Type, opt Options) (dataset.Value, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return dataset.Null(t), nil
	}
	switch t {
	case dataset.Number:
		d, ok := parseNumber(v, opt)
		if !ok {
			return dataset.Value{}, fmt.Errorf("%q is not a number", v)
		}
		return dataset.NewNumber(d), nil
	case dataset.Boolean:
		b, ok := parseBool(v)
		if !ok {
			return dataset.Value{}, fmt.Errorf("%q is not a boolean", v)
		}
		return dataset.NewBool(b), nil
	case dataset.Date:
		tm, ok := parseDate(v)
		if !ok {
			return dataset.Value{}, fmt.Errorf("%q is not a date", v)
		}
		return dataset.NewDate(tm), nil
	}
	return dataset.NewText(v), nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

func parseDate(s string) (time.Time, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber reads s as an exact decimal. Percent signs are stripped and
// separators follow opt, or are detected from the value when unset.
func parseNumber(s string, opt Options) (decimal.Decimal, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	// signed change columns are often written as "+3.5"
	raw = strings.TrimPrefix(raw, "+")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
