// Package formula compiles user-written Go snippets into row computations.
//
// A formula body sees one variable, row, of type map[string]interface{}.
// Numbers arrive as float64, text as string, booleans as bool, dates as
// time.Time and nulls as nil. A body without a return statement is treated
// as a single expression.
package formula

import (
	"errors"
	"fmt"
	"go/scanner"
	"go/token"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/KaramelBytes/robowriter/internal/compute"
	"github.com/KaramelBytes/robowriter/internal/dataset"
)

// ErrCompile means a formula body is not valid Go.
var ErrCompile = errors.New("formula does not compile")

// Func is the compiled form of a formula body.
type Func func(row map[string]interface{}) interface{}

// Compile turns body into a Func. imports lists standard library packages
// the body may reference, such as "math" or "strings".
func Compile(body string, imports []string) (Func, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: empty body", ErrCompile)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := i.Eval(source(body, imports)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	v, err := i.Eval("formula.Eval")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	fn, ok := v.Interface().(func(map[string]interface{}) interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected signature %T", ErrCompile, v.Interface())
	}
	return fn, nil
}

func source(body string, imports []string) string {
	var b strings.Builder
	b.WriteString("package formula\n\n")
	for _, imp := range imports {
		imp = strings.TrimSpace(imp)
		if imp == "" {
			continue
		}
		fmt.Fprintf(&b, "import %q\n", imp)
	}
	b.WriteString("\nfunc Eval(row map[string]interface{}) interface{} {\n")
	if !hasReturn(body) {
		b.WriteString("return ")
	}
	b.WriteString(body)
	b.WriteString("\n}\n")
	return b.String()
}

// hasReturn reports whether body contains a return keyword token. Words
// inside strings and comments do not count.
func hasReturn(body string) bool {
	src := []byte(body)
	fset := token.NewFileSet()
	var sc scanner.Scanner
	sc.Init(fset.AddFile("", fset.Base(), len(src)), src, nil, 0)
	for {
		_, tok, _ := sc.Scan()
		switch tok {
		case token.RETURN:
			return true
		case token.EOF:
			return false
		}
	}
}

// New compiles body and wraps it as a computation returning values of type t.
func New(body string, t dataset.Type, imports []string) (*compute.Formula, error) {
	fn, err := Compile(body, imports)
	if err != nil {
		return nil, err
	}
	var mu sync.Mutex
	return compute.NewFormula(t, func(row dataset.Row) (v dataset.Value, err error) {
		mu.Lock()
		defer mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("formula panicked: %v", r)
			}
		}()
		return Convert(fn(row.Map()), t)
	}), nil
}

// Convert coerces a formula result into a Value of type t. nil becomes null.
func Convert(raw interface{}, t dataset.Type) (dataset.Value, error) {
	if raw == nil {
		return dataset.Null(t), nil
	}
	switch t {
	case dataset.Number:
		switch n := raw.(type) {
		case decimal.Decimal:
			return dataset.NewNumber(n), nil
		case bool:
			return dataset.Value{}, mismatch(raw, t)
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return dataset.Value{}, mismatch(raw, t)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return dataset.Value{}, mismatch(raw, t)
		}
		return dataset.NewNumber(d), nil
	case dataset.Text:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return dataset.Value{}, mismatch(raw, t)
		}
		return dataset.NewText(s), nil
	case dataset.Boolean:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return dataset.Value{}, mismatch(raw, t)
		}
		return dataset.NewBool(b), nil
	case dataset.Date:
		if tm, ok := raw.(time.Time); ok {
			return dataset.NewDate(tm), nil
		}
		tm, err := cast.ToTimeE(raw)
		if err != nil {
			return dataset.Value{}, mismatch(raw, t)
		}
		return dataset.NewDate(tm), nil
	}
	return dataset.Value{}, mismatch(raw, t)
}

func mismatch(raw interface{}, t dataset.Type) error {
	return fmt.Errorf("%w: cannot use %T (%v) as %s", compute.ErrTypeMismatch, raw, raw, t)
}
