package project

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/robowriter/internal/dataset"
	"github.com/KaramelBytes/robowriter/internal/loader"
)

// ErrInvalid is wrapped by every project validation failure.
var ErrInvalid = errors.New("invalid project")

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("separator", isSeparator)
	_ = v.RegisterValidation("coltype", isColumnType)
	// Use yaml tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func isSeparator(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "tab" || utf8.RuneCountInString(s) == 1
}

func isColumnType(fl validator.FieldLevel) bool {
	_, err := dataset.ParseType(fl.Field().String())
	return err == nil
}

// Validate checks field constraints and cross-field rules that tags cannot express.
func (p *Project) Validate() error {
	var problems []string
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}
	seen := map[string]bool{}
	for i, c := range p.DataSource.ComputedColumns {
		if c.Name == "" {
			continue
		}
		if seen[c.Name] {
			problems = append(problems, fmt.Sprintf("data_source.computed_columns[%d].name %q is used twice", i, c.Name))
		}
		seen[c.Name] = true
		if c.Kind == KindFormula && c.Type == "" {
			problems = append(problems, fmt.Sprintf("data_source.computed_columns[%d].type is required for formulas", i))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "separator":
		return fmt.Sprintf("%s must be a single character or \"tab\"", field)
	case "coltype":
		return fmt.Sprintf("%s must be one of: text, number, boolean, date", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// LoaderOptions converts the data source settings into loader options. The
// key column, every per-column key and every comparison_column read as text
// unless column_types says otherwise.
func (d DataSource) LoaderOptions() (loader.Options, error) {
	opt := loader.Options{Key: d.Key, Sheet: d.Sheet, Types: map[string]dataset.Type{}}
	var err error
	if opt.Delimiter, err = separator(d.Delimiter); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator, err = separator(d.Decimal); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = separator(d.Thousands); err != nil {
		return opt, err
	}
	for name, s := range d.ColumnTypes {
		t, err := dataset.ParseType(s)
		if err != nil {
			return opt, fmt.Errorf("column_types.%s: %w", name, err)
		}
		opt.Types[name] = t
	}
	addText := func(name string) {
		if name != "" && !slices.Contains(opt.Text, name) {
			opt.Text = append(opt.Text, name)
		}
	}
	addText(d.Key)
	for _, c := range d.ComputedColumns {
		addText(c.Key)
		addText(c.ComparisonColumn)
	}
	return opt, nil
}

func separator(s string) (rune, error) {
	switch {
	case s == "":
		return 0, nil
	case s == "tab":
		return '\t', nil
	case utf8.RuneCountInString(s) == 1:
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	}
	return 0, fmt.Errorf("separator %q must be a single character", s)
}
