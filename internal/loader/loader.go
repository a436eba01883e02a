// Package loader reads tabular files into typed datasets.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/robowriter/internal/dataset"
)

// ErrUnsupported indicates a file format no registered reader accepts.
var ErrUnsupported = errors.New("unsupported data format")

// Options controls how a file is read and typed.
type Options struct {
	// Key is the unique key column. Required.
	Key string
	// Sheet selects an xlsx sheet. Empty means the first sheet.
	Sheet string
	// Delimiter for CSV. If 0, ',' is used unless the file ends in .tsv.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Types declares column types, overriding inference.
	Types map[string]dataset.Type
	// Text lists columns read as text when present and not in Types.
	Text []string
}

// Table is the raw cell grid of a file: one header row and string records.
type Table struct {
	Header  []string
	Records [][]string
}

// Reader reads one file format into a raw Table.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ReadTable selects a reader based on filename and returns the raw table.
func ReadTable(path string, opt Options) (*Table, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Load reads path and builds a typed dataset keyed by opt.Key.
func Load(path string, opt Options) (*dataset.Dataset, error) {
	t, err := ReadTable(path, opt)
	if err != nil {
		return nil, err
	}
	ds, err := Build(t, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ds, nil
}

// Build types every column of t and returns the dataset. Declared types win
// over inference; undeclared columns are inferred from their non-empty cells.
func Build(t *Table, opt Options) (*dataset.Dataset, error) {
	if len(t.Header) == 0 {
		return nil, errors.New("no header row")
	}
	if opt.Key == "" {
		return nil, errors.New("key column is required")
	}
	header := make([]string, len(t.Header))
	for i, h := range t.Header {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
	}
	for name := range opt.Types {
		if !contains(header, name) {
			return nil, fmt.Errorf("declared column %s: %w", name, dataset.ErrColumnNotFound)
		}
	}
	for i, rec := range t.Records {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(rec), len(header))
		}
	}

	cols := make([]dataset.Column, len(header))
	for j, name := range header {
		typ, ok := opt.Types[name]
		switch {
		case ok:
		case contains(opt.Text, name):
			typ = dataset.Text
		default:
			typ = inferColumn(t.Records, j, opt)
		}
		cols[j] = dataset.Column{Name: name, Type: typ}
	}

	records := make([][]dataset.Value, len(t.Records))
	for i, rec := range t.Records {
		row := make([]dataset.Value, len(header))
		for j, col := range cols {
			var cell string
			if j < len(rec) {
				cell = rec[j]
			}
			v, err := parseCell(cell, col.Type, opt)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+2, col.Name, err)
			}
			row[j] = v
		}
		records[i] = row
	}
	return dataset.New(cols, records, opt.Key)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
