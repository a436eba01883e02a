package loader

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Read loads opt.Sheet, or the first sheet when unset. The first non-blank
// row is the header.
func (xlsxReader) Read(path string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		found := false
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet, found = s, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet %q not found (available: %s)", opt.Sheet, strings.Join(sheets, ", "))
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	t := &Table{}
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Records = append(t.Records, row)
	}
	if t.Header == nil {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}
	return t, nil
}
