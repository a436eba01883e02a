// Package export writes an enriched dataset to CSV, Arrow IPC or Parquet.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/robowriter/internal/dataset"
	"github.com/KaramelBytes/robowriter/internal/utils"
)

// Supported export formats.
const (
	FormatCSV     = "csv"
	FormatArrow   = "arrow"
	FormatParquet = "parquet"
)

// Formats lists the accepted format names.
var Formats = []string{FormatCSV, FormatArrow, FormatParquet}

// Write encodes ds in format to w.
func Write(w io.Writer, ds *dataset.Dataset, format string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, ds)
	case FormatArrow:
		return WriteArrow(w, ds)
	case FormatParquet:
		return WriteParquet(w, ds)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// WriteFile encodes ds in format and atomically replaces path.
func WriteFile(path string, ds *dataset.Dataset, format string) error {
	var buf bytes.Buffer
	if err := Write(&buf, ds, format); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// WriteCSV writes a header row and one record per row. Nulls are empty cells.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(ds.Columns()))
	for _, row := range ds.Rows() {
		for i, v := range row.Values() {
			rec[i] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %q: %w", row.Key(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Schema maps dataset columns to nullable Arrow fields. Numbers become
// float64, dates date32.
func Schema(ds *dataset.Dataset) *arrow.Schema {
	cols := ds.Columns()
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	md := arrow.NewMetadata([]string{"key"}, []string{ds.KeyColumn()})
	return arrow.NewSchema(fields, &md)
}

func arrowType(t dataset.Type) arrow.DataType {
	switch t {
	case dataset.Number:
		return arrow.PrimitiveTypes.Float64
	case dataset.Boolean:
		return arrow.FixedWidthTypes.Boolean
	case dataset.Date:
		return arrow.FixedWidthTypes.Date32
	}
	return arrow.BinaryTypes.String
}

// Record converts ds into a single Arrow record. The caller must Release it.
func Record(ds *dataset.Dataset, mem memory.Allocator) (arrow.Record, error) {
	schema := Schema(ds)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for j, c := range ds.Columns() {
		vals, err := ds.Values(c.Name)
		if err != nil {
			return nil, err
		}
		switch fb := b.Field(j).(type) {
		case *array.Float64Builder:
			for _, v := range vals {
				if d, ok := v.Number(); ok {
					fb.Append(d.InexactFloat64())
				} else {
					fb.AppendNull()
				}
			}
		case *array.BooleanBuilder:
			for _, v := range vals {
				if x, ok := v.Bool(); ok {
					fb.Append(x)
				} else {
					fb.AppendNull()
				}
			}
		case *array.Date32Builder:
			for _, v := range vals {
				if t, ok := v.Date(); ok {
					fb.Append(arrow.Date32FromTime(t))
				} else {
					fb.AppendNull()
				}
			}
		case *array.StringBuilder:
			for _, v := range vals {
				if s, ok := v.Text(); ok {
					fb.Append(s)
				} else {
					fb.AppendNull()
				}
			}
		default:
			return nil, fmt.Errorf("column %s: no arrow builder for %s", c.Name, c.Type)
		}
	}
	return b.NewRecord(), nil
}

// WriteArrow writes ds as an Arrow IPC file.
func WriteArrow(w io.Writer, ds *dataset.Dataset) error {
	mem := memory.NewGoAllocator()
	rec, err := Record(ds, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	return fw.Close()
}

// WriteParquet writes ds as a Snappy-compressed Parquet file with the Arrow
// schema embedded.
func WriteParquet(w io.Writer, ds *dataset.Dataset) error {
	mem := memory.NewGoAllocator()
	rec, err := Record(ds, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy), parquet.WithAllocator(mem))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	pw, err := pqarrow.NewFileWriter(rec.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := pw.Write(rec); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write parquet record: %w", err)
	}
	return pw.Close()
}
