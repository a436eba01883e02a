package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/robowriter/internal/dataset"
)

func sample(t *testing.T) *dataset.Dataset {
	t.Helper()
	day := time.Date(2014, 12, 31, 0, 0, 0, 0, time.UTC)
	ds, err := dataset.New([]dataset.Column{
		{Name: "municipality", Type: dataset.Text},
		{Name: "share", Type: dataset.Number},
		{Name: "is_growing", Type: dataset.Boolean},
		{Name: "measured", Type: dataset.Date},
	}, [][]dataset.Value{
		{dataset.NewText("Solna"), dataset.NewNumber(decimal.RequireFromString("5.25")), dataset.NewBool(true), dataset.NewDate(day)},
		{dataset.NewText("Lund, Skåne"), dataset.Null(dataset.Number), dataset.Null(dataset.Boolean), dataset.Null(dataset.Date)},
	}, "municipality")
	require.NoError(t, err)
	return ds
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample(t)))
	want := "municipality,share,is_growing,measured\n" +
		"Solna,5.25,true,2014-12-31\n" +
		"\"Lund, Skåne\",,,\n"
	assert.Equal(t, want, buf.String())
}

func TestArrowRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, sample(t)))

	r, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer r.Close()

	schema := r.Schema()
	require.Equal(t, 4, len(schema.Fields()))
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(1).Type)
	assert.Equal(t, arrow.FixedWidthTypes.Date32, schema.Field(3).Type)
	key, ok := schema.Metadata().GetValue("key")
	assert.True(t, ok)
	assert.Equal(t, "municipality", key)

	require.Equal(t, 1, r.NumRecords())
	rec, err := r.Record(0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, rec.NumRows())

	names := rec.Column(0).(*array.String)
	assert.Equal(t, "Lund, Skåne", names.Value(1))
	shares := rec.Column(1).(*array.Float64)
	assert.Equal(t, 5.25, shares.Value(0))
	assert.True(t, shares.IsNull(1))
	flags := rec.Column(2).(*array.Boolean)
	assert.True(t, flags.Value(0))
	assert.True(t, flags.IsNull(1))
	dates := rec.Column(3).(*array.Date32)
	assert.Equal(t, "2014-12-31", dates.Value(0).ToTime().Format("2006-01-02"))
}

func TestParquetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, sample(t)))

	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()),
		parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 2, tbl.NumRows())
	assert.Equal(t, "share", tbl.Schema().Field(1).Name)
	shares := tbl.Column(1).Data().Chunk(0).(*array.Float64)
	assert.Equal(t, 5.25, shares.Value(0))
	assert.True(t, shares.IsNull(1))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.csv")
	require.NoError(t, WriteFile(path, sample(t), FormatCSV))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Solna,5.25")

	assert.Error(t, WriteFile(path, sample(t), "xml"))
}
