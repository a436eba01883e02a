package dataset

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(s string) Value { return NewNumber(decimal.RequireFromString(s)) }

func municipalities(t *testing.T) *Dataset {
	t.Helper()
	cols := []Column{
		{Name: "municipality", Type: Text},
		{Name: "county", Type: Text},
		{Name: "change", Type: Number},
	}
	ds, err := New(cols, [][]Value{
		{NewText("Solna"), NewText("Stockholm"), num("1.5")},
		{NewText("Lund"), NewText("Skåne"), num("-0.2")},
		{NewText("Nacka"), NewText("Stockholm"), Null(Number)},
		{NewText("Malmö"), NewText("Skåne"), num("3")},
	}, "municipality")
	require.NoError(t, err)
	return ds
}

func TestNew(t *testing.T) {
	req := require.New(t)

	t.Run("duplicate key", func(t *testing.T) {
		_, err := New([]Column{{Name: "k", Type: Text}}, [][]Value{{NewText("a")}, {NewText("a")}}, "k")
		req.True(errors.Is(err, ErrDuplicateKey))
	})

	t.Run("duplicate column", func(t *testing.T) {
		_, err := New([]Column{{Name: "k", Type: Text}, {Name: "k", Type: Number}}, nil, "k")
		req.True(errors.Is(err, ErrDuplicateColumn))
	})

	t.Run("missing key column", func(t *testing.T) {
		_, err := New([]Column{{Name: "k", Type: Text}}, nil, "id")
		req.True(errors.Is(err, ErrColumnNotFound))
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := New([]Column{{Name: "k", Type: Text}, {Name: "n", Type: Number}},
			[][]Value{{NewText("a"), NewText("x")}}, "k")
		req.True(errors.Is(err, ErrTypeMismatch))
	})

	t.Run("nulls are retyped", func(t *testing.T) {
		ds, err := New([]Column{{Name: "k", Type: Text}, {Name: "n", Type: Number}},
			[][]Value{{NewText("a"), Value{}}}, "k")
		req.NoError(err)
		v, err := ds.Row(0).Get("n")
		req.NoError(err)
		req.True(v.IsNull())
		req.Equal(Number, v.Type())
	})
}

func TestRowAccess(t *testing.T) {
	ds := municipalities(t)
	row, ok := ds.RowByKey("Lund")
	require.True(t, ok)
	assert.Equal(t, "Lund", row.Key())

	v, err := row.Get("change")
	require.NoError(t, err)
	d, ok := v.Number()
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("-0.2")))

	_, err = row.Get("nope")
	assert.True(t, errors.Is(err, ErrColumnNotFound))

	m := row.Map()
	assert.Equal(t, "Skåne", m["county"])
	assert.InDelta(t, -0.2, m["change"], 1e-9)
}

func TestSubsetCollapsesDuplicatesAndRejectsUnknown(t *testing.T) {
	ds := municipalities(t)
	sub, err := ds.Subset([]string{"Malmö", "Lund", "Malmö"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Malmö", "Lund"}, sub.Keys())

	_, err = ds.Subset([]string{"Uppsala"})
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestGroupByKeepsFirstAppearanceOrder(t *testing.T) {
	ds := municipalities(t)
	groups, err := ds.GroupBy("county")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Stockholm", groups[0].Value.String())
	assert.Equal(t, []string{"Solna", "Nacka"}, groups[0].Dataset.Keys())
	assert.Equal(t, []string{"Lund", "Malmö"}, groups[1].Dataset.Keys())
}

func TestWithColumnsDoesNotLeakIntoOlderStage(t *testing.T) {
	ds := municipalities(t)
	old := ds.Row(0)

	vals := make([][]Value, ds.Len())
	for i := range vals {
		vals[i] = []Value{NewBool(i%2 == 0)}
	}
	next, err := ds.WithColumns([]Column{{Name: "flag", Type: Boolean}}, vals)
	require.NoError(t, err)

	assert.False(t, old.Has("flag"))
	assert.False(t, ds.HasColumn("flag"))
	assert.True(t, next.Row(0).Has("flag"))
	assert.Equal(t, ds.Keys(), next.Keys())

	_, err = ds.WithColumns([]Column{{Name: "county", Type: Text}}, make([][]Value, ds.Len()))
	assert.True(t, errors.Is(err, ErrDuplicateColumn))
}

func TestOrderByPutsNullsLast(t *testing.T) {
	ds := municipalities(t)

	asc, err := ds.OrderBy("change", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lund", "Solna", "Malmö", "Nacka"}, asc.Keys())

	desc, err := ds.OrderBy("change", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Malmö", "Solna", "Lund", "Nacka"}, desc.Keys())
}

func TestRekey(t *testing.T) {
	cols := []Column{{Name: "code", Type: Text}, {Name: "name", Type: Text}}
	ds, err := New(cols, [][]Value{
		{NewText("0114"), NewText("Upplands Väsby")},
		{NewText("0115"), NewText("Vallentuna")},
	}, "code")
	require.NoError(t, err)

	byName, err := ds.Rekey("name")
	require.NoError(t, err)
	row, ok := byName.RowByKey("Vallentuna")
	require.True(t, ok)
	v, _ := row.Get("code")
	assert.Equal(t, "0115", v.String())
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"text", Text},
		{"Number", Number},
		{"bool", Boolean},
		{"date", Date},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseType("blob")
	assert.Error(t, err)
}
