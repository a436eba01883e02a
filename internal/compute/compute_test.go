package compute

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/robowriter/internal/dataset"
)

func num(s string) dataset.Value { return dataset.NewNumber(decimal.RequireFromString(s)) }

// municipalities has two counties and an explicit neighbour list per row.
func municipalities(t *testing.T) *dataset.Dataset {
	t.Helper()
	cols := []dataset.Column{
		{Name: "municipality", Type: dataset.Text},
		{Name: "county", Type: dataset.Text},
		{Name: "neighbours", Type: dataset.Text},
		{Name: "change", Type: dataset.Number},
	}
	ds, err := dataset.New(cols, [][]dataset.Value{
		{dataset.NewText("Solna"), dataset.NewText("Stockholm"), dataset.NewText("Sundbyberg, Danderyd"), num("10")},
		{dataset.NewText("Sundbyberg"), dataset.NewText("Stockholm"), dataset.NewText("Solna"), num("20")},
		{dataset.NewText("Danderyd"), dataset.NewText("Stockholm"), dataset.Null(dataset.Text), num("20")},
		{dataset.NewText("Nacka"), dataset.NewText("Stockholm"), dataset.NewText(""), num("30")},
		{dataset.NewText("Lund"), dataset.NewText("Skåne"), dataset.NewText("Malmö,Malmö"), num("-1")},
		{dataset.NewText("Malmö"), dataset.NewText("Skåne"), dataset.NewText("Lund"), num("2")},
	}, "municipality")
	require.NoError(t, err)
	return ds
}

func column(t *testing.T, ds *dataset.Dataset, name string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, r := range ds.Rows() {
		v, err := r.Get(name)
		require.NoError(t, err)
		out[r.Key()] = v.String()
	}
	return out
}

func TestComputeAppendsColumnsInOrder(t *testing.T) {
	ds := municipalities(t)
	out, err := Compute(ds, []Named{
		{Name: "is_growing", Computation: IsGrowing("change")},
		{Name: "rank", Computation: NewGroupRank(GroupOptions{GroupBy: "county", RankBy: "change"})},
	})
	require.NoError(t, err)
	assert.Equal(t, append(ds.ColumnNames(), "is_growing", "rank"), out.ColumnNames())
	assert.Equal(t, ds.Keys(), out.Keys())
	assert.False(t, ds.HasColumn("rank"))

	col, err := out.Column("is_growing")
	require.NoError(t, err)
	assert.Equal(t, dataset.Boolean, col.Type)
}

func TestGroupRankByCategory(t *testing.T) {
	ds := municipalities(t)
	out, err := Compute(ds, []Named{
		{Name: "rank", Computation: NewGroupRank(GroupOptions{GroupBy: "county", RankBy: "change"})},
		{Name: "rank_desc", Computation: NewGroupRank(GroupOptions{GroupBy: "county", RankBy: "change", Reverse: true})},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Solna": "1", "Sundbyberg": "2", "Danderyd": "2", "Nacka": "4",
		"Lund": "1", "Malmö": "2",
	}, column(t, out, "rank"))
	assert.Equal(t, map[string]string{
		"Solna": "4", "Sundbyberg": "2", "Danderyd": "2", "Nacka": "1",
		"Lund": "2", "Malmö": "1",
	}, column(t, out, "rank_desc"))
}

func TestGroupMembersShareOneTable(t *testing.T) {
	ds := municipalities(t)
	g := NewGroupRank(GroupOptions{GroupBy: "county", RankBy: "change"})
	require.NoError(t, g.Prepare(ds))

	solna, ok := g.ComparisonTable("Solna")
	require.True(t, ok)
	for _, k := range []string{"Sundbyberg", "Danderyd", "Nacka"} {
		other, ok := g.ComparisonTable(k)
		require.True(t, ok)
		assert.Same(t, solna, other, k)
	}
	lund, _ := g.ComparisonTable("Lund")
	assert.NotSame(t, solna, lund)
	assert.Equal(t, []string{"Solna", "Sundbyberg", "Danderyd", "Nacka"}, solna.Keys())
	assert.True(t, solna.HasColumn(ComputedValueColumn))
}

func TestComparisonColumnMode(t *testing.T) {
	ds := municipalities(t)
	g := NewGroupRank(GroupOptions{ComparisonColumn: "neighbours", RankBy: "change"})
	require.NoError(t, g.Prepare(ds))

	solna, _ := g.ComparisonTable("Solna")
	assert.Equal(t, []string{"Sundbyberg", "Danderyd", "Solna"}, solna.Keys())

	// duplicate peers collapse
	lund, _ := g.ComparisonTable("Lund")
	assert.Equal(t, []string{"Malmö", "Lund"}, lund.Keys())

	// null and empty lists compare with self only
	for _, k := range []string{"Danderyd", "Nacka"} {
		tbl, _ := g.ComparisonTable(k)
		assert.Equal(t, []string{k}, tbl.Keys())
	}

	out, err := Compute(ds, []Named{{Name: "rank", Computation: g}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Solna": "1", "Sundbyberg": "2", "Danderyd": "1", "Nacka": "1",
		"Lund": "1", "Malmö": "2",
	}, column(t, out, "rank"))
}

func TestSingletonIgnoresReverse(t *testing.T) {
	ds := municipalities(t)
	for _, strategy := range []func(GroupOptions) *GroupComparison{NewGroupRank, NewGroupPercentileRank} {
		var got []string
		for _, reverse := range []bool{false, true} {
			g := strategy(GroupOptions{ComparisonColumn: "neighbours", RankBy: "change", Reverse: reverse})
			require.NoError(t, g.Prepare(ds))
			row, _ := ds.RowByKey("Nacka")
			v, err := g.Run(row)
			require.NoError(t, err)
			got = append(got, v.String())
		}
		assert.Equal(t, got[0], got[1])
	}
}

func TestUnknownPeerFailsDuringPrepare(t *testing.T) {
	cols := []dataset.Column{
		{Name: "k", Type: dataset.Text},
		{Name: "peers", Type: dataset.Text},
		{Name: "v", Type: dataset.Number},
	}
	ds, err := dataset.New(cols, [][]dataset.Value{
		{dataset.NewText("a"), dataset.NewText("b"), num("1")},
		{dataset.NewText("b"), dataset.NewText("zzz"), num("2")},
	}, "k")
	require.NoError(t, err)

	g := NewGroupRank(GroupOptions{ComparisonColumn: "peers", RankBy: "v"})
	err = g.Prepare(ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReference))
	assert.Contains(t, err.Error(), "zzz")

	_, err = g.Run(ds.Row(0))
	assert.True(t, errors.Is(err, ErrKeyNotPrepared))

	_, err = Compute(ds, []Named{{Name: "rank", Computation: NewGroupRank(GroupOptions{ComparisonColumn: "peers", RankBy: "v"})}})
	assert.True(t, errors.Is(err, ErrReference))
}

func TestConfigurationErrors(t *testing.T) {
	ds := municipalities(t)
	tests := []struct {
		name string
		opts GroupOptions
	}{
		{"no strategy", GroupOptions{RankBy: "change"}},
		{"both strategies", GroupOptions{GroupBy: "county", ComparisonColumn: "neighbours", RankBy: "change"}},
		{"missing rank_by", GroupOptions{GroupBy: "county"}},
		{"text rank_by", GroupOptions{GroupBy: "county", RankBy: "county"}},
		{"unknown group column", GroupOptions{GroupBy: "region", RankBy: "change"}},
		{"unknown comparison column", GroupOptions{ComparisonColumn: "peers", RankBy: "change"}},
		{"unknown key column", GroupOptions{Key: "id", GroupBy: "county", RankBy: "change"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGroupRank(tt.opts).Prepare(ds)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration), err.Error())
		})
	}
}

// fixedRanks gives every row the same value.
type fixedRanks struct {
	value    string
	integral bool
}

func (f fixedRanks) Name() string   { return "fixed" }
func (f fixedRanks) Integral() bool { return f.integral }
func (f fixedRanks) Compute(ds *dataset.Dataset, _ string, _ bool) ([]dataset.Value, error) {
	out := make([]dataset.Value, ds.Len())
	for i := range out {
		out[i] = num(f.value)
	}
	return out, nil
}

func TestIntegralStrategiesMustReturnWholeRanks(t *testing.T) {
	ds := municipalities(t)
	opts := GroupOptions{GroupBy: "county", RankBy: "change"}

	err := NewGroupComparison(fixedRanks{value: "1.5", integral: true}, opts).Prepare(ds)
	assert.True(t, errors.Is(err, ErrTypeMismatch), "got %v", err)

	g := NewGroupComparison(fixedRanks{value: "2.0", integral: true}, opts)
	require.NoError(t, g.Prepare(ds))
	v, err := g.Run(ds.Row(0))
	require.NoError(t, err)
	assert.Equal(t, "2", v.String())

	g = NewGroupComparison(fixedRanks{value: "1.5"}, opts)
	require.NoError(t, g.Prepare(ds))
	v, err = g.Run(ds.Row(0))
	require.NoError(t, err)
	assert.Equal(t, "1.5", v.String())
}

func TestRunBeforePrepare(t *testing.T) {
	ds := municipalities(t)
	_, err := NewGroupPercentileRank(GroupOptions{GroupBy: "county", RankBy: "change"}).Run(ds.Row(0))
	assert.True(t, errors.Is(err, ErrKeyNotPrepared))
}

func TestPercentileRankInCounty(t *testing.T) {
	ds := municipalities(t)
	out, err := Compute(ds, []Named{
		{Name: "pct", Computation: NewGroupPercentileRank(GroupOptions{Key: "municipality", GroupBy: "county", RankBy: "change", Reverse: true})},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Nacka": "0", "Sundbyberg": "33.3333", "Danderyd": "33.3333", "Solna": "100",
		"Malmö": "0", "Lund": "100",
	}, column(t, out, "pct"))
}

func TestBuiltins(t *testing.T) {
	cols := []dataset.Column{{Name: "k", Type: dataset.Text}}
	changes := []string{"c1", "c2", "c3", "c4", "c5"}
	for _, c := range changes {
		cols = append(cols, dataset.Column{Name: c, Type: dataset.Number})
	}
	rec := func(key string, vals ...string) []dataset.Value {
		out := []dataset.Value{dataset.NewText(key)}
		for _, v := range vals {
			if v == "" {
				out = append(out, dataset.Null(dataset.Number))
				continue
			}
			out = append(out, num(v))
		}
		return out
	}
	ds, err := dataset.New(cols, [][]dataset.Value{
		rec("up", "1", "2", "-1", "3", "4"),
		rec("down", "1", "-2", "-1", "0", "-4"),
		rec("flip", "1", "2", "3", "4", "-1"),
		rec("null", "1", "2", "3", "4", ""),
	}, "k")
	require.NoError(t, err)

	out, err := Compute(ds, []Named{
		{Name: "is_growing", Computation: IsGrowing("c5")},
		{Name: "consecutive_development", Computation: ConsecutiveDevelopment(changes)},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"up": "true", "down": "false", "flip": "false", "null": "false"}, column(t, out, "is_growing"))
	assert.Equal(t, map[string]string{"up": "2", "down": "4", "flip": "1", "null": "1"}, column(t, out, "consecutive_development"))
}

func TestFormulaErrorsCarryRowKey(t *testing.T) {
	ds := municipalities(t)
	boom := errors.New("boom")
	_, err := Compute(ds, []Named{{Name: "bad", Computation: NewFormula(dataset.Number, func(r dataset.Row) (dataset.Value, error) {
		if r.Key() == "Lund" {
			return dataset.Value{}, boom
		}
		return dataset.NewInt(1), nil
	})}})
	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, "Lund", rowErr.Key)
	assert.Equal(t, "bad", rowErr.Column)
	assert.True(t, errors.Is(err, boom))

	_, err = Compute(ds, []Named{{Name: "wrong", Computation: NewFormula(dataset.Number, func(dataset.Row) (dataset.Value, error) {
		return dataset.NewText("x"), nil
	})}})
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = Compute(ds, []Named{{Name: "county", Computation: IsGrowing("change")}})
	assert.True(t, errors.Is(err, dataset.ErrDuplicateColumn))
}

func TestComputeIsIdempotent(t *testing.T) {
	ds := municipalities(t)
	comps := func() []Named {
		return []Named{
			{Name: "pct", Computation: NewGroupPercentileRank(GroupOptions{GroupBy: "county", RankBy: "change"})},
			{Name: "rank", Computation: NewGroupRank(GroupOptions{ComparisonColumn: "neighbours", RankBy: "change"})},
		}
	}
	a, err := Compute(ds, comps())
	require.NoError(t, err)
	b, err := Compute(ds, comps())
	require.NoError(t, err)
	for _, name := range []string{"pct", "rank"} {
		assert.Equal(t, column(t, a, name), column(t, b, name))
	}
}
