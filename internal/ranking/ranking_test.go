package ranking_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/robowriter/internal/dataset"
	"github.com/KaramelBytes/robowriter/internal/ranking"
)

func table(t *testing.T, values ...string) *dataset.Dataset {
	t.Helper()
	cols := []dataset.Column{{Name: "key", Type: dataset.Text}, {Name: "v", Type: dataset.Number}}
	recs := make([][]dataset.Value, len(values))
	for i, s := range values {
		v := dataset.Null(dataset.Number)
		if s != "" {
			v = dataset.NewNumber(decimal.RequireFromString(s))
		}
		recs[i] = []dataset.Value{dataset.NewText(string(rune('a' + i))), v}
	}
	ds, err := dataset.New(cols, recs, "key")
	require.NoError(t, err)
	return ds
}

func strs(vals []dataset.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

func TestRankCompetitionTies(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		reverse bool
		want    []string
	}{
		{"ascending with tie", []string{"10", "20", "20", "30"}, false, []string{"1", "2", "2", "4"}},
		{"descending with tie", []string{"10", "20", "20", "30"}, true, []string{"4", "2", "2", "1"}},
		{"unsorted input", []string{"30", "10", "20"}, false, []string{"3", "1", "2"}},
		{"equal decimals with different scale", []string{"1.50", "1.5", "2"}, false, []string{"1", "1", "3"}},
		{"nulls last both ways", []string{"5", "", "1"}, true, []string{"1", "3", "2"}},
		{"all tied", []string{"7", "7", "7"}, false, []string{"1", "1", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ranking.Rank{}.Compute(table(t, tt.values...), "v", tt.reverse)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strs(got))
		})
	}
}

func TestPercentileRank(t *testing.T) {
	got, err := ranking.PercentileRank{}.Compute(table(t, "10", "20", "20", "30"), "v", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "33.3333", "33.3333", "100"}, strs(got))

	single, err := ranking.PercentileRank{}.Compute(table(t, "42"), "v", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, strs(single))

	withNull, err := ranking.PercentileRank{}.Compute(table(t, "1", ""), "v", false)
	require.NoError(t, err)
	assert.True(t, withNull[1].IsNull())
}

func TestPercentileRankIgnoresNulls(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		reverse bool
		want    []string
	}{
		{"null does not widen the scale", []string{"1", "2", ""}, false, []string{"0", "100", ""}},
		{"descending", []string{"1", "2", ""}, true, []string{"100", "0", ""}},
		{"one value among nulls", []string{"", "5", ""}, false, []string{"", "0", ""}},
		{"only nulls", []string{"", ""}, false, []string{"", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ranking.PercentileRank{}.Compute(table(t, tt.values...), "v", tt.reverse)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strs(got))
			for i, v := range tt.values {
				assert.Equal(t, v == "", got[i].IsNull(), "row %d", i)
			}
		})
	}
}

func TestPercentileFollowsRankOrder(t *testing.T) {
	ds := table(t, "3", "9", "1", "9", "4", "-2", "0")
	for _, reverse := range []bool{false, true} {
		ranks, err := ranking.Rank{}.Compute(ds, "v", reverse)
		require.NoError(t, err)
		pcts, err := ranking.PercentileRank{}.Compute(ds, "v", reverse)
		require.NoError(t, err)
		for i := range ranks {
			for j := range ranks {
				ri, _ := ranks[i].Number()
				rj, _ := ranks[j].Number()
				pi, _ := pcts[i].Number()
				pj, _ := pcts[j].Number()
				if ri.LessThan(rj) {
					assert.True(t, pi.LessThanOrEqual(pj), "reverse=%v i=%d j=%d", reverse, i, j)
				}
			}
		}
	}
}

func TestRankRejectsNonNumericColumn(t *testing.T) {
	_, err := ranking.Rank{}.Compute(table(t, "1"), "key", false)
	assert.Error(t, err)
	_, err = ranking.Rank{}.Compute(table(t, "1"), "missing", false)
	assert.Error(t, err)
}
