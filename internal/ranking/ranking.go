// Package ranking computes ordinal and percentile ranks of a numeric column
// within a dataset.
//
// Ties use standard competition ranking ("1224"): equal values share the
// lowest rank of their run and the next distinct value skips ahead by the
// size of the run. Null values rank after every non-null value, in both
// directions, and share one rank.
package ranking

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/robowriter/internal/dataset"
)

// PercentileScale is the number of decimal places kept for percentile ranks.
const PercentileScale = 4

// Strategy computes one ranking value per row of ds, aligned with row order.
type Strategy interface {
	// Name identifies the strategy in logs and error messages.
	Name() string
	// Compute ranks ds by column. reverse=false ranks ascending (1 = smallest).
	Compute(ds *dataset.Dataset, column string, reverse bool) ([]dataset.Value, error)
	// Integral reports whether every non-null result is a whole number.
	Integral() bool
}

// Rank assigns integer ranks 1..N.
type Rank struct{}

// PercentileRank assigns 100*(rank-1)/(N-1) on a 0-100 scale, where N counts
// the non-null values only. A single non-null value yields 0; nulls yield null.
type PercentileRank struct{}

// Name implements Strategy.
func (Rank) Name() string { return "rank" }

// Integral implements Strategy.
func (Rank) Integral() bool { return true }

// Compute implements Strategy.
func (Rank) Compute(ds *dataset.Dataset, column string, reverse bool) ([]dataset.Value, error) {
	ranks, err := competitionRanks(ds, column, reverse)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.Value, len(ranks))
	for i, r := range ranks {
		out[i] = dataset.NewInt(int64(r))
	}
	return out, nil
}

// Name implements Strategy.
func (PercentileRank) Name() string { return "percentile_rank" }

// Integral implements Strategy.
func (PercentileRank) Integral() bool { return false }

// Compute implements Strategy.
func (PercentileRank) Compute(ds *dataset.Dataset, column string, reverse bool) ([]dataset.Value, error) {
	ranks, err := competitionRanks(ds, column, reverse)
	if err != nil {
		return nil, err
	}
	vals, err := ds.Values(column)
	if err != nil {
		return nil, err
	}
	// Nulls rank last, so the non-null rows hold ranks 1..n.
	n := 0
	for _, v := range vals {
		if !v.IsNull() {
			n++
		}
	}
	hundred := decimal.NewFromInt(100)
	out := make([]dataset.Value, len(ranks))
	for i, r := range ranks {
		if vals[i].IsNull() {
			out[i] = dataset.Null(dataset.Number)
			continue
		}
		if n == 1 {
			out[i] = dataset.NewNumber(decimal.Zero)
			continue
		}
		pct := hundred.Mul(decimal.NewFromInt(int64(r - 1))).
			DivRound(decimal.NewFromInt(int64(n-1)), PercentileScale)
		out[i] = dataset.NewNumber(pct)
	}
	return out, nil
}

// competitionRanks returns the 1-based competition rank of every row.
func competitionRanks(ds *dataset.Dataset, column string, reverse bool) ([]int, error) {
	col, err := ds.Column(column)
	if err != nil {
		return nil, err
	}
	if col.Type != dataset.Number {
		return nil, fmt.Errorf("rank by %s: column is %s, want number", column, col.Type)
	}
	vals, err := ds.Values(column)
	if err != nil {
		return nil, err
	}
	order := make([]int, len(vals))
	for i := range order {
		order[i] = i
	}
	less := func(a, b dataset.Value) bool {
		if a.IsNull() || b.IsNull() {
			return !a.IsNull() && b.IsNull()
		}
		c := dataset.Compare(a, b)
		if reverse {
			return c > 0
		}
		return c < 0
	}
	sort.SliceStable(order, func(i, j int) bool {
		return less(vals[order[i]], vals[order[j]])
	})
	ranks := make([]int, len(vals))
	for pos, idx := range order {
		if pos > 0 {
			prev := order[pos-1]
			if vals[prev].Equal(vals[idx]) {
				ranks[idx] = ranks[prev]
				continue
			}
		}
		ranks[idx] = pos + 1
	}
	return ranks, nil
}
