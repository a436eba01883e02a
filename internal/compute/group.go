package compute

import (
	"strings"

	"github.com/KaramelBytes/robowriter/internal/dataset"
	"github.com/KaramelBytes/robowriter/internal/ranking"
)

// ComputedValueColumn is the column attached to every comparison table.
const ComputedValueColumn = "computed_value"

// GroupOptions configures a GroupComparison. Exactly one of GroupBy and
// ComparisonColumn must be set.
type GroupOptions struct {
	// Key is the unique key column. Empty means the dataset's own key column.
	Key string
	// GroupBy ranks each row against all rows sharing this column's value.
	GroupBy string
	// ComparisonColumn holds a comma-separated list of peer keys per row.
	ComparisonColumn string
	// RankBy is the numeric column to rank.
	RankBy string
	// Reverse ranks descending (1 = largest) when true.
	Reverse bool
}

// GroupComparison ranks every row within its comparison set using a
// ranking.Strategy. Comparison tables are built in Prepare and only read
// by Run.
type GroupComparison struct {
	opts     GroupOptions
	strategy ranking.Strategy
	tables   map[string]*dataset.Dataset
}

// NewGroupComparison returns a GroupComparison using strategy.
func NewGroupComparison(strategy ranking.Strategy, opts GroupOptions) *GroupComparison {
	return &GroupComparison{opts: opts, strategy: strategy}
}

// NewGroupRank ranks rows 1..N within their comparison set.
func NewGroupRank(opts GroupOptions) *GroupComparison {
	return NewGroupComparison(ranking.Rank{}, opts)
}

// NewGroupPercentileRank computes 0-100 percentile ranks within the comparison set.
func NewGroupPercentileRank(opts GroupOptions) *GroupComparison {
	return NewGroupComparison(ranking.PercentileRank{}, opts)
}

// Type implements Computation.
func (g *GroupComparison) Type() dataset.Type { return dataset.Number }

// Prepare implements Computation. It builds every comparison table for ds,
// replacing anything built by an earlier call.
func (g *GroupComparison) Prepare(ds *dataset.Dataset) error {
	g.tables = nil
	if g.strategy == nil {
		return newError(ErrConfiguration, "no ranking strategy")
	}
	switch {
	case g.opts.GroupBy == "" && g.opts.ComparisonColumn == "":
		return newError(ErrConfiguration, "one of group_by or comparison_column is required")
	case g.opts.GroupBy != "" && g.opts.ComparisonColumn != "":
		return newError(ErrConfiguration, "group_by (%s) and comparison_column (%s) are mutually exclusive",
			g.opts.GroupBy, g.opts.ComparisonColumn)
	}
	if g.opts.RankBy == "" {
		return newError(ErrConfiguration, "rank_by is required")
	}
	col, err := ds.Column(g.opts.RankBy)
	if err != nil {
		return newError(ErrConfiguration, "rank_by: %v", err)
	}
	if col.Type != dataset.Number {
		return newError(ErrConfiguration, "rank_by column %s is %s, want number", col.Name, col.Type)
	}
	if g.opts.Key != "" {
		rekeyed, err := ds.Rekey(g.opts.Key)
		if err != nil {
			return newError(ErrConfiguration, "key: %v", err)
		}
		ds = rekeyed
	}

	tables := make(map[string]*dataset.Dataset, ds.Len())
	if g.opts.GroupBy != "" {
		err = g.prepareGroups(ds, tables)
	} else {
		err = g.prepareLists(ds, tables)
	}
	if err != nil {
		return err
	}
	g.tables = tables
	return nil
}

func (g *GroupComparison) prepareGroups(ds *dataset.Dataset, tables map[string]*dataset.Dataset) error {
	if !ds.HasColumn(g.opts.GroupBy) {
		return newError(ErrConfiguration, "group_by column %s not found", g.opts.GroupBy)
	}
	groups, err := ds.GroupBy(g.opts.GroupBy)
	if err != nil {
		return err
	}
	for _, grp := range groups {
		table, err := g.rankTable(grp.Dataset)
		if err != nil {
			return err
		}
		for _, k := range grp.Dataset.Keys() {
			tables[k] = table
		}
	}
	return nil
}

func (g *GroupComparison) prepareLists(ds *dataset.Dataset, tables map[string]*dataset.Dataset) error {
	if !ds.HasColumn(g.opts.ComparisonColumn) {
		return newError(ErrConfiguration, "comparison_column %s not found", g.opts.ComparisonColumn)
	}
	for _, row := range ds.Rows() {
		keys := append(peerKeys(row, g.opts.ComparisonColumn), row.Key())
		for _, k := range keys {
			if _, ok := ds.RowByKey(k); !ok {
				return newError(ErrReference, "row %q compares with unknown key %q", row.Key(), k)
			}
		}
		subset, err := ds.Subset(keys)
		if err != nil {
			return err
		}
		table, err := g.rankTable(subset)
		if err != nil {
			return err
		}
		tables[row.Key()] = table
	}
	return nil
}

// peerKeys parses the comparison list of row. A null or non-text value means
// the row has no listed peers.
func peerKeys(row dataset.Row, column string) []string {
	v, ok := row.Lookup(column)
	if !ok {
		return nil
	}
	s, ok := v.Text()
	if !ok {
		return nil
	}
	var keys []string
	for _, part := range strings.Split(s, ",") {
		if k := strings.TrimSpace(part); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func (g *GroupComparison) rankTable(ds *dataset.Dataset) (*dataset.Dataset, error) {
	ranks, err := g.strategy.Compute(ds, g.opts.RankBy, g.opts.Reverse)
	if err != nil {
		return nil, newError(ErrConfiguration, "%s: %v", g.strategy.Name(), err)
	}
	if len(ranks) != ds.Len() {
		return nil, newError(ErrConfiguration, "%s returned %d values for %d rows", g.strategy.Name(), len(ranks), ds.Len())
	}
	values := make([][]dataset.Value, len(ranks))
	for i, r := range ranks {
		if !r.IsNull() && r.Type() != dataset.Number {
			return nil, newError(ErrTypeMismatch, "%s returned %s for %q, want number", g.strategy.Name(), r.Type(), ds.Row(i).Key())
		}
		if d, ok := r.Number(); ok && g.strategy.Integral() && !d.IsInteger() {
			return nil, newError(ErrTypeMismatch, "%s returned non-integral rank %s for %q", g.strategy.Name(), d, ds.Row(i).Key())
		}
		values[i] = []dataset.Value{r}
	}
	cols := []dataset.Column{{Name: ComputedValueColumn, Type: dataset.Number}}
	return ds.WithColumns(cols, values)
}

// Run implements Computation.
func (g *GroupComparison) Run(row dataset.Row) (dataset.Value, error) {
	key := row.Key()
	if g.opts.Key != "" {
		v, err := row.Get(g.opts.Key)
		if err != nil {
			return dataset.Value{}, newError(ErrKeyNotPrepared, "%v", err)
		}
		key = v.String()
	}
	table, ok := g.tables[key]
	if !ok {
		return dataset.Value{}, newError(ErrKeyNotPrepared, "no comparison table for key %q", key)
	}
	member, ok := table.RowByKey(key)
	if !ok {
		return dataset.Value{}, newError(ErrKeyNotPrepared, "key %q missing from its comparison table", key)
	}
	v, err := member.Get(ComputedValueColumn)
	if err != nil {
		return dataset.Value{}, err
	}
	if v.IsNull() {
		return dataset.Null(dataset.Number), nil
	}
	d, _ := v.Number()
	return dataset.NewNumber(d), nil
}

// ComparisonTable returns the prepared table for key. The table is shared
// with every row of the same group and must not be modified.
func (g *GroupComparison) ComparisonTable(key string) (*dataset.Dataset, bool) {
	t, ok := g.tables[key]
	return t, ok
}
