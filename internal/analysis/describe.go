// Package analysis summarizes a dataset for humans: schema, per-column
// statistics, group summaries and correlations, rendered as Markdown.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/KaramelBytes/robowriter/internal/dataset"
)

// Options controls what the report includes.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset description.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Outliers: true, OutlierThreshold: 3.5}
}

// Report is a markdown-friendly description of a dataset.
type Report struct {
	Name     string
	Key      string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // dataset type: number|text|boolean|date
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Text top values
	TopValues []CategoryCount
	// Boolean
	TrueCount int
	// Date range
	First, Last string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Column  string
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Describe builds a Report for ds. name labels the report, usually the file name.
func Describe(name string, ds *dataset.Dataset, opt Options) (*Report, error) {
	rep := &Report{Name: name, Key: ds.KeyColumn(), Rows: ds.Len()}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	for i := 0; i < ds.Len() && i < sampleRows; i++ {
		vals := ds.Row(i).Values()
		row := make([]string, len(vals))
		for j, v := range vals {
			row[j] = v.String()
		}
		rep.Samples = append(rep.Samples, row)
	}

	var numCols []string
	for _, c := range ds.Columns() {
		vals, err := ds.Values(c.Name)
		if err != nil {
			return nil, err
		}
		s := summarize(c, vals, opt)
		if c.Type == dataset.Number {
			numCols = append(numCols, c.Name)
		}
		if c.Type == dataset.Text && s.Unique == s.NonNull && s.NonNull > 1 && c.Name != ds.KeyColumn() {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s has a distinct value per row; it may be better suited as the key", c.Name))
		}
		rep.Cols = append(rep.Cols, s)
	}

	for _, g := range opt.GroupBy {
		groups, err := groupSummaries(ds, strings.TrimSpace(g), numCols)
		if err != nil {
			return nil, err
		}
		rep.Groups = append(rep.Groups, groups...)
	}

	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(ds, numCols)
	}
	return rep, nil
}

func summarize(c dataset.Column, vals []dataset.Value, opt Options) ColumnSummary {
	_, unit := splitUnits(c.Name)
	s := ColumnSummary{Name: c.Name, Kind: c.Type.String(), Unit: unit}
	cats := map[string]int{}
	var xs []float64
	for _, v := range vals {
		if v.IsNull() {
			s.Missing++
			continue
		}
		s.NonNull++
		cats[v.String()]++
		switch c.Type {
		case dataset.Number:
			d, _ := v.Number()
			xs = append(xs, d.InexactFloat64())
		case dataset.Boolean:
			if b, _ := v.Bool(); b {
				s.TrueCount++
			}
		case dataset.Date:
			str := v.String()
			if s.First == "" || str < s.First {
				s.First = str
			}
			if str > s.Last {
				s.Last = str
			}
		}
	}
	s.Unique = len(cats)

	switch c.Type {
	case dataset.Number:
		if len(xs) == 0 {
			break
		}
		// Welford
		s.Min, s.Max = math.Inf(1), math.Inf(-1)
		var mean, m2 float64
		for i, x := range xs {
			s.Min = math.Min(s.Min, x)
			s.Max = math.Max(s.Max, x)
			delta := x - mean
			mean += delta / float64(i+1)
			m2 += delta * (x - mean)
		}
		s.Mean = mean
		if len(xs) > 1 {
			s.Std = math.Sqrt(m2 / float64(len(xs)-1))
		}
		if opt.Outliers && len(xs) >= 8 {
			s.OutlierThreshold = opt.OutlierThreshold
			if s.OutlierThreshold <= 0 {
				s.OutlierThreshold = 3.5
			}
			median, mad := medianMAD(xs)
			if mad > 0 {
				for _, x := range xs {
					az := math.Abs(0.6745 * (x - median) / mad)
					if az > s.OutlierThreshold {
						s.OutliersCount++
					}
					s.OutliersMaxAbsZ = math.Max(s.OutliersMaxAbsZ, az)
				}
			}
		}
	case dataset.Text:
		tops := make([]CategoryCount, 0, len(cats))
		for k, v := range cats {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
	}
	return s
}

func floats(vals []dataset.Value) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if d, ok := v.Number(); ok {
			out[i] = d.InexactFloat64()
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func groupSummaries(ds *dataset.Dataset, column string, numCols []string) ([]GroupResult, error) {
	groups, err := ds.GroupBy(column)
	if err != nil {
		return nil, err
	}
	out := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		gr := GroupResult{Column: column, Key: g.Value.String(), Size: g.Dataset.Len(), Metrics: map[string]NumSummary{}}
		if g.Value.IsNull() {
			gr.Key = "(empty)"
		}
		for _, name := range numCols {
			if name == column {
				continue
			}
			vals, _ := g.Dataset.Values(name)
			var m NumSummary
			var sum float64
			for _, v := range vals {
				d, ok := v.Number()
				if !ok {
					continue
				}
				x := d.InexactFloat64()
				if m.Count == 0 || x < m.Min {
					m.Min = x
				}
				if m.Count == 0 || x > m.Max {
					m.Max = x
				}
				sum += x
				m.Count++
			}
			if m.Count == 0 {
				continue
			}
			m.Mean = sum / float64(m.Count)
			gr.Metrics[name] = m
		}
		out = append(out, gr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

// correlations computes pairwise Pearson r over rows where both values are present.
func correlations(ds *dataset.Dataset, numCols []string) *CorrMatrix {
	series := make([][]float64, len(numCols))
	for i, name := range numCols {
		vals, _ := ds.Values(name)
		series[i] = floats(vals)
	}
	n := len(numCols)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(series[a], series[b])
			mat[a][b], mat[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: numCols, Values: mat}
}

func pearson(xs, ys []float64) float64 {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for i := range xs {
		x, y := xs[i], ys[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		n++
		sumX += x
		sumY += y
		sumXX += x * x
		sumYY += y * y
		sumXY += x * y
	}
	if n < 2 {
		return 0
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 || math.IsNaN(denom) {
		return 0
	}
	r := (n*sumXY - sumX*sumY) / denom
	return math.Max(-1, math.Min(1, r))
}

// Markdown renders a compact report suitable for a terminal or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Key != "" {
		b.WriteString(fmt.Sprintf("Key: %s\n", r.Key))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			clean, _ := splitUnits(c.Name)
			name = fmt.Sprintf("%s [%s]", clean, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "number":
			if c.NonNull == 0 {
				break
			}
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "text":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "boolean":
			b.WriteString(fmt.Sprintf(": true %d, false %d", c.TrueCount, c.NonNull-c.TrueCount))
		case "date":
			if c.First != "" {
				b.WriteString(fmt.Sprintf(": %s to %s", c.First, c.Last))
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s=%s (n=%d)\n", g.Column, safeVal(g.Key), g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Share (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Income [SEK]
	{regexp.MustCompile(`^(.*?)[_\s-]+(%|SEK|EUR|USD|km2|ppm)$`), 2},
}

// splitUnits separates a trailing unit annotation from a column name.
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
