package analysis

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/robowriter/internal/dataset"
	"github.com/KaramelBytes/robowriter/internal/loader"
)

var rows = [][]string{
	{"r1", "A", "10", "1", "yes", "2024-01-01"},
	{"r2", "A", "11", "2", "no", "2024-01-02"},
	{"r3", "A", "9.5", "3", "no", ""},
	{"r4", "B", "10.5", "4", "yes", "2024-01-04"},
	{"r5", "B", "9.8", "5", "no", "2024-01-05"},
	{"r6", "B", "10.2", "6", "no", "2024-01-06"},
	{"r7", "A", "8.8", "7", "no", "2024-01-07"},
	{"r8", "B", "9.7", "8", "no", "2024-01-08"},
	{"r9", "A", "50", "9", "yes", "2024-01-09"},
	{"r10", "B", "10.1", "", "no", "2024-01-10"},
}

func fixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := loader.Build(&loader.Table{
		Header:  []string{"id", "group", "score", "share (%)", "flag", "day"},
		Records: rows,
	}, loader.Options{Key: "id"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return ds
}

func TestDescribeAndMarkdown(t *testing.T) {
	ds := fixture(t)
	opt := DefaultOptions()
	opt.SampleRows = 3
	opt.GroupBy = []string{"group"}
	opt.Correlations = true

	rep, err := Describe("metrics.csv", ds, opt)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if rep.Rows != 10 || len(rep.Cols) != 6 || len(rep.Samples) != 3 {
		t.Fatalf("unexpected shape: rows=%d cols=%d samples=%d", rep.Rows, len(rep.Cols), len(rep.Samples))
	}
	score := rep.Cols[2]
	if score.Kind != "number" || score.Min != 8.8 || score.Max != 50 {
		t.Fatalf("score summary: %+v", score)
	}
	if score.OutliersCount != 1 {
		t.Fatalf("expected one outlier in score, got %d", score.OutliersCount)
	}
	if rep.Cols[3].Missing != 1 || rep.Cols[3].Unit != "%" {
		t.Fatalf("share summary: %+v", rep.Cols[3])
	}
	if rep.Cols[4].TrueCount != 3 {
		t.Fatalf("flag true count: %d", rep.Cols[4].TrueCount)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: metrics.csv",
		"Key: id",
		"Rows: 10",
		"- score: number (non-null 10, missing 0.0%)",
		"outliers: 1 above |z|>3.5",
		"- share [%]: number",
		"- flag: boolean (non-null 10, missing 0.0%): true 3, false 7",
		"- day: date (non-null 9, missing 10.0%): 2024-01-01 to 2024-01-10",
		"- group: text",
		"A(5), B(5)",
		"[GROUP-BY SUMMARY]",
		"group=A (n=5)",
		"[CORRELATIONS]",
		"score ~ share (%)",
		"[HEAD AND SAMPLE ROWS]",
		"| r1 | A | 10 | 1 | true | 2024-01-01 |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestDescribeWarnsAboutKeyLikeColumns(t *testing.T) {
	ds, err := loader.Build(&loader.Table{
		Header:  []string{"code", "name"},
		Records: [][]string{{"1", "Solna"}, {"2", "Lund"}},
	}, loader.Options{Key: "code"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rep, err := Describe("", ds, DefaultOptions())
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "name has a distinct value per row") {
		t.Fatalf("warnings: %v", rep.Warnings)
	}
}

func TestSplitUnits(t *testing.T) {
	tests := []struct{ in, name, unit string }{
		{"Share (%)", "Share", "%"},
		{"Income [SEK]", "Income", "SEK"},
		{"area_km2", "area", "km2"},
		{"population", "population", ""},
	}
	for _, tt := range tests {
		name, unit := splitUnits(tt.in)
		if name != tt.name || unit != tt.unit {
			t.Errorf("splitUnits(%q) = %q, %q", tt.in, name, unit)
		}
	}
}
