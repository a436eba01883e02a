// Package robowriter runs a project end to end: load the dataset, derive
// computed columns, resolve comparison categories and render one document
// per row.
package robowriter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/robowriter/internal/compute"
	"github.com/KaramelBytes/robowriter/internal/dataset"
	"github.com/KaramelBytes/robowriter/internal/export"
	"github.com/KaramelBytes/robowriter/internal/formula"
	"github.com/KaramelBytes/robowriter/internal/loader"
	"github.com/KaramelBytes/robowriter/internal/project"
	"github.com/KaramelBytes/robowriter/internal/render"
)

// RoboWriter holds one project and its data. Enrich results are cached, so
// a RoboWriter is not safe for concurrent use.
type RoboWriter struct {
	project  *project.Project
	data     *dataset.Dataset
	enriched *dataset.Dataset
	// tables[key][category] is the set of rows sharing key's category value.
	tables map[string]map[string]*dataset.Dataset
}

// New loads the project's dataset.
func New(p *project.Project) (*RoboWriter, error) {
	opt, err := p.DataSource.LoaderOptions()
	if err != nil {
		return nil, err
	}
	ds, err := loader.Load(p.DataPath(), opt)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("project", p.Name).Int("rows", ds.Len()).Int("columns", len(ds.Columns())).Msg("dataset loaded")
	return FromDataset(p, ds), nil
}

// FromDataset wraps an already loaded dataset.
func FromDataset(p *project.Project, ds *dataset.Dataset) *RoboWriter {
	return &RoboWriter{project: p, data: ds}
}

// Project returns the project configuration.
func (w *RoboWriter) Project() *project.Project { return w.project }

// Data returns the dataset as loaded, without computed columns.
func (w *RoboWriter) Data() *dataset.Dataset { return w.data }

// Computations splits the configured columns into the two engine stages:
// single-row columns first, then group comparisons, which may rank any
// column produced by the first stage.
func Computations(cols []project.ComputedColumn) (rows, comparisons []compute.Named, err error) {
	for _, c := range cols {
		comp, err := computation(c)
		if err != nil {
			return nil, nil, fmt.Errorf("computed column %s: %w", c.Name, err)
		}
		n := compute.Named{Name: c.Name, Computation: comp}
		if c.IsComparison() {
			comparisons = append(comparisons, n)
		} else {
			rows = append(rows, n)
		}
	}
	return rows, comparisons, nil
}

func computation(c project.ComputedColumn) (compute.Computation, error) {
	switch c.Kind {
	case project.KindFormula:
		t, err := dataset.ParseType(c.Type)
		if err != nil {
			return nil, err
		}
		return formula.New(c.Formula, t, c.Imports)
	case project.KindIsGrowing:
		return compute.IsGrowing(c.Column), nil
	case project.KindConsecutiveDevelopment:
		return compute.ConsecutiveDevelopment(c.Columns), nil
	case project.KindGroupRank, project.KindGroupPercentileRank:
		opts := compute.GroupOptions{
			Key:              c.Key,
			GroupBy:          c.GroupBy,
			ComparisonColumn: c.ComparisonColumn,
			RankBy:           c.RankBy,
			Reverse:          c.Reverse,
		}
		if c.Kind == project.KindGroupRank {
			return compute.NewGroupRank(opts), nil
		}
		return compute.NewGroupPercentileRank(opts), nil
	}
	return nil, fmt.Errorf("unknown kind %q", c.Kind)
}

// Enrich returns the dataset with every computed column appended in
// configuration order within each stage.
func (w *RoboWriter) Enrich() (*dataset.Dataset, error) {
	if w.enriched != nil {
		return w.enriched, nil
	}
	rows, comparisons, err := Computations(w.project.DataSource.ComputedColumns)
	if err != nil {
		return nil, err
	}
	ds, err := compute.Compute(w.data, rows)
	if err != nil {
		return nil, err
	}
	ds, err = compute.Compute(ds, comparisons)
	if err != nil {
		return nil, err
	}
	tables, err := categoryTables(ds, w.project.DataSource.CompareCategories)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("computed", len(rows)+len(comparisons)).Int("categories", len(w.project.DataSource.CompareCategories)).Msg("dataset enriched")
	w.enriched, w.tables = ds, tables
	return ds, nil
}

// categoryTables maps every key to, per category, the rows sharing its value.
// Rows in the same group share one table.
func categoryTables(ds *dataset.Dataset, categories []string) (map[string]map[string]*dataset.Dataset, error) {
	tables := make(map[string]map[string]*dataset.Dataset, ds.Len())
	for _, k := range ds.Keys() {
		tables[k] = make(map[string]*dataset.Dataset, len(categories))
	}
	for _, cat := range categories {
		groups, err := ds.GroupBy(cat)
		if err != nil {
			return nil, fmt.Errorf("compare category: %w", err)
		}
		for _, g := range groups {
			for _, k := range g.Dataset.Keys() {
				tables[k][cat] = g.Dataset
			}
		}
	}
	return tables, nil
}

// ComparisonTables returns the comparison category tables for key.
func (w *RoboWriter) ComparisonTables(key string) (map[string]*dataset.Dataset, error) {
	if _, err := w.Enrich(); err != nil {
		return nil, err
	}
	t, ok := w.tables[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrKeyNotFound, key)
	}
	return t, nil
}

// Contexts returns one template context per row, in dataset order.
func (w *RoboWriter) Contexts() ([]render.Context, error) {
	ds, err := w.Enrich()
	if err != nil {
		return nil, err
	}
	out := make([]render.Context, 0, ds.Len())
	for _, row := range ds.Rows() {
		out = append(out, render.NewContext(row, ds, w.tables[row.Key()]))
	}
	return out, nil
}

// Render writes one document per row to the project's output folder.
func (w *RoboWriter) Render(ctx context.Context, opt render.Options) (*render.Manifest, error) {
	r, err := render.NewRenderer(w.project.TemplatePath())
	if err != nil {
		return nil, err
	}
	items, err := w.Contexts()
	if err != nil {
		return nil, err
	}
	log.Info().Str("project", w.project.Name).Int("documents", len(items)).Str("format", opt.Format).Msg("rendering")
	return r.RenderAll(ctx, items, w.project.OutputDir(), opt)
}

// Export writes the enriched dataset to path in format.
func (w *RoboWriter) Export(path, format string) error {
	ds, err := w.Enrich()
	if err != nil {
		return err
	}
	return export.WriteFile(path, ds, format)
}
