// Package render fills a report template once per dataset row and writes
// the results to an output folder.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/robowriter/internal/dataset"
	"github.com/KaramelBytes/robowriter/internal/utils"
)

// Output formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "md"
)

// ManifestName is the file listing every document of a run.
const ManifestName = "manifest.json"

// Context is the data a template sees for one row.
type Context struct {
	Key string
	// Row maps column names to the row's values.
	Row map[string]dataset.Value
	// Record is the same row as a dataset.Row.
	Record dataset.Row
	// Dataset is the full enriched dataset.
	Dataset *dataset.Dataset
	// ComparisonTables maps each comparison category to the rows sharing
	// this row's value in that category.
	ComparisonTables map[string]*dataset.Dataset
}

// NewContext builds the template context for row.
func NewContext(row dataset.Row, ds *dataset.Dataset, tables map[string]*dataset.Dataset) Context {
	values := make(map[string]dataset.Value, len(ds.Columns()))
	for _, name := range ds.ColumnNames() {
		v, _ := row.Lookup(name)
		values[name] = v
	}
	if tables == nil {
		tables = map[string]*dataset.Dataset{}
	}
	return Context{Key: row.Key(), Row: values, Record: row, Dataset: ds, ComparisonTables: tables}
}

// Options controls a render run.
type Options struct {
	// Format is FormatHTML or FormatMarkdown.
	Format string
	// Workers bounds parallel rendering; values below 1 mean 1.
	Workers int
	// DryRun renders everything but writes nothing.
	DryRun bool
}

// Manifest records one render run.
type Manifest struct {
	RunID     string         `json:"run_id"`
	CreatedAt time.Time      `json:"created_at"`
	Format    string         `json:"format"`
	Template  string         `json:"template"`
	Files     []ManifestFile `json:"files"`
}

// ManifestFile describes one written document.
type ManifestFile struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Words int    `json:"words"`
}

// Renderer executes one parsed template.
type Renderer struct {
	name     string
	tmpl     *template.Template
	markdown bool
	md       goldmark.Markdown
}

// NewRenderer parses the template at path. Templates ending in .md or
// .markdown are treated as Markdown and converted when HTML is requested.
func NewRenderer(path string) (*Renderer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Parse(filepath.Base(path), string(b))
}

// Parse compiles template text. name decides whether it is Markdown.
func Parse(name, text string) (*Renderer, error) {
	tmpl, err := template.New(name).Funcs(FuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(name))
	return &Renderer{
		name:     name,
		tmpl:     tmpl,
		markdown: ext == ".md" || ext == ".markdown",
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Text executes the template for one row.
func (r *Renderer) Text(c Context) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render %q: %w", c.Key, err)
	}
	return buf.String(), nil
}

// Document renders one row in format. Markdown templates become HTML when
// format is FormatHTML; everything else is written as rendered.
func (r *Renderer) Document(c Context, format string) (string, []byte, error) {
	text, err := r.Text(c)
	if err != nil {
		return "", nil, err
	}
	if format != FormatHTML || !r.markdown {
		return text, []byte(text), nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", nil, fmt.Errorf("convert %q to html: %w", c.Key, err)
	}
	return text, buf.Bytes(), nil
}

// RenderAll renders every context into outDir, one file per key, and writes
// manifest.json. Rendering stops at the first error or when ctx is canceled.
func (r *Renderer) RenderAll(ctx context.Context, items []Context, outDir string, opt Options) (*Manifest, error) {
	switch opt.Format {
	case FormatHTML, FormatMarkdown:
	default:
		return nil, fmt.Errorf("unknown output format %q", opt.Format)
	}
	workers := opt.Workers
	if workers < 1 {
		workers = 1
	}

	files := make([]ManifestFile, len(items))
	owner := make(map[string]string, len(items))
	for i, c := range items {
		name := utils.SanitizeFileName(c.Key) + "." + opt.Format
		if prev, dup := owner[name]; dup {
			return nil, fmt.Errorf("keys %q and %q both map to %s", prev, c.Key, name)
		}
		owner[name] = c.Key
		files[i] = ManifestFile{Key: c.Key, Path: name}
	}
	if !opt.DryRun {
		if err := utils.EnsureProjectDir(outDir); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, out, err := r.Document(items[i], opt.Format)
			if err != nil {
				return err
			}
			files[i].Words = utils.CountWords(text)
			if opt.DryRun {
				return nil
			}
			log.Debug().Str("key", items[i].Key).Str("file", files[i].Path).Msg("write document")
			return utils.SafeWriteFile(filepath.Join(outDir, files[i].Path), out)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Format:    opt.Format,
		Template:  r.name,
		Files:     files,
	}
	if opt.DryRun {
		return m, nil
	}
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(filepath.Join(outDir, ManifestName), data); err != nil {
		return nil, err
	}
	return m, nil
}
