package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/robowriter/internal/utils"
)

// FileName is the configuration file at the root of every project folder.
const FileName = utils.ProjectFileName

// OutputDirName is the folder rendered documents are written to.
const OutputDirName = "output"

// Project is a RoboWriter project persisted as project.yaml.
type Project struct {
	ID           string     `yaml:"id,omitempty"`
	Name         string     `yaml:"name" validate:"required"`
	Description  string     `yaml:"description,omitempty"`
	Template     string     `yaml:"template" validate:"required"`
	OutputFormat string     `yaml:"output_format,omitempty" validate:"omitempty,oneof=html md"`
	DataSource   DataSource `yaml:"data_source"`
	CreatedAt    time.Time  `yaml:"created_at,omitempty"`
	UpdatedAt    time.Time  `yaml:"updated_at,omitempty"`

	// Not serialized: directory holding project.yaml
	rootDir string
}

// DataSource describes the input table and the columns derived from it.
type DataSource struct {
	File              string            `yaml:"file" validate:"required"`
	Sheet             string            `yaml:"sheet,omitempty"`
	Delimiter         string            `yaml:"delimiter,omitempty" validate:"omitempty,separator"`
	Decimal           string            `yaml:"decimal,omitempty" validate:"omitempty,separator"`
	Thousands         string            `yaml:"thousands,omitempty" validate:"omitempty,separator"`
	Key               string            `yaml:"key" validate:"required"`
	ColumnTypes       map[string]string `yaml:"column_types,omitempty" validate:"dive,keys,required,endkeys,coltype"`
	CompareCategories []string          `yaml:"compare_categories,omitempty" validate:"dive,required"`
	ComputedColumns   []ComputedColumn  `yaml:"computed_columns,omitempty" validate:"dive"`
}

// Computed column kinds.
const (
	KindFormula                = "formula"
	KindIsGrowing              = "is_growing"
	KindConsecutiveDevelopment = "consecutive_development"
	KindGroupRank              = "group_rank"
	KindGroupPercentileRank    = "group_percentile_rank"
)

// ComputedColumn is one derived column. Which fields apply depends on Kind.
type ComputedColumn struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind" validate:"required,oneof=formula is_growing consecutive_development group_rank group_percentile_rank"`

	// formula
	Type    string   `yaml:"type,omitempty" validate:"omitempty,coltype"`
	Formula string   `yaml:"formula,omitempty" validate:"required_if=Kind formula"`
	Imports []string `yaml:"imports,omitempty"`

	// is_growing / consecutive_development
	Column  string   `yaml:"column,omitempty" validate:"required_if=Kind is_growing"`
	Columns []string `yaml:"columns,omitempty" validate:"required_if=Kind consecutive_development"`

	// group_rank / group_percentile_rank
	Key              string `yaml:"key,omitempty"`
	RankBy           string `yaml:"rank_by,omitempty" validate:"required_if=Kind group_rank,required_if=Kind group_percentile_rank"`
	GroupBy          string `yaml:"group_by,omitempty"`
	ComparisonColumn string `yaml:"comparison_column,omitempty"`
	Reverse          bool   `yaml:"reverse,omitempty"`
}

// IsComparison reports whether c ranks rows against a comparison set.
func (c ComputedColumn) IsComparison() bool {
	return c.Kind == KindGroupRank || c.Kind == KindGroupPercentileRank
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	now := time.Now()
	return &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Template:    "template.md",
		DataSource:  DataSource{File: "data.csv"},
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// LoadProject loads and validates project.yaml from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	p.rootDir = dir
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// Save validates p and writes project.yaml using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := utils.EnsureProjectDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, FileName), data)
}

// DataPath returns the absolute path of the input table.
func (p *Project) DataPath() string { return p.resolve(p.DataSource.File) }

// TemplatePath returns the absolute path of the report template.
func (p *Project) TemplatePath() string { return p.resolve(p.Template) }

// OutputDir returns the folder rendered documents are written to.
func (p *Project) OutputDir() string { return filepath.Join(p.rootDir, OutputDirName) }

// Format returns the project's output format, or fallback when unset.
func (p *Project) Format(fallback string) string {
	if p.OutputFormat != "" {
		return p.OutputFormat
	}
	return fallback
}

func (p *Project) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.rootDir, name)
}
