package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/robowriter/internal/utils"
)

const sampleData = `municipality,county,neighbours,y2012,y2013,y2014,change2013,change2014
Solna,Stockholm,"Sundbyberg,Danderyd",5.1,5.4,5.2,0.3,-0.2
Sundbyberg,Stockholm,Solna,6.0,6.3,6.5,0.3,0.2
Danderyd,Stockholm,Solna,3.2,3.1,3.0,-0.1,-0.1
Lund,Skåne,Malmö,6.2,6.5,6.9,0.3,0.4
Malmö,Skåne,Lund,11.8,12.4,12.1,0.6,-0.3
`

const sampleTemplate = `# Unemployment in {{.Key}}

Unemployment in {{.Key}} was {{round .Row.y2014 1}} percent in 2014,
{{if is .Row.is_growing}}up{{else}}down{{end}} {{abs .Row.change2014}} points from the year before.
The trend has held for {{.Row.consecutive_development}} year(s).

{{.Key}} ranks {{.Row.change2014_rank_in_county}} in {{.Row.county}} on the change in unemployment.

## Other municipalities in {{.Row.county}}
{{range sortby (index .ComparisonTables "county") "y2014" true}}
- {{.Key}}: {{round (get . "y2014") 1}} percent
{{- end}}
`

// Scaffold creates a new project folder under dir with a sample dataset,
// template and project.yaml. It refuses to overwrite an existing project.
func Scaffold(name, description, dir string) (*Project, error) {
	if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
		return nil, fmt.Errorf("project already exists at %s", dir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat project: %w", err)
	}
	if err := utils.EnsureProjectDir(filepath.Join(dir, OutputDirName)); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}

	p := NewProject(name, description, dir)
	p.DataSource = DataSource{
		File:              "data.csv",
		Delimiter:         ",",
		Key:               "municipality",
		CompareCategories: []string{"county"},
		ComputedColumns: []ComputedColumn{
			{Name: "is_growing", Kind: KindIsGrowing, Column: "change2014"},
			{Name: "consecutive_development", Kind: KindConsecutiveDevelopment, Columns: []string{"change2013", "change2014"}},
			{Name: "change2014_rank_in_county", Kind: KindGroupRank, RankBy: "change2014", GroupBy: "county"},
			{Name: "change2014_rank_among_neighbours", Kind: KindGroupPercentileRank, RankBy: "change2014", ComparisonColumn: "neighbours", Reverse: true},
		},
	}

	files := map[string]string{
		p.DataSource.File: sampleData,
		p.Template:        sampleTemplate,
	}
	for rel, content := range files {
		if err := utils.SafeWriteFile(filepath.Join(dir, rel), []byte(content)); err != nil {
			return nil, fmt.Errorf("write %s: %w", rel, err)
		}
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return p, nil
}
