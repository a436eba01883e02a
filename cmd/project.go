package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/robowriter/internal/project"
	"github.com/spf13/cobra"
)

var (
	pmProject string
	pmClear   bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Inspect or change per-project settings",
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a project's data source and computed columns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(projectArgs())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "name: %s\n", p.Name)
		if p.Description != "" {
			fmt.Fprintf(out, "description: %s\n", p.Description)
		}
		fmt.Fprintf(out, "dir: %s\n", p.RootDir())
		fmt.Fprintf(out, "data: %s (key %s)\n", p.DataSource.File, p.DataSource.Key)
		fmt.Fprintf(out, "template: %s\n", p.Template)
		fmt.Fprintf(out, "output_format: %s\n", p.Format(outputFormat()))
		if len(p.DataSource.CompareCategories) > 0 {
			fmt.Fprintf(out, "compare_categories: %s\n", strings.Join(p.DataSource.CompareCategories, ", "))
		}
		if len(p.DataSource.ComputedColumns) == 0 {
			fmt.Fprintln(out, "(no computed columns)")
			return nil
		}
		fmt.Fprintln(out, "computed_columns:")
		for _, c := range p.DataSource.ComputedColumns {
			fmt.Fprintf(out, "- %s: %s\n", c.Name, describeColumn(c))
		}
		return nil
	},
}

var projectSetFormatCmd = &cobra.Command{
	Use:   "set-format <html|md>",
	Short: "Set or clear a project's output format",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(projectArgs())
		if err != nil {
			return err
		}
		if pmClear {
			p.OutputFormat = ""
		} else {
			if len(args) == 0 || args[0] == "" {
				return fmt.Errorf("format is required unless --clear is set")
			}
			p.OutputFormat = args[0]
		}
		if err := p.Save(); err != nil {
			return err
		}
		if pmClear {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared output format for %s\n", p.Name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Set output format for %s: %s\n", p.Name, p.OutputFormat)
		}
		return nil
	},
}

func projectArgs() []string {
	if pmProject == "" {
		return nil
	}
	return []string{pmProject}
}

func describeColumn(c project.ComputedColumn) string {
	switch c.Kind {
	case project.KindFormula:
		return fmt.Sprintf("formula -> %s", c.Type)
	case project.KindIsGrowing:
		return fmt.Sprintf("is_growing(%s)", c.Column)
	case project.KindConsecutiveDevelopment:
		return fmt.Sprintf("consecutive_development(%s)", strings.Join(c.Columns, ", "))
	}
	scope := "group_by " + c.GroupBy
	if c.ComparisonColumn != "" {
		scope = "comparison_column " + c.ComparisonColumn
	}
	order := "ascending"
	if c.Reverse {
		order = "descending"
	}
	return fmt.Sprintf("%s of %s by %s, %s", c.Kind, c.RankBy, scope, order)
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectSetFormatCmd)

	projectCmd.PersistentFlags().StringVarP(&pmProject, "project", "p", "", "project name or directory (default: search upward from the working directory)")
	projectSetFormatCmd.Flags().BoolVar(&pmClear, "clear", false, "clear the project's format override")
}
