package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/robowriter/internal/project"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects in projects_dir",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := defaultProjectsDir()
		if err != nil {
			return err
		}
		dirs, err := os.ReadDir(root)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		found := false
		for _, e := range dirs {
			if !e.IsDir() {
				continue
			}
			dir := filepath.Join(root, e.Name())
			if _, err := os.Stat(filepath.Join(dir, project.FileName)); err != nil {
				continue
			}
			found = true
			p, err := project.LoadProject(dir)
			if err != nil {
				fmt.Fprintf(out, "- %s (invalid: %v)\n", e.Name(), err)
				continue
			}
			line := "- " + e.Name()
			if p.Description != "" {
				line += ": " + p.Description
			}
			fmt.Fprintf(out, "%s (%d computed columns)\n", line, len(p.DataSource.ComputedColumns))
		}
		if !found {
			fmt.Fprintln(out, "(no projects)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
