package cmd

import (
	"fmt"

	"github.com/KaramelBytes/robowriter/internal/export"
	"github.com/KaramelBytes/robowriter/internal/robowriter"
	"github.com/spf13/cobra"
)

var enrichOutput string

var enrichCmd = &cobra.Command{
	Use:   "enrich [project]",
	Short: "Compute derived columns and print the enriched table as CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(args)
		if err != nil {
			return err
		}
		w, err := robowriter.New(p)
		if err != nil {
			return err
		}
		ds, err := w.Enrich()
		if err != nil {
			return err
		}
		if enrichOutput == "" {
			return export.WriteCSV(cmd.OutOrStdout(), ds)
		}
		if err := export.WriteFile(enrichOutput, ds, export.FormatCSV); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d rows to %s\n", ds.Len(), enrichOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "write CSV to this file instead of stdout")
}
