package cmd

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/KaramelBytes/robowriter/internal/export"
	"github.com/KaramelBytes/robowriter/internal/robowriter"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [project]",
	Short: "Export the enriched dataset as CSV, Arrow IPC or Parquet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(exportFormat)
		if !slices.Contains(export.Formats, format) {
			return fmt.Errorf("unsupported --format: %s (use %s)", exportFormat, strings.Join(export.Formats, "|"))
		}
		p, err := loadProject(args)
		if err != nil {
			return err
		}
		path := exportOutput
		if path == "" {
			path = filepath.Join(p.OutputDir(), "enriched."+format)
		}
		w, err := robowriter.New(p)
		if err != nil {
			return err
		}
		if err := w.Export(path, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s to %s\n", format, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", export.FormatCSV, "export format: csv|arrow|parquet")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default: <project>/output/enriched.<format>)")
}
