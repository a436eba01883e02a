package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/KaramelBytes/robowriter/internal/render"
	"github.com/KaramelBytes/robowriter/internal/robowriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	renderFormat  string
	renderWorkers int
	renderDryRun  bool
	renderList    bool
)

var renderCmd = &cobra.Command{
	Use:   "render [project]",
	Short: "Render one document per dataset row into the project's output folder",
	Example: `  robowriter render unemployment
  robowriter render ./unemployment --format md --workers 8
  robowriter render unemployment --dry-run --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Flags bound to package vars keep their value between invocations in
		// the same process; reset the ones not given in this run.
		provided := map[string]bool{}
		cmd.Flags().Visit(func(fl *pflag.Flag) { provided[fl.Name] = true })
		if !provided["format"] {
			renderFormat = ""
		}
		if !provided["workers"] {
			renderWorkers = 0
		}
		if !provided["dry-run"] {
			renderDryRun = false
		}
		if !provided["list"] {
			renderList = false
		}

		p, err := loadProject(args)
		if err != nil {
			return err
		}
		opt := render.Options{
			Format:  renderFormat,
			Workers: renderWorkers,
			DryRun:  renderDryRun,
		}
		if opt.Format == "" {
			opt.Format = p.Format(outputFormat())
		}
		if opt.Workers <= 0 {
			opt.Workers = configWorkers()
		}

		w, err := robowriter.New(p)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		m, err := w.Render(ctx, opt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if opt.DryRun || renderList {
			words := 0
			for _, f := range m.Files {
				words += f.Words
				if renderList {
					fmt.Fprintf(out, "- %s (%d words)\n", f.Path, f.Words)
				}
			}
			if opt.DryRun {
				fmt.Fprintf(out, "✓ Dry run: %d documents (%d words) would be written to %s\n", len(m.Files), words, p.OutputDir())
				return nil
			}
		}
		fmt.Fprintf(out, "✓ Rendered %d documents to %s (run %s)\n", len(m.Files), p.OutputDir(), m.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderFormat, "format", "", "output format: html|md (default: project, then config)")
	renderCmd.Flags().IntVar(&renderWorkers, "workers", 0, "parallel render workers (default: render_workers from config)")
	renderCmd.Flags().BoolVar(&renderDryRun, "dry-run", false, "render everything but write nothing")
	renderCmd.Flags().BoolVar(&renderList, "list", false, "list each document with its word count")
}
