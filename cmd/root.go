package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/robowriter/internal/config"
	"github.com/KaramelBytes/robowriter/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "robowriter",
	Short: "RoboWriter: turn a table of data into one written report per row",
	Long: `RoboWriter reads a dataset (CSV, TSV or XLSX), derives computed columns such as
growth flags and rankings within comparison groups, and renders a text template
once per row into HTML or Markdown documents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.robowriter/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	level, format := "info", "console"
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	} else {
		cfg = c
		level, format = c.LogLevel, c.LogFormat
	}
	if debug {
		level = "debug"
	}
	if err := logging.Setup(os.Stderr, level, format); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
}

// outputFormat returns the configured default document format.
func outputFormat() string {
	if cfg != nil && cfg.OutputFormat != "" {
		return cfg.OutputFormat
	}
	return "html"
}

// configWorkers returns the configured render parallelism.
func configWorkers() int {
	if cfg != nil && cfg.RenderWorkers > 0 {
		return cfg.RenderWorkers
	}
	return 4
}
