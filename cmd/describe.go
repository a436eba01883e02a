package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/robowriter/internal/analysis"
	"github.com/KaramelBytes/robowriter/internal/robowriter"
	"github.com/KaramelBytes/robowriter/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descOutputPath string
	descSampleRows int
	descGroupBy    []string
	descCorr       bool
	descOutliers   bool
	descOutlierThr float64
	descEnriched   bool
)

var describeCmd = &cobra.Command{
	Use:   "describe [project]",
	Short: "Summarize a project's dataset: schema, statistics, groups",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(args)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if descSampleRows >= 0 {
			opt.SampleRows = descSampleRows
		}
		opt.GroupBy = descGroupBy
		if len(opt.GroupBy) == 0 {
			opt.GroupBy = p.DataSource.CompareCategories
		}
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}

		w, err := robowriter.New(p)
		if err != nil {
			return err
		}
		ds := w.Data()
		if descEnriched {
			if ds, err = w.Enrich(); err != nil {
				return err
			}
		}
		rep, err := analysis.Describe(filepath.Base(p.DataSource.File), ds, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()
		if descOutputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), md)
			return nil
		}
		if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote description to %s\n", descOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the description (Markdown)")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include")
	describeCmd.Flags().StringSliceVar(&descGroupBy, "group-by", nil, "columns to summarize per group (default: compare_categories)")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().BoolVar(&descEnriched, "enriched", false, "describe the dataset after computed columns are added")
}
