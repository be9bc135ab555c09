package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/emission-rollup/internal/report"
)

var (
	reportSnapshot    string
	reportRanges      []string
	reportDimension   string
	reportFoldUnknown bool
	reportJSON        bool
	reportFunnel      bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print completion buckets and a grouped summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, "report")
		if err != nil {
			return err
		}
		defer e.Close()

		specs := reportRanges
		if len(specs) == 0 {
			specs = cfg.Report.Ranges
		}
		ranges, err := report.ParseRanges(specs)
		if err != nil {
			return err
		}
		policy, err := report.ParseUnknownPolicy(cfg.Report.UnknownPolicy)
		if err != nil {
			return err
		}
		if reportFoldUnknown {
			policy = report.UnknownFold
		}
		desks, err := loadDesks(ctx)
		if err != nil {
			return err
		}
		dim, err := dimensionFor(reportDimension, desks)
		if err != nil {
			return err
		}

		res, err := e.Analyzer.Run(ctx, reportSnapshot)
		if err != nil {
			return err
		}

		buckets := report.Bucketize(res.Families, ranges)
		counts := report.BucketCounts(buckets, ranges)
		rows := report.Summarize(res.Families, dim, policy)

		out := cmd.OutOrStdout()
		if reportJSON {
			return printJSON(out, map[string]any{
				"snapshot":        res.Snapshot,
				"catalog_version": res.CatalogVersion,
				"buckets":         counts,
				"dimension":       reportDimension,
				"unknown_policy":  policy,
				"summary":         rows,
				"stages":          report.StageFunnel(res.Families),
			})
		}

		fmt.Fprintf(out, "snapshot %s (%s), catalog %s\n", res.Snapshot.ID, res.Snapshot.Source, res.CatalogVersion)
		report.Render(out, report.BucketTable(counts))
		report.Render(out, report.SummaryTable(reportDimension, rows))
		if reportFunnel {
			report.Render(out, report.FunnelTable(report.StageFunnel(res.Families)))
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportSnapshot, "snapshot", "", "snapshot id (default: latest)")
	reportCmd.Flags().StringSliceVar(&reportRanges, "ranges", nil, "completion buckets, e.g. 0-49,50-99,100 (default from config)")
	reportCmd.Flags().StringVar(&reportDimension, "dimension", "pipeline", "summary dimension: pipeline, assignee, desk, completion")
	reportCmd.Flags().BoolVar(&reportFoldUnknown, "fold-unknown", false, "count UNKNOWN cards as in progress in the summary")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print JSON instead of tables")
	reportCmd.Flags().BoolVar(&reportFunnel, "funnel", false, "also print cards per canonical stage")
	rootCmd.AddCommand(reportCmd)
}
