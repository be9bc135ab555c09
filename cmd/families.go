package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/emission-rollup/internal/model"
	"github.com/sells-group/emission-rollup/internal/report"
	"github.com/sells-group/emission-rollup/internal/rollup"
)

var (
	familiesSnapshot   string
	familiesIncomplete bool
	familiesJSON       bool
)

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "List per-family completion",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, "report")
		if err != nil {
			return err
		}
		defer e.Close()

		ranges, err := report.ParseRanges(cfg.Report.Ranges)
		if err != nil {
			return err
		}

		res, err := e.Analyzer.Run(ctx, familiesSnapshot)
		if err != nil {
			return err
		}

		families := res.Families
		if familiesIncomplete {
			families = make(map[string]model.FamilyAggregate, len(res.Families))
			for id, f := range res.Families {
				if !f.Completed {
					families[id] = f
				}
			}
		}

		out := cmd.OutOrStdout()
		if familiesJSON {
			list := make([]model.FamilyAggregate, 0, len(families))
			for _, id := range rollup.SortedIDs(families) {
				list = append(list, families[id])
			}
			return printJSON(out, list)
		}
		report.Render(out, report.FamilyTable(families, report.Bucketize(families, ranges)))
		return nil
	},
}

func init() {
	familiesCmd.Flags().StringVar(&familiesSnapshot, "snapshot", "", "snapshot id (default: latest)")
	familiesCmd.Flags().BoolVar(&familiesIncomplete, "incomplete", false, "only families not yet fully concluded")
	familiesCmd.Flags().BoolVar(&familiesJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(familiesCmd)
}
