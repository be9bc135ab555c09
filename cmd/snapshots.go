package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/emission-rollup/internal/report"
)

var snapshotsLimit int

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List imported snapshots, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, "report")
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := e.Store.ListSnapshots(ctx, snapshotsLimit)
		if err != nil {
			return err
		}

		t := report.Table{Header: []string{"id", "source", "cards", "imported"}}
		for _, s := range list {
			t.Rows = append(t.Rows, []string{s.ID, s.Source, strconv.Itoa(s.RecordCount), s.CreatedAt.Format(time.RFC3339)})
		}
		report.Render(cmd.OutOrStdout(), t)
		return nil
	},
}

func init() {
	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 20, "maximum snapshots to list")
	rootCmd.AddCommand(snapshotsCmd)
}
