package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emission-rollup/internal/fetcher"
)

var (
	importFile     string
	importEncoding string
	importSheet    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CRM card export (CSV or XLSX) as a new snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, "import")
		if err != nil {
			return err
		}
		defer e.Close()

		opts := loadOptions()
		if importEncoding != "" {
			opts.CSV.Encoding = importEncoding
		}
		if importSheet != "" {
			opts.XLSX.SheetName = importSheet
		}

		records, err := fetcher.LoadRecords(ctx, importFile, opts)
		if err != nil {
			return eris.Wrap(err, "import: load export")
		}

		// Fail the import rather than store a snapshot no report can use.
		res, err := e.Analyzer.Engine.Run(ctx, records)
		if err != nil {
			return err
		}

		snap, err := e.Store.SaveSnapshot(ctx, filepath.Base(importFile), records)
		if err != nil {
			return eris.Wrap(err, "import: save snapshot")
		}

		for kind, n := range res.Diagnostics.CountByKind() {
			zap.L().Warn("import: diagnostics", zap.String("kind", string(kind)), zap.Int("count", n))
		}
		zap.L().Info("import complete",
			zap.String("snapshot", snap.ID),
			zap.String("file", importFile),
			zap.Int("records", snap.RecordCount),
			zap.Int("families", len(res.Families)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s: %d cards, %d families\n", snap.ID, snap.RecordCount, len(res.Families))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the CSV or XLSX export (required)")
	importCmd.Flags().StringVar(&importEncoding, "encoding", "", "CSV charset, e.g. windows-1252 (default from config)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX worksheet name (default: first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
