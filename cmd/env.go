package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/emission-rollup/internal/analysis"
	"github.com/sells-group/emission-rollup/internal/catalog"
	"github.com/sells-group/emission-rollup/internal/fetcher"
	"github.com/sells-group/emission-rollup/internal/report"
	"github.com/sells-group/emission-rollup/internal/rollup"
	"github.com/sells-group/emission-rollup/internal/store"
)

// env bundles what the reporting commands share.
type env struct {
	Store    store.Store
	Catalog  *catalog.Catalog
	Analyzer *analysis.Analyzer
}

func (e *env) Close() {
	if e.Store != nil {
		e.Store.Close() //nolint:errcheck
	}
}

func initEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	return &env{
		Store:    st,
		Catalog:  cat,
		Analyzer: analysis.New(st, rollup.NewEngine(cat, cfg.Report.Shards)),
	}, nil
}

func loadOptions() fetcher.LoadOptions {
	c := cfg.Fetcher.Columns
	return fetcher.LoadOptions{
		Columns: fetcher.ColumnMap{
			RecordID:    c.RecordID,
			FamilyID:    c.FamilyID,
			RequesterID: c.RequesterID,
			PipelineID:  c.PipelineID,
			StageCode:   c.StageCode,
			CreatedAt:   c.CreatedAt,
			Assignee:    c.Assignee,
			Desk:        c.Desk,
		},
		CSV: fetcher.CSVOptions{
			Delimiter:  cfg.Fetcher.DelimiterRune(),
			Encoding:   cfg.Fetcher.Encoding,
			LazyQuotes: true,
		},
		XLSX: fetcher.XLSXOptions{SheetName: cfg.Fetcher.Sheet},
	}
}

// loadDesks reads report.desk_file when set.
func loadDesks(ctx context.Context) (map[string]string, error) {
	if cfg.Report.DeskFile == "" {
		return nil, nil
	}
	desks, err := fetcher.LoadLookup(ctx, cfg.Report.DeskFile, loadOptions())
	if err != nil {
		return nil, eris.Wrap(err, "load desk file")
	}
	return desks, nil
}

// dimensionFor resolves a dimension name, preferring the desk sheet for
// the desk dimension.
func dimensionFor(name string, desks map[string]string) (report.DimensionFunc, error) {
	if (name == "desk" || name == "mesa") && len(desks) > 0 {
		return report.ByLookup(desks, report.Unassigned), nil
	}
	return report.Dimension(name)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
