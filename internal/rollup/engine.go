package rollup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/emission-rollup/internal/catalog"
	"github.com/sells-group/emission-rollup/internal/model"
)

// Engine runs the full normalize-then-aggregate pipeline over one record
// snapshot. It holds no per-call state.
type Engine struct {
	Catalog    *catalog.Catalog
	Normalizer Normalizer
	// Shards > 1 aggregates families in parallel.
	Shards int
}

// Result is the output of one Engine run.
type Result struct {
	CatalogVersion string                           `json:"catalog_version"`
	Records        int                              `json:"records"`
	Families       map[string]model.FamilyAggregate `json:"families"`
	Diagnostics    model.Diagnostics                `json:"diagnostics"`
}

// NewEngine returns an Engine over cat.
func NewEngine(cat *catalog.Catalog, shards int) *Engine {
	return &Engine{
		Catalog:    cat,
		Normalizer: NewNormalizer(cat),
		Shards:     shards,
	}
}

// Run normalizes and aggregates records. The only error from the data itself
// is *model.MissingStageError.
func (e *Engine) Run(ctx context.Context, records []model.Record) (*Result, error) {
	diags := CatalogDiagnostics(e.Catalog)

	normalized, warns, err := e.Normalizer.NormalizeAll(records)
	diags = append(diags, warns...)
	if err != nil {
		return nil, err
	}

	families, err := AggregateParallel(ctx, normalized, e.Shards)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, f := range families {
		if f.Completed {
			completed++
		}
	}
	counts := diags.CountByKind()
	zap.L().Info("rollup: aggregated families",
		zap.String("catalog_version", e.Catalog.Version()),
		zap.Int("records", len(records)),
		zap.Int("families", len(families)),
		zap.Int("completed", completed),
		zap.Int("unresolved_stages", counts[model.WarnUnresolvedStage]),
		zap.Int("warnings", len(diags)),
	)
	for _, w := range diags {
		zap.L().Debug("rollup: diagnostic", zap.String("warning", w.String()))
	}

	return &Result{
		CatalogVersion: e.Catalog.Version(),
		Records:        len(records),
		Families:       families,
		Diagnostics:    diags,
	}, nil
}

// CatalogDiagnostics reports every conflicting local code in cat as a
// catalog_conflict warning.
func CatalogDiagnostics(cat *catalog.Catalog) model.Diagnostics {
	var out model.Diagnostics
	for _, c := range cat.Conflicts() {
		prefixes := make([]string, 0, len(c.ByPrefix))
		for p := range c.ByPrefix {
			prefixes = append(prefixes, p)
		}
		sort.Strings(prefixes)
		parts := make([]string, len(prefixes))
		for i, p := range prefixes {
			parts[i] = fmt.Sprintf("%s=%s", p, c.ByPrefix[p])
		}
		out = append(out, model.Warning{
			Kind:   model.WarnCatalogConflict,
			Detail: fmt.Sprintf("local code %s maps to different stages: %s", c.LocalCode, strings.Join(parts, ", ")),
		})
	}
	return out
}
