// Package rollup turns raw CRM cards into per-family completion aggregates:
// stage resolution, outcome classification, record normalization and
// family rollup. Everything here is pure and safe for concurrent use.
package rollup

import (
	"github.com/sells-group/emission-rollup/internal/catalog"
	"github.com/sells-group/emission-rollup/internal/model"
)

// Resolver maps raw stage codes to canonical stages using a catalog.
type Resolver struct {
	cat *catalog.Catalog
}

// NewResolver returns a Resolver backed by cat.
func NewResolver(cat *catalog.Catalog) Resolver {
	return Resolver{cat: cat}
}

// Resolve maps a raw stage code to its canonical stage. First match wins:
//  1. the full code in the table;
//  2. the local code after the pipeline separator in the same table;
//  3. the local code verbatim (or the raw code when it has no separator),
//     reported as model.ResolvedNone.
//
// Resolve never fails.
func (r Resolver) Resolve(code string) (string, model.ResolvedBy) {
	code = catalog.Normalize(code)
	if name, ok := r.cat.Lookup(code); ok {
		return name, model.ResolvedExact
	}
	_, local, hasPrefix := catalog.SplitCode(code)
	if hasPrefix {
		if name, ok := r.cat.Lookup(local); ok {
			return name, model.ResolvedLocal
		}
	}
	return local, model.ResolvedNone
}
