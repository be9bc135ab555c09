package fetcher

import (
	"context"

	"github.com/rotisserie/eris"
)

// LoadLookup reads a two-column sheet (key, value) such as family id to
// desk. The first row is a header. Later duplicates overwrite earlier ones.
func LoadLookup(ctx context.Context, path string, opts LoadOptions) (map[string]string, error) {
	rows, err := readRows(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	rows = skipLeadingBlank(rows)
	if len(rows) == 0 {
		return nil, eris.Errorf("fetcher: lookup %s has no header row", path)
	}
	out := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		key, val := cell(row, 0), cell(row, 1)
		if key == "" {
			continue
		}
		out[key] = val
	}
	return out, nil
}
