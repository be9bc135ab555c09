package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/emission-rollup/internal/model"
)

// LoadOptions configures LoadRecords.
type LoadOptions struct {
	Columns ColumnMap
	CSV     CSVOptions
	XLSX    XLSXOptions
}

// Timestamp layouts seen in CRM exports, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// LoadRecords reads a CSV or XLSX export, chosen by file extension, and
// maps each data row to a record. The first row is the header. A missing
// stage column leaves StageCode nil on every record, which the normalizer
// rejects; a present but empty cell yields an empty code.
func LoadRecords(ctx context.Context, path string, opts LoadOptions) ([]model.Record, error) {
	rows, err := readRows(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return RowsToRecords(rows, opts.Columns)
}

func readRows(ctx context.Context, path string, opts LoadOptions) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return ReadXLSX(path, opts.XLSX)
	case ".csv", ".txt", ".tsv":
		csvOpts := opts.CSV
		if ext == ".tsv" && csvOpts.Delimiter == 0 {
			csvOpts.Delimiter = '\t'
		}
		return readCSVFile(ctx, path, csvOpts)
	default:
		return nil, eris.Errorf("fetcher: unsupported export format %q", ext)
	}
}

func readCSVFile(ctx context.Context, path string, opts CSVOptions) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(ctx, f, opts)
}

// RowsToRecords maps a header row plus data rows to records. Blank rows,
// including any above the header, are skipped.
func RowsToRecords(rows [][]string, cols ColumnMap) ([]model.Record, error) {
	rows = skipLeadingBlank(rows)
	if len(rows) == 0 {
		return nil, eris.New("fetcher: export has no header row")
	}
	idx := cols.withDefaults().index(rows[0])
	if idx.familyID < 0 {
		zap.L().Warn("fetcher: family column not found, every card gets the unknown family")
	}
	if idx.stageCode < 0 {
		zap.L().Warn("fetcher: stage column not found")
	}

	out := make([]model.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		r := model.Record{
			RecordID:    cell(row, idx.recordID),
			FamilyID:    cell(row, idx.familyID),
			RequesterID: cell(row, idx.requesterID),
			PipelineID:  cell(row, idx.pipelineID),
			Assignee:    cell(row, idx.assignee),
			Desk:        cell(row, idx.desk),
		}
		if idx.stageCode >= 0 {
			r.StageCode = model.Stage(cell(row, idx.stageCode))
		}
		if raw := cell(row, idx.createdAt); raw != "" {
			ts, ok := parseTime(raw)
			if !ok {
				zap.L().Debug("fetcher: unparseable created_at",
					zap.Int("row", i+2), zap.String("value", raw))
			}
			r.CreatedAt = ts
		}
		out = append(out, r)
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// skipLeadingBlank drops empty rows before the header. Spreadsheet exports
// often start with a blank or title-less row.
func skipLeadingBlank(rows [][]string) [][]string {
	for len(rows) > 0 && blankRow(rows[0]) {
		rows = rows[1:]
	}
	return rows
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
