package report

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sells-group/emission-rollup/internal/model"
)

// Table is a string grid ready for any serializer.
type Table struct {
	Header []string
	Rows   [][]string
}

func pct(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func itoa(n int) string { return strconv.Itoa(n) }

// FamilyTable lists families in id order with their bucket label.
func FamilyTable(aggs map[string]model.FamilyAggregate, buckets map[string]string) Table {
	t := Table{Header: []string{
		"family", "cards", "requesters", "active",
		"success", "in_progress", "failure", "unknown",
		"percent", "completed", "bucket",
	}}
	for _, id := range sortedIDs(aggs) {
		f := aggs[id]
		bucket := buckets[id]
		if bucket == "" {
			bucket = NoBucket
		}
		t.Rows = append(t.Rows, []string{
			f.FamilyID,
			itoa(f.TotalRecords),
			itoa(f.DistinctRequesters),
			itoa(f.ActiveTotal),
			itoa(f.Count(model.OutcomeSuccess)),
			itoa(f.Count(model.OutcomeInProgress)),
			itoa(f.Count(model.OutcomeFailure)),
			itoa(f.Count(model.OutcomeUnknown)),
			pct(f.CompletionPercent),
			strconv.FormatBool(f.Completed),
			bucket,
		})
	}
	return t
}

// SummaryTable renders Summarize rows. The unknown column reads "folded"
// when UNKNOWN was merged into in_progress.
func SummaryTable(dimension string, rows []SummaryRow) Table {
	t := Table{Header: []string{
		dimension, "families", "completed", "cards", "active",
		"success", "in_progress", "failure", "unknown", "percent",
	}}
	for _, r := range rows {
		unknown := itoa(r.Unknown)
		if r.UnknownFolded {
			unknown = "folded"
		}
		t.Rows = append(t.Rows, []string{
			r.Key,
			itoa(r.Families),
			itoa(r.CompletedFamilies),
			itoa(r.Records),
			itoa(r.Active),
			itoa(r.Success),
			itoa(r.InProgress),
			itoa(r.Failure),
			unknown,
			pct(r.CompletionPercent),
		})
	}
	return t
}

// BucketTable renders BucketCounts.
func BucketTable(counts []BucketCount) Table {
	t := Table{Header: []string{"bucket", "families"}}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{c.Label, itoa(c.Families)})
	}
	return t
}

// FunnelTable renders a StageFunnel.
func FunnelTable(funnel []StageCount) Table {
	t := Table{Header: []string{"stage", "cards", "families"}}
	for _, s := range funnel {
		t.Rows = append(t.Rows, []string{s.Stage, itoa(s.Records), itoa(s.Families)})
	}
	return t
}

// Render writes t to w as a box-drawn terminal table.
func Render(w io.Writer, t Table) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(toRow(t.Header))
	for _, r := range t.Rows {
		tw.AppendRow(toRow(r))
	}
	tw.Render()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
