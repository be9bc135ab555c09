package report

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/emission-rollup/internal/model"
)

// Unassigned is the group key for families with no value on a dimension.
const Unassigned = "(sem valor)"

// DimensionFunc extracts a grouping key from a family aggregate.
type DimensionFunc func(model.FamilyAggregate) string

// UnknownPolicy decides how UNKNOWN cards appear in summary rows. The
// family aggregates themselves are never changed.
type UnknownPolicy string

const (
	// UnknownSeparate reports UNKNOWN in its own column.
	UnknownSeparate UnknownPolicy = "separate"
	// UnknownFold adds UNKNOWN to IN_PROGRESS and marks the row.
	UnknownFold UnknownPolicy = "fold"
)

// ParseUnknownPolicy accepts "separate" (or "") and "fold".
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnknownSeparate:
		return UnknownSeparate, nil
	case UnknownFold:
		return UnknownFold, nil
	}
	return "", eris.Errorf("report: unknown policy %q (want separate or fold)", s)
}

// SummaryRow is one group of a Summarize result.
type SummaryRow struct {
	Key               string   `json:"key"`
	Families          int      `json:"families"`
	CompletedFamilies int      `json:"completed_families"`
	Records           int      `json:"records"`
	Active            int      `json:"active"`
	Success           int      `json:"success"`
	InProgress        int      `json:"in_progress"`
	Failure           int      `json:"failure"`
	Unknown           int      `json:"unknown"`
	UnknownFolded     bool     `json:"unknown_folded"`
	CompletionPercent float64  `json:"completion_percent"`
	FamilyIDs         []string `json:"family_ids"`
}

// FamilyCompletionPercent is the share of families in the row that are
// fully concluded.
func (r SummaryRow) FamilyCompletionPercent() float64 {
	if r.Families == 0 {
		return 0
	}
	return 100 * float64(r.CompletedFamilies) / float64(r.Families)
}

// Summarize groups aggregates by dim. Families are stable-sorted by key and
// then family id before grouping, so rows and their FamilyIDs are
// deterministic.
func Summarize(aggs map[string]model.FamilyAggregate, dim DimensionFunc, policy UnknownPolicy) []SummaryRow {
	type keyed struct {
		key string
		agg model.FamilyAggregate
	}
	items := make([]keyed, 0, len(aggs))
	for _, f := range aggs {
		key := dim(f)
		if key == "" {
			key = Unassigned
		}
		items = append(items, keyed{key: key, agg: f})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].key != items[j].key {
			return items[i].key < items[j].key
		}
		return items[i].agg.FamilyID < items[j].agg.FamilyID
	})

	var rows []SummaryRow
	for _, it := range items {
		if len(rows) == 0 || rows[len(rows)-1].Key != it.key {
			rows = append(rows, SummaryRow{Key: it.key})
		}
		row := &rows[len(rows)-1]
		f := it.agg
		row.Families++
		if f.Completed {
			row.CompletedFamilies++
		}
		row.Records += f.TotalRecords
		row.Active += f.ActiveTotal
		row.Success += f.Count(model.OutcomeSuccess)
		row.InProgress += f.Count(model.OutcomeInProgress)
		row.Failure += f.Count(model.OutcomeFailure)
		row.Unknown += f.Count(model.OutcomeUnknown)
		row.FamilyIDs = append(row.FamilyIDs, f.FamilyID)
	}

	folded := 0
	for i := range rows {
		row := &rows[i]
		if policy == UnknownFold {
			folded += row.Unknown
			row.InProgress += row.Unknown
			row.Unknown = 0
			row.UnknownFolded = true
		}
		if row.Active > 0 {
			row.CompletionPercent = 100 * float64(row.Success) / float64(row.Active)
		}
	}
	if folded > 0 {
		zap.L().Info("report: folded UNKNOWN cards into IN_PROGRESS", zap.Int("cards", folded))
	}
	return rows
}

// ByLookup groups by an external family attribute such as desk or
// consultant. Families missing from m get fallback.
func ByLookup(m map[string]string, fallback string) DimensionFunc {
	return func(f model.FamilyAggregate) string {
		if v, ok := m[f.FamilyID]; ok && v != "" {
			return v
		}
		return fallback
	}
}

// ByPrimaryPipeline groups by the family's first pipeline.
func ByPrimaryPipeline(f model.FamilyAggregate) string {
	return f.PrimaryPipeline()
}

// ByAssignee groups by the family's assignees, joined when there are
// several.
func ByAssignee(f model.FamilyAggregate) string {
	return strings.Join(f.Assignees, ", ")
}

// ByDesk groups by the family's desks (mesas), joined when there are
// several.
func ByDesk(f model.FamilyAggregate) string {
	return strings.Join(f.Desks, ", ")
}

// ByCompletion groups families into "concluída" and "pendente".
func ByCompletion(f model.FamilyAggregate) string {
	if f.Completed {
		return "concluída"
	}
	return "pendente"
}

// Dimension returns the named built-in dimension.
func Dimension(name string) (DimensionFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pipeline":
		return ByPrimaryPipeline, nil
	case "assignee", "consultant":
		return ByAssignee, nil
	case "desk", "mesa":
		return ByDesk, nil
	case "completion":
		return ByCompletion, nil
	}
	return nil, eris.Errorf("report: unknown dimension %q", name)
}
