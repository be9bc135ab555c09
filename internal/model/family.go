package model

// FamilyAggregate is the per-family rollup of normalized records. It is
// derived data, recomputed for every query.
type FamilyAggregate struct {
	FamilyID               string               `json:"family_id"`
	TotalRecords           int                  `json:"total_records"`
	CountsByOutcome        map[OutcomeClass]int `json:"counts_by_outcome"`
	CountsByCanonicalStage map[string]int       `json:"counts_by_canonical_stage"`
	DistinctRequesters     int                  `json:"distinct_requesters"`
	ActiveTotal            int                  `json:"active_total"`
	Completed              bool                 `json:"completed_flag"`
	CompletionPercent      float64              `json:"completion_percent"`

	// Sorted distinct host attributes seen on the family's cards.
	Pipelines []string `json:"pipelines,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	Desks     []string `json:"desks,omitempty"`
}

// Count returns the number of records with the given outcome.
func (f FamilyAggregate) Count(o OutcomeClass) int {
	return f.CountsByOutcome[o]
}

// PrimaryPipeline returns the first pipeline in sort order, or "" when none.
func (f FamilyAggregate) PrimaryPipeline() string {
	if len(f.Pipelines) == 0 {
		return ""
	}
	return f.Pipelines[0]
}
