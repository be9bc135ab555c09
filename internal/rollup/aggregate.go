package rollup

import (
	"sort"

	"github.com/sells-group/emission-rollup/internal/model"
)

// Accumulator collects normalized records into per-family partial counts.
// Accumulators built over disjoint or overlapping record sets can be merged;
// merging is associative and commutative per family.
//
// An Accumulator is not safe for concurrent use; give each goroutine its own
// and Merge at the end.
type Accumulator struct {
	families map[string]*familyAcc
}

type familyAcc struct {
	total      int
	byOutcome  map[model.OutcomeClass]int
	byStage    map[string]int
	requesters map[string]struct{}
	pipelines  map[string]struct{}
	assignees  map[string]struct{}
	desks      map[string]struct{}
}

func newFamilyAcc() *familyAcc {
	return &familyAcc{
		byOutcome:  make(map[model.OutcomeClass]int),
		byStage:    make(map[string]int),
		requesters: make(map[string]struct{}),
		pipelines:  make(map[string]struct{}),
		assignees:  make(map[string]struct{}),
		desks:      make(map[string]struct{}),
	}
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{families: make(map[string]*familyAcc)}
}

// Add folds one record into its family's partial counts.
func (a *Accumulator) Add(r model.NormalizedRecord) {
	fa, ok := a.families[r.FamilyID]
	if !ok {
		fa = newFamilyAcc()
		a.families[r.FamilyID] = fa
	}
	fa.total++
	fa.byOutcome[r.Outcome]++
	fa.byStage[r.CanonicalStage]++
	if r.RequesterID != "" && r.RequesterID != model.UnknownRequester {
		fa.requesters[r.RequesterID] = struct{}{}
	}
	addNonEmpty(fa.pipelines, r.PipelineID)
	addNonEmpty(fa.assignees, r.Assignee)
	addNonEmpty(fa.desks, r.Desk)
}

// Merge folds other into a. other is left unchanged.
func (a *Accumulator) Merge(other *Accumulator) {
	for id, src := range other.families {
		dst, ok := a.families[id]
		if !ok {
			dst = newFamilyAcc()
			a.families[id] = dst
		}
		dst.total += src.total
		for k, v := range src.byOutcome {
			dst.byOutcome[k] += v
		}
		for k, v := range src.byStage {
			dst.byStage[k] += v
		}
		union(dst.requesters, src.requesters)
		union(dst.pipelines, src.pipelines)
		union(dst.assignees, src.assignees)
		union(dst.desks, src.desks)
	}
}

// Len returns the number of families seen.
func (a *Accumulator) Len() int {
	return len(a.families)
}

// Result computes the final aggregates. Families with no records never
// appear.
func (a *Accumulator) Result() map[string]model.FamilyAggregate {
	out := make(map[string]model.FamilyAggregate, len(a.families))
	for id, fa := range a.families {
		if fa.total == 0 {
			continue
		}
		out[id] = fa.finalize(id)
	}
	return out
}

func (fa *familyAcc) finalize(id string) model.FamilyAggregate {
	byOutcome := make(map[model.OutcomeClass]int, len(fa.byOutcome))
	for k, v := range fa.byOutcome {
		if v > 0 {
			byOutcome[k] = v
		}
	}
	byStage := make(map[string]int, len(fa.byStage))
	for k, v := range fa.byStage {
		byStage[k] = v
	}

	// FAILURE cards (dismissed, cancelled, duplicate, no data) leave the
	// denominator entirely. IN_PROGRESS and UNKNOWN stay in it.
	success := byOutcome[model.OutcomeSuccess]
	active := fa.total - byOutcome[model.OutcomeFailure]

	agg := model.FamilyAggregate{
		FamilyID:               id,
		TotalRecords:           fa.total,
		CountsByOutcome:        byOutcome,
		CountsByCanonicalStage: byStage,
		DistinctRequesters:     len(fa.requesters),
		ActiveTotal:            active,
		Completed:              active > 0 && success == active,
		Pipelines:              sortedSet(fa.pipelines),
		Assignees:              sortedSet(fa.assignees),
		Desks:                  sortedSet(fa.desks),
	}
	if active > 0 {
		agg.CompletionPercent = 100 * float64(success) / float64(active)
	}
	return agg
}

// Aggregate groups records by family and computes each family's rollup.
func Aggregate(records []model.NormalizedRecord) map[string]model.FamilyAggregate {
	acc := NewAccumulator()
	for _, r := range records {
		acc.Add(r)
	}
	return acc.Result()
}

// SortedIDs returns the family ids of aggs in ascending order.
func SortedIDs(aggs map[string]model.FamilyAggregate) []string {
	ids := make([]string, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func union(dst, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
