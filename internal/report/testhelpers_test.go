package report

import "github.com/sells-group/emission-rollup/internal/model"

// family builds an aggregate with the same arithmetic the rollup uses.
func family(id string, success, inProgress, failure, unknown int) model.FamilyAggregate {
	counts := map[model.OutcomeClass]int{}
	for o, n := range map[model.OutcomeClass]int{
		model.OutcomeSuccess:    success,
		model.OutcomeInProgress: inProgress,
		model.OutcomeFailure:    failure,
		model.OutcomeUnknown:    unknown,
	} {
		if n > 0 {
			counts[o] = n
		}
	}
	total := success + inProgress + failure + unknown
	active := total - failure
	f := model.FamilyAggregate{
		FamilyID:        id,
		TotalRecords:    total,
		CountsByOutcome: counts,
		ActiveTotal:     active,
		Completed:       active > 0 && success == active,
	}
	if active > 0 {
		f.CompletionPercent = 100 * float64(success) / float64(active)
	}
	return f
}

func families(fs ...model.FamilyAggregate) map[string]model.FamilyAggregate {
	out := make(map[string]model.FamilyAggregate, len(fs))
	for _, f := range fs {
		out[f.FamilyID] = f
	}
	return out
}
