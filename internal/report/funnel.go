package report

import (
	"sort"

	"github.com/sells-group/emission-rollup/internal/model"
)

// StageCount is the number of cards, and of families holding at least one
// card, in a canonical stage.
type StageCount struct {
	Stage    string `json:"stage"`
	Records  int    `json:"records"`
	Families int    `json:"families"`
}

// StageFunnel totals cards per canonical stage across all families, ordered
// by record count descending and then stage name.
func StageFunnel(aggs map[string]model.FamilyAggregate) []StageCount {
	byStage := make(map[string]*StageCount)
	for _, f := range aggs {
		for stage, n := range f.CountsByCanonicalStage {
			if n == 0 {
				continue
			}
			sc, ok := byStage[stage]
			if !ok {
				sc = &StageCount{Stage: stage}
				byStage[stage] = sc
			}
			sc.Records += n
			sc.Families++
		}
	}
	out := make([]StageCount, 0, len(byStage))
	for _, sc := range byStage {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Records != out[j].Records {
			return out[i].Records > out[j].Records
		}
		return out[i].Stage < out[j].Stage
	})
	return out
}
