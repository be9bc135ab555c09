package report

import (
	"sort"

	"github.com/sells-group/emission-rollup/internal/model"
)

// Bucketize labels every family with the first range it matches, or
// NoBucket.
func Bucketize(aggs map[string]model.FamilyAggregate, ranges []PercentRange) map[string]string {
	out := make(map[string]string, len(aggs))
	for id, f := range aggs {
		out[id] = bucketFor(f, ranges)
	}
	return out
}

func bucketFor(f model.FamilyAggregate, ranges []PercentRange) string {
	for _, r := range ranges {
		if r.Match(f) {
			return r.Label
		}
	}
	return NoBucket
}

// BucketCount is the number of families in one bucket.
type BucketCount struct {
	Label    string `json:"label"`
	Families int    `json:"families"`
}

// BucketCounts tallies a Bucketize result in range order. NoBucket is
// appended only when some family matched no range.
func BucketCounts(buckets map[string]string, ranges []PercentRange) []BucketCount {
	tally := make(map[string]int, len(ranges)+1)
	for _, label := range buckets {
		tally[label]++
	}
	out := make([]BucketCount, 0, len(ranges)+1)
	for _, r := range ranges {
		out = append(out, BucketCount{Label: r.Label, Families: tally[r.Label]})
	}
	if n := tally[NoBucket]; n > 0 {
		out = append(out, BucketCount{Label: NoBucket, Families: n})
	}
	return out
}

func sortedIDs(aggs map[string]model.FamilyAggregate) []string {
	ids := make([]string, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
