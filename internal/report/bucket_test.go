package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/emission-rollup/internal/model"
	"github.com/sells-group/emission-rollup/internal/rollup"
)

func TestBucketize_HalfDoneFamilyIsNotFull(t *testing.T) {
	records := []model.NormalizedRecord{
		{FamilyID: "F2", RequesterID: "R1", Outcome: model.OutcomeSuccess},
		{FamilyID: "F2", RequesterID: "R2", Outcome: model.OutcomeInProgress},
	}
	aggs := rollup.Aggregate(records)
	ranges, err := ParseRanges([]string{"0-49", "50-99", "100"})
	require.NoError(t, err)

	got := Bucketize(aggs, ranges)
	assert.Equal(t, "50-99", got["F2"])
}

func TestBucketize_Scenarios(t *testing.T) {
	aggs := families(
		family("F1", 2, 0, 1, 0),
		family("F2", 1, 1, 0, 0),
		family("F3", 0, 0, 2, 0),
		family("F4", 1, 0, 0, 3),
	)
	got := Bucketize(aggs, DefaultRanges())
	assert.Equal(t, map[string]string{
		"F1": "100",
		"F2": "50-99",
		"F3": "0-49",
		"F4": "0-49",
	}, got)
}

func TestBucketize_FirstMatchWinsAndNoBucket(t *testing.T) {
	aggs := families(
		family("F1", 1, 1, 0, 0),
		family("F2", 3, 0, 0, 0),
	)
	ranges, err := ParseRanges([]string{"40-60", "50"})
	require.NoError(t, err)

	got := Bucketize(aggs, ranges)
	assert.Equal(t, "40-60", got["F1"])
	assert.Equal(t, NoBucket, got["F2"])

	counts := BucketCounts(got, ranges)
	assert.Equal(t, []BucketCount{
		{Label: "40-60", Families: 1},
		{Label: "50", Families: 0},
		{Label: NoBucket, Families: 1},
	}, counts)
}

func TestBucketCounts_OmitsEmptyNoBucket(t *testing.T) {
	ranges := DefaultRanges()
	counts := BucketCounts(Bucketize(families(family("F1", 1, 0, 0, 0)), ranges), ranges)
	require.Len(t, counts, 3)
	assert.Equal(t, 1, counts[2].Families)
}
