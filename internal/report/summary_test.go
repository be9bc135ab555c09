package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/emission-rollup/internal/model"
)

func TestSummarize_ByPipeline(t *testing.T) {
	a := family("A", 2, 0, 1, 0)
	a.Pipelines = []string{"16"}
	b := family("B", 1, 1, 0, 0)
	b.Pipelines = []string{"16", "34"}
	c := family("C", 0, 1, 0, 1)
	c.Pipelines = []string{"34"}
	d := family("D", 0, 0, 1, 0)

	rows := Summarize(families(a, b, c, d), ByPrimaryPipeline, UnknownSeparate)
	require.Len(t, rows, 3)

	assert.Equal(t, Unassigned, rows[0].Key)
	assert.Equal(t, []string{"D"}, rows[0].FamilyIDs)

	r16 := rows[1]
	assert.Equal(t, "16", r16.Key)
	assert.Equal(t, 2, r16.Families)
	assert.Equal(t, 1, r16.CompletedFamilies)
	assert.Equal(t, 5, r16.Records)
	assert.Equal(t, 4, r16.Active)
	assert.Equal(t, 3, r16.Success)
	assert.Equal(t, 1, r16.InProgress)
	assert.Equal(t, 1, r16.Failure)
	assert.Equal(t, 75.0, r16.CompletionPercent)
	assert.Equal(t, 50.0, r16.FamilyCompletionPercent())
	assert.Equal(t, []string{"A", "B"}, r16.FamilyIDs)

	r34 := rows[2]
	assert.Equal(t, 1, r34.Unknown)
	assert.False(t, r34.UnknownFolded)
}

func TestSummarize_FoldUnknown(t *testing.T) {
	aggs := families(family("A", 1, 1, 0, 2))

	separate := Summarize(aggs, ByCompletion, UnknownSeparate)
	folded := Summarize(aggs, ByCompletion, UnknownFold)
	require.Len(t, separate, 1)
	require.Len(t, folded, 1)

	assert.Equal(t, 2, separate[0].Unknown)
	assert.Equal(t, 1, separate[0].InProgress)

	assert.Equal(t, 0, folded[0].Unknown)
	assert.Equal(t, 3, folded[0].InProgress)
	assert.True(t, folded[0].UnknownFolded)
	assert.Equal(t, separate[0].CompletionPercent, folded[0].CompletionPercent)

	// The aggregate itself is untouched.
	assert.Equal(t, 2, aggs["A"].Count(model.OutcomeUnknown))
}

func TestSummarize_ByLookup(t *testing.T) {
	aggs := families(family("A", 1, 0, 0, 0), family("B", 0, 1, 0, 0), family("C", 1, 0, 0, 0))
	dim := ByLookup(map[string]string{"A": "Mesa 1", "C": "Mesa 1"}, "sem mesa")

	rows := Summarize(aggs, dim, UnknownSeparate)
	require.Len(t, rows, 2)
	assert.Equal(t, "Mesa 1", rows[0].Key)
	assert.Equal(t, []string{"A", "C"}, rows[0].FamilyIDs)
	assert.Equal(t, "sem mesa", rows[1].Key)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil, ByDesk, UnknownSeparate))
}

func TestParseUnknownPolicy(t *testing.T) {
	p, err := ParseUnknownPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnknownSeparate, p)

	p, err = ParseUnknownPolicy(" FOLD ")
	require.NoError(t, err)
	assert.Equal(t, UnknownFold, p)

	_, err = ParseUnknownPolicy("hide")
	assert.Error(t, err)
}

func TestDimension(t *testing.T) {
	f := family("A", 1, 0, 0, 0)
	f.Pipelines = []string{"16", "38"}
	f.Assignees = []string{"ana", "bia"}
	f.Desks = []string{"Mesa 2"}

	for name, want := range map[string]string{
		"pipeline":   "16",
		"assignee":   "ana, bia",
		"consultant": "ana, bia",
		"desk":       "Mesa 2",
		"MESA":       "Mesa 2",
		"completion": "concluída",
	} {
		dim, err := Dimension(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, dim(f), name)
	}

	_, err := Dimension("region")
	assert.Error(t, err)
}
