package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"A.", "B."}, splitSentences("A. B."))
	assert.Equal(t, []string{"Risiko!", "Offen?", "Rest"}, splitSentences("Risiko! Offen? Rest"))
	assert.Empty(t, splitSentences("   "))
}

func TestMergeExplanations_FirstOccurrenceWins(t *testing.T) {
	cands := []Candidate{
		{Explanation: "A. B."},
		{Explanation: "B. C."},
		{Explanation: ""},
		{Explanation: "C. A."},
	}
	assert.Equal(t, "A. B. C.", mergeExplanations(cands))
}

func TestLongestTitle_TrimsBeforeComparing(t *testing.T) {
	cands := []Candidate{
		{Title: "   kurz   "},
		{Title: "ein längerer Titel"},
		{Title: ""},
	}
	assert.Equal(t, "ein längerer Titel", longestTitle(cands))
}

func TestWorstStatus_SeverityOrder(t *testing.T) {
	assert.Equal(t, StatusNotImplemented, worstStatus([]Candidate{
		{Status: "Ja"}, {Status: "Nein"}, {Status: "teilweise"},
	}))
	assert.Equal(t, StatusPartial, worstStatus([]Candidate{
		{Status: "Ja"}, {Status: "teilweise"}, {Status: "entbehrlich"},
	}))
	assert.Equal(t, StatusUnknown, worstStatus(nil))
}
