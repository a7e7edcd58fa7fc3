package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiagoalmeida/spimisearch/pkg/retrieval"
)

// TestEvaluateRankedAgainstRelevanceJudgement exercises precision, recall,
// average precision, and F-measure together against a hand-checked ranking.
func TestEvaluateRankedAgainstRelevanceJudgement(t *testing.T) {
	ranked := []int64{1, 3, 2, 4}
	relevant := map[int64]struct{}{2: {}, 3: {}}

	m := retrieval.Evaluate(ranked, relevant, 4)

	require.InDelta(t, 0.5, m.Precision, 1e-9)
	require.InDelta(t, 1.0, m.Recall, 1e-9)
	require.InDelta(t, 0.5833333333, m.AveragePrecision, 1e-6)
	require.InDelta(t, 0.6666666667, m.FMeasure, 1e-6)
}

func TestEvaluateNoRelevantDocs(t *testing.T) {
	m := retrieval.Evaluate([]int64{1, 2, 3}, map[int64]struct{}{}, 3)
	require.Equal(t, 0.0, m.Recall)
	require.Equal(t, 0.0, m.AveragePrecision)
}

func TestEvaluateCutoffSmallerThanRanked(t *testing.T) {
	ranked := []int64{5, 6, 7, 8}
	relevant := map[int64]struct{}{7: {}}
	m := retrieval.Evaluate(ranked, relevant, 2)
	require.Equal(t, 0.0, m.Precision)
	require.Equal(t, 0.0, m.Recall)
}
