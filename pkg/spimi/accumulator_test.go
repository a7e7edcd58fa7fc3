package spimi_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiagoalmeida/spimisearch/pkg/spimi"
)

func occs(terms ...string) []spimi.Occurrence {
	out := make([]spimi.Occurrence, len(terms))
	for i, t := range terms {
		out[i] = spimi.Occurrence{Term: t, Position: i}
	}
	return out
}

func TestAccumulatorTFIDFNormPerDocument(t *testing.T) {
	acc := spimi.New("tfidf")
	acc.AddDocument(1, occs("cat", "dog", "cat"))

	var sumSquares float64
	for _, term := range []string{"cat", "dog"} {
		p := acc.Postings(term)[1]
		require.NotNil(t, p)
		sumSquares += p.Weight * p.Weight
	}
	require.InDelta(t, 1.0, sumSquares, 1e-9)
}

func TestAccumulatorBM25LeavesRawTF(t *testing.T) {
	acc := spimi.New("bm25")
	acc.AddDocument(1, occs("cat", "dog", "cat"))

	require.Equal(t, float64(2), acc.Postings("cat")[1].Weight)
	require.Equal(t, float64(1), acc.Postings("dog")[1].Weight)
}

func TestAccumulatorPositionsPreserved(t *testing.T) {
	acc := spimi.New("bm25")
	acc.AddDocument(1, occs("a", "b", "a"))
	require.Equal(t, []int{0, 2}, acc.Postings("a")[1].Positions)
	require.Equal(t, []int{1}, acc.Postings("b")[1].Positions)
}

func TestAccumulatorResetClearsState(t *testing.T) {
	acc := spimi.New("bm25")
	acc.AddDocument(1, occs("a", "b"))
	require.False(t, acc.Empty())
	acc.Reset()
	require.True(t, acc.Empty())
	require.Equal(t, int64(0), acc.EstimatedBytes())
	require.Equal(t, 0, acc.DocumentsSinceSpill())
}

func TestAccumulatorEstimatedBytesGrows(t *testing.T) {
	acc := spimi.New("bm25")
	before := acc.EstimatedBytes()
	acc.AddDocument(1, occs("alpha", "beta", "gamma"))
	require.Greater(t, acc.EstimatedBytes(), before)
}

func TestAccumulatorZeroWeightEdgeCaseDoesNotPanic(t *testing.T) {
	// A document with a single distinct term: l = 1 + log10(1) = 1, norm = 1.
	acc := spimi.New("tfidf")
	acc.AddDocument(1, occs("solo"))
	w := acc.Postings("solo")[1].Weight
	require.True(t, math.Abs(w-1) < 1e-9)
}
