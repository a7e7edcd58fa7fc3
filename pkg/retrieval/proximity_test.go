package retrieval_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiagoalmeida/spimisearch/pkg/retrieval"
)

func TestMinWindowAdjacentTerms(t *testing.T) {
	// "cat dog" adjacent: cat@0, dog@1 -> window 1.
	w, ok := retrieval.MinWindow(map[string][]int{
		"cat": {0},
		"dog": {1},
	})
	require.True(t, ok)
	require.Equal(t, 1, w)
}

func TestMinWindowPicksSmallestAmongMultipleOccurrences(t *testing.T) {
	w, ok := retrieval.MinWindow(map[string][]int{
		"cat": {0, 10},
		"dog": {1, 11},
	})
	require.True(t, ok)
	require.Equal(t, 1, w)
}

func TestMinWindowEmpty(t *testing.T) {
	_, ok := retrieval.MinWindow(map[string][]int{})
	require.False(t, ok)
}

func TestMinWindowThreeTerms(t *testing.T) {
	w, ok := retrieval.MinWindow(map[string][]int{
		"a": {0, 20},
		"b": {5, 21},
		"c": {30, 22},
	})
	require.True(t, ok)
	// best window among {a:20,b:21,c:22} is 22-20=2.
	require.Equal(t, 2, w)
}

func TestBoostStaysWithinBounds(t *testing.T) {
	for w := 0; w < 50; w++ {
		for k := 1; k < 10; k++ {
			b := retrieval.Boost(w, k)
			require.GreaterOrEqual(t, b, 1.0)
			require.LessOrEqual(t, b, 2.0)
		}
	}
}

func TestBoostExactWindowIsMax(t *testing.T) {
	require.Equal(t, 2.0, retrieval.Boost(3, 3))
}

func TestBoostDecaysWithWindow(t *testing.T) {
	small := retrieval.Boost(2, 5)
	large := retrieval.Boost(20, 5)
	require.Greater(t, small, large)
	require.True(t, math.Abs(large-1.0) < 1e-6 || large > 1.0)
}
