package spimi_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiagoalmeida/spimisearch/pkg/spimi"
)

// TestBM25ZeroIDFDoesNotCrash covers a term with df == N: idf ==
// log10(N/df) == 0, so its BM25 weight must be exactly zero, not NaN or a
// panic.
func TestBM25ZeroIDFDoesNotCrash(t *testing.T) {
	dir := t.TempDir()
	acc := spimi.New("bm25")
	acc.AddDocument(1, occs("cat", "dog", "cat"))
	acc.AddDocument(2, occs("dog", "bird", "cat"))

	result, err := spimi.Merge(nil, acc, dir, 0)
	require.NoError(t, err)

	docLengths := map[int64]int{1: 3, 2: 3}
	cfg := spimi.BM25Config{
		N:          2,
		AverageDL:  3,
		K1:         1.2,
		B:          0.75,
		DocLengths: docLengths,
	}
	require.NoError(t, spimi.ApplyBM25(dir, result.Vocab, result.PartitionCount, cfg))

	records, err := spimi.ReadPartitionFile(dir + "/postings_0")
	require.NoError(t, err)

	var catWeight float64
	var found bool
	for _, r := range records {
		if r.Term != "cat" {
			continue
		}
		for _, p := range r.Postings {
			if p.DocID == 1 {
				catWeight = p.Weight
				found = true
			}
		}
	}
	require.True(t, found)
	require.InDelta(t, 0.0, catWeight, 1e-9)
}

func TestBM25SecondInvocationIsNoOp(t *testing.T) {
	dir := t.TempDir()
	acc := spimi.New("bm25")
	acc.AddDocument(1, occs("cat", "dog"))
	result, err := spimi.Merge(nil, acc, dir, 0)
	require.NoError(t, err)

	cfg := spimi.BM25Config{N: 1, AverageDL: 2, K1: 1.2, B: 0.75, DocLengths: map[int64]int{1: 2}}
	require.NoError(t, spimi.ApplyBM25(dir, result.Vocab, result.PartitionCount, cfg))

	before, err := spimi.ReadPartitionFile(dir + "/postings_0")
	require.NoError(t, err)

	// Running the pass again with different (wrong) stats must not change
	// anything: the marker file guards against a second, destructive pass.
	badCfg := spimi.BM25Config{N: 99, AverageDL: 99, K1: 9, B: 0.1, DocLengths: map[int64]int{1: 99}}
	require.NoError(t, spimi.ApplyBM25(dir, result.Vocab, result.PartitionCount, badCfg))

	after, err := spimi.ReadPartitionFile(dir + "/postings_0")
	require.NoError(t, err)

	require.Equal(t, before, after)
}
