package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiagoalmeida/spimisearch/internal/config"
	"github.com/tiagoalmeida/spimisearch/pkg/retrieval"
)

func TestOpenMissingIndexIsNotFound(t *testing.T) {
	_, err := retrieval.Open(t.TempDir())
	require.Error(t, err)
}

func TestLoaderDocIDSetMatchesPostings(t *testing.T) {
	indexDir := buildTinyIndex(t, config.DefaultRankingConfig())
	loader, err := retrieval.Open(indexDir)
	require.NoError(t, err)

	bm, err := loader.DocIDSet("cat")
	require.NoError(t, err)
	require.Equal(t, uint64(2), bm.GetCardinality())
	require.True(t, bm.Contains(1))
	require.True(t, bm.Contains(2))

	bm2, err := loader.DocIDSet("bird")
	require.NoError(t, err)
	require.Equal(t, uint64(1), bm2.GetCardinality())
	require.True(t, bm2.Contains(2))
}

func TestLoaderDocIDSetUnknownTermIsEmpty(t *testing.T) {
	indexDir := buildTinyIndex(t, config.DefaultRankingConfig())
	loader, err := retrieval.Open(indexDir)
	require.NoError(t, err)

	bm, err := loader.DocIDSet("zzzznotaterm")
	require.NoError(t, err)
	require.Equal(t, uint64(0), bm.GetCardinality())
}
