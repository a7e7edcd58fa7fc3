package retrieval_test

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiagoalmeida/spimisearch/internal/config"
	"github.com/tiagoalmeida/spimisearch/pkg/retrieval"
	"github.com/tiagoalmeida/spimisearch/pkg/spimi"
	"github.com/tiagoalmeida/spimisearch/pkg/tokenize"
)

func writeTinyCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.jsonl.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	lines := []string{
		`{"pmid": 1, "title": "cat dog", "abstract": "cat"}`,
		`{"pmid": 2, "title": "dog", "abstract": "bird cat"}`,
	}
	for _, l := range lines {
		_, err := gz.Write([]byte(l + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func buildTinyIndex(t *testing.T, ranking config.RankingConfig) string {
	t.Helper()
	corpusPath := writeTinyCorpus(t)
	indexDir := t.TempDir()

	opts := spimi.BuildOptions{
		CollectionPath: corpusPath,
		IndexDir:       indexDir,
		Tokenizer:      config.DefaultTokenizerConfig(),
		Ranking:        ranking,
	}
	opts.Tokenizer.StopwordsPath = ""
	opts.Tokenizer.MinLength = 0

	_, err := spimi.Build(opts)
	require.NoError(t, err)
	return indexDir
}

// TestSearchBoostsTighterProximity runs "cat dog" with top_k=2; both
// documents match all terms so both get boosted, and doc 1 (window=1) must
// score no lower than doc 2 (window=2) before tie-breaking.
func TestSearchBoostsTighterProximity(t *testing.T) {
	indexDir := buildTinyIndex(t, config.DefaultRankingConfig())

	loader, err := retrieval.Open(indexDir)
	require.NoError(t, err)

	tok, err := tokenize.New(loader.TokenizerConfig())
	require.NoError(t, err)

	results, err := retrieval.Search(loader, tok, "cat dog", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[int64]float64{}
	for _, r := range results {
		byID[r.DocID] = r.Score
	}
	require.GreaterOrEqual(t, byID[1], byID[2])
}

func TestSearchDropsOutOfVocabularyTerms(t *testing.T) {
	indexDir := buildTinyIndex(t, config.DefaultRankingConfig())
	loader, err := retrieval.Open(indexDir)
	require.NoError(t, err)
	tok, err := tokenize.New(loader.TokenizerConfig())
	require.NoError(t, err)

	results, err := retrieval.Search(loader, tok, "cat zzzznotaterm", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestSearchNoMatchingTermsReturnsEmpty(t *testing.T) {
	indexDir := buildTinyIndex(t, config.DefaultRankingConfig())
	loader, err := retrieval.Open(indexDir)
	require.NoError(t, err)
	tok, err := tokenize.New(loader.TokenizerConfig())
	require.NoError(t, err)

	results, err := retrieval.Search(loader, tok, "zzzznotaterm", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchTieBreaksByAscendingDocID(t *testing.T) {
	indexDir := buildTinyIndex(t, config.DefaultRankingConfig())
	loader, err := retrieval.Open(indexDir)
	require.NoError(t, err)
	tok, err := tokenize.New(loader.TokenizerConfig())
	require.NoError(t, err)

	results, err := retrieval.Search(loader, tok, "cat", 10)
	require.NoError(t, err)
	for i := 1; i < len(results); i++ {
		if results[i-1].Score == results[i].Score {
			require.Less(t, results[i-1].DocID, results[i].DocID)
		}
	}
}

func TestSearchBM25Schema(t *testing.T) {
	ranking := config.RankingConfig{Schema: "bm25", K1: 1.2, B: 0.75}
	indexDir := buildTinyIndex(t, ranking)
	loader, err := retrieval.Open(indexDir)
	require.NoError(t, err)
	tok, err := tokenize.New(loader.TokenizerConfig())
	require.NoError(t, err)

	results, err := retrieval.Search(loader, tok, "cat dog", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
}
