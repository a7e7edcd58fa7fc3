package collection_test

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiagoalmeida/spimisearch/pkg/collection"
)

func writeGzipLines(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.jsonl.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	for _, l := range lines {
		_, err := gz.Write([]byte(l + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestCorpusReaderReadsDocuments(t *testing.T) {
	path := writeGzipLines(t,
		`{"pmid": 1, "title": "Heart disease", "abstract": "Study of heart disease.", "extra": "ignored"}`,
		`{"pmid": "2", "title": "Cancer", "abstract": "Study of cancer."}`,
	)

	r, err := collection.OpenCorpus(path)
	require.NoError(t, err)
	defer r.Close()

	d1, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, int64(1), d1.PMID)
	require.Equal(t, "Heart disease", d1.Title)

	d2, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, int64(2), d2.PMID)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestCorpusReaderMalformedLineFails(t *testing.T) {
	path := writeGzipLines(t, `{not json}`)
	r, err := collection.OpenCorpus(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.Error(t, err)
}

func TestCorpusReaderMissingPMIDFails(t *testing.T) {
	path := writeGzipLines(t, `{"title": "x", "abstract": "y"}`)
	r, err := collection.OpenCorpus(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.Error(t, err)
}

func TestReadQuestions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.txt")
	content := `{"query_id": "q1", "query_text": "cat dog", "documents_pmid": ["1", "2"]}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	qs, err := collection.ReadQuestions(path)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	require.Equal(t, "q1", qs[0].QueryID)
	require.Equal(t, []string{"1", "2"}, qs[0].DocumentsPMID)
}
