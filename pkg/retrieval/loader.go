// Package retrieval implements the searcher side of the engine: the index
// loader, term-at-a-time ranker with proximity boost, and
// evaluation metrics.
package retrieval

import (
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tiagoalmeida/spimisearch/internal/config"
	"github.com/tiagoalmeida/spimisearch/internal/errs"
	"github.com/tiagoalmeida/spimisearch/pkg/spimi"
)

// Loader maps terms to (df, partition_id) and opens postings partitions
// lazily, keeping them decoded in memory for the remainder of the process
// once first touched.
type Loader struct {
	indexDir   string
	vocab      map[string]spimi.VocabEntry
	n          int64
	tokenizer  config.TokenizerConfig
	ranking    config.RankingConfig
	partitions map[int]map[string]spimi.PartitionRecord
	docSets    map[string]*roaring.Bitmap
}

// Open loads the vocabulary, document count, and persisted configuration
// from indexDir. A missing or incomplete index (no vocabulary file) is a
// NotFound error.
func Open(indexDir string) (*Loader, error) {
	vocabPath := filepath.Join(indexDir, "vocabulary")
	if _, err := os.Stat(vocabPath); err != nil {
		return nil, errs.Wrap(errs.NotFound, indexDir, err)
	}

	entries, err := spimi.ReadVocabulary(vocabPath)
	if err != nil {
		return nil, err
	}
	n, err := spimi.ReadDocumentCount(filepath.Join(indexDir, "document_count"))
	if err != nil {
		return nil, err
	}
	tokCfg, err := config.LoadTokenizerConfig(filepath.Join(indexDir, "tokenizer_config"))
	if err != nil {
		return nil, err
	}
	rankCfg, err := config.LoadRankingConfig(filepath.Join(indexDir, "ranking_config"))
	if err != nil {
		return nil, err
	}

	vocab := make(map[string]spimi.VocabEntry, len(entries))
	for _, e := range entries {
		vocab[e.Term] = e
	}

	return &Loader{
		indexDir:   indexDir,
		vocab:      vocab,
		n:          n,
		tokenizer:  tokCfg,
		ranking:    rankCfg,
		partitions: make(map[int]map[string]spimi.PartitionRecord),
		docSets:    make(map[string]*roaring.Bitmap),
	}, nil
}

// N returns the corpus document count.
func (l *Loader) N() int64 { return l.n }

// TokenizerConfig returns the tokenizer configuration the index was built
// with, so the searcher tokenizes queries identically to the indexer.
func (l *Loader) TokenizerConfig() config.TokenizerConfig { return l.tokenizer }

// RankingConfig returns the persisted ranking configuration.
func (l *Loader) RankingConfig() config.RankingConfig { return l.ranking }

// Lookup returns the vocabulary entry for term, if present.
func (l *Loader) Lookup(term string) (spimi.VocabEntry, bool) {
	e, ok := l.vocab[term]
	return e, ok
}

// Postings returns term's full postings record, opening (and caching) its
// partition on first access.
func (l *Loader) Postings(term string) (spimi.PartitionRecord, bool, error) {
	entry, ok := l.vocab[term]
	if !ok {
		return spimi.PartitionRecord{}, false, nil
	}

	byTerm, ok := l.partitions[entry.PartitionID]
	if !ok {
		path := spimi.PartitionPath(l.indexDir, entry.PartitionID)
		records, err := spimi.ReadPartitionFile(path)
		if err != nil {
			return spimi.PartitionRecord{}, false, err
		}
		byTerm = make(map[string]spimi.PartitionRecord, len(records))
		for _, r := range records {
			byTerm[r.Term] = r
		}
		l.partitions[entry.PartitionID] = byTerm
	}

	rec, ok := byTerm[term]
	return rec, ok, nil
}

// DocIDSet returns term's posting doc-ids as a roaring bitmap, building and
// caching it on first access. High-df terms (stopword-adjacent medical terms
// like "patient" or "treatment" routinely survive stopping) produce postings
// lists long enough that set intersection for multi-term candidate
// generation benefits from a compressed representation rather than a plain
// slice scan.
func (l *Loader) DocIDSet(term string) (*roaring.Bitmap, error) {
	if bm, ok := l.docSets[term]; ok {
		return bm, nil
	}

	rec, ok, err := l.Postings(term)
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	if ok {
		for _, p := range rec.Postings {
			bm.Add(uint32(p.DocID))
		}
	}
	l.docSets[term] = bm
	return bm, nil
}
