package spimi

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tiagoalmeida/spimisearch/internal/config"
	"github.com/tiagoalmeida/spimisearch/internal/errs"
	"github.com/tiagoalmeida/spimisearch/internal/sysmem"
	"github.com/tiagoalmeida/spimisearch/pkg/collection"
	"github.com/tiagoalmeida/spimisearch/pkg/tokenize"
)

// BuildOptions configures one indexing run (the index-build operational
// mode).
type BuildOptions struct {
	CollectionPath         string
	IndexDir               string
	Tokenizer              config.TokenizerConfig
	Ranking                config.RankingConfig
	PostingThreshold       int
	MemoryThresholdSetting uint64 // bytes; 0 means "no user cap, free-RAM only"
}

// IndexStats is the indexing statistics report carried over from the
// indexing run's printed summary.
type IndexStats struct {
	DocumentCount   int64
	VocabularySize  int
	PartitionCount  int
	RunCount        int
	IndexDuration   time.Duration
	MergeDuration   time.Duration
}

const (
	vocabularyFileName = "vocabulary"
	docCountFileName   = "document_count"
	tokenizerCfgName   = "tokenizer_config"
	rankingCfgName     = "ranking_config"
)

// Build runs the full SPIMI pipeline: read documents, tokenize them,
// accumulate postings (normalizing TF-IDF inline when the schema calls for
// it), spill runs under dual thresholds, merge them into partitioned
// postings, and run the BM25 pass if configured.
func Build(opts BuildOptions) (IndexStats, error) {
	var stats IndexStats

	if err := os.MkdirAll(opts.IndexDir, 0o755); err != nil {
		return stats, errs.Wrap(errs.Storage, opts.IndexDir, err)
	}

	tok, err := tokenize.New(opts.Tokenizer)
	if err != nil {
		return stats, err
	}

	reader, err := collection.OpenCorpus(opts.CollectionPath)
	if err != nil {
		return stats, err
	}
	defer reader.Close()

	memoryThreshold := sysmem.MemoryThreshold(opts.MemoryThresholdSetting)
	thresholds := Thresholds{
		PostingThreshold: opts.PostingThreshold,
		MemoryThreshold:  int64(memoryThreshold),
	}

	acc := New(opts.Ranking.Schema)
	docLengths := make(map[int64]int)
	var runPaths []string
	runIndex := 0
	var n int64

	indexStart := time.Now()
	for {
		doc, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}

		occs := tok.Tokenize(doc.Title + " " + doc.Abstract)
		if len(occs) == 0 {
			continue
		}

		spimiOccs := make([]Occurrence, len(occs))
		for i, o := range occs {
			spimiOccs[i] = Occurrence{Term: o.Term, Position: o.Position}
		}

		length := acc.AddDocument(doc.PMID, spimiOccs)
		docLengths[doc.PMID] = length
		n++

		if acc.DocumentsSinceSpill() == 1 && thresholds.MemoryThreshold > 0 &&
			2*acc.EstimatedBytes() > thresholds.MemoryThreshold {
			return stats, errs.New(errs.Resource, fmt.Sprintf("document %d exceeds memory threshold alone", doc.PMID))
		}

		if thresholds.ShouldSpill(acc) {
			path, err := Spill(acc, opts.IndexDir, runIndex)
			if err != nil {
				return stats, err
			}
			runPaths = append(runPaths, path)
			runIndex++
		}
	}
	stats.IndexDuration = time.Since(indexStart)
	stats.DocumentCount = n
	stats.RunCount = len(runPaths)

	if n == 0 {
		return stats, errs.New(errs.InputFormat, opts.CollectionPath+": no documents contributed tokens")
	}

	var avdl float64
	for _, l := range docLengths {
		avdl += float64(l)
	}
	avdl /= float64(n)

	mergeStart := time.Now()
	var vocab []VocabEntry
	var partitionCount int

	if len(runPaths) == 0 {
		// Zero spills means the accumulator is written directly as
		// the sole partition, merging skipped entirely.
		vocab, partitionCount, err = writeSinglePartition(acc, opts.IndexDir)
		if err != nil {
			return stats, err
		}
	} else {
		result, err := Merge(runPaths, acc, opts.IndexDir, int64(memoryThreshold))
		if err != nil {
			return stats, err
		}
		vocab, partitionCount = result.Vocab, result.PartitionCount
		for _, p := range runPaths {
			os.Remove(p)
		}
	}
	stats.MergeDuration = time.Since(mergeStart)
	stats.PartitionCount = partitionCount
	stats.VocabularySize = len(vocab)

	if opts.Ranking.Schema == "bm25" {
		err := ApplyBM25(opts.IndexDir, vocab, partitionCount, BM25Config{
			N:          n,
			AverageDL:  avdl,
			K1:         opts.Ranking.K1,
			B:          opts.Ranking.B,
			DocLengths: docLengths,
		})
		if err != nil {
			return stats, err
		}
	}

	if err := WriteVocabulary(filepath.Join(opts.IndexDir, vocabularyFileName), vocab); err != nil {
		return stats, err
	}
	if err := WriteDocumentCount(filepath.Join(opts.IndexDir, docCountFileName), n); err != nil {
		return stats, err
	}
	if err := config.SaveTokenizerConfig(filepath.Join(opts.IndexDir, tokenizerCfgName), opts.Tokenizer); err != nil {
		return stats, err
	}
	if err := config.SaveRankingConfig(filepath.Join(opts.IndexDir, rankingCfgName), opts.Ranking); err != nil {
		return stats, err
	}

	return stats, nil
}

// writeSinglePartition handles the no-spill fast path: the accumulator's
// own contents become partition 0 directly.
func writeSinglePartition(acc *Accumulator, indexDir string) ([]VocabEntry, int, error) {
	terms := acc.Terms()
	vocab := make([]VocabEntry, 0, len(terms))
	records := make([]PartitionRecord, 0, len(terms))

	for _, term := range terms {
		docs := acc.Postings(term)
		rec := PartitionRecord{Term: term, Postings: make([]PartitionPosting, 0, len(docs))}
		for d, p := range docs {
			rec.Postings = append(rec.Postings, PartitionPosting{DocID: d, Weight: p.Weight, Positions: p.Positions})
		}
		records = append(records, rec)
		vocab = append(vocab, VocabEntry{Term: term, DF: len(docs), PartitionID: 0})
	}

	if err := WritePartitionFile(partitionPath(indexDir, 0), records); err != nil {
		return nil, 0, err
	}
	return vocab, 1, nil
}
