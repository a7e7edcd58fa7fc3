// Command indexer builds a disk-backed inverted index from a gzip-compressed,
// line-delimited JSON document collection (the index-build operational
// mode). The command-line surface is intentionally minimal — it exists
// to exercise the core, not to be a polished CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tiagoalmeida/spimisearch/internal/config"
	"github.com/tiagoalmeida/spimisearch/internal/errs"
	"github.com/tiagoalmeida/spimisearch/pkg/spimi"
)

func main() {
	collectionPath := flag.String("collection", "", "path to gzip-compressed line-delimited JSON document collection")
	indexDir := flag.String("index", "", "output index directory")
	minLength := flag.Int("min-length", 0, "minimum token length (0 disables)")
	stopwords := flag.String("stopwords", "", "stopwords file path, or builtin:en")
	stemmer := flag.String("stemmer", "none", "none | porter | snowball-english")
	caseFolding := flag.Bool("case-folding", true, "lowercase tokens")
	allowNumbers := flag.Bool("allow-numbers", false, "keep purely numeric tokens")
	schema := flag.String("schema", "tfidf", "tfidf | bm25")
	smartCode := flag.String("smart", "lnc.ltc", "lnc.ltc | lnc.npc (tfidf only)")
	k1 := flag.Float64("k1", 1.2, "BM25 k1")
	b := flag.Float64("b", 0.75, "BM25 b")
	postingThreshold := flag.Int("posting-threshold", 0, "spill after this many documents (0 disables)")
	memoryThresholdMB := flag.Uint64("memory-threshold-mb", 0, "user memory cap in MiB (0: free-RAM only)")
	flag.Parse()

	if *collectionPath == "" || *indexDir == "" {
		fmt.Fprintln(os.Stderr, "usage: indexer -collection <path> -index <dir> [options]")
		os.Exit(2)
	}

	opts := spimi.BuildOptions{
		CollectionPath: *collectionPath,
		IndexDir:       *indexDir,
		Tokenizer: config.TokenizerConfig{
			MinLength:     *minLength,
			StopwordsPath: *stopwords,
			Stemmer:       *stemmer,
			CaseFolding:   *caseFolding,
			AllowNumbers:  *allowNumbers,
		},
		Ranking: config.RankingConfig{
			Schema:    *schema,
			SmartCode: *smartCode,
			K1:        *k1,
			B:         *b,
		},
		PostingThreshold:       *postingThreshold,
		MemoryThresholdSetting: *memoryThresholdMB * 1024 * 1024,
	}

	stats, err := spimi.Build(opts)
	if err != nil {
		kind, _ := errs.KindOf(err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
		os.Exit(1)
	}

	fmt.Printf("documents indexed: %d\n", stats.DocumentCount)
	fmt.Printf("vocabulary size:   %d\n", stats.VocabularySize)
	fmt.Printf("partitions:        %d\n", stats.PartitionCount)
	fmt.Printf("runs spilled:      %d\n", stats.RunCount)
	fmt.Printf("index time:        %s\n", stats.IndexDuration)
	fmt.Printf("merge time:        %s\n", stats.MergeDuration)
}
