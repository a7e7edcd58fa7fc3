// Command searcher answers a batch of free-text queries against a
// previously built index, writing ranked
// results to an output file and printing per-query evaluation metrics for
// any question carrying a relevance judgement.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/tiagoalmeida/spimisearch/internal/errs"
	"github.com/tiagoalmeida/spimisearch/pkg/collection"
	"github.com/tiagoalmeida/spimisearch/pkg/retrieval"
	"github.com/tiagoalmeida/spimisearch/pkg/tokenize"
)

func main() {
	indexDir := flag.String("index", "", "index directory")
	questionsPath := flag.String("questions", "", "path to line-delimited JSON query file")
	outputPath := flag.String("output", "", "path to write ranked results")
	topK := flag.Int("top-k", 10, "number of results per query")
	flag.Parse()

	if *indexDir == "" || *questionsPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: searcher -index <dir> -questions <path> -output <path> [-top-k N]")
		os.Exit(2)
	}

	loader, err := retrieval.Open(*indexDir)
	if err != nil {
		reportAndExit(err)
	}

	tok, err := tokenize.New(loader.TokenizerConfig())
	if err != nil {
		reportAndExit(err)
	}

	questions, err := collection.ReadQuestions(*questionsPath)
	if err != nil {
		reportAndExit(err)
	}

	results, err := retrieval.RunQueries(loader, tok, questions, *topK)
	if err != nil {
		reportAndExit(err)
	}

	out, err := os.Create(*outputPath)
	if err != nil {
		reportAndExit(errs.Wrap(errs.Storage, *outputPath, err))
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	defer w.Flush()

	for _, r := range results {
		for rank, doc := range r.Ranked {
			fmt.Fprintf(w, "%s\tQ0\t%d\t%d\t%f\n", r.QueryID, doc.DocID, rank+1, doc.Score)
		}
		if r.Metrics != nil {
			fmt.Printf("query %s: precision=%.4f recall=%.4f ap=%.4f f=%.4f\n",
				r.QueryID, r.Metrics.Precision, r.Metrics.Recall, r.Metrics.AveragePrecision, r.Metrics.FMeasure)
		}
	}
}

func reportAndExit(err error) {
	kind, _ := errs.KindOf(err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
	os.Exit(1)
}
