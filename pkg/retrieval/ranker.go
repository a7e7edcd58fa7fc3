package retrieval

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tiagoalmeida/spimisearch/internal/config"
	"github.com/tiagoalmeida/spimisearch/pkg/tokenize"
)

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	DocID int64
	Score float64
}

// npcClampRatio is the small positive value the lnc.npc variant substitutes
// when (N-df)/df would be < 1, avoiding a non-positive argument to log10.
const npcClampRatio = 1e-6

type queryTerm struct {
	term string
	tf   int
	df   int
}

// Search runs the term-at-a-time ranked retrieval pipeline: tokenize,
// compute query-side weights, accumulate per-document scores, apply the
// proximity boost, then sort and truncate to topK.
func Search(loader *Loader, tok *tokenize.Tokenizer, queryText string, topK int) ([]ScoredDoc, error) {
	occs := tok.Tokenize(queryText)

	rawTF := make(map[string]int)
	for _, o := range occs {
		rawTF[o.Term]++
	}

	var qterms []queryTerm
	for term, tf := range rawTF {
		entry, ok := loader.Lookup(term)
		if !ok {
			continue // drop tokens not present in the vocabulary
		}
		qterms = append(qterms, queryTerm{term: term, tf: tf, df: entry.DF})
	}
	if len(qterms) == 0 {
		return nil, nil
	}

	ranking := loader.RankingConfig()
	weights := computeQueryWeights(ranking, loader.N(), qterms)
	k := len(qterms)

	// Candidates that match every distinct query term are found by
	// intersecting the terms' doc-id bitmaps rather than counting postings
	// hits per document, letting the boost check run as one set operation
	// regardless of how long any individual term's postings list is.
	var fullMatch *roaring.Bitmap
	for _, qt := range qterms {
		bm, err := loader.DocIDSet(qt.term)
		if err != nil {
			return nil, err
		}
		if fullMatch == nil {
			fullMatch = bm.Clone()
		} else {
			fullMatch.And(bm)
		}
	}

	type docAccumulator struct {
		score     float64
		positions map[string][]int
	}
	docs := make(map[int64]*docAccumulator)

	for _, qt := range qterms {
		rec, ok, err := loader.Postings(qt.term)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		qw := weights[qt.term]
		for _, p := range rec.Postings {
			a, ok := docs[p.DocID]
			if !ok {
				a = &docAccumulator{positions: make(map[string][]int, k)}
				docs[p.DocID] = a
			}
			a.score += qw * p.Weight
			a.positions[qt.term] = p.Positions
		}
	}

	results := make([]ScoredDoc, 0, len(docs))
	for docID, a := range docs {
		score := a.score
		if fullMatch.Contains(uint32(docID)) {
			if window, ok := MinWindow(a.positions); ok {
				score *= Boost(window, k)
			}
		}
		results = append(results, ScoredDoc{DocID: docID, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID // ascending doc-id tie-break
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// computeQueryWeights computes q_t for every query term per the ranking
// schema.
func computeQueryWeights(ranking config.RankingConfig, n int64, qterms []queryTerm) map[string]float64 {
	weights := make(map[string]float64, len(qterms))

	if ranking.Schema == "bm25" {
		for _, qt := range qterms {
			idf := math.Log10(float64(n) / float64(qt.df))
			tf := float64(qt.tf)
			// b is taken to be 0 on the query side.
			weights[qt.term] = idf * ((ranking.K1 + 1) * tf) / (ranking.K1 + tf)
		}
		return weights
	}

	raw := make(map[string]float64, len(qterms))
	var sumSquares float64
	for _, qt := range qterms {
		l := 1 + math.Log10(float64(qt.tf))

		var idfTerm float64
		if ranking.SmartCode == "lnc.npc" {
			ratio := float64(n-int64(qt.df)) / float64(qt.df)
			if ratio < 1 {
				ratio = npcClampRatio
			}
			idfTerm = math.Log10(ratio)
		} else { // lnc.ltc, the default SMART code
			idfTerm = math.Log10(float64(n) / float64(qt.df))
		}

		w := l * idfTerm
		raw[qt.term] = w
		sumSquares += w * w
	}

	norm := math.Sqrt(sumSquares)
	for term, w := range raw {
		if norm > 0 {
			weights[term] = w / norm
		}
	}
	return weights
}
