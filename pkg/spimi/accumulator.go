package spimi

import "math"

// termBytesOverhead is the conservative per-entry estimate used by
// EstimatedBytes: a map entry, a Posting struct, and a one-element position
// slice, rounded up to cover the allocator's bookkeeping.
const termBytesOverhead = 96

// Accumulator holds postings:map<term,map<doc_id,Posting>>, the in-memory
// postings state during indexing, behind an operation-level API
// (AddDocument, Reset) rather than a pair of maps callers keep in sync.
// Document frequency is len of a term's doc map; per-document lengths are
// not kept here but returned by AddDocument for the caller's side table.
type Accumulator struct {
	schema   string // "tfidf" or "bm25"
	postings map[string]map[int64]*Posting
	estBytes int64

	docsSinceSpill int
}

// New creates an empty accumulator for the given ranking schema.
func New(schema string) *Accumulator {
	return &Accumulator{
		schema:   schema,
		postings: make(map[string]map[int64]*Posting),
	}
}

// Occurrence is the minimal shape AddDocument needs from a tokenized
// document; pkg/tokenize.Occurrence satisfies it structurally.
type Occurrence struct {
	Term     string
	Position int
}

// AddDocument folds one document's token occurrences into the accumulator.
// It returns the document's surviving-token length (dl(d)), which the
// caller retains in its own side table for BM25's later avdl/length-norm
// computation — the accumulator itself only owns term postings.
func (a *Accumulator) AddDocument(docID int64, occs []Occurrence) int {
	touched := make(map[string]*Posting, len(occs))

	for _, o := range occs {
		docs, ok := a.postings[o.Term]
		if !ok {
			docs = make(map[int64]*Posting)
			a.postings[o.Term] = docs
		}
		p, ok := docs[docID]
		if !ok {
			p = &Posting{Weight: 1, Positions: []int{o.Position}}
			docs[docID] = p
			a.estBytes += termBytesOverhead + int64(len(o.Term))
		} else {
			p.Weight++
			p.Positions = append(p.Positions, o.Position)
			a.estBytes += 8
		}
		touched[o.Term] = p
	}

	if a.schema == "tfidf" {
		normalizeDocument(touched)
	}

	a.docsSinceSpill++
	return len(occs)
}

// normalizeDocument applies the lnc document-side TF-IDF weighting
// in place: l = 1 + log10(tf), cosine-normalized across the terms touched
// by this document.
func normalizeDocument(touched map[string]*Posting) {
	if len(touched) == 0 {
		return
	}
	ls := make(map[string]float64, len(touched))
	var sumSquares float64
	for term, p := range touched {
		l := 1 + math.Log10(p.Weight)
		ls[term] = l
		sumSquares += l * l
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return
	}
	for term, p := range touched {
		p.Weight = ls[term] / norm
	}
}

// EstimatedBytes returns a conservative upper bound on the accumulator's
// current in-memory footprint.
func (a *Accumulator) EstimatedBytes() int64 { return a.estBytes }

// DocumentsSinceSpill returns how many documents have been folded in since
// the last Reset.
func (a *Accumulator) DocumentsSinceSpill() int { return a.docsSinceSpill }

// Empty reports whether the accumulator currently holds no postings.
func (a *Accumulator) Empty() bool { return len(a.postings) == 0 }

// Terms returns the accumulator's terms, unsorted.
func (a *Accumulator) Terms() []string {
	terms := make([]string, 0, len(a.postings))
	for t := range a.postings {
		terms = append(terms, t)
	}
	return terms
}

// Postings returns the doc->posting map for term.
func (a *Accumulator) Postings(term string) map[int64]*Posting {
	return a.postings[term]
}

// Reset clears the accumulator back to empty, as happens after every spill.
func (a *Accumulator) Reset() {
	a.postings = make(map[string]map[int64]*Posting)
	a.estBytes = 0
	a.docsSinceSpill = 0
}
