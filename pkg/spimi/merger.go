package spimi

import (
	"container/heap"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/tiagoalmeida/spimisearch/internal/errs"
)

// mergeCursor is one input to the k-way merge: either an on-disk run or the
// final unspilled accumulator tail, treated as an additional run.
type mergeCursor interface {
	Term() string
	Postings() map[int64]*Posting
	// Advance moves to the next term, reporting false when exhausted.
	Advance() (bool, error)
	Close() error
}

type runCursor struct {
	r        *RunReader
	term     string
	postings map[int64]*Posting
}

func newRunCursor(path string) (*runCursor, error) {
	r, err := OpenRun(path)
	if err != nil {
		return nil, err
	}
	c := &runCursor{r: r}
	ok, err := c.Advance()
	if err != nil {
		r.Close()
		return nil, err
	}
	if !ok {
		r.Close()
		return nil, nil
	}
	return c, nil
}

func (c *runCursor) Term() string                    { return c.term }
func (c *runCursor) Postings() map[int64]*Posting    { return c.postings }
func (c *runCursor) Close() error                    { return c.r.Close() }

func (c *runCursor) Advance() (bool, error) {
	term, postings, err := c.r.Next()
	if err == io.EOF {
		c.term, c.postings = "", nil
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.term, c.postings = term, postings
	return true, nil
}

type tailCursor struct {
	acc   *Accumulator
	terms []string
	idx   int
}

func newTailCursor(acc *Accumulator) *tailCursor {
	terms := acc.Terms()
	sort.Strings(terms)
	return &tailCursor{acc: acc, terms: terms, idx: -1}
}

func (c *tailCursor) Term() string {
	if c.idx < 0 || c.idx >= len(c.terms) {
		return ""
	}
	return c.terms[c.idx]
}

func (c *tailCursor) Postings() map[int64]*Posting {
	return c.acc.Postings(c.Term())
}

func (c *tailCursor) Advance() (bool, error) {
	c.idx++
	return c.idx < len(c.terms), nil
}

func (c *tailCursor) Close() error { return nil }

// cursorHeap orders mergeCursors lexicographically by current term,
// implementing the "select the smallest term" step as a
// container/heap min-heap instead of an O(n) linear scan — a
// parallelism-class optimization that changes performance, not output.
type cursorHeap []mergeCursor

func (h cursorHeap) Len() int            { return len(h) }
func (h cursorHeap) Less(i, j int) bool  { return h[i].Term() < h[j].Term() }
func (h cursorHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x interface{}) { *h = append(*h, x.(mergeCursor)) }
func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergeResult reports what the merge produced, feeding the indexing run's
// statistics report.
type MergeResult struct {
	Vocab          []VocabEntry
	PartitionCount int
}

// partitionPath returns the path of partition p inside dir.
func partitionPath(dir string, p int) string {
	return filepath.Join(dir, fmt.Sprintf("postings_%d", p))
}

// PartitionPath exposes partitionPath for callers outside this package
// (the loader, which opens partitions lazily by id).
func PartitionPath(dir string, p int) string {
	return partitionPath(dir, p)
}

// estimateRecordBytes is the same conservative per-entry accounting the
// accumulator uses, applied to a buffered output record before it is
// flushed to a partition file.
func estimateRecordBytes(rec PartitionRecord) int64 {
	total := int64(len(rec.Term)) + 16
	for _, p := range rec.Postings {
		total += termBytesOverhead + int64(len(p.Positions))*8
	}
	return total
}

// Merge performs the k-way merge of runPaths plus the optional tail
// accumulator (the in-memory postings not yet spilled), writing
// postings_<p> files into outDir and returning the vocabulary.
//
// The "no-duplicates" guard is structural here: a term is
// only ever appended to the buffer once, after every cursor currently
// holding it has been fully drained, so a size-triggered flush can never
// split a term's postings across partitions.
func Merge(runPaths []string, tail *Accumulator, outDir string, memoryThreshold int64) (MergeResult, error) {
	cursors := make([]mergeCursor, 0, len(runPaths)+1)
	defer func() {
		for _, c := range cursors {
			c.Close()
		}
	}()

	for _, p := range runPaths {
		c, err := newRunCursor(p)
		if err != nil {
			return MergeResult{}, errs.Wrap(errs.Storage, p, err)
		}
		if c != nil {
			cursors = append(cursors, c)
		}
	}
	if tail != nil && !tail.Empty() {
		tc := newTailCursor(tail)
		if ok, err := tc.Advance(); err != nil {
			return MergeResult{}, err
		} else if ok {
			cursors = append(cursors, tc)
		}
	}

	h := cursorHeap(cursors)
	heap.Init(&h)

	var vocab []VocabEntry
	var buffer []PartitionRecord
	var bufBytes int64
	partitionIndex := 0

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		if err := WritePartitionFile(partitionPath(outDir, partitionIndex), buffer); err != nil {
			return err
		}
		partitionIndex++
		buffer = nil
		bufBytes = 0
		return nil
	}

	for h.Len() > 0 {
		t := h[0].Term()
		merged := make(map[int64]*Posting)

		for h.Len() > 0 && h[0].Term() == t {
			c := heap.Pop(&h).(mergeCursor)
			for d, p := range c.Postings() {
				// Disjoint by construction: a given (term, doc_id) is
				// produced by exactly one accumulator epoch, so no cursor
				// collision on doc_id can occur here.
				merged[d] = p
			}
			more, err := c.Advance()
			if err != nil {
				return MergeResult{}, err
			}
			if more {
				heap.Push(&h, c)
			} else {
				c.Close()
			}
		}

		rec := PartitionRecord{Term: t, Postings: make([]PartitionPosting, 0, len(merged))}
		for d, p := range merged {
			rec.Postings = append(rec.Postings, PartitionPosting{DocID: d, Weight: p.Weight, Positions: p.Positions})
		}

		vocab = append(vocab, VocabEntry{Term: t, DF: len(merged), PartitionID: partitionIndex})
		buffer = append(buffer, rec)
		bufBytes += estimateRecordBytes(rec)

		if memoryThreshold > 0 && bufBytes > memoryThreshold {
			if err := flush(); err != nil {
				return MergeResult{}, err
			}
		}
	}

	if err := flush(); err != nil {
		return MergeResult{}, err
	}
	cursors = nil // already closed above

	return MergeResult{Vocab: vocab, PartitionCount: partitionIndex}, nil
}
