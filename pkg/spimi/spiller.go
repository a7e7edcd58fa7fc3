package spimi

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/kelindar/binary"

	"github.com/tiagoalmeida/spimisearch/internal/errs"
)

// Thresholds controls when the accumulator spills to disk.
type Thresholds struct {
	// PostingThreshold spills after this many documents, if nonzero.
	PostingThreshold int
	// MemoryThreshold spills once 2*EstimatedBytes() exceeds this, the
	// factor-of-two guard reserving allocator headroom.
	MemoryThreshold int64
}

// ShouldSpill reports whether acc has crossed either configured threshold.
func (t Thresholds) ShouldSpill(acc *Accumulator) bool {
	if t.PostingThreshold > 0 && acc.DocumentsSinceSpill() >= t.PostingThreshold {
		return true
	}
	if t.MemoryThreshold > 0 && 2*acc.EstimatedBytes() > t.MemoryThreshold {
		return true
	}
	return false
}

// runRecord is the unit a Run file streams: one term's full postings map,
// ephemeral and read exactly once by the merger. kelindar/binary's
// reflection-based codec is a good match for this ephemeral, quick
// struct-round-trip artifact, unlike the final vocabulary/partition files
// which use the hand-rolled framing in format.go.
type runRecord struct {
	Term     string
	DocIDs   []int64
	Weights  []float64
	PosCount []int
	Positions []int
}

// Spill writes the accumulator's current contents, sorted by term, to
// run_<index> inside dir, as a single atomic temp-then-rename file, then
// resets the accumulator.
func Spill(acc *Accumulator, dir string, index int) (string, error) {
	terms := acc.Terms()
	sort.Strings(terms)

	finalPath := filepath.Join(dir, fmt.Sprintf("run_%d", index))
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", errs.Wrap(errs.Storage, finalPath, err)
	}

	enc := binary.NewEncoder(f)
	writeErr := func() error {
		for _, term := range terms {
			docs := acc.Postings(term)
			docIDs := make([]int64, 0, len(docs))
			for d := range docs {
				docIDs = append(docIDs, d)
			}
			sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

			rec := runRecord{Term: term}
			for _, d := range docIDs {
				p := docs[d]
				rec.DocIDs = append(rec.DocIDs, d)
				rec.Weights = append(rec.Weights, p.Weight)
				rec.PosCount = append(rec.PosCount, len(p.Positions))
				rec.Positions = append(rec.Positions, p.Positions...)
			}
			if err := enc.Encode(&rec); err != nil {
				return err
			}
		}
		return nil
	}()

	closeErr := f.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", errs.Wrap(errs.Storage, finalPath, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", errs.Wrap(errs.Storage, finalPath, closeErr)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", errs.Wrap(errs.Storage, finalPath, err)
	}

	acc.Reset()
	return finalPath, nil
}

// RunReader streams (term, postings) records back out of a spilled run in
// the ascending-term order Spill wrote them in.
type RunReader struct {
	path string
	f    *os.File
	dec  *binary.Decoder
}

// OpenRun opens a run file for sequential reading.
func OpenRun(path string) (*RunReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, path, err)
	}
	return &RunReader{path: path, f: f, dec: binary.NewDecoder(f)}, nil
}

// Next decodes the next (term, postings) record, returning io.EOF when the
// run is exhausted.
func (r *RunReader) Next() (string, map[int64]*Posting, error) {
	var rec runRecord
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return "", nil, io.EOF
		}
		return "", nil, errs.Wrap(errs.Storage, r.path, err)
	}

	postings := make(map[int64]*Posting, len(rec.DocIDs))
	cursor := 0
	for i, docID := range rec.DocIDs {
		n := rec.PosCount[i]
		postings[docID] = &Posting{
			Weight:    rec.Weights[i],
			Positions: append([]int(nil), rec.Positions[cursor:cursor+n]...),
		}
		cursor += n
	}
	return rec.Term, postings, nil
}

// Close releases the run file handle.
func (r *RunReader) Close() error {
	if err := r.f.Close(); err != nil {
		return errs.Wrap(errs.Storage, r.path, err)
	}
	return nil
}
