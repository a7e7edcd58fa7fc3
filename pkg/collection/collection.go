// Package collection produces the lazy, finite, non-restartable document
// sequence the indexer consumes, and reads the searcher's query file in
// full. It is a thin
// concrete reader over the narrow contract the core depends on; the rest of
// the CLI-facing file handling lives outside this package's concerns.
package collection

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/tiagoalmeida/spimisearch/internal/errs"
)

// Document is a single corpus record, trimmed to the fields the core uses.
type Document struct {
	PMID     int64  `json:"pmid"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

// rawDocument accepts pmid as either a number or a numeric string, since
// some PubMed exports coerce integer ids to strings.
type rawDocument struct {
	PMID     json.Number `json:"pmid"`
	Title    string      `json:"title"`
	Abstract string      `json:"abstract"`
}

// Question is a single relevance-judgement query record.
type Question struct {
	QueryID       string   `json:"query_id"`
	QueryText     string   `json:"query_text"`
	DocumentsPMID []string `json:"documents_pmid"`
}

// CorpusReader reads a gzip-compressed, line-delimited JSON corpus file.
type CorpusReader struct {
	path string
	f    *os.File
	gz   *gzip.Reader
	sc   *bufio.Scanner
	err  error
	line int
}

// OpenCorpus opens path for streaming. The caller must call Close when done.
func OpenCorpus(path string) (*CorpusReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, path, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.InputFormat, path, err)
	}
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &CorpusReader{path: path, f: f, gz: gz, sc: sc}, nil
}

// Next advances to the next document, returning io.EOF when exhausted.
func (r *CorpusReader) Next() (Document, error) {
	if r.err != nil {
		return Document{}, r.err
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			r.err = errs.Wrap(errs.InputFormat, r.path, err)
			return Document{}, r.err
		}
		return Document{}, io.EOF
	}
	r.line++

	var raw rawDocument
	if err := json.Unmarshal(r.sc.Bytes(), &raw); err != nil {
		return Document{}, errs.Wrap(errs.InputFormat, fmt.Sprintf("%s:%d", r.path, r.line), err)
	}
	if raw.PMID == "" {
		return Document{}, errs.New(errs.InputFormat, fmt.Sprintf("%s:%d missing pmid", r.path, r.line))
	}
	pmid, err := raw.PMID.Int64()
	if err != nil {
		return Document{}, errs.Wrap(errs.InputFormat, fmt.Sprintf("%s:%d non-integer pmid", r.path, r.line), err)
	}

	return Document{PMID: pmid, Title: raw.Title, Abstract: raw.Abstract}, nil
}

// Close releases the underlying file handles.
func (r *CorpusReader) Close() error {
	gzErr := r.gz.Close()
	fErr := r.f.Close()
	if gzErr != nil {
		return errs.Wrap(errs.Storage, r.path, gzErr)
	}
	if fErr != nil {
		return errs.Wrap(errs.Storage, r.path, fErr)
	}
	return nil
}

// ReadQuestions reads a plain-text, line-delimited JSON query file in full.
func ReadQuestions(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, path, err)
	}
	defer f.Close()

	var out []Question
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var q Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, errs.Wrap(errs.InputFormat, fmt.Sprintf("%s:%d", path, line), err)
		}
		out = append(out, q)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.InputFormat, path, err)
	}
	return out, nil
}
