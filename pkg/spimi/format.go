package spimi

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tiagoalmeida/spimisearch/internal/errs"
)

// Binary encoding of the final, read-only on-disk artifacts (vocabulary,
// postings partitions). Hand-rolled uvarint/length-prefixed-string framing,
// reserved for these hot, perf-sensitive artifacts rather than a
// reflection-based codec.

func writeUvarint(w io.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

func readUvarint(r io.ByteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}

func writeString(w io.Writer, s string) error {
	if err := writeUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r *bufio.Reader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeFloat64(w io.Writer, f float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	_, err := w.Write(buf[:])
	return err
}

func readFloat64(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func writeVarint(w io.Writer, v int64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

func readVarint(r io.ByteReader) (int64, error) {
	return binary.ReadVarint(r)
}

// WriteVocabulary writes entries, sorted by term, to path atomically
// (temp file, then rename).
func WriteVocabulary(path string, entries []VocabEntry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Term < entries[j].Term })

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errs.Wrap(errs.Storage, path, err)
	}
	w := bufio.NewWriter(f)

	writeErr := func() error {
		if err := writeUvarint(w, uint64(len(entries))); err != nil {
			return err
		}
		for _, e := range entries {
			if err := writeString(w, e.Term); err != nil {
				return err
			}
			if err := writeUvarint(w, uint64(e.DF)); err != nil {
				return err
			}
			if err := writeUvarint(w, uint64(e.PartitionID)); err != nil {
				return err
			}
		}
		return w.Flush()
	}()

	if writeErr != nil {
		f.Close()
		os.Remove(tmp)
		return errs.Wrap(errs.Storage, path, writeErr)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.Storage, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.Storage, path, err)
	}
	return nil
}

// ReadVocabulary reads a vocabulary file written by WriteVocabulary.
func ReadVocabulary(path string) ([]VocabEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	count, err := readUvarint(r)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, path, err)
	}
	entries := make([]VocabEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		term, err := readString(r)
		if err != nil {
			return nil, errs.Wrap(errs.Storage, path, err)
		}
		df, err := readUvarint(r)
		if err != nil {
			return nil, errs.Wrap(errs.Storage, path, err)
		}
		pid, err := readUvarint(r)
		if err != nil {
			return nil, errs.Wrap(errs.Storage, path, err)
		}
		entries = append(entries, VocabEntry{Term: term, DF: int(df), PartitionID: int(pid)})
	}
	return entries, nil
}

// WritePartitionFile writes records, sorted by term, to path atomically.
func WritePartitionFile(path string, records []PartitionRecord) error {
	sort.Slice(records, func(i, j int) bool { return records[i].Term < records[j].Term })

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errs.Wrap(errs.Storage, path, err)
	}
	w := bufio.NewWriter(f)

	writeErr := func() error {
		if err := writeUvarint(w, uint64(len(records))); err != nil {
			return err
		}
		for _, rec := range records {
			if err := writeString(w, rec.Term); err != nil {
				return err
			}
			if err := writeUvarint(w, uint64(len(rec.Postings))); err != nil {
				return err
			}
			for _, p := range rec.Postings {
				if err := writeVarint(w, p.DocID); err != nil {
					return err
				}
				if err := writeFloat64(w, p.Weight); err != nil {
					return err
				}
				if err := writeUvarint(w, uint64(len(p.Positions))); err != nil {
					return err
				}
				for _, pos := range p.Positions {
					if err := writeUvarint(w, uint64(pos)); err != nil {
						return err
					}
				}
			}
		}
		return w.Flush()
	}()

	if writeErr != nil {
		f.Close()
		os.Remove(tmp)
		return errs.Wrap(errs.Storage, path, writeErr)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.Storage, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.Storage, path, err)
	}
	return nil
}

// ReadPartitionFile reads a postings_<p> file written by WritePartitionFile.
func ReadPartitionFile(path string) ([]PartitionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	count, err := readUvarint(r)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, path, err)
	}
	records := make([]PartitionRecord, 0, count)
	for i := uint64(0); i < count; i++ {
		term, err := readString(r)
		if err != nil {
			return nil, errs.Wrap(errs.Storage, path, err)
		}
		docCount, err := readUvarint(r)
		if err != nil {
			return nil, errs.Wrap(errs.Storage, path, err)
		}
		postings := make([]PartitionPosting, 0, docCount)
		for j := uint64(0); j < docCount; j++ {
			docID, err := readVarint(r)
			if err != nil {
				return nil, errs.Wrap(errs.Storage, path, err)
			}
			weight, err := readFloat64(r)
			if err != nil {
				return nil, errs.Wrap(errs.Storage, path, err)
			}
			posCount, err := readUvarint(r)
			if err != nil {
				return nil, errs.Wrap(errs.Storage, path, err)
			}
			positions := make([]int, posCount)
			for k := range positions {
				pos, err := readUvarint(r)
				if err != nil {
					return nil, errs.Wrap(errs.Storage, path, err)
				}
				positions[k] = int(pos)
			}
			postings = append(postings, PartitionPosting{DocID: docID, Weight: weight, Positions: positions})
		}
		records = append(records, PartitionRecord{Term: term, Postings: postings})
	}
	return records, nil
}

// WriteDocumentCount writes N as a textual decimal to path. The document
// count always lives alongside the vocabulary inside the index directory,
// never in the process working directory.
func WriteDocumentCount(path string, n int64) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatInt(n, 10)), 0o644); err != nil {
		return errs.Wrap(errs.Storage, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.Storage, path, err)
	}
	return nil
}

// ReadDocumentCount reads N back.
func ReadDocumentCount(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errs.Wrap(errs.NotFound, path, err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errs.Wrap(errs.Storage, path, err)
	}
	return n, nil
}
