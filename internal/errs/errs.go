// Package errs defines the error kinds surfaced by the indexer and searcher
// drivers, and the helpers used to wrap and classify underlying errors.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way the top-level driver needs to report it:
// as an exit code and a one-line diagnostic naming the kind and the
// offending path or document id.
type Kind int

const (
	// Configuration covers unknown SMART codes, missing stopword files, and
	// inconsistent tokenizer settings between indexer and searcher.
	Configuration Kind = iota
	// InputFormat covers malformed JSON lines, missing required fields, and
	// non-integer pmids.
	InputFormat
	// Storage covers I/O failures on runs, partitions, vocabulary, or an
	// atomicity violation (a temp file present without its final rename).
	Storage
	// Resource covers a single document whose tokens exceed the memory
	// threshold on their own; this is fatal, not retried.
	Resource
	// NotFound covers a query against an index directory that does not
	// exist or is missing its vocabulary file.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "Configuration"
	case InputFormat:
		return "InputFormat"
	case Storage:
		return "Storage"
	case Resource:
		return "Resource"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is a typed, wrapped error carrying a Kind plus the offending subject
// (a path, a document id, a term — whatever best names the failure site).
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Subject)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Subject, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error without an underlying cause.
func New(kind Kind, subject string) error {
	return &Error{Kind: kind, Subject: subject}
}

// Wrap tags an underlying error with a Kind and a subject, preserving the
// chain so callers can still errors.Is/As through it.
func Wrap(kind Kind, subject string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and reports whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
