// Package tokenize implements the deterministic text-to-token pipeline
// shared by the indexer and searcher. Indexer and searcher must
// agree on it bit-for-bit, so its five steps are fixed and unconditional;
// only their parameters are configurable.
package tokenize

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/kljensen/snowball"
	"github.com/orsinium-labs/stopwords"

	"github.com/tiagoalmeida/spimisearch/internal/config"
	"github.com/tiagoalmeida/spimisearch/internal/errs"
)

// splitPattern matches runs of non-word characters, the same boundary the
// original tokenizer split on.
var splitPattern = regexp.MustCompile(`\W+`)

// Occurrence is a single surviving token paired with its position, the
// 0-based ordinal among surviving tokens (dropped tokens do not consume a
// position).
type Occurrence struct {
	Term     string
	Position int
}

// Stemmer reduces a token to its stem. none is represented by a nil Stemmer.
type Stemmer interface {
	Stem(word string) string
}

type porterStemmer struct{}

func (porterStemmer) Stem(word string) string {
	return porterstemmer.StemString(word)
}

type snowballStemmer struct{}

func (snowballStemmer) Stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stemmed
}

// Tokenizer is the concrete, PubMed-style tokenizer — there is no runtime
// class lookup, just this one pipeline configured by TokenizerConfig.
type Tokenizer struct {
	minLength    int
	allowNumbers bool
	caseFolding  bool
	stopWords    stopSet
	stemmer      Stemmer
}

// stopSet abstracts over the builtin orsinium-labs/stopwords set and a
// plain file-loaded set so both can back the same lookup.
type stopSet interface {
	Contains(word string) bool
}

type fileStopSet map[string]struct{}

func (s fileStopSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// New builds a Tokenizer from a resolved TokenizerConfig, loading the
// stopword set (file path, or the builtin:en sentinel) and selecting a
// stemmer by the tagged stemmer name.
func New(cfg config.TokenizerConfig) (*Tokenizer, error) {
	t := &Tokenizer{
		minLength:    cfg.MinLength,
		allowNumbers: cfg.AllowNumbers,
		caseFolding:  cfg.CaseFolding,
	}

	words, err := loadStopwords(cfg.StopwordsPath)
	if err != nil {
		return nil, err
	}
	t.stopWords = words

	switch cfg.Stemmer {
	case "", "none":
		t.stemmer = nil
	case "porter":
		t.stemmer = porterStemmer{}
	case "snowball-english":
		t.stemmer = snowballStemmer{}
	default:
		return nil, errs.New(errs.Configuration, "unknown stemmer: "+cfg.Stemmer)
	}

	return t, nil
}

const builtinEnglishStopwords = "builtin:en"

func loadStopwords(path string) (stopSet, error) {
	if path == "" {
		return nil, nil
	}
	if path == builtinEnglishStopwords {
		return stopwords.English, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, path, err)
	}
	defer f.Close()

	set := make(fileStopSet)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w != "" {
			set[w] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.Configuration, path, err)
	}
	return set, nil
}

// Tokenize runs the five-step pipeline over text and returns the surviving
// tokens with their surviving-token ordinal positions.
func (t *Tokenizer) Tokenize(text string) []Occurrence {
	raw := splitPattern.Split(text, -1)
	out := make([]Occurrence, 0, len(raw))

	pos := 0
	for _, word := range raw {
		if word == "" {
			continue
		}
		if t.minLength > 0 && len(word) < t.minLength {
			continue
		}
		if isNumeric(word) && !t.allowNumbers {
			continue
		}
		if t.caseFolding {
			word = strings.ToLower(word)
		}
		if t.stopWords != nil && t.stopWords.Contains(word) {
			continue
		}
		if t.stemmer != nil {
			word = t.stemmer.Stem(word)
		}
		out = append(out, Occurrence{Term: word, Position: pos})
		pos++
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
