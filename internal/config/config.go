// Package config handles tokenizer and ranking configuration: built-in
// defaults, YAML persistence alongside the index, and a PartialConfig that
// tells caller-supplied fields apart from unset ones. The merge rule is
// encoded once in MergeTokenizerConfig: CLI overrides persisted, persisted
// overrides built-in. The cmd drivers do not call it; cmd/searcher uses the
// persisted tokenizer configuration unchanged.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tiagoalmeida/spimisearch/internal/errs"
)

// TokenizerConfig is the persisted, on-disk shape of the tokenizer's
// configuration surface.
type TokenizerConfig struct {
	MinLength     int    `yaml:"min_length"`
	StopwordsPath string `yaml:"stopwords_path"`
	Stemmer       string `yaml:"stemmer"` // none | porter | snowball-english
	CaseFolding   bool   `yaml:"case_folding"`
	AllowNumbers  bool   `yaml:"allow_numbers"`
}

// DefaultTokenizerConfig holds the engine's built-in defaults: no minimum
// length, case folding on, numbers disallowed, no stemmer, no stopwords.
func DefaultTokenizerConfig() TokenizerConfig {
	return TokenizerConfig{
		MinLength:     0,
		StopwordsPath: "",
		Stemmer:       "none",
		CaseFolding:   true,
		AllowNumbers:  false,
	}
}

// RankingConfig is the persisted ranking-model configuration.
type RankingConfig struct {
	Schema    string  `yaml:"ranking_schema"` // tfidf | bm25
	SmartCode string  `yaml:"smart_code"`     // lnc.ltc | lnc.npc (tfidf only)
	K1        float64 `yaml:"k1"`             // bm25 only
	B         float64 `yaml:"b"`              // bm25 only
}

// DefaultRankingConfig is plain lnc.ltc TF-IDF.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		Schema:    "tfidf",
		SmartCode: "lnc.ltc",
		K1:        1.2,
		B:         0.75,
	}
}

// PartialTokenizerConfig carries only the fields a caller (CLI) actually
// supplied; nil means "not supplied, fall through".
type PartialTokenizerConfig struct {
	MinLength     *int
	StopwordsPath *string
	Stemmer       *string
	CaseFolding   *bool
	AllowNumbers  *bool
}

// MergeTokenizerConfig applies "CLI overrides persisted, persisted overrides
// built-in": start from built-in defaults, layer the persisted config over
// it (when non-nil), then layer CLI-supplied overrides over that.
func MergeTokenizerConfig(persisted *TokenizerConfig, cli PartialTokenizerConfig) TokenizerConfig {
	merged := DefaultTokenizerConfig()
	if persisted != nil {
		merged = *persisted
	}
	if cli.MinLength != nil {
		merged.MinLength = *cli.MinLength
	}
	if cli.StopwordsPath != nil {
		merged.StopwordsPath = *cli.StopwordsPath
	}
	if cli.Stemmer != nil {
		merged.Stemmer = *cli.Stemmer
	}
	if cli.CaseFolding != nil {
		merged.CaseFolding = *cli.CaseFolding
	}
	if cli.AllowNumbers != nil {
		merged.AllowNumbers = *cli.AllowNumbers
	}
	return merged
}

// LoadTokenizerConfig reads a YAML-encoded TokenizerConfig from path.
func LoadTokenizerConfig(path string) (TokenizerConfig, error) {
	var cfg TokenizerConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errs.Wrap(errs.Storage, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errs.Wrap(errs.Configuration, path, err)
	}
	return cfg, nil
}

// SaveTokenizerConfig writes cfg to path as YAML, the format indexing
// persists alongside the index so the searcher cannot diverge.
func SaveTokenizerConfig(path string, cfg TokenizerConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.Wrap(errs.Configuration, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.Storage, path, err)
	}
	return nil
}

// LoadRankingConfig reads a YAML-encoded RankingConfig from path.
func LoadRankingConfig(path string) (RankingConfig, error) {
	var cfg RankingConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errs.Wrap(errs.Storage, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errs.Wrap(errs.Configuration, path, err)
	}
	return cfg, nil
}

// SaveRankingConfig writes cfg to path as YAML.
func SaveRankingConfig(path string, cfg RankingConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.Wrap(errs.Configuration, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.Storage, path, err)
	}
	return nil
}
