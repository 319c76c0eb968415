// Package config loads the .defsindex.toml configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// FileName is the configuration file looked up in the specs directory.
const FileName = ".defsindex.toml"

const (
	DefaultIndexFile      = "api_go_defs_index.md"
	DefaultMinDescription = 20
	DefaultThreshold      = 0.75
	DefaultKeywordCap     = 0.35
	DefaultMaxFileSize    = 2_000_000
	DefaultDebounce       = 500 * time.Millisecond
)

type Config struct {
	Index     Index     `toml:"index"`
	Placement Placement `toml:"placement"`
	Discovery Discovery `toml:"discovery"`
	Scoring   Scoring   `toml:"scoring"`
	Watch     Watch     `toml:"watch"`
}

type Index struct {
	File           string `toml:"file"`
	MinDescription int    `toml:"min_description"`
}

type Placement struct {
	Threshold  float64 `toml:"threshold"`
	KeywordCap float64 `toml:"keyword_cap"`
}

type Discovery struct {
	Exclude          []string `toml:"exclude"`
	RespectGitignore *bool    `toml:"respect_gitignore"`
	MaxFileSize      int64    `toml:"max_file_size"`
}

// Scoring extends the built-in scoring tables.
type Scoring struct {
	Implementations map[string]string `toml:"implementations"`
	DomainFiles     map[string]string `toml:"domain_files"`
	Keywords        []KeywordMapping  `toml:"keywords"`
}

// KeywordMapping points a comment keyword at a section pattern.
type KeywordMapping struct {
	Keyword  string `toml:"keyword"`
	Section  string `toml:"section"`
	Strength string `toml:"strength"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Exclude  []string      `toml:"exclude"`
}

// GitignoreEnabled reports whether .gitignore filtering is on (default true).
func (d Discovery) GitignoreEnabled() bool {
	return d.RespectGitignore == nil || *d.RespectGitignore
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// LoadOptional loads path when it exists and returns defaults otherwise.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes TOML text, applies defaults and validates the result.
func Parse(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)

	if err := validatePlacement(&cfg); err != nil {
		return nil, err
	}
	if err := validateIndex(&cfg); err != nil {
		return nil, err
	}
	if err := validateGlobs("discovery.exclude", cfg.Discovery.Exclude); err != nil {
		return nil, err
	}
	if err := validateGlobs("watch.exclude", cfg.Watch.Exclude); err != nil {
		return nil, err
	}
	if err := validateKeywords(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Index.File) == "" {
		cfg.Index.File = DefaultIndexFile
	}
	if cfg.Index.MinDescription == 0 {
		cfg.Index.MinDescription = DefaultMinDescription
	}
	if cfg.Placement.Threshold == 0 {
		cfg.Placement.Threshold = DefaultThreshold
	}
	if cfg.Placement.KeywordCap == 0 {
		cfg.Placement.KeywordCap = DefaultKeywordCap
	}
	if cfg.Discovery.MaxFileSize == 0 {
		cfg.Discovery.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
	for i := range cfg.Scoring.Keywords {
		if cfg.Scoring.Keywords[i].Strength == "" {
			cfg.Scoring.Keywords[i].Strength = "medium"
		}
	}
}

func validatePlacement(cfg *Config) error {
	if cfg.Placement.Threshold <= 0 || cfg.Placement.Threshold > 1 {
		return fmt.Errorf("placement.threshold must be in (0, 1], got %v", cfg.Placement.Threshold)
	}
	if cfg.Placement.KeywordCap <= 0 || cfg.Placement.KeywordCap > 1 {
		return fmt.Errorf("placement.keyword_cap must be in (0, 1], got %v", cfg.Placement.KeywordCap)
	}
	return nil
}

func validateIndex(cfg *Config) error {
	if cfg.Index.MinDescription < 0 {
		return fmt.Errorf("index.min_description must not be negative")
	}
	if strings.ContainsAny(cfg.Index.File, `/\`) {
		return fmt.Errorf("index.file must be a file name inside the specs directory, got %q", cfg.Index.File)
	}
	if cfg.Discovery.MaxFileSize < 0 {
		return fmt.Errorf("discovery.max_file_size must not be negative")
	}
	return nil
}

func validateGlobs(field string, patterns []string) error {
	for _, p := range patterns {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("%s: invalid pattern %q: %w", field, p, err)
		}
	}
	return nil
}

func validateKeywords(cfg *Config) error {
	for i, k := range cfg.Scoring.Keywords {
		if strings.TrimSpace(k.Keyword) == "" || strings.TrimSpace(k.Section) == "" {
			return fmt.Errorf("scoring.keywords[%d]: keyword and section are required", i)
		}
		switch k.Strength {
		case "strong", "medium", "weak":
		default:
			return fmt.Errorf("scoring.keywords[%d]: strength must be strong, medium or weak, got %q", i, k.Strength)
		}
	}
	for impl, iface := range cfg.Scoring.Implementations {
		if strings.TrimSpace(impl) == "" || strings.TrimSpace(iface) == "" {
			return fmt.Errorf("scoring.implementations: empty mapping %q = %q", impl, iface)
		}
	}
	return nil
}
