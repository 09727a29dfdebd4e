package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leavex/mepsonx/internal/ranking"
	"github.com/leavex/mepsonx/internal/rule"
	"gopkg.in/yaml.v3"
)

// FileName is the name Discover looks for.
const FileName = ".mepsonx.yml"

// Defaults for the scraper and the data layout.
const (
	DefaultBaseURL     = "https://www.europarl.europa.eu"
	DefaultUserAgent   = "mepsonx/1.0 (+https://leavex.eu)"
	DefaultDelay       = 200 * time.Millisecond
	DefaultTimeout     = 15 * time.Second
	DefaultConcurrency = 4
	DefaultDelimiter   = ";"
	DefaultPrecision   = 1
	MaxPrecision       = 6
)

// Load reads and parses a config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if p := cfg.Ranking.Precision; p != nil && (*p < 0 || *p > MaxPrecision) {
		return nil, fmt.Errorf("ranking.precision must be between 0 and %d, got %d", MaxPrecision, *p)
	}

	return &cfg, nil
}

// Discover walks up the directory tree from startDir looking for a
// .mepsonx.yml config file. It stops searching when it encounters a .git
// directory (the repository root) or reaches the filesystem root.
// Returns the path to the config file, or "" if none was found.
func Discover(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return "", nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Defaults returns the built-in configuration: every registered rule at
// its default enabled state, the standard data layout and scraper settings.
func Defaults() *Config {
	all := rule.All()
	rules := make(map[string]RuleCfg, len(all))
	for _, r := range all {
		rules[r.Name()] = RuleCfg{Enabled: rule.EnabledByDefault(r)}
	}
	return &Config{
		Rules: rules,
		Data: Data{
			Base:      "data/meps_all.json",
			Overrides: "data/meps_overrides.json",
			Merged:    "data/meps_all_with_overrides.json",
			CSV:       "meps.csv",
		},
		Scrape: Scrape{
			BaseURL:     DefaultBaseURL,
			UserAgent:   DefaultUserAgent,
			Delay:       DefaultDelay,
			Timeout:     DefaultTimeout,
			Concurrency: DefaultConcurrency,
			Delimiter:   DefaultDelimiter,
		},
		Ranking: Ranking{
			Fields:    ranking.DefaultFields(),
			Groupings: append([]string(nil), ranking.DefaultGroupings...),
		},
	}
}

// DumpDefaults is Defaults with every configurable rule's settings
// spelled out. It is what `mepsonx init` writes.
func DumpDefaults() *Config {
	cfg := Defaults()
	for _, r := range rule.All() {
		rc := cfg.Rules[r.Name()]
		if c, ok := r.(rule.Configurable); ok && rc.Enabled {
			rc.Settings = c.DefaultSettings()
		}
		cfg.Rules[r.Name()] = rc
	}
	return cfg
}

// Resolve loads the config at explicit, or the discovered one when
// explicit is empty, and merges it over the defaults. The returned path
// is "" when only defaults apply.
func Resolve(explicit string) (*Config, string, error) {
	path := explicit
	if path == "" {
		found, err := Discover(".")
		if err != nil {
			return nil, "", err
		}
		path = found
	}

	var loaded *Config
	if path != "" {
		var err error
		loaded, err = Load(path)
		if err != nil {
			return nil, "", err
		}
	}
	return Merge(Defaults(), loaded), path, nil
}
