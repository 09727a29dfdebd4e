package config

import (
	"fmt"
	"time"

	"github.com/leavex/mepsonx/internal/ranking"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Rules     map[string]RuleCfg `yaml:"rules"`
	Ignore    []string           `yaml:"ignore,omitempty"`
	Overrides []Override         `yaml:"overrides,omitempty"`
	Data      Data               `yaml:"data"`
	Scrape    Scrape             `yaml:"scrape"`
	Ranking   Ranking            `yaml:"ranking"`
}

// Override applies rule settings to files matching glob patterns.
type Override struct {
	Files []string           `yaml:"files"`
	Rules map[string]RuleCfg `yaml:"rules"`
}

// Data holds the paths of the pipeline's input and output files.
type Data struct {
	Base      string `yaml:"base"`
	Overrides string `yaml:"overrides"`
	Merged    string `yaml:"merged"`
	CSV       string `yaml:"csv"`
	Report    string `yaml:"report,omitempty"`
	DB        string `yaml:"db,omitempty"`
}

// Scrape tunes the Parliament website scraper.
type Scrape struct {
	BaseURL     string        `yaml:"base-url"`
	UserAgent   string        `yaml:"user-agent"`
	Delay       time.Duration `yaml:"delay"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	Delimiter   string        `yaml:"delimiter"`
}

// Ranking controls which tables a report holds and how they are printed.
// A nil Precision means the default of one decimal.
type Ranking struct {
	Fields     ranking.Fields `yaml:"fields"`
	Groupings  []string       `yaml:"groupings"`
	Precision  *int           `yaml:"precision,omitempty"`
	Provenance *bool          `yaml:"provenance,omitempty"`
}

// RuleCfg is a YAML union: can be bool (enable/disable) or map[string]any (settings).
type RuleCfg struct {
	Enabled  bool
	Settings map[string]any
}

// UnmarshalYAML implements custom YAML unmarshalling for RuleCfg.
// It handles three forms:
//   - false -> Enabled=false, Settings=nil
//   - true  -> Enabled=true,  Settings=nil
//   - {key: val, ...} -> Enabled=true, Settings={key: val, ...}
func (r *RuleCfg) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var b bool
		if err := value.Decode(&b); err == nil {
			r.Enabled = b
			r.Settings = nil
			return nil
		}
	}

	if value.Kind == yaml.MappingNode {
		var m map[string]any
		if err := value.Decode(&m); err != nil {
			return fmt.Errorf("invalid rule config: %w", err)
		}
		r.Enabled = true
		r.Settings = m
		return nil
	}

	return fmt.Errorf("rule config must be a bool or a mapping, got %v", value.Kind)
}

// MarshalYAML writes the settings map for enabled rules that have one
// and a bare bool otherwise.
func (r RuleCfg) MarshalYAML() (any, error) {
	if r.Enabled && len(r.Settings) > 0 {
		return r.Settings, nil
	}
	return r.Enabled, nil
}

// ProvenanceEnabled reports whether rank writes front matter.
func (c *Config) ProvenanceEnabled() bool {
	return c.Ranking.Provenance == nil || *c.Ranking.Provenance
}

// Precision returns the number of decimals percentages are printed with.
func (c *Config) Precision() int {
	if c.Ranking.Precision == nil {
		return DefaultPrecision
	}
	return *c.Ranking.Precision
}

// Groupings resolves the configured grouping keys.
func (c *Config) Groupings() ([]ranking.Grouping, error) {
	keys := c.Ranking.Groupings
	if len(keys) == 0 {
		keys = ranking.DefaultGroupings
	}
	out := make([]ranking.Grouping, 0, len(keys))
	for _, k := range keys {
		g, err := c.Ranking.Fields.Lookup(k)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
