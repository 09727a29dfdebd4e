package config

import (
	"maps"

	"github.com/gobwas/glob"
)

// precisionRule is the rule whose precision setting follows
// ranking.precision unless the rule config sets it.
const precisionRule = "percent-consistency"

// Merge merges a loaded config on top of defaults. The loaded config's rules
// override the defaults; any rule not mentioned in loaded keeps its default
// value. Ignore and Overrides come from the loaded config only. Scalar
// settings in the other sections replace defaults when set.
func Merge(defaults, loaded *Config) *Config {
	rules := make(map[string]RuleCfg, len(defaults.Rules))
	for k, v := range defaults.Rules {
		rules[k] = v
	}
	out := &Config{
		Rules:   rules,
		Data:    defaults.Data,
		Scrape:  defaults.Scrape,
		Ranking: defaults.Ranking,
	}
	if loaded == nil {
		return out
	}

	for k, v := range loaded.Rules {
		rules[k] = v
	}
	out.Ignore = loaded.Ignore
	out.Overrides = loaded.Overrides

	d, l := &out.Data, loaded.Data
	d.Base = pick(d.Base, l.Base)
	d.Overrides = pick(d.Overrides, l.Overrides)
	d.Merged = pick(d.Merged, l.Merged)
	d.CSV = pick(d.CSV, l.CSV)
	d.Report = pick(d.Report, l.Report)
	d.DB = pick(d.DB, l.DB)

	s, ls := &out.Scrape, loaded.Scrape
	s.BaseURL = pick(s.BaseURL, ls.BaseURL)
	s.UserAgent = pick(s.UserAgent, ls.UserAgent)
	s.Delay = pick(s.Delay, ls.Delay)
	s.Timeout = pick(s.Timeout, ls.Timeout)
	s.Concurrency = pick(s.Concurrency, ls.Concurrency)
	s.Delimiter = pick(s.Delimiter, ls.Delimiter)

	r, lr := &out.Ranking, loaded.Ranking
	r.Fields.Country = pick(r.Fields.Country, lr.Fields.Country)
	r.Fields.Party = pick(r.Fields.Party, lr.Fields.Party)
	r.Fields.EUGroup = pick(r.Fields.EUGroup, lr.Fields.EUGroup)
	r.Fields.UsesX = pick(r.Fields.UsesX, lr.Fields.UsesX)
	if len(lr.Groupings) > 0 {
		r.Groupings = lr.Groupings
	}
	if lr.Precision != nil {
		p := *lr.Precision
		r.Precision = &p
	}
	if lr.Provenance != nil {
		r.Provenance = lr.Provenance
	}

	return out
}

func pick[T comparable](def, v T) T {
	var zero T
	if v != zero {
		return v
	}
	return def
}

// Effective returns the effective rule configuration for a given file path.
// It starts with the top-level rules and then applies each override whose
// file patterns match filePath, in order. Later overrides take precedence.
// A configured ranking.precision becomes the percent-consistency precision
// when that rule is enabled without one.
func Effective(cfg *Config, filePath string) map[string]RuleCfg {
	result := make(map[string]RuleCfg, len(cfg.Rules))
	for k, v := range cfg.Rules {
		result[k] = v
	}

	for _, o := range cfg.Overrides {
		if matchesAny(o.Files, filePath) {
			for k, v := range o.Rules {
				result[k] = v
			}
		}
	}

	if p := cfg.Ranking.Precision; p != nil {
		if rc, ok := result[precisionRule]; ok && rc.Enabled {
			if _, set := rc.Settings["precision"]; !set {
				settings := maps.Clone(rc.Settings)
				if settings == nil {
					settings = map[string]any{}
				}
				settings["precision"] = *p
				rc.Settings = settings
				result[precisionRule] = rc
			}
		}
	}

	return result
}

// Ignored reports whether filePath matches one of the ignore patterns.
func Ignored(cfg *Config, filePath string) bool {
	return matchesAny(cfg.Ignore, filePath)
}

// matchesAny returns true if filePath matches any of the given glob patterns.
func matchesAny(patterns []string, filePath string) bool {
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if g.Match(filePath) {
			return true
		}
	}
	return false
}
