package engine

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/leavex/mepsonx/internal/config"
	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/rule"
)

// EnabledRules returns the rules enabled in effective, each configured
// with its settings. The registered instances are not modified.
func EnabledRules(rules []rule.Rule, effective map[string]config.RuleCfg) ([]rule.Rule, []error) {
	var out []rule.Rule
	var errs []error
	for _, rl := range rules {
		cfg, ok := effective[rl.Name()]
		if !ok || !cfg.Enabled {
			continue
		}
		configured, err := rule.Configure(rl, cfg.Settings)
		if err != nil {
			errs = append(errs, fmt.Errorf("applying settings for %s: %w", rl.Name(), err))
			continue
		}
		out = append(out, configured)
	}
	return out, errs
}

// CheckRules runs rules against f and returns the collected diagnostics.
func CheckRules(f *lint.File, rules []rule.Rule) []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, rl := range rules {
		diags = append(diags, rl.Check(f)...)
	}
	return diags
}

// Ignored reports whether path matches an ignore pattern of cfg, either
// as given, cleaned, or by its base name.
func Ignored(cfg *config.Config, path string) bool {
	return config.Ignored(cfg, path) ||
		config.Ignored(cfg, filepath.Clean(path)) ||
		config.Ignored(cfg, filepath.Base(path))
}

// SortDiagnostics orders diagnostics by file, line, column and rule ID.
func SortDiagnostics(diags []lint.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		di, dj := diags[i], diags[j]
		if di.File != dj.File {
			return di.File < dj.File
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		return di.RuleID < dj.RuleID
	})
}
