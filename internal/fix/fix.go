package fix

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/leavex/mepsonx/internal/config"
	"github.com/leavex/mepsonx/internal/engine"
	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/log"
	"github.com/leavex/mepsonx/internal/rule"
)

// maxPasses bounds the fix loop for rules whose fixes keep feeding each
// other.
const maxPasses = 10

// Fixer applies auto-fixes for fixable rules and reports remaining diagnostics.
type Fixer struct {
	Config *config.Config
	Rules  []rule.Rule
	Logger *log.Logger
}

// FixResult holds the outcome of a fix run.
type FixResult struct {
	// Diagnostics contains remaining diagnostics after fixing (from non-fixable
	// rules and any violations that could not be auto-fixed).
	Diagnostics []lint.Diagnostic
	// Modified lists file paths that were written back to disk.
	Modified []string
	// Errors contains any errors encountered during the fix process.
	Errors []error
}

// Fix applies auto-fixes to the files at the given paths and returns a FixResult
// containing remaining diagnostics, modified file paths, and any errors.
func (f *Fixer) Fix(paths []string) *FixResult {
	res := &FixResult{}

	for _, path := range paths {
		if engine.Ignored(f.Config, path) {
			continue
		}

		source, err := os.ReadFile(path)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("reading %q: %w", path, err))
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("stat %q: %w", path, err))
			continue
		}

		rules, errs := engine.EnabledRules(f.Rules, config.Effective(f.Config, path))
		res.Errors = append(res.Errors, errs...)

		current, err := f.Source(path, source, rules)
		if err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}

		if !bytes.Equal(source, current) {
			if err := os.WriteFile(path, current, info.Mode()); err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("writing %q: %w", path, err))
				continue
			}
			res.Modified = append(res.Modified, path)
		}

		lf, err := lint.NewFile(path, current)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("parsing %q after fix: %w", path, err))
			continue
		}
		res.Diagnostics = append(res.Diagnostics, engine.CheckRules(lf, rules)...)
	}

	engine.SortDiagnostics(res.Diagnostics)
	return res
}

// Source applies the fixable rules among rules to source in repeated
// passes until a pass changes nothing, and returns the result. A later
// rule's fix may introduce violations caught by an earlier rule, such as
// a re-sort leaving ranks out of sequence.
func (f *Fixer) Source(path string, source []byte, rules []rule.Rule) ([]byte, error) {
	fixable := fixableRules(rules)

	current := source
	for pass := 0; pass < maxPasses; pass++ {
		before := current
		for _, fr := range fixable {
			lf, err := lint.NewFile(path, current)
			if err != nil {
				return nil, fmt.Errorf("parsing %q: %w", path, err)
			}
			if len(fr.Check(lf)) == 0 {
				continue
			}
			current = fr.Fix(lf)
			f.Logger.Printf("%s: applied %s (pass %d)", path, fr.Name(), pass+1)
		}
		if bytes.Equal(before, current) {
			break
		}
	}
	return current, nil
}

// fixableRules returns the rules that implement FixableRule, sorted by ID.
func fixableRules(rules []rule.Rule) []rule.FixableRule {
	var fixable []rule.FixableRule
	for _, rl := range rules {
		if fr, ok := rl.(rule.FixableRule); ok {
			fixable = append(fixable, fr)
		}
	}
	sort.Slice(fixable, func(i, j int) bool {
		return fixable[i].ID() < fixable[j].ID()
	})
	return fixable
}
