package engine

import (
	"fmt"
	"os"

	"github.com/leavex/mepsonx/internal/config"
	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/log"
	"github.com/leavex/mepsonx/internal/rule"
)

// Runner drives the check pipeline: for each report it reads the content,
// builds a File (parsing the AST once), determines the effective rule
// configuration, runs enabled rules, and collects diagnostics.
type Runner struct {
	Config *config.Config
	Rules  []rule.Rule
	Logger *log.Logger
}

// Result holds the output of a check run.
type Result struct {
	Diagnostics []lint.Diagnostic
	Errors      []error
}

// Run checks the files at the given paths and returns a Result containing
// all diagnostics (sorted by file, line, column) and any errors encountered.
func (r *Runner) Run(paths []string) *Result {
	res := &Result{}

	for _, path := range paths {
		if Ignored(r.Config, path) {
			r.Logger.Printf("ignoring %s", path)
			continue
		}

		source, err := os.ReadFile(path)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("reading %q: %w", path, err))
			continue
		}
		r.check(res, path, source)
	}

	SortDiagnostics(res.Diagnostics)
	return res
}

// RunSource checks source as if it were read from path. It is used for
// standard input.
func (r *Runner) RunSource(path string, source []byte) *Result {
	res := &Result{}
	r.check(res, path, source)
	SortDiagnostics(res.Diagnostics)
	return res
}

func (r *Runner) check(res *Result, path string, source []byte) {
	f, err := lint.NewFile(path, source)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("parsing %q: %w", path, err))
		return
	}

	rules, errs := EnabledRules(r.Rules, config.Effective(r.Config, path))
	res.Errors = append(res.Errors, errs...)

	diags := CheckRules(f, rules)
	r.Logger.Printf("checked %s with %d rules: %d diagnostics", path, len(rules), len(diags))
	res.Diagnostics = append(res.Diagnostics, diags...)
}
