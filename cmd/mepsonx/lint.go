package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/leavex/mepsonx/internal/config"
	"github.com/leavex/mepsonx/internal/engine"
	fixpkg "github.com/leavex/mepsonx/internal/fix"
	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/log"
	"github.com/leavex/mepsonx/internal/output"
	"github.com/leavex/mepsonx/internal/rule"
)

type lintFlags struct {
	configPath string
	verbose    bool
	format     string
	noColor    bool
	quiet      bool
}

func (a *app) lintFlagSet(name, usage string, lf *lintFlags) *flag.FlagSet {
	fs := a.flagSet(name, usage, &lf.configPath, &lf.verbose)
	fs.StringVarP(&lf.format, "format", "f", "text", "Output format: text, json")
	fs.BoolVar(&lf.noColor, "no-color", false, "Disable ANSI colors")
	fs.BoolVarP(&lf.quiet, "quiet", "q", false, "Suppress diagnostics output")
	return fs
}

// runCheck implements the "check" subcommand: verify report files.
func (a *app) runCheck(args []string) int {
	var lf lintFlags
	fs := a.lintFlagSet("check", "Usage: mepsonx check [flags] [files...]\n\n"+
		"Verify the ranking tables in Markdown reports.\n\n"+
		"Files can be paths, directories (walked recursively for *.md), or glob patterns.\n"+
		"With no file arguments, reads from stdin if piped, else checks the\n"+
		"configured report (data.report).\n", &lf)
	if code, ok := parse(fs, args); !ok {
		return code
	}

	logger := log.New(a.stderr, lf.verbose)
	defer logger.Sync() //nolint:errcheck

	formatter, err := output.New(lf.format, !lf.noColor)
	if err != nil {
		return a.fail(err)
	}
	cfg, err := a.loadConfig(lf.configPath, logger)
	if err != nil {
		return a.fail(err)
	}

	runner := &engine.Runner{Config: cfg, Rules: rule.All(), Logger: logger}

	var result *engine.Result
	files := fs.Args()
	switch {
	case len(files) == 0 && isPipe(a.stdin):
		source, err := io.ReadAll(a.stdin)
		if err != nil {
			return a.fail(fmt.Errorf("reading stdin: %w", err))
		}
		result = runner.RunSource("<stdin>", source)
	default:
		paths, err := reportFiles(files, cfg)
		if err != nil {
			return a.fail(err)
		}
		if len(paths) == 0 {
			return exitOK
		}
		result = runner.Run(paths)
	}

	return a.report(result.Diagnostics, result.Errors, formatter, lf)
}

// runFix implements the "fix" subcommand: fix report files in place.
func (a *app) runFix(args []string) int {
	var lf lintFlags
	fs := a.lintFlagSet("fix", "Usage: mepsonx fix [flags] [files...]\n\n"+
		"Auto-fix the ranking tables in Markdown reports.\n\n"+
		"Files can be paths, directories (walked recursively for *.md), or glob patterns.\n"+
		"Stdin is not supported (files must be writable).\n", &lf)
	if code, ok := parse(fs, args); !ok {
		return code
	}

	logger := log.New(a.stderr, lf.verbose)
	defer logger.Sync() //nolint:errcheck

	files := fs.Args()
	if len(files) == 0 && isPipe(a.stdin) {
		return a.fail(errors.New("cannot fix stdin in place"))
	}

	formatter, err := output.New(lf.format, !lf.noColor)
	if err != nil {
		return a.fail(err)
	}
	cfg, err := a.loadConfig(lf.configPath, logger)
	if err != nil {
		return a.fail(err)
	}
	paths, err := reportFiles(files, cfg)
	if err != nil {
		return a.fail(err)
	}
	if len(paths) == 0 {
		return exitOK
	}

	fixer := &fixpkg.Fixer{Config: cfg, Rules: rule.All(), Logger: logger}
	result := fixer.Fix(paths)
	for _, p := range result.Modified {
		logger.Infof("fixed %s", p)
	}

	return a.report(result.Diagnostics, result.Errors, formatter, lf)
}

// report prints errors and diagnostics and maps them to an exit code.
func (a *app) report(diags []lint.Diagnostic, errs []error, formatter output.Formatter, lf lintFlags) int {
	for _, e := range errs {
		fmt.Fprintf(a.stderr, "mepsonx: %v\n", e)
	}
	if len(errs) > 0 && len(diags) == 0 {
		return exitError
	}

	if !lf.quiet && len(diags) > 0 {
		if err := formatter.Format(a.stderr, diags); err != nil {
			return a.fail(fmt.Errorf("error writing output: %w", err))
		}
		if lf.format != "json" {
			if err := output.Summary(a.stderr, diags); err != nil {
				return a.fail(fmt.Errorf("error writing output: %w", err))
			}
		}
	}

	if len(diags) > 0 {
		return exitDiags
	}
	return exitOK
}

// reportFiles resolves file arguments, falling back to the configured
// report when there are none.
func reportFiles(args []string, cfg *config.Config) ([]string, error) {
	if len(args) == 0 {
		if cfg.Data.Report == "" {
			return nil, nil
		}
		args = []string{cfg.Data.Report}
	}
	return lint.ResolveFiles(args)
}

// isPipe reports whether r is piped input rather than a terminal. Readers
// that are not files count as pipes.
func isPipe(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}
