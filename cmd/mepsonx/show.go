package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/log"
)

// runShow implements the "show" subcommand: render a report for the
// terminal.
func (a *app) runShow(args []string) int {
	var (
		configPath string
		verbose    bool
		width      int
		noColor    bool
	)
	fs := a.flagSet("show", "Usage: mepsonx show [flags] [file]\n\n"+
		"Render a Markdown report in the terminal. Defaults to data.report.\n", &configPath, &verbose)
	fs.IntVar(&width, "width", 80, "Word wrap width")
	fs.BoolVar(&noColor, "no-color", false, "Render without ANSI styling")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 1 {
		return a.fail(errors.New("show takes at most one file"))
	}

	logger := log.New(a.stderr, verbose)
	defer logger.Sync() //nolint:errcheck

	path := fs.Arg(0)
	if path == "" {
		cfg, err := a.loadConfig(configPath, logger)
		if err != nil {
			return a.fail(err)
		}
		if path = cfg.Data.Report; path == "" {
			return a.fail(errors.New("show needs a file (or data.report in the config)"))
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return a.fail(err)
	}
	f, err := lint.NewFile(path, source)
	if err != nil {
		return a.fail(err)
	}
	body := bytes.Join(f.Lines[f.FrontMatterLines:], []byte("\n"))

	style := glamour.WithAutoStyle()
	if noColor {
		style = glamour.WithStandardStyle("notty")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return a.fail(fmt.Errorf("creating renderer: %w", err))
	}
	out, err := renderer.RenderBytes(body)
	if err != nil {
		return a.fail(fmt.Errorf("rendering %s: %w", path, err))
	}
	if _, err := a.stdout.Write(out); err != nil {
		return a.fail(err)
	}
	return exitOK
}
