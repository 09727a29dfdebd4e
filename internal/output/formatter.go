// Package output writes diagnostics and rankings for the terminal and for
// machines.
package output

import (
	"fmt"
	"io"

	"github.com/leavex/mepsonx/internal/lint"
)

// Formatter defines the interface for outputting diagnostics.
type Formatter interface {
	Format(w io.Writer, diagnostics []lint.Diagnostic) error
}

// New returns the formatter for name ("text" or "json").
func New(name string, color bool) (Formatter, error) {
	switch name {
	case "", "text":
		return &TextFormatter{Color: color}, nil
	case "json":
		return &JSONFormatter{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want text or json)", name)
}

// Summary writes a one-line count of errors and warnings, e.g.
// "2 errors, 1 warning". It writes nothing for an empty list.
func Summary(w io.Writer, diagnostics []lint.Diagnostic) error {
	if len(diagnostics) == 0 {
		return nil
	}
	var errs, warns int
	for _, d := range diagnostics {
		if d.Severity == lint.Warning {
			warns++
		} else {
			errs++
		}
	}
	_, err := fmt.Fprintf(w, "%s, %s\n", plural(errs, "error"), plural(warns, "warning"))
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
