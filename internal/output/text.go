package output

import (
	"fmt"
	"io"

	"github.com/leavex/mepsonx/internal/lint"
)

// TextFormatter outputs diagnostics in human-readable text format.
// When Color is true, the file location is printed in cyan, the rule ID in
// yellow and error severities in red.
type TextFormatter struct {
	Color bool
}

// Format writes each diagnostic as a single line in the pattern:
// file:line:col rule severity: message
func (f *TextFormatter) Format(w io.Writer, diagnostics []lint.Diagnostic) error {
	for _, d := range diagnostics {
		var err error
		if f.Color {
			sev := "\033[33m" + string(d.Severity) + "\033[0m"
			if d.Severity == lint.Error {
				sev = "\033[31m" + string(d.Severity) + "\033[0m"
			}
			_, err = fmt.Fprintf(w, "\033[36m%s:%d:%d\033[0m \033[33m%s\033[0m %s: %s\n",
				d.File, d.Line, d.Column, d.RuleID, sev, d.Message)
		} else {
			_, err = fmt.Fprintf(w, "%s:%d:%d %s %s: %s\n",
				d.File, d.Line, d.Column, d.RuleID, d.Severity, d.Message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
