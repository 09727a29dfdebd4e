package output

import (
	"encoding/json"
	"io"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/ranking"
	"github.com/leavex/mepsonx/internal/report"
)

// encode writes v indented by two spaces with <, > and & left literal.
func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// JSONFormatter writes check diagnostics as a JSON array. No
// diagnostics produce [].
type JSONFormatter struct{}

type diagnosticJSON struct {
	File     string        `json:"file"`
	Line     int           `json:"line"`
	Column   int           `json:"column"`
	Rule     string        `json:"rule"`
	Name     string        `json:"name"`
	Severity lint.Severity `json:"severity"`
	Message  string        `json:"message"`
}

func toDiagnosticJSON(d lint.Diagnostic) diagnosticJSON {
	return diagnosticJSON{
		File:     d.File,
		Line:     d.Line,
		Column:   d.Column,
		Rule:     d.RuleID,
		Name:     d.RuleName,
		Severity: d.Severity,
		Message:  d.Message,
	}
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, diagnostics []lint.Diagnostic) error {
	out := make([]diagnosticJSON, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = toDiagnosticJSON(d)
	}
	return encode(w, out)
}

type tableJSON struct {
	Title string        `json:"title"`
	Label string        `json:"label"`
	Kind  string        `json:"kind"`
	Rows  []ranking.Row `json:"rows"`
}

type reportJSON struct {
	Provenance *report.Provenance `json:"provenance,omitempty"`
	Tables     []tableJSON        `json:"tables"`
}

func kindName(k ranking.Kind) string {
	if k == ranking.KindCounts {
		return "counts"
	}
	return "shares"
}

// toTableJSON copies t with each percentage rounded to the value a
// Markdown report prints at precision.
func toTableJSON(t report.Table, precision int) tableJSON {
	rows := make([]ranking.Row, len(t.Rows))
	for i, row := range t.Rows {
		row.Percent = ranking.Round(row.Percent, precision)
		rows[i] = row
	}
	return tableJSON{Title: t.Title, Label: t.Label, Kind: kindName(t.Kind), Rows: rows}
}

// Rankings writes r as JSON with percentages rounded to precision
// decimals. Count tables carry total_meps and percent_on_x as zero.
func Rankings(w io.Writer, r report.Report, precision int) error {
	out := reportJSON{Provenance: r.Provenance, Tables: make([]tableJSON, len(r.Tables))}
	for i, t := range r.Tables {
		out.Tables[i] = toTableJSON(t, precision)
	}
	return encode(w, out)
}
