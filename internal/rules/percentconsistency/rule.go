package percentconsistency

import (
	"fmt"
	"math"
	"strings"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/mdtable"
	"github.com/leavex/mepsonx/internal/ranking"
	"github.com/leavex/mepsonx/internal/report"
	"github.com/leavex/mepsonx/internal/rule"
)

func init() {
	rule.Register(&Rule{Tolerance: 0.05, Precision: 1})
}

// Rule checks that the "% on X" cell of every share table row equals
// MEPs on X over total MEPs, rounded to Precision decimals, within
// Tolerance, and that it is written with exactly Precision decimals.
type Rule struct {
	Tolerance float64
	Precision int
}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "MX003" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "percent-consistency" }

// ApplySettings implements rule.Configurable.
func (r *Rule) ApplySettings(settings map[string]any) error {
	for k, v := range settings {
		switch k {
		case "tolerance":
			n, ok := rule.FloatSetting(v)
			if !ok {
				return fmt.Errorf("percent-consistency: tolerance must be a number, got %T", v)
			}
			if n < 0 {
				return fmt.Errorf("percent-consistency: tolerance must be non-negative, got %v", n)
			}
			r.Tolerance = n
		case "precision":
			n, ok := rule.IntSetting(v)
			if !ok {
				return fmt.Errorf("percent-consistency: precision must be an integer, got %T", v)
			}
			if n < 0 || n > 6 {
				return fmt.Errorf("percent-consistency: precision must be between 0 and 6, got %d", n)
			}
			r.Precision = n
		default:
			return fmt.Errorf("percent-consistency: unknown setting %q", k)
		}
	}
	return nil
}

// DefaultSettings implements rule.Configurable.
func (r *Rule) DefaultSettings() map[string]any {
	return map[string]any{
		"tolerance": 0.05,
		"precision": 1,
	}
}

type finding struct {
	entry    report.Entry
	severity lint.Severity
	message  string
	want     string
}

func (r *Rule) findings(p report.Parsed) []finding {
	if p.Schema.Kind != ranking.KindShares {
		return nil
	}
	var out []finding
	for _, e := range p.Entries {
		if !e.OnXOK || !e.TotalOK || e.OnX < 0 || e.Total < 0 || e.OnX > e.Total {
			continue
		}
		expected := ranking.Round(ranking.Percent(e.OnX, e.Total), r.Precision)
		want := ranking.FormatPercent(expected, r.Precision)
		cell := e.Cell(p.Schema.Percent)

		switch {
		case !e.PercentOK:
			out = append(out, finding{e, lint.Error,
				fmt.Sprintf("%% on X %q is not a number, expected %s", cell, want), want})
		case math.Abs(e.Percent-expected) > r.Tolerance+1e-9:
			out = append(out, finding{e, lint.Error,
				fmt.Sprintf("%% on X is %s, expected %s (%d of %d)", cell, want, e.OnX, e.Total), want})
		case decimals(cell) != r.Precision:
			out = append(out, finding{e, lint.Warning,
				fmt.Sprintf("%% on X %q should have %d decimal places", cell, r.Precision), want})
		}
	}
	return out
}

// decimals counts the digits after the decimal point of a percent cell.
func decimals(cell string) int {
	cell = strings.TrimSuffix(strings.TrimSpace(cell), "%")
	i := strings.IndexByte(cell, '.')
	if i < 0 {
		return 0
	}
	return len(cell) - i - 1
}

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, p := range report.Extract(f) {
		for _, fd := range r.findings(p) {
			diags = append(diags, lint.Diagnostic{
				File:     f.Path,
				Line:     fd.entry.Line,
				Column:   p.Column(fd.entry, p.Schema.Percent),
				RuleID:   r.ID(),
				RuleName: r.Name(),
				Severity: fd.severity,
				Message:  fd.message,
			})
		}
	}
	return diags
}

// Fix implements rule.FixableRule. It rewrites every flagged percent
// cell with the recomputed value.
func (r *Rule) Fix(f *lint.File) []byte {
	var edits []mdtable.Edit
	for _, p := range report.Extract(f) {
		fds := r.findings(p)
		if len(fds) == 0 {
			continue
		}
		fixed := make(map[int]string, len(fds))
		for _, fd := range fds {
			fixed[fd.entry.Line] = fd.want
		}
		lines := make([]string, len(p.Entries))
		for i, e := range p.Entries {
			want, ok := fixed[e.Line]
			if !ok {
				lines[i] = p.Source.Raw[i+2]
				continue
			}
			cells := append([]string(nil), e.Cells...)
			for len(cells) <= p.Schema.Percent {
				cells = append(cells, "")
			}
			cells[p.Schema.Percent] = want
			lines[i] = p.Source.RowLine(cells)
		}
		edits = append(edits, p.Source.RowsEdit(lines))
	}
	return mdtable.Apply(f.Source, edits)
}
