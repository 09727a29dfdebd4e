package ranksequence

import (
	"fmt"
	"strconv"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/mdtable"
	"github.com/leavex/mepsonx/internal/report"
	"github.com/leavex/mepsonx/internal/rule"
)

func init() {
	rule.Register(&Rule{})
}

// Rule checks that the ranks of every ranking table run 1..N in row
// order, with no gaps or duplicates.
type Rule struct{}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "MX001" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "rank-sequence" }

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, p := range report.Extract(f) {
		for i, e := range p.Entries {
			want := i + 1
			var msg string
			switch {
			case !e.RankOK:
				msg = fmt.Sprintf("rank %q is not a number, expected %d", e.Cell(p.Schema.Rank), want)
			case e.Rank != want:
				msg = fmt.Sprintf("rank %d out of sequence, expected %d", e.Rank, want)
			default:
				continue
			}
			diags = append(diags, lint.Diagnostic{
				File:     f.Path,
				Line:     e.Line,
				Column:   p.Column(e, p.Schema.Rank),
				RuleID:   r.ID(),
				RuleName: r.Name(),
				Severity: lint.Error,
				Message:  msg,
			})
		}
	}
	return diags
}

// Fix implements rule.FixableRule. It renumbers every ranking table
// 1..N in row order.
func (r *Rule) Fix(f *lint.File) []byte {
	var edits []mdtable.Edit
	for _, p := range report.Extract(f) {
		changed := false
		lines := make([]string, len(p.Entries))
		for i, e := range p.Entries {
			want := strconv.Itoa(i + 1)
			if e.Cell(p.Schema.Rank) == want {
				lines[i] = p.Source.Raw[i+2]
				continue
			}
			cells := append([]string(nil), e.Cells...)
			for len(cells) <= p.Schema.Rank {
				cells = append(cells, "")
			}
			cells[p.Schema.Rank] = want
			lines[i] = p.Source.RowLine(cells)
			changed = true
		}
		if changed {
			edits = append(edits, p.Source.RowsEdit(lines))
		}
	}
	return mdtable.Apply(f.Source, edits)
}
