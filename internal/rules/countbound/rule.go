package countbound

import (
	"fmt"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/ranking"
	"github.com/leavex/mepsonx/internal/report"
	"github.com/leavex/mepsonx/internal/rule"
)

func init() {
	rule.Register(&Rule{})
}

// Rule checks the count columns of ranking tables: both counts must be
// non-negative integers and MEPs on X may not exceed the total. Count
// tables only list groups with at least one MEP on X.
type Rule struct{}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "MX002" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "count-bound" }

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, p := range report.Extract(f) {
		s := p.Schema
		for _, e := range p.Entries {
			add := func(col int, format string, args ...any) {
				diags = append(diags, lint.Diagnostic{
					File:     f.Path,
					Line:     e.Line,
					Column:   p.Column(e, col),
					RuleID:   r.ID(),
					RuleName: r.Name(),
					Severity: lint.Error,
					Message:  fmt.Sprintf(format, args...),
				})
			}

			switch {
			case !e.OnXOK:
				add(s.OnX, "MEPs on X %q is not a whole number", e.Cell(s.OnX))
			case e.OnX < 0:
				add(s.OnX, "MEPs on X is negative (%d)", e.OnX)
			case s.Kind == ranking.KindCounts && e.OnX == 0:
				add(s.OnX, "%q has no MEPs on X and should not be listed", e.Group)
			}

			if s.Kind != ranking.KindShares {
				continue
			}
			switch {
			case !e.TotalOK:
				add(s.Total, "total MEPs %q is not a whole number", e.Cell(s.Total))
			case e.Total < 0:
				add(s.Total, "total MEPs is negative (%d)", e.Total)
			case e.OnXOK && e.OnX > e.Total:
				add(s.OnX, "MEPs on X (%d) exceeds total MEPs (%d) for %q", e.OnX, e.Total, e.Group)
			}
		}
	}
	return diags
}
