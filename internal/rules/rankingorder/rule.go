package rankingorder

import (
	"fmt"
	"sort"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/mdtable"
	"github.com/leavex/mepsonx/internal/ranking"
	"github.com/leavex/mepsonx/internal/report"
	"github.com/leavex/mepsonx/internal/rule"
)

func init() {
	rule.Register(&Rule{})
}

// Rule checks that ranking table rows are ordered best first: share
// tables by "% on X" descending, count tables by "MEPs on X" descending.
// With StrictTies, rows that tie are also checked against the
// tie-breaks the ranking uses: MEPs on X descending (share tables only),
// then group name ascending.
type Rule struct {
	StrictTies bool
}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "MX004" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "ranking-order" }

// ApplySettings implements rule.Configurable.
func (r *Rule) ApplySettings(settings map[string]any) error {
	for k, v := range settings {
		switch k {
		case "strict-ties":
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("ranking-order: strict-ties must be a bool, got %T", v)
			}
			r.StrictTies = b
		default:
			return fmt.Errorf("ranking-order: unknown setting %q", k)
		}
	}
	return nil
}

// DefaultSettings implements rule.Configurable.
func (r *Rule) DefaultSettings() map[string]any {
	return map[string]any{"strict-ties": false}
}

// sortable reports whether every entry carries the values the order
// depends on.
func sortable(p report.Parsed) bool {
	for _, e := range p.Entries {
		if !e.OnXOK || (p.Schema.Kind == ranking.KindShares && !e.PercentOK) {
			return false
		}
	}
	return true
}

// less reports whether a must be listed before b.
func (r *Rule) less(kind ranking.Kind, a, b report.Entry) bool {
	if kind == ranking.KindShares {
		if c := ranking.ComparePercent(a.Percent, b.Percent); c != 0 {
			return c > 0
		}
		if !r.StrictTies {
			return false
		}
		if a.OnX != b.OnX {
			return a.OnX > b.OnX
		}
		return a.Group < b.Group
	}
	if a.OnX != b.OnX {
		return a.OnX > b.OnX
	}
	return r.StrictTies && a.Group < b.Group
}

func (r *Rule) describe(kind ranking.Kind, e report.Entry, s report.Schema) string {
	if kind == ranking.KindShares {
		return fmt.Sprintf("%q (%s%%)", e.Group, e.Cell(s.Percent))
	}
	return fmt.Sprintf("%q (%d)", e.Group, e.OnX)
}

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, p := range report.Extract(f) {
		kind := p.Schema.Kind
		col := p.Schema.OnX
		if kind == ranking.KindShares {
			col = p.Schema.Percent
		}
		for i := 1; i < len(p.Entries); i++ {
			prev, cur := p.Entries[i-1], p.Entries[i]
			if !cur.OnXOK || !prev.OnXOK {
				continue
			}
			if kind == ranking.KindShares && (!cur.PercentOK || !prev.PercentOK) {
				continue
			}
			if !r.less(kind, cur, prev) {
				continue
			}
			diags = append(diags, lint.Diagnostic{
				File:     f.Path,
				Line:     cur.Line,
				Column:   p.Column(cur, col),
				RuleID:   r.ID(),
				RuleName: r.Name(),
				Severity: lint.Error,
				Message: fmt.Sprintf("%s should rank above %s",
					r.describe(kind, cur, p.Schema), r.describe(kind, prev, p.Schema)),
			})
		}
	}
	return diags
}

// Fix implements rule.FixableRule. It reorders the rows of tables whose
// values all parse; the rank column is left for rank-sequence to
// renumber.
func (r *Rule) Fix(f *lint.File) []byte {
	var edits []mdtable.Edit
	for _, p := range report.Extract(f) {
		if !sortable(p) {
			continue
		}
		order := make([]int, len(p.Entries))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return r.less(p.Schema.Kind, p.Entries[order[a]], p.Entries[order[b]])
		})

		moved := false
		lines := make([]string, len(order))
		for i, idx := range order {
			lines[i] = p.Source.Raw[idx+2]
			moved = moved || idx != i
		}
		if moved {
			edits = append(edits, p.Source.RowsEdit(lines))
		}
	}
	return mdtable.Apply(f.Source, edits)
}
