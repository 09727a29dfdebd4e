package tableformat

import (
	"fmt"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/mdtable"
	"github.com/leavex/mepsonx/internal/rule"
)

func init() {
	rule.Register(&Rule{Pad: 1})
}

// Rule checks that markdown tables are formatted with consistent
// column widths and padding.
type Rule struct {
	Pad int // spaces on each side of cell content
}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "MX005" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "table-format" }

// ApplySettings implements rule.Configurable.
func (r *Rule) ApplySettings(settings map[string]any) error {
	for k, v := range settings {
		switch k {
		case "pad":
			n, ok := rule.IntSetting(v)
			if !ok {
				return fmt.Errorf("table-format: pad must be an integer, got %T", v)
			}
			if n < 0 {
				return fmt.Errorf("table-format: pad must be non-negative, got %d", n)
			}
			r.Pad = n
		default:
			return fmt.Errorf("table-format: unknown setting %q", k)
		}
	}
	return nil
}

// DefaultSettings implements rule.Configurable.
func (r *Rule) DefaultSettings() map[string]any {
	return map[string]any{
		"pad": 1,
	}
}

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, tbl := range mdtable.Find(f.Lines, f.SkipLines()) {
		if tbl.Formatted(r.Pad) {
			continue
		}
		diags = append(diags, lint.Diagnostic{
			File:     f.Path,
			Line:     tbl.StartLine,
			Column:   1,
			RuleID:   r.ID(),
			RuleName: r.Name(),
			Severity: lint.Warning,
			Message:  "table is not formatted",
		})
	}
	return diags
}

// Fix implements rule.FixableRule.
func (r *Rule) Fix(f *lint.File) []byte {
	var edits []mdtable.Edit
	for _, tbl := range mdtable.Find(f.Lines, f.SkipLines()) {
		if tbl.Formatted(r.Pad) {
			continue
		}
		edits = append(edits, mdtable.Edit{
			Start: tbl.StartLine,
			End:   tbl.EndLine(),
			Lines: tbl.Format(r.Pad),
		})
	}
	return mdtable.Apply(f.Source, edits)
}
