package rankingorder

import (
	"testing"

	"github.com/leavex/mepsonx/internal/lint"
)

func newFile(t *testing.T, src string) *lint.File {
	t.Helper()
	f, err := lint.NewFile("report.md", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

const unsorted = `| Rank | Country | MEPs on X | Total MEPs | % on X |
|---|---|---|---|---|
| 1 | Hungary | 6 | 21 | 28.6 |
| 2 | Latvia | 9 | 9 | 100.0 |
| 3 | Germany | 65 | 96 | 67.7 |
`

func TestCheck_Unsorted(t *testing.T) {
	diags := (&Rule{}).Check(newFile(t, unsorted))
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Line != 4 {
		t.Errorf("expected line 4, got %d", d.Line)
	}
	want := `"Latvia" (100.0%) should rank above "Hungary" (28.6%)`
	if d.Message != want {
		t.Errorf("message: got %q, want %q", d.Message, want)
	}
}

func TestCheck_Sorted(t *testing.T) {
	src := `| Rank | Country | MEPs on X | Total MEPs | % on X |
|---|---|---|---|---|
| 1 | Latvia | 9 | 9 | 100.0 |
| 2 | Germany | 65 | 96 | 67.7 |
| 3 | Hungary | 6 | 21 | 28.6 |
`
	if diags := (&Rule{}).Check(newFile(t, src)); len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", diags)
	}
}

const ties = `| Rank | Country | MEPs on X | Total MEPs | % on X |
|---|---|---|---|---|
| 1 | Malta | 3 | 6 | 50.0 |
| 2 | Cyprus | 3 | 6 | 50.0 |
| 3 | Slovenia | 4 | 8 | 50.0 |
`

func TestCheck_TiesLenient(t *testing.T) {
	if diags := (&Rule{}).Check(newFile(t, ties)); len(diags) != 0 {
		t.Fatalf("ties should be accepted without strict-ties, got %+v", diags)
	}
}

func TestCheck_TiesStrict(t *testing.T) {
	diags := (&Rule{StrictTies: true}).Check(newFile(t, ties))
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d: %+v", len(diags), diags)
	}
	if diags[0].Line != 4 || diags[1].Line != 5 {
		t.Errorf("unexpected lines %d, %d", diags[0].Line, diags[1].Line)
	}
}

func TestCheck_CountTable(t *testing.T) {
	src := `| Rank | EU group | MEPs on X |
|---|---|---|
| 1 | EPP | 5 |
| 2 | ECR | 5 |
| 3 | Renew | 9 |
`
	diags := (&Rule{}).Check(newFile(t, src))
	if len(diags) != 1 || diags[0].Message != `"Renew" (9) should rank above "ECR" (5)` {
		t.Fatalf("unexpected diagnostics %+v", diags)
	}

	strict := (&Rule{StrictTies: true}).Check(newFile(t, src))
	if len(strict) != 2 {
		t.Fatalf("expected 2 strict diagnostics, got %+v", strict)
	}
}

func TestFix(t *testing.T) {
	got := string((&Rule{}).Fix(newFile(t, unsorted)))
	want := `| Rank | Country | MEPs on X | Total MEPs | % on X |
|---|---|---|---|---|
| 2 | Latvia | 9 | 9 | 100.0 |
| 3 | Germany | 65 | 96 | 67.7 |
| 1 | Hungary | 6 | 21 | 28.6 |
`
	if got != want {
		t.Errorf("Fix mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFix_StrictTies(t *testing.T) {
	got := string((&Rule{StrictTies: true}).Fix(newFile(t, ties)))
	want := `| Rank | Country | MEPs on X | Total MEPs | % on X |
|---|---|---|---|---|
| 3 | Slovenia | 4 | 8 | 50.0 |
| 2 | Cyprus | 3 | 6 | 50.0 |
| 1 | Malta | 3 | 6 | 50.0 |
`
	if got != want {
		t.Errorf("Fix mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFix_SkipsUnparsableTables(t *testing.T) {
	src := `| Rank | Country | MEPs on X | Total MEPs | % on X |
|---|---|---|---|---|
| 1 | Hungary | 6 | 21 | 28.6 |
| 2 | Latvia | 9 | 9 | n/a |
`
	if got := string((&Rule{}).Fix(newFile(t, src))); got != src {
		t.Errorf("expected unchanged source, got:\n%s", got)
	}
}

func TestApplySettings(t *testing.T) {
	r := &Rule{}
	if err := r.ApplySettings(map[string]any{"strict-ties": true}); err != nil {
		t.Fatal(err)
	}
	if !r.StrictTies {
		t.Error("expected strict-ties to be set")
	}
	if err := r.ApplySettings(map[string]any{"strict-ties": "yes"}); err == nil {
		t.Error("expected error for non-bool")
	}
}
