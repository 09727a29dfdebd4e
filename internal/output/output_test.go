package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/ranking"
	"github.com/leavex/mepsonx/internal/report"
)

var sample = []lint.Diagnostic{
	{
		File:     "report.md",
		Line:     7,
		Column:   26,
		RuleID:   "MX003",
		RuleName: "percent-consistency",
		Severity: lint.Error,
		Message:  "% on X is 30.0, expected 28.6 (6 of 21)",
	},
	{
		File:     "report.md",
		Line:     3,
		Column:   1,
		RuleID:   "MX005",
		RuleName: "table-format",
		Severity: lint.Warning,
		Message:  "table is not formatted",
	},
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).Format(&buf, sample); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "report.md:7:26 MX003 error: % on X is 30.0, expected 28.6 (6 of 21)\n" +
		"report.md:3:1 MX005 warning: table is not formatted\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestTextFormatter_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{Color: true}).Format(&buf, sample[:1]); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.Contains(got, "\033[36mreport.md:7:26\033[0m") {
		t.Errorf("expected cyan location, got %q", got)
	}
	if !strings.Contains(got, "\033[31merror\033[0m") {
		t.Errorf("expected red severity, got %q", got)
	}
}

func TestTextFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).Format(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, sample); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0]["rule"] != "MX003" || got[0]["name"] != "percent-consistency" || got[0]["severity"] != "error" {
		t.Errorf("unexpected first item %v", got[0])
	}
	if got[0]["line"] != float64(7) {
		t.Errorf("line: got %v", got[0]["line"])
	}
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("expected [], got %q", got)
	}
}

func TestJSONFormatter_KeepsMarkup(t *testing.T) {
	d := sample[0]
	d.Message = "group <S&D> is out of order"
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, []lint.Diagnostic{d}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"message": "group <S&D> is out of order"`) {
		t.Errorf("markup was escaped:\n%s", buf.String())
	}
}

func TestNew(t *testing.T) {
	if f, err := New("text", false); err != nil {
		t.Fatal(err)
	} else if _, ok := f.(*TextFormatter); !ok {
		t.Errorf("expected TextFormatter, got %T", f)
	}
	if f, err := New("json", false); err != nil {
		t.Fatal(err)
	} else if _, ok := f.(*JSONFormatter); !ok {
		t.Errorf("expected JSONFormatter, got %T", f)
	}
	if _, err := New("xml", false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := Summary(&buf, sample); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "1 error, 1 warning\n" {
		t.Errorf("got %q", got)
	}

	buf.Reset()
	if err := Summary(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no summary, got %q", buf.String())
	}
}

func TestRankings(t *testing.T) {
	r := report.Report{
		Provenance: &report.Provenance{
			Generated: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
			Source:    "data/meps.json",
		},
		Tables: []report.Table{
			{
				Title: "Ranking by country (share of MEPs on X)",
				Label: "Country",
				Kind:  ranking.KindShares,
				Rows:  []ranking.Row{{Rank: 1, Group: "Germany", OnX: 65, Total: 96, Percent: 65.0 / 96 * 100}},
			},
			{
				Title: "Ranking by EU group (MEPs on X)",
				Label: "EU group",
				Kind:  ranking.KindCounts,
			},
		},
	}

	var buf bytes.Buffer
	if err := Rankings(&buf, r, 1); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Provenance struct {
			Source string `json:"source"`
		} `json:"provenance"`
		Tables []struct {
			Kind string        `json:"kind"`
			Rows []ranking.Row `json:"rows"`
		} `json:"tables"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Provenance.Source != "data/meps.json" {
		t.Errorf("provenance source: got %q", got.Provenance.Source)
	}
	if len(got.Tables) != 2 || got.Tables[0].Kind != "shares" || got.Tables[1].Kind != "counts" {
		t.Fatalf("unexpected tables %+v", got.Tables)
	}
	want := []ranking.Row{{Rank: 1, Group: "Germany", OnX: 65, Total: 96, Percent: 67.7}}
	if diff := cmp.Diff(want, got.Tables[0].Rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if got.Tables[1].Rows == nil || len(got.Tables[1].Rows) != 0 {
		t.Errorf("expected empty rows array, got %v", got.Tables[1].Rows)
	}
}
