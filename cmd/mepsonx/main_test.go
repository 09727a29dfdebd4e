package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leavex/mepsonx/internal/mep"
	"github.com/leavex/mepsonx/internal/store"
)

func runApp(t *testing.T, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{stdout: &out, stderr: &errOut}
	if stdin != "" {
		a.stdin = strings.NewReader(stdin)
	}
	code = a.run(args)
	return out.String(), errOut.String(), code
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const baseRecords = `[
  {"id": "1", "country": "Latvia", "euGroupFull": "Greens", "usesX": true},
  {"id": "2", "country": "Latvia", "euGroupFull": "Greens", "usesX": true},
  {"id": "3", "country": "Latvia", "euGroupFull": "EPP", "usesX": true},
  {"id": "4", "country": "Germany", "euGroupFull": "EPP", "usesX": true},
  {"id": "5", "country": "Germany", "euGroupFull": "Greens", "usesX": true},
  {"id": "6", "country": "Germany", "euGroupFull": "Greens", "usesX": false},
  {"id": "7", "country": "Hungary", "euGroupFull": "EPP", "usesX": false},
  {"id": "8", "country": "Hungary", "euGroupFull": "Greens", "usesX": false}
]`

const overrideRecords = `{
  "6": {"usesX": true, "xUrl": "https://x.com/someone"},
  "999": {"country": "Malta", "usesX": true},
  "bad": "not an object"
}`

// setupProject writes base records, overrides and a config naming them.
func setupProject(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	writeFixture(t, dir, "base.json", baseRecords)
	writeFixture(t, dir, "overrides.json", overrideRecords)
	cfgPath = writeFixture(t, dir, "mepsonx.yml", fmt.Sprintf(`data:
  base: %[1]s/base.json
  overrides: %[1]s/overrides.json
  merged: %[1]s/out/merged.json
  csv: %[1]s/meps.csv
`, dir))
	return dir, cfgPath
}

func fixedClock(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func TestRun_Usage(t *testing.T) {
	_, stderr, code := runApp(t, "")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "Usage: mepsonx")

	_, stderr, code = runApp(t, "", "frobnicate")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, `mepsonx: unknown command "frobnicate"`)
}

func TestRun_Version(t *testing.T) {
	stdout, _, code := runApp(t, "", "version")
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "mepsonx "))
}

func TestRun_HelpFlag(t *testing.T) {
	_, stderr, code := runApp(t, "", "rank", "--help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "Usage: mepsonx rank")
}

func TestRun_BadFlag(t *testing.T) {
	_, _, code := runApp(t, "", "check", "--nope")
	assert.Equal(t, exitError, code)
}

func TestHelpRule(t *testing.T) {
	stdout, _, code := runApp(t, "", "help", "rule")
	require.Equal(t, exitOK, code)
	for _, id := range []string{"MX001", "MX002", "MX003", "MX004", "MX005", "MX006"} {
		assert.Contains(t, stdout, id)
	}

	stdout, _, code = runApp(t, "", "help", "rule", "rank-sequence")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "# MX001: rank-sequence")

	_, stderr, code := runApp(t, "", "help", "rule", "MX999")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "mepsonx: ")
}

func TestMerge(t *testing.T) {
	dir, cfg := setupProject(t)

	_, stderr, code := runApp(t, "", "merge", "-c", cfg)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "override for bad is not an object")

	merged, err := mep.LoadRecords(filepath.Join(dir, "out", "merged.json"))
	require.NoError(t, err)
	require.Len(t, merged, 9)
	assert.True(t, merged[5].Bool(mep.KeyUsesX))
	assert.Equal(t, "https://x.com/someone", merged[5].String(mep.KeyXURL))
	assert.Equal(t, "999", merged[8].ID())
	assert.Equal(t, "Malta", merged[8].String(mep.KeyCountry))
}

func TestMerge_MissingBase(t *testing.T) {
	dir := t.TempDir()
	_, stderr, code := runApp(t, "", "merge",
		"--base", filepath.Join(dir, "none.json"),
		"--overrides", filepath.Join(dir, "none.json"),
		"-o", filepath.Join(dir, "out.json"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "mepsonx: read records")
}

func TestRank_MarkdownThenCheck(t *testing.T) {
	fixedClock(t)
	dir, cfg := setupProject(t)
	_, stderr, code := runApp(t, "", "merge", "-c", cfg)
	require.Equal(t, exitOK, code, stderr)

	reportPath := filepath.Join(dir, "report.md")
	_, stderr, code = runApp(t, "", "rank", "-c", cfg, "-o", reportPath)
	require.Equal(t, exitOK, code, stderr)

	content, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	got := string(content)

	assert.True(t, strings.HasPrefix(got, "---\ntitle: MEPs on X\n"), got)
	assert.Contains(t, got, "generated: 2026-10-16T12:00:00Z")
	assert.Contains(t, got, "records: 9")
	assert.Contains(t, got, "## Ranking by country (share of MEPs on X)")
	assert.Contains(t, got, "## Ranking by EU group (share of MEPs on X)")

	germany := strings.Index(got, "| Germany |")
	latvia := strings.Index(got, "| Latvia  |")
	malta := strings.Index(got, "| Malta   |")
	hungary := strings.Index(got, "| Hungary |")
	require.True(t, germany > 0 && latvia > 0 && malta > 0 && hungary > 0, got)
	assert.True(t, germany < latvia && latvia < malta && malta < hungary, "ties break by MEPs on X, then name")

	_, stderr, code = runApp(t, "", "check", "-c", cfg, "--no-color", reportPath)
	assert.Equal(t, exitOK, code, stderr)
}

func TestRank_JSONCounts(t *testing.T) {
	_, cfg := setupProject(t)
	_, stderr, code := runApp(t, "", "merge", "-c", cfg)
	require.Equal(t, exitOK, code, stderr)

	stdout, stderr, code := runApp(t, "", "rank", "-c", cfg, "--counts", "--group", "eu-group", "-f", "json", "--no-provenance")
	require.Equal(t, exitOK, code, stderr)

	var out struct {
		Provenance any `json:"provenance"`
		Tables     []struct {
			Kind string `json:"kind"`
			Rows []struct {
				Rank  int    `json:"rank"`
				Group string `json:"group"`
				OnX   int    `json:"meps_on_x"`
			} `json:"rows"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Nil(t, out.Provenance)
	require.Len(t, out.Tables, 1)
	assert.Equal(t, "counts", out.Tables[0].Kind)
	require.Len(t, out.Tables[0].Rows, 2)
	assert.Equal(t, "Greens", out.Tables[0].Rows[0].Group)
	assert.Equal(t, 4, out.Tables[0].Rows[0].OnX)
	assert.Equal(t, "EPP", out.Tables[0].Rows[1].Group)
	assert.Equal(t, 2, out.Tables[0].Rows[1].Rank)
}

func TestRank_UnknownGroupingAndFormat(t *testing.T) {
	_, cfg := setupProject(t)

	_, stderr, code := runApp(t, "", "rank", "-c", cfg, "--group", "planet")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, `unknown grouping "planet"`)

	_, stderr, code = runApp(t, "", "rank", "-c", cfg, "-f", "xml")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, `unknown format "xml"`)
}

func TestRank_FromSnapshot(t *testing.T) {
	dir, cfg := setupProject(t)
	dbPath := filepath.Join(dir, "meps.db")

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	records, err := mep.DecodeRecords([]byte(baseRecords))
	require.NoError(t, err)
	id, err := s.Save(context.Background(), store.Snapshot{Source: "https://example.org", Records: records})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	stdout, stderr, code := runApp(t, "", "rank", "-c", cfg, "--db", dbPath, "--snapshot", id)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "snapshot: "+id)
	assert.Contains(t, stdout, "source: https://example.org")
	assert.Contains(t, stdout, "records: 8")

	_, stderr, code = runApp(t, "", "rank", "-c", cfg, "--db", dbPath, "--snapshot", "missing")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "snapshot not found")

	_, stderr, code = runApp(t, "", "rank", "-c", cfg, "--snapshot", id)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "--snapshot needs --db")
}

func TestRank_PrecisionThenCheck(t *testing.T) {
	for _, tt := range []struct {
		precision int
		want      []string
	}{
		{2, []string{" 66.67 |", " 80.00 |", " 100.00 |"}},
		{0, []string{" 67 |", " 80 |", " 100 |"}},
	} {
		t.Run(fmt.Sprint(tt.precision), func(t *testing.T) {
			dir, cfg := setupProject(t)
			raw, err := os.ReadFile(cfg)
			require.NoError(t, err)
			cfg = writeFixture(t, dir, "mepsonx.yml",
				string(raw)+fmt.Sprintf("ranking:\n  precision: %d\n", tt.precision))

			_, stderr, code := runApp(t, "", "merge", "-c", cfg)
			require.Equal(t, exitOK, code, stderr)
			reportPath := filepath.Join(dir, "report.md")
			_, stderr, code = runApp(t, "", "rank", "-c", cfg, "-o", reportPath)
			require.Equal(t, exitOK, code, stderr)

			content, err := os.ReadFile(reportPath)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, string(content), w)
			}

			stdout, stderr, code := runApp(t, "", "check", "-c", cfg, "--no-color", reportPath)
			assert.Equal(t, exitOK, code, stdout+stderr)
		})
	}
}

func TestSnapshots(t *testing.T) {
	dir, cfg := setupProject(t)
	dbPath := filepath.Join(dir, "meps.db")

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	records, err := mep.DecodeRecords([]byte(baseRecords))
	require.NoError(t, err)
	ctx := context.Background()
	older, err := s.Save(ctx, store.Snapshot{
		Taken: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), Source: "https://example.org/a", Records: records,
	})
	require.NoError(t, err)
	newer, err := s.Save(ctx, store.Snapshot{
		Taken: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC), Source: "https://example.org/b", Records: records[:3],
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	stdout, stderr, code := runApp(t, "", "snapshots", "-c", cfg, "--db", dbPath)
	require.Equal(t, exitOK, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3, stdout)
	assert.True(t, strings.HasPrefix(lines[0], "ID "), lines[0])
	assert.Contains(t, lines[1], newer)
	assert.Contains(t, lines[1], "2026-10-15T09:00:00Z")
	assert.Contains(t, lines[1], "https://example.org/b")
	assert.Regexp(t, `\s3\s`, lines[1])
	assert.Contains(t, lines[2], older)
	assert.Regexp(t, `\s8\s`, lines[2])

	_, stderr, code = runApp(t, "", "snapshots", "-c", cfg)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "needs --db")
}

const brokenReport = `## Ranking by country (share of MEPs on X)

| Rank | Country | MEPs on X | Total MEPs | % on X |
|---|---|---|---|---|
| 1 | Germany | 65 | 96 | 67.7 |
| 2 | Latvia | 9 | 9 | 100.0 |
| 2 | Hungary | 6 | 21 | 28.6 |
`

func TestCheck_ReportsDiagnostics(t *testing.T) {
	dir, cfg := setupProject(t)
	path := writeFixture(t, dir, "broken.md", brokenReport)

	_, stderr, code := runApp(t, "", "check", "-c", cfg, "--no-color", path)
	assert.Equal(t, exitDiags, code)
	assert.Contains(t, stderr, "MX001")
	assert.Contains(t, stderr, "MX004")
	assert.Contains(t, stderr, "MX005")
	assert.Contains(t, stderr, "error")

	_, stderr, code = runApp(t, "", "check", "-c", cfg, "-q", path)
	assert.Equal(t, exitDiags, code)
	assert.Empty(t, stderr)
}

func TestCheck_JSON(t *testing.T) {
	dir, cfg := setupProject(t)
	path := writeFixture(t, dir, "broken.md", brokenReport)

	_, stderr, code := runApp(t, "", "check", "-c", cfg, "-f", "json", path)
	require.Equal(t, exitDiags, code)

	var diags []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stderr), &diags))
	assert.NotEmpty(t, diags)
}

func TestCheck_Stdin(t *testing.T) {
	_, cfg := setupProject(t)

	_, stderr, code := runApp(t, brokenReport, "check", "-c", cfg, "--no-color")
	assert.Equal(t, exitDiags, code)
	assert.Contains(t, stderr, "<stdin>:")
}

func TestCheck_MissingFile(t *testing.T) {
	_, cfg := setupProject(t)
	_, stderr, code := runApp(t, "", "check", "-c", cfg, filepath.Join(t.TempDir(), "none.md"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "mepsonx: ")
}

func TestFix(t *testing.T) {
	dir, cfg := setupProject(t)
	path := writeFixture(t, dir, "broken.md", brokenReport)

	_, stderr, code := runApp(t, "", "fix", "-c", cfg, "--no-color", path)
	require.Equal(t, exitOK, code, stderr)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `## Ranking by country (share of MEPs on X)

| Rank | Country | MEPs on X | Total MEPs | % on X |
|------|---------|-----------|------------|--------|
| 1    | Latvia  | 9         | 9          | 100.0  |
| 2    | Germany | 65        | 96         | 67.7   |
| 3    | Hungary | 6         | 21         | 28.6   |
`
	assert.Equal(t, want, string(content))

	_, stderr, code = runApp(t, "", "check", "-c", cfg, path)
	assert.Equal(t, exitOK, code, stderr)
}

func TestFix_RejectsStdin(t *testing.T) {
	_, stderr, code := runApp(t, brokenReport, "fix")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "cannot fix stdin in place")
}

func TestShow(t *testing.T) {
	dir, _ := setupProject(t)
	path := writeFixture(t, dir, "report.md", "---\ntitle: MEPs on X\n---\n\n"+brokenReport)

	stdout, stderr, code := runApp(t, "", "show", "--no-color", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Latvia")
	assert.NotContains(t, stdout, "title: MEPs on X")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, stderr, code := runApp(t, "", "init")
	require.Equal(t, exitOK, code, stderr)

	data, err := os.ReadFile(filepath.Join(dir, ".mepsonx.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "rank-sequence")
	assert.Contains(t, string(data), "tolerance")

	_, stderr, code = runApp(t, "", "init")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "already exists")
}

const listPage = `<html><body>
<a href="/meps/en/1/ANNA/home">Anna</a>
<a href="/meps/en/2">Bert</a>
</body></html>`

const profileWithX = `<html><body>
<h1>Anna ONE</h1>
<h3 class="erpl_title-h3 mt-1 sln-political-group-name">Greens</h3>
<div class="erpl_title-h3 mt-1 mb-1">Latvia - Party A</div>
<a class="link_twitt" href="https://x.com/anna">X</a>
</body></html>`

const profileWithoutX = `<html><body>
<h1>Bert TWO</h1>
<h3 class="erpl_title-h3 mt-1 sln-political-group-name">EPP</h3>
<div class="erpl_title-h3 mt-1 mb-1">Germany</div>
</body></html>`

func TestScrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/meps/en/full-list/all", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, listPage) })
	mux.HandleFunc("/meps/en/1", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, profileWithX) })
	mux.HandleFunc("/meps/en/2", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, profileWithoutX) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("MEPSONX_BASE_URL", srv.URL)
	t.Setenv("MEPSONX_DELAY", "-1ns")

	dir, cfg := setupProject(t)
	csvPath := filepath.Join(dir, "meps.csv")
	jsonPath := filepath.Join(dir, "data", "meps_all.json")
	dbPath := filepath.Join(dir, "meps.db")

	_, stderr, code := runApp(t, "", "scrape", "-c", cfg, "-o", csvPath, "--json", jsonPath, "--db", dbPath)
	require.Equal(t, exitOK, code, stderr)

	csvData, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "mep_id;name;profile_url;"))
	assert.True(t, strings.HasPrefix(lines[1], "1;Anna ONE;"+srv.URL+"/meps/en/1;"))

	records, err := mep.LoadRecords(jsonPath)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Bool(mep.KeyUsesX))
	assert.False(t, records[1].Bool(mep.KeyUsesX))

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	snap, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Records, 2)
	assert.Equal(t, srv.URL+"/meps/en/full-list/all", snap.Source)

	_, stderr, code = runApp(t, "", "scrape", "-c", cfg, "-o", csvPath, "--only-with-x")
	require.Equal(t, exitOK, code, stderr)
	csvData, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(csvData)), "\n"), 2)
}
