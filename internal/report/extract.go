package report

import (
	"strconv"
	"strings"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/mdtable"
	"github.com/leavex/mepsonx/internal/ranking"
)

// Schema holds the column indexes of a ranking table. Total and Percent
// are -1 in count tables.
type Schema struct {
	Rank    int
	Label   int
	OnX     int
	Total   int
	Percent int
	Kind    ranking.Kind
}

// Entry is one data row of a ranking table as written in the file.
type Entry struct {
	Line  int
	Cells []string

	Rank    int
	Group   string
	OnX     int
	Total   int
	Percent float64

	RankOK, OnXOK, TotalOK, PercentOK bool
}

// Cell returns the raw text of column col, or "".
func (e Entry) Cell(col int) string {
	if col < 0 || col >= len(e.Cells) {
		return ""
	}
	return e.Cells[col]
}

// Parsed is a ranking table found in a report file.
type Parsed struct {
	Title   string
	Label   string
	Schema  Schema
	Source  mdtable.Table
	Entries []Entry
}

// Extract returns the ranking tables of f: tables with a "Rank" and a
// "MEPs on X" column. A table that also has "Total MEPs" and "% on X" is a
// share table, otherwise a count table. The label column is the first
// column that is none of these. Each table is titled by the nearest
// heading above it.
func Extract(f *lint.File) []Parsed {
	headings := f.Headings()
	var out []Parsed
	for _, t := range mdtable.Find(f.Lines, f.SkipLines()) {
		schema, ok := schemaOf(t)
		if !ok {
			continue
		}
		p := Parsed{
			Title:  titleFor(headings, t.StartLine),
			Schema: schema,
			Source: t,
		}
		if schema.Label >= 0 {
			p.Label = t.Header[schema.Label]
		}
		for _, r := range t.Rows {
			p.Entries = append(p.Entries, parseEntry(schema, r))
		}
		out = append(out, p)
	}
	return out
}

func schemaOf(t mdtable.Table) (Schema, bool) {
	s := Schema{
		Rank:    t.Column(ColRank),
		OnX:     t.Column(ColOnX),
		Total:   t.Column(ColTotal),
		Percent: t.Column(ColPercent),
		Label:   -1,
	}
	if s.Rank < 0 || s.OnX < 0 {
		return Schema{}, false
	}
	if s.Total >= 0 && s.Percent >= 0 {
		s.Kind = ranking.KindShares
	} else {
		s.Kind = ranking.KindCounts
		s.Total, s.Percent = -1, -1
	}
	for i := range t.Header {
		if i != s.Rank && i != s.OnX && i != s.Total && i != s.Percent {
			s.Label = i
			break
		}
	}
	return s, true
}

func titleFor(headings []lint.Heading, line int) string {
	title := ""
	for _, h := range headings {
		if h.Line >= line {
			break
		}
		title = h.Text
	}
	return title
}

func parseEntry(s Schema, r mdtable.Row) Entry {
	e := Entry{Line: r.Line, Cells: r.Cells}
	e.Rank, e.RankOK = atoi(e.Cell(s.Rank))
	e.OnX, e.OnXOK = atoi(e.Cell(s.OnX))
	e.Group = mdtable.UnescapeCell(e.Cell(s.Label))
	if s.Kind == ranking.KindShares {
		e.Total, e.TotalOK = atoi(e.Cell(s.Total))
		if v, err := strconv.ParseFloat(strings.TrimSuffix(e.Cell(s.Percent), "%"), 64); err == nil {
			e.Percent, e.PercentOK = v, true
		}
	}
	return e
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// Row converts e to a ranking row.
func (e Entry) Row() ranking.Row {
	return ranking.Row{Rank: e.Rank, Group: e.Group, OnX: e.OnX, Total: e.Total, Percent: e.Percent}
}

// Column returns the 1-based column where cell col starts in the raw
// source line of the entry, or 1 when it cannot be located.
func (p Parsed) Column(e Entry, col int) int {
	idx := e.Line - p.Source.StartLine
	if idx < 0 || idx >= len(p.Source.Raw) {
		return 1
	}
	raw := p.Source.Raw[idx]
	i := len(p.Source.Prefix)
	for i < len(raw) && raw[i] == ' ' {
		i++
	}
	pipes := 0
	for ; i < len(raw); i++ {
		if raw[i] == '\\' {
			i++
			continue
		}
		if raw[i] != '|' {
			continue
		}
		if pipes == col {
			j := i + 1
			for j < len(raw) && raw[j] == ' ' {
				j++
			}
			return j + 1
		}
		pipes++
	}
	return 1
}

// ReadProvenance decodes the report front matter. It returns nil when
// the file has none.
func ReadProvenance(f *lint.File) (*Provenance, error) {
	var p Provenance
	ok, err := f.DecodeFrontMatter(&p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}
