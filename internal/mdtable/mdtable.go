// Package mdtable finds, splits and formats GitHub-Flavored-Markdown tables
// line by line, keeping source line numbers for every row.
package mdtable

import (
	"regexp"
	"strings"
)

// Align is a column alignment taken from the separator row.
type Align int

// Column alignments.
const (
	AlignNone   Align = iota
	AlignLeft         // :---
	AlignCenter       // :---:
	AlignRight        // ---:
)

// Row is a data row with its 1-based source line.
type Row struct {
	Line  int
	Cells []string
}

// Table is a parsed table block.
type Table struct {
	// StartLine is the 1-based line of the header row.
	StartLine int
	// Prefix is a blockquote or indentation prefix shared by all lines.
	Prefix string
	Header []string
	Aligns []Align
	Rows   []Row
	// Raw holds the source lines of the table: header, separator, rows.
	Raw []string
}

// EndLine returns the 1-based line of the last table row.
func (t Table) EndLine() int {
	return t.StartLine + len(t.Raw) - 1
}

// Column returns the index of the header cell equal to name, ignoring
// case and surrounding space, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

var separatorRe = regexp.MustCompile(`^:?-+:?$`)

// Find scans lines for table blocks. Lines whose 1-based number is in
// skip (front matter, code blocks) never start or continue a table.
func Find(lines [][]byte, skip map[int]bool) []Table {
	var tables []Table
	for i := 0; i < len(lines); {
		if skip[i+1] {
			i++
			continue
		}
		tbl, next := parseAt(lines, i, skip)
		if tbl == nil {
			i++
			continue
		}
		tables = append(tables, *tbl)
		i = next
	}
	return tables
}

// parseAt tries to parse a table whose header is at index start. It
// returns the table and the index of the first line after it.
func parseAt(lines [][]byte, start int, skip map[int]bool) (*Table, int) {
	if start+1 >= len(lines) || skip[start+2] {
		return nil, start
	}

	first := string(lines[start])
	prefix := detectPrefix(first)
	header := strings.TrimPrefix(first, prefix)
	sep := strings.TrimPrefix(string(lines[start+1]), prefix)
	if !isRow(header) || !isRow(sep) {
		return nil, start
	}
	sepCells := SplitRow(sep)
	aligns, ok := parseSeparator(sepCells)
	if !ok {
		return nil, start
	}

	tbl := &Table{
		StartLine: start + 1,
		Prefix:    prefix,
		Header:    SplitRow(header),
		Aligns:    aligns,
		Raw:       []string{first, string(lines[start+1])},
	}

	end := start + 2
	for end < len(lines) && !skip[end+1] {
		raw := string(lines[end])
		content := strings.TrimPrefix(raw, prefix)
		if !isRow(content) {
			break
		}
		tbl.Rows = append(tbl.Rows, Row{Line: end + 1, Cells: SplitRow(content)})
		tbl.Raw = append(tbl.Raw, raw)
		end++
	}
	return tbl, end
}

// detectPrefix returns the blockquote markers or indentation before the
// first pipe of a line.
func detectPrefix(line string) string {
	idx := strings.Index(line, "|")
	if idx <= 0 {
		return ""
	}
	p := line[:idx]
	if strings.Trim(p, " >") == "" {
		return p
	}
	return ""
}

// isRow reports whether s starts and ends with a pipe.
func isRow(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 2 && s[0] == '|' && s[len(s)-1] == '|'
}

// SplitRow splits a table row into trimmed cells. The outer pipes are
// removed. Backslash escapes such as \| and \\ stay inside their cell as
// written.
func SplitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	if strings.HasSuffix(row, "|") && !escaped(row, len(row)-1) {
		row = row[:len(row)-1]
	}

	var cells []string
	var cur strings.Builder
	for i := 0; i < len(row); i++ {
		if row[i] == '\\' && i+1 < len(row) {
			cur.WriteByte(row[i])
			cur.WriteByte(row[i+1])
			i++
			continue
		}
		if row[i] == '|' {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteByte(row[i])
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

// escaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func escaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// EscapeCell escapes backslashes and pipes so s can be written as one
// cell.
func EscapeCell(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "|", `\|`)
}

// UnescapeCell reverses EscapeCell. Other backslash sequences are kept.
func UnescapeCell(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '|') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func parseSeparator(cells []string) ([]Align, bool) {
	if len(cells) == 0 {
		return nil, false
	}
	aligns := make([]Align, len(cells))
	for i, c := range cells {
		if !separatorRe.MatchString(c) {
			return nil, false
		}
		left, right := strings.HasPrefix(c, ":"), strings.HasSuffix(c, ":")
		switch {
		case left && right:
			aligns[i] = AlignCenter
		case right:
			aligns[i] = AlignRight
		case left:
			aligns[i] = AlignLeft
		}
	}
	return aligns, true
}
