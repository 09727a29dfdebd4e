package mdtable

import (
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// New builds a table from a header and data rows. Line numbers are left
// at zero; the table is meant for rendering.
func New(header []string, rows [][]string) Table {
	t := Table{Header: header, Aligns: make([]Align, len(header))}
	for _, cells := range rows {
		t.Rows = append(t.Rows, Row{Cells: cells})
	}
	return t
}

// Format renders the table with every column padded to its widest cell
// and pad spaces on each side of the content. Column widths are at least
// three so separator dashes always fit.
func (t Table) Format(pad int) []string {
	if pad < 0 {
		pad = 1
	}
	n := len(t.Header)
	widths := make([]int, n)
	measure := func(cells []string) {
		for j := 0; j < n && j < len(cells); j++ {
			if w := runewidth.StringWidth(cells[j]); w > widths[j] {
				widths[j] = w
			}
		}
	}
	measure(t.Header)
	for _, r := range t.Rows {
		measure(r.Cells)
	}
	for j := range widths {
		if widths[j] < 3 {
			widths[j] = 3
		}
	}

	aligns := make([]Align, n)
	copy(aligns, t.Aligns)

	lines := make([]string, 0, len(t.Rows)+2)
	lines = append(lines, t.formatRow(t.Header, widths, aligns, pad))
	lines = append(lines, t.formatSeparator(widths, aligns, pad))
	for _, r := range t.Rows {
		lines = append(lines, t.formatRow(r.Cells, widths, aligns, pad))
	}
	return lines
}

func (t Table) formatRow(cells []string, widths []int, aligns []Align, pad int) string {
	var b strings.Builder
	b.WriteString(t.Prefix)
	b.WriteByte('|')
	padding := strings.Repeat(" ", pad)
	for j, w := range widths {
		cell := ""
		if j < len(cells) {
			cell = cells[j]
		}
		gap := w - runewidth.StringWidth(cell)
		left, right := 0, gap
		switch aligns[j] {
		case AlignRight:
			left, right = gap, 0
		case AlignCenter:
			left = gap / 2
			right = gap - left
		}
		b.WriteString(padding)
		b.WriteString(strings.Repeat(" ", left))
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", right))
		b.WriteString(padding)
		b.WriteByte('|')
	}
	return b.String()
}

func (t Table) formatSeparator(widths []int, aligns []Align, pad int) string {
	var b strings.Builder
	b.WriteString(t.Prefix)
	b.WriteByte('|')
	for j, w := range widths {
		total := w + 2*pad
		switch aligns[j] {
		case AlignLeft:
			b.WriteString(":" + strings.Repeat("-", total-1))
		case AlignRight:
			b.WriteString(strings.Repeat("-", total-1) + ":")
		case AlignCenter:
			b.WriteString(":" + strings.Repeat("-", total-2) + ":")
		default:
			b.WriteString(strings.Repeat("-", total))
		}
		b.WriteByte('|')
	}
	return b.String()
}

// Formatted reports whether the table source already equals Format(pad).
func (t Table) Formatted(pad int) bool {
	want := t.Format(pad)
	if len(want) != len(t.Raw) {
		return false
	}
	for i := range want {
		if want[i] != t.Raw[i] {
			return false
		}
	}
	return true
}

// Edit replaces the 1-based inclusive line range [Start, End] with Lines.
type Edit struct {
	Start int
	End   int
	Lines []string
}

// Apply applies non-overlapping edits to source and returns the result.
// Line endings outside the edited ranges are preserved.
func Apply(source []byte, edits []Edit) []byte {
	if len(edits) == 0 {
		out := make([]byte, len(source))
		copy(out, source)
		return out
	}
	lines := strings.Split(string(source), "\n")

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	for _, e := range sorted {
		if e.Start < 1 || e.End < e.Start || e.End > len(lines) {
			continue
		}
		tail := append([]string{}, lines[e.End:]...)
		lines = append(append(lines[:e.Start-1], e.Lines...), tail...)
	}
	return []byte(strings.Join(lines, "\n"))
}

// RowLine renders cells as an unpadded row carrying the table prefix.
func (t Table) RowLine(cells []string) string {
	return t.Prefix + "| " + strings.Join(cells, " | ") + " |"
}

// RowsEdit returns an edit that replaces the data rows of t with lines.
func (t Table) RowsEdit(lines []string) Edit {
	return Edit{Start: t.StartLine + 2, End: t.EndLine(), Lines: lines}
}
