// Package report renders ranking tables as a Markdown report and reads
// them back from report files.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leavex/mepsonx/internal/mdtable"
	"github.com/leavex/mepsonx/internal/ranking"
)

// Column headers.
const (
	ColRank    = "Rank"
	ColOnX     = "MEPs on X"
	ColTotal   = "Total MEPs"
	ColPercent = "% on X"
)

// Provenance is the front matter block of a generated report.
type Provenance struct {
	Title     string    `yaml:"title,omitempty" json:"title,omitempty"`
	Generated time.Time `yaml:"generated" json:"generated"`
	Source    string    `yaml:"source,omitempty" json:"source,omitempty"`
	Records   int       `yaml:"records,omitempty" json:"records,omitempty"`
	Snapshot  string    `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`
}

// Table is one ranking table to render.
type Table struct {
	Title string        `json:"title"`
	Label string        `json:"label"`
	Kind  ranking.Kind  `json:"-"`
	Rows  []ranking.Row `json:"rows"`
}

// Report is a complete report document.
type Report struct {
	Provenance *Provenance `json:"provenance,omitempty"`
	Tables     []Table     `json:"tables"`
}

// Options controls rendering.
type Options struct {
	Precision int
	Pad       int
}

// DefaultOptions returns one decimal and one space of cell padding.
func DefaultOptions() Options {
	return Options{Precision: 1, Pad: 1}
}

// Render writes r as Markdown: optional front matter, then one level-two
// heading and one aligned table per ranking table.
func Render(w io.Writer, r Report, opts Options) error {
	var buf bytes.Buffer

	if r.Provenance != nil {
		meta, err := yaml.Marshal(r.Provenance)
		if err != nil {
			return fmt.Errorf("marshal provenance: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(meta)
		buf.WriteString("---\n\n")
	}

	for i, t := range r.Tables {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "## %s\n\n", t.Title)
		for _, line := range markdownTable(t, opts).Format(opts.Pad) {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func markdownTable(t Table, opts Options) mdtable.Table {
	header := []string{ColRank, t.Label, ColOnX}
	if t.Kind == ranking.KindShares {
		header = append(header, ColTotal, ColPercent)
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		cells := []string{
			strconv.Itoa(r.Rank),
			mdtable.EscapeCell(r.Group),
			strconv.Itoa(r.OnX),
		}
		if t.Kind == ranking.KindShares {
			cells = append(cells, strconv.Itoa(r.Total), ranking.FormatPercent(r.Percent, opts.Precision))
		}
		rows = append(rows, cells)
	}
	return mdtable.New(header, rows)
}
