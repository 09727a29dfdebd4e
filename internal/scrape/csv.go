package scrape

import (
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"
)

// WriteCSV writes profiles as CSV with a header row, separated by
// delimiter (";" when empty). It writes nothing for an empty list.
func WriteCSV(w io.Writer, profiles []Profile, delimiter string) error {
	if len(profiles) == 0 {
		return nil
	}
	if delimiter == "" {
		delimiter = ";"
	}
	comma, size := utf8.DecodeRuneInString(delimiter)
	if size != len(delimiter) {
		return fmt.Errorf("csv delimiter must be a single character, got %q", delimiter)
	}

	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, p := range profiles {
		if err := cw.Write(p.csvRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
