// Package ranking computes the per-country and per-group rankings of
// MEPs on X.
package ranking

import (
	"math"
	"sort"
	"strconv"

	"github.com/leavex/mepsonx/internal/mep"
)

// Row is one ranked group: a country, an EU group or a national party.
type Row struct {
	Rank    int     `json:"rank"`
	Group   string  `json:"group"`
	OnX     int     `json:"meps_on_x"`
	Total   int     `json:"total_meps"`
	Percent float64 `json:"percent_on_x"`
}

// Shares groups records by groupField and ranks the groups by the share of
// their MEPs for which usesXField is truthy. Records with an empty group
// are left out. Rows are ordered by percent descending, then MEPs on X
// descending, then group name.
func Shares(records []mep.Record, groupField, usesXField string) []Row {
	totals := map[string]int{}
	onX := map[string]int{}
	for _, r := range records {
		g := r.String(groupField)
		if g == "" {
			continue
		}
		totals[g]++
		if r.Bool(usesXField) {
			onX[g]++
		}
	}

	rows := make([]Row, 0, len(totals))
	for g, total := range totals {
		rows = append(rows, Row{
			Group:   g,
			OnX:     onX[g],
			Total:   total,
			Percent: Percent(onX[g], total),
		})
	}
	SortShares(rows)
	Renumber(rows)
	return rows
}

// Counts ranks groups by the number of their MEPs on X. Only records for
// which usesXField is truthy are counted, so Total is left at zero. Rows
// are ordered by count descending, then group name.
func Counts(records []mep.Record, groupField, usesXField string) []Row {
	counts := map[string]int{}
	for _, r := range records {
		if !r.Bool(usesXField) {
			continue
		}
		if g := r.String(groupField); g != "" {
			counts[g]++
		}
	}

	rows := make([]Row, 0, len(counts))
	for g, n := range counts {
		rows = append(rows, Row{Group: g, OnX: n})
	}
	SortCounts(rows)
	Renumber(rows)
	return rows
}

// SortShares orders rows by percent descending, MEPs on X descending and
// group name ascending.
func SortShares(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := ComparePercent(rows[i].Percent, rows[j].Percent); c != 0 {
			return c > 0
		}
		if rows[i].OnX != rows[j].OnX {
			return rows[i].OnX > rows[j].OnX
		}
		return rows[i].Group < rows[j].Group
	})
}

// SortCounts orders rows by MEPs on X descending and group name ascending.
func SortCounts(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OnX != rows[j].OnX {
			return rows[i].OnX > rows[j].OnX
		}
		return rows[i].Group < rows[j].Group
	})
}

// Renumber assigns ranks 1..N in slice order.
func Renumber(rows []Row) {
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// Percent returns onX as a percentage of total, or 0 for an empty group.
func Percent(onX, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(onX) / float64(total) * 100
}

// ComparePercent compares two percentages, treating values closer than
// 1e-9 as equal.
func ComparePercent(a, b float64) int {
	diff := a - b
	switch {
	case math.Abs(diff) <= 1e-9:
		return 0
	case diff > 0:
		return 1
	default:
		return -1
	}
}

// FormatPercent renders v with precision decimals, rounded the way
// printf's %.*f rounds.
func FormatPercent(v float64, precision int) string {
	if precision < 0 {
		precision = 1
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// Round rounds v to precision decimals. The result is exactly the value
// FormatPercent prints for v, ties such as 6.25 included.
func Round(v float64, precision int) float64 {
	r, err := strconv.ParseFloat(FormatPercent(v, precision), 64)
	if err != nil {
		return v
	}
	return r
}
