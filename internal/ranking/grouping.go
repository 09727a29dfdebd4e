package ranking

import (
	"fmt"
	"strings"

	"github.com/leavex/mepsonx/internal/mep"
)

// Kind distinguishes share tables from count-only tables.
type Kind int

// Table kinds.
const (
	KindShares Kind = iota
	KindCounts
)

// Grouping names a record field to rank by and how its table is titled.
type Grouping struct {
	Key   string
	Label string
	Field string
	Noun  string
}

// Fields maps the logical record fields to JSON keys.
type Fields struct {
	Country string `yaml:"country"`
	Party   string `yaml:"party"`
	EUGroup string `yaml:"eu-group"`
	UsesX   string `yaml:"uses-x"`
}

// DefaultFields returns the record keys written by the scraper.
func DefaultFields() Fields {
	return Fields{
		Country: mep.KeyCountry,
		Party:   mep.KeyParty,
		EUGroup: mep.KeyEUGroup,
		UsesX:   mep.KeyUsesX,
	}
}

// Grouping keys.
const (
	GroupCountry = "country"
	GroupEU      = "eu-group"
	GroupParty   = "party"
)

// DefaultGroupings lists the groupings a report contains unless
// configured otherwise.
var DefaultGroupings = []string{GroupCountry, GroupEU}

// Lookup resolves a grouping key against fields.
func (f Fields) Lookup(key string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case GroupCountry:
		return Grouping{Key: GroupCountry, Label: "Country", Field: f.Country, Noun: "country"}, nil
	case GroupEU:
		return Grouping{Key: GroupEU, Label: "EU group", Field: f.EUGroup, Noun: "EU group"}, nil
	case GroupParty:
		return Grouping{Key: GroupParty, Label: "Party", Field: f.Party, Noun: "national party"}, nil
	}
	return Grouping{}, fmt.Errorf("unknown grouping %q (want %s, %s or %s)", key, GroupCountry, GroupEU, GroupParty)
}

// Title returns the heading for a table of this grouping.
func (g Grouping) Title(kind Kind) string {
	if kind == KindCounts {
		return fmt.Sprintf("Ranking by %s (MEPs on X)", g.Noun)
	}
	return fmt.Sprintf("Ranking by %s (share of MEPs on X)", g.Noun)
}

// Compute ranks records by this grouping.
func (g Grouping) Compute(records []mep.Record, kind Kind, usesXField string) []Row {
	if kind == KindCounts {
		return Counts(records, g.Field, usesXField)
	}
	return Shares(records, g.Field, usesXField)
}
