package mep

import (
	"github.com/leavex/mepsonx/internal/log"
)

// Override is one entry of the overrides file. Fields is nil when the
// entry was not a JSON object.
type Override struct {
	ID     string
	Fields Record
}

// MergeStats summarizes an ApplyOverrides run.
type MergeStats struct {
	Applied    int
	Created    int
	Skipped    int
	Duplicates []string
}

// ApplyOverrides merges overrides into base and returns the merged list.
// Base records are indexed by id; records without an id are kept but
// cannot be overridden, and for duplicate ids the last record wins. For
// each override, in file order: a non-object entry is skipped, an entry
// for a known id is merged key by key onto that record, and an entry for
// an unknown id becomes a new record appended at the end.
//
// base is not modified.
func ApplyOverrides(base []Record, overrides []Override, logger *log.Logger) ([]Record, MergeStats) {
	var stats MergeStats

	out := make([]Record, len(base), len(base)+len(overrides))
	index := make(map[string]Record, len(base))
	for i, rec := range base {
		out[i] = rec.Clone()
		id := out[i].ID()
		if id == "" {
			continue
		}
		if _, dup := index[id]; dup {
			logger.Warnf("duplicate id in base data: %s", id)
			stats.Duplicates = append(stats.Duplicates, id)
		}
		index[id] = out[i]
	}

	for _, o := range overrides {
		if o.Fields == nil {
			logger.Warnf("override for %s is not an object, skipping", o.ID)
			stats.Skipped++
			continue
		}

		if rec, ok := index[o.ID]; ok {
			logger.Printf("applying override to existing MEP: %s", o.ID)
			for k, v := range o.Fields {
				rec[k] = v
			}
			stats.Applied++
			continue
		}

		logger.Warnf("override id %s not found in base data; creating stub entry", o.ID)
		rec := Record{KeyID: o.ID}
		for k, v := range o.Fields {
			rec[k] = v
		}
		out = append(out, rec)
		index[o.ID] = rec
		stats.Created++
	}

	return out, stats
}
