// Package mep holds MEP records as loaded from JSON and the manual
// override merge applied to them before ranking.
package mep

import (
	"encoding/json"
	"maps"
)

// Well-known record keys.
const (
	KeyID                      = "id"
	KeyName                    = "name"
	KeyProfileURL              = "profileUrl"
	KeyEmail                   = "email"
	KeyXURL                    = "xUrl"
	KeyXHandle                 = "xHandle"
	KeyEUGroup                 = "euGroupFull"
	KeyCountry                 = "country"
	KeyParty                   = "party"
	KeyCountryAndNationalParty = "countryAndNationalParty"
	KeyUsesX                   = "usesX"
)

// Record is one MEP as a JSON object. Keys other than the well-known ones
// are kept as they are so that a load/merge/write cycle loses nothing.
// Numbers are held as json.Number.
type Record map[string]any

// ID returns the record id, or "" when the record has none.
func (r Record) ID() string {
	switch v := r[KeyID].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

// String returns the string value of key, or "" when it is missing or
// not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Bool reports whether the value under key is truthy: true, a non-empty
// string, a non-zero number or a non-empty collection.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return false
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	return Record(maps.Clone(map[string]any(r)))
}
