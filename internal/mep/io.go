package mep

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LoadRecords reads a JSON array of MEP objects.
func LoadRecords(path string) ([]Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return DecodeRecords(content)
}

// DecodeRecords decodes a JSON array of MEP objects.
func DecodeRecords(content []byte) ([]Record, error) {
	if firstByte(content) != '[' {
		return nil, errors.New("records must be a JSON array of objects")
	}
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse records json: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, item := range raw {
		rec, err := decodeObject(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadOverrides reads a JSON object keyed by MEP id. Entries are returned
// in file order.
func LoadOverrides(path string) ([]Override, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	return DecodeOverrides(content)
}

// DecodeOverrides decodes an overrides document, keeping key order.
func DecodeOverrides(content []byte) ([]Override, error) {
	if firstByte(content) != '{' {
		return nil, errors.New("overrides must be a JSON object keyed by MEP id")
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse overrides json: %w", err)
	}

	var out []Override
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse overrides json: %w", err)
		}
		id, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse override %s: %w", id, err)
		}

		o := Override{ID: id}
		if firstByte(raw) == '{' {
			fields, err := decodeObject(raw)
			if err != nil {
				return nil, fmt.Errorf("parse override %s: %w", id, err)
			}
			o.Fields = fields
		}
		out = append(out, o)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse overrides json: %w", err)
	}
	return out, nil
}

// WriteRecords writes records as an indented JSON array. Non-ASCII and
// HTML characters are written as they are.
func WriteRecords(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

func decodeObject(raw []byte) (Record, error) {
	if firstByte(raw) != '{' {
		return nil, errors.New("not a JSON object")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func firstByte(b []byte) byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
