package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses records from a JSON array of objects.
// Custom-field values go under a "custom_fields" object.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed records.
func (p *JSONParser) Parse(r io.Reader) ([]RawRecord, error) {
	var items []json.RawMessage

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	records := make([]RawRecord, 0, len(items))
	for i, item := range items {
		// Line numbers are array positions, 1-indexed.
		rec, err := p.parseItem(item, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (p *JSONParser) parseItem(item json.RawMessage, lineNum int) (RawRecord, error) {
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return RawRecord{}, fmt.Errorf("item %d: expected an object: %w", lineNum, err)
	}
	if fields == nil {
		return RawRecord{}, fmt.Errorf("item %d: expected an object, got null", lineNum)
	}

	raw := RawRecord{Fields: fields, CustomFields: map[string]any{}, LineNum: lineNum}
	if custom, ok := fields["custom_fields"]; ok {
		delete(fields, "custom_fields")
		m, ok := custom.(map[string]any)
		if !ok && custom != nil {
			return RawRecord{}, fmt.Errorf("item %d: custom_fields must be an object", lineNum)
		}
		raw.CustomFields = m
		if raw.CustomFields == nil {
			raw.CustomFields = map[string]any{}
		}
	}
	return raw, nil
}
