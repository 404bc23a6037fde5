package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CustomFields holds administrator-defined values keyed by field name.
// Values are only trusted after SchemaService validation.
type CustomFields map[string]any

// Value implements driver.Valuer, storing the map as JSON text.
func (c CustomFields) Value() (driver.Value, error) {
	return marshalJSONText(map[string]any(c), "{}")
}

// Scan implements sql.Scanner.
func (c *CustomFields) Scan(value any) error {
	m := map[string]any{}
	if err := unmarshalJSONText(value, &m); err != nil {
		return fmt.Errorf("scanning custom fields: %w", err)
	}
	*c = m
	return nil
}

// Clone returns a shallow copy; values are JSON scalars after validation.
func (c CustomFields) Clone() CustomFields {
	if c == nil {
		return CustomFields{}
	}
	out := make(CustomFields, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Metadata is the unconstrained key/value map attached to a relationship.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	return marshalJSONText(map[string]any(m), "{}")
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(value any) error {
	out := map[string]any{}
	if err := unmarshalJSONText(value, &out); err != nil {
		return fmt.Errorf("scanning metadata: %w", err)
	}
	*m = out
	return nil
}

// Clone returns a deep copy via a JSON round trip, since metadata may nest.
func (m Metadata) Clone() Metadata {
	out := Metadata{}
	if len(m) == 0 {
		return out
	}
	b, err := json.Marshal(m)
	if err != nil {
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}

// StringList is a list of strings stored as a JSON array.
type StringList []string

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return marshalJSONText([]string(s), "[]")
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(value any) error {
	var out []string
	if err := unmarshalJSONText(value, &out); err != nil {
		return fmt.Errorf("scanning string list: %w", err)
	}
	*s = out
	return nil
}

// Clone returns a copy of the list.
func (s StringList) Clone() StringList {
	if s == nil {
		return nil
	}
	return append(StringList(nil), s...)
}

// Contains reports whether v is in the list.
func (s StringList) Contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func marshalJSONText(v any, empty string) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

// unmarshalJSONText decodes TEXT columns, which drivers return as string
// (sqlite) or []byte (postgres).
func unmarshalJSONText(value any, dst any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T", value)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
