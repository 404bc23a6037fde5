package entities

import (
	"fmt"
	"strings"
	"time"
)

// ValueType is the declared kind of a custom field's value.
type ValueType string

const (
	ValueTypeString  ValueType = "string"
	ValueTypeNumber  ValueType = "number"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeDate    ValueType = "date"
	ValueTypeEnum    ValueType = "enum"
)

// ParseValueType accepts the canonical names plus the "text" and "select"
// aliases used by the dashboard.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return ValueTypeString, nil
	case "number":
		return ValueTypeNumber, nil
	case "boolean", "bool":
		return ValueTypeBoolean, nil
	case "date":
		return ValueTypeDate, nil
	case "enum", "select":
		return ValueTypeEnum, nil
	default:
		return "", fmt.Errorf("invalid value type %q (valid: string, number, boolean, date, enum)", s)
	}
}

// FieldDefinition describes one custom field allowed on an entity type.
type FieldDefinition struct {
	ID           string     `json:"id"`
	EntityType   EntityType `json:"entity_type"`
	Name         string     `json:"key"`
	Label        string     `json:"label"`
	ValueType    ValueType  `json:"type"`
	Required     bool       `json:"required"`
	EnumValues   StringList `json:"options"`
	DefaultValue any        `json:"default"`
	Position     int        `json:"position"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AllowsValue reports whether v is one of the definition's enum values.
func (d *FieldDefinition) AllowsValue(v string) bool {
	return d.EnumValues.Contains(v)
}

// DefaultFieldDefinitions are seeded into an empty registry.
var DefaultFieldDefinitions = []FieldDefinition{
	{
		EntityType: EntityTypeOrganization,
		Name:       "linkedin_url",
		Label:      "LinkedIn URL",
		ValueType:  ValueTypeString,
	},
	{
		EntityType: EntityTypePerson,
		Name:       "lead_score",
		Label:      "Lead Score",
		ValueType:  ValueTypeNumber,
	},
}
