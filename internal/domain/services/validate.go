package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

// dateLayouts are the accepted input layouts for date fields, tried in order.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// validateCustomFields checks input against defs, merges it over existing and
// returns the normalized result. Offending keys are reported sorted by name,
// then missing required fields in definition order. Keys in existing that no
// longer have a definition are dropped.
//
// On create, absent fields that carry a default receive it.
func validateCustomFields(defs []entities.FieldDefinition, existing, input map[string]any, create bool) (entities.CustomFields, *entities.ValidationError) {
	byName := make(map[string]*entities.FieldDefinition, len(defs))
	for i := range defs {
		byName[defs[i].Name] = &defs[i]
	}

	result := make(entities.CustomFields, len(existing)+len(input))
	for k, v := range existing {
		if _, ok := byName[k]; ok {
			result[k] = v
		}
	}

	verr := &entities.ValidationError{}

	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def, ok := byName[key]
		if !ok {
			verr.Add(key, entities.ErrUnknownField, "unknown field")
			continue
		}
		raw := input[key]
		if raw == nil {
			delete(result, key)
			continue
		}
		v, ferr := normalizeValue(def, raw)
		if ferr != nil {
			verr.Add(key, ferr.Kind, ferr.Message)
			continue
		}
		result[key] = v
	}

	if create {
		for i := range defs {
			def := &defs[i]
			if _, given := input[def.Name]; given || def.DefaultValue == nil {
				continue
			}
			result[def.Name] = def.DefaultValue
		}
	}

	for i := range defs {
		def := &defs[i]
		if !def.Required {
			continue
		}
		if _, failed := input[def.Name]; failed && hasField(verr, def.Name) {
			continue
		}
		if v, ok := result[def.Name]; !ok || v == nil {
			verr.Add(def.Name, entities.ErrMissingRequiredField, "is required")
		}
	}

	if !verr.Empty() {
		return nil, verr
	}
	return result, nil
}

func hasField(verr *entities.ValidationError, name string) bool {
	for _, f := range verr.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

// normalizeValue converts raw to the canonical representation of def's type.
// The returned FieldError carries no field name.
func normalizeValue(def *entities.FieldDefinition, raw any) (any, *entities.FieldError) {
	switch def.ValueType {
	case entities.ValueTypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fieldErr(entities.ErrTypeMismatch, mismatch("string", raw))
		}
		return s, nil

	case entities.ValueTypeNumber:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fieldErr(entities.ErrTypeMismatch, mismatch("number", raw))
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fieldErr(entities.ErrInvalidValue, "must be a finite number")
		}
		return f, nil

	case entities.ValueTypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fieldErr(entities.ErrTypeMismatch, mismatch("boolean", raw))
		}
		return b, nil

	case entities.ValueTypeDate:
		switch v := raw.(type) {
		case time.Time:
			return v.Format(time.DateOnly), nil
		case string:
			d, ok := parseDate(v)
			if !ok {
				return nil, fieldErr(entities.ErrTypeMismatch, fmt.Sprintf("expected ISO-8601 date, got %q", v))
			}
			return d, nil
		default:
			return nil, fieldErr(entities.ErrTypeMismatch, mismatch("date", raw))
		}

	case entities.ValueTypeEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, fieldErr(entities.ErrTypeMismatch, mismatch("enum", raw))
		}
		if !def.AllowsValue(s) {
			return nil, fieldErr(entities.ErrTypeMismatch, fmt.Sprintf("must be one of [%s], got %q", strings.Join(def.EnumValues, ", "), s))
		}
		return s, nil

	default:
		return nil, fieldErr(entities.ErrInvalidValue, fmt.Sprintf("field has unsupported type %q", def.ValueType))
	}
}

func fieldErr(kind error, msg string) *entities.FieldError {
	return &entities.FieldError{Kind: kind, Message: msg}
}

func parseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func mismatch(want string, got any) string {
	return fmt.Sprintf("expected %s, got %s", want, kindOf(got))
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// prefixFields returns a copy of verr with every field name prefixed.
func prefixFields(verr *entities.ValidationError, prefix string) *entities.ValidationError {
	if verr == nil {
		return nil
	}
	out := &entities.ValidationError{Fields: make([]entities.FieldError, len(verr.Fields))}
	for i, f := range verr.Fields {
		f.Field = prefix + f.Field
		out.Fields[i] = f
	}
	return out
}
