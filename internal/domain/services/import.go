package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/infrastructure/parsers"
)

// DuplicatePolicy defines how to handle records that match an existing
// entity. People match on email, organizations on tax_id or else name.
type DuplicatePolicy string

const (
	// DuplicateSkip leaves the existing entity untouched.
	DuplicateSkip DuplicatePolicy = "skip"
	// DuplicateUpdate merges the record into the existing entity.
	DuplicateUpdate DuplicatePolicy = "update"
	// DuplicateError reports the record as failed.
	DuplicateError DuplicatePolicy = "error"
)

// codeDuplicate marks an ImportError for a record rejected as a duplicate.
const codeDuplicate = "DUPLICATE"

// ParseDuplicatePolicy parses a policy name. The empty string is skip.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicateSkip, nil
	case DuplicateSkip, DuplicateUpdate, DuplicateError:
		return p, nil
	default:
		return "", fmt.Errorf("invalid duplicate policy %q (valid: skip, update, error)", s)
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun      bool            // Validate without saving
	OnDuplicate DuplicatePolicy // How to handle records matching an existing entity
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Code    string // Validation code, e.g. MISSING_REQUIRED_FIELD
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Updated  int
	Skipped  int
	Failed   int
	IDs      []string
	Errors   []ImportError
}

// ImportService loads organizations and people from parsed import files.
type ImportService struct {
	entities *EntityService
	schema   *SchemaService
}

// NewImportService creates a new import service.
func NewImportService(entitySvc *EntityService, schema *SchemaService) *ImportService {
	return &ImportService{
		entities: entitySvc,
		schema:   schema,
	}
}

// builtinFields are the record keys accepted as built-in entity fields.
var builtinFields = map[string]bool{
	"name": true, "industry": true, "company_size": true, "tax_id": true,
	"first_name": true, "last_name": true, "tags": true,
	"email": true, "phone": true, "status": true,
}

// Import creates one entity per record, or handles it per opts.OnDuplicate
// when it matches an entity that is stored or earlier in the same file.
// Invalid records are reported in the result and do not stop the import;
// storage failures do.
func (s *ImportService) Import(ctx context.Context, t entities.EntityType, records []parsers.RawRecord, opts ImportOptions) (*ImportResult, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid entity type %q", t)
	}
	policy, err := ParseDuplicatePolicy(string(opts.OnDuplicate))
	if err != nil {
		return nil, err
	}

	defs, err := s.schema.Definitions(ctx, t)
	if err != nil {
		return nil, err
	}

	// seen holds the entity each match key resolved to earlier in this run.
	seen := make(map[string]*entities.Entity)

	result := &ImportResult{}
	for i := range records {
		rec := &records[i]
		line := rec.LineNum
		if line == 0 {
			line = i + 1
		}

		in, recErrs := toEntityInput(rec, defs, line)
		if len(recErrs) > 0 {
			result.Failed++
			result.Errors = append(result.Errors, recErrs...)
			continue
		}

		field, value := MatchKey(t, in)
		seenKey := field + ":" + value
		var existing *entities.Entity
		if field != "" {
			existing = seen[seenKey]
			if existing == nil {
				existing, err = s.entities.FindMatch(ctx, t, field, value)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
			}
		}

		var e *entities.Entity
		switch {
		case existing != nil && policy == DuplicateSkip:
			result.Skipped++
			continue
		case existing != nil && policy == DuplicateError:
			result.Failed++
			result.Errors = append(result.Errors, ImportError{
				Line:    line,
				Field:   field,
				Code:    codeDuplicate,
				Message: fmt.Sprintf("matches existing record %s", existing.ID),
			})
			continue
		case existing != nil && opts.DryRun:
			e, err = s.entities.CheckMerge(ctx, existing, in)
		case existing != nil:
			e, err = s.entities.Update(ctx, t, existing.ID, in)
		case opts.DryRun:
			e, err = s.entities.Check(ctx, t, in)
		default:
			e, err = s.entities.Create(ctx, t, in)
		}

		var verr *entities.ValidationError
		switch {
		case errors.As(err, &verr):
			result.Failed++
			for _, f := range verr.Fields {
				result.Errors = append(result.Errors, ImportError{Line: line, Field: f.Field, Code: f.Code(), Message: f.Message})
			}
		case err != nil:
			return nil, fmt.Errorf("line %d: %w", line, err)
		default:
			if field != "" {
				seen[seenKey] = e
			}
			if existing != nil {
				result.Updated++
			} else {
				result.Imported++
			}
			if !opts.DryRun {
				result.IDs = append(result.IDs, e.ID)
			}
		}
	}

	return result, nil
}

// toEntityInput converts a parsed record to an EntityInput. Textual custom
// values are converted to their declared types where they parse; anything
// that does not is passed through so validation reports it.
func toEntityInput(rec *parsers.RawRecord, defs []entities.FieldDefinition, line int) (EntityInput, []ImportError) {
	var in EntityInput
	var errs []ImportError

	fail := func(field string, kind error, msg string) {
		fe := entities.FieldError{Field: field, Kind: kind, Message: msg}
		errs = append(errs, ImportError{Line: line, Field: field, Code: fe.Code(), Message: msg})
	}

	for key, raw := range rec.Fields {
		if !builtinFields[key] {
			fail(key, entities.ErrUnknownField, "unknown field")
			continue
		}
		if raw == nil {
			continue
		}
		if key == "tags" {
			tags, ok := toStrings(raw)
			if !ok {
				fail(key, entities.ErrTypeMismatch, "expected a list of strings")
				continue
			}
			in.Tags = tags
			continue
		}
		v, ok := toText(raw)
		if !ok {
			fail(key, entities.ErrTypeMismatch, mismatch("string", raw))
			continue
		}
		in.set(key, v)
	}

	if len(rec.CustomFields) > 0 {
		in.CustomFields = make(map[string]any, len(rec.CustomFields))
		for k, v := range rec.CustomFields {
			if rec.Textual {
				v = coerceText(defs, k, v)
			}
			in.CustomFields[k] = v
		}
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return in, errs
}

func (in *EntityInput) set(key, v string) {
	switch key {
	case "name":
		in.Name = &v
	case "industry":
		in.Industry = &v
	case "company_size":
		in.CompanySize = &v
	case "tax_id":
		in.TaxID = &v
	case "first_name":
		in.FirstName = &v
	case "last_name":
		in.LastName = &v
	case "email":
		in.Email = &v
	case "phone":
		in.Phone = &v
	case "status":
		in.Status = &v
	}
}

func toText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func toStrings(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case string:
		return strings.Split(v, parsers.TagSeparator), true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// coerceText converts a text cell to the type declared for field name.
func coerceText(defs []entities.FieldDefinition, name string, raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	for i := range defs {
		if defs[i].Name != name {
			continue
		}
		switch defs[i].ValueType {
		case entities.ValueTypeNumber:
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		case entities.ValueTypeBoolean:
			if b, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
				return b
			}
		}
		return s
	}
	return s
}

