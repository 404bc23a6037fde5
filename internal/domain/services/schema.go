package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
)

// validFieldNameRegex allows lowercase alphanumeric and underscores only.
var validFieldNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FieldInput describes a custom field to add to the schema.
type FieldInput struct {
	EntityType   entities.EntityType
	Name         string
	Label        string
	ValueType    string
	Required     bool
	EnumValues   []string
	DefaultValue any
}

// SchemaService is the registry of custom-field definitions.
//
// Each entity type has its own lock: entity writes hold the read lock from
// loading definitions until the record is stored, and schema changes hold the
// write lock, so a write never validates against a half-changed schema.
// Definitions are read from the repository on every call so that changes made
// by another process sharing the database are seen by the next write.
type SchemaService struct {
	repo    ports.FieldDefinitionRepository
	auditor *Auditor

	typeLocks map[entities.EntityType]*sync.RWMutex
}

// NewSchemaService creates a new SchemaService.
func NewSchemaService(repo ports.FieldDefinitionRepository, auditor *Auditor) *SchemaService {
	locks := make(map[entities.EntityType]*sync.RWMutex, len(entities.EntityTypes))
	for _, t := range entities.EntityTypes {
		locks[t] = &sync.RWMutex{}
	}
	return &SchemaService{
		repo:      repo,
		auditor:   auditor,
		typeLocks: locks,
	}
}

// RLock takes the read lock for an entity type and returns its release func.
func (s *SchemaService) RLock(t entities.EntityType) func() {
	l := s.typeLocks[t]
	l.RLock()
	return l.RUnlock
}

func (s *SchemaService) lock(t entities.EntityType) func() {
	l := s.typeLocks[t]
	l.Lock()
	return l.Unlock
}

// Definitions returns the ordered definitions for an entity type.
func (s *SchemaService) Definitions(ctx context.Context, t entities.EntityType) ([]entities.FieldDefinition, error) {
	defs, err := s.repo.ListFieldDefinitions(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("listing field definitions: %w", err)
	}
	return defs, nil
}

// GetSchema returns the definitions of every entity type.
func (s *SchemaService) GetSchema(ctx context.Context) (map[entities.EntityType][]entities.FieldDefinition, error) {
	schema := make(map[entities.EntityType][]entities.FieldDefinition, len(entities.EntityTypes))
	for _, t := range entities.EntityTypes {
		defs, err := s.Definitions(ctx, t)
		if err != nil {
			return nil, err
		}
		schema[t] = defs
	}
	return schema, nil
}

// Validate checks a custom-field payload for a new entity of type t and
// returns the normalized map. It has no side effects.
func (s *SchemaService) Validate(ctx context.Context, t entities.EntityType, fields map[string]any) (entities.CustomFields, error) {
	return s.ValidateMerge(ctx, t, nil, fields)
}

// ValidateMerge validates input merged over existing values, as an update does.
// A nil existing map is treated as a create and applies defaults.
func (s *SchemaService) ValidateMerge(ctx context.Context, t entities.EntityType, existing, input map[string]any) (entities.CustomFields, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid entity type %q", t)
	}
	unlock := s.RLock(t)
	defer unlock()

	defs, err := s.Definitions(ctx, t)
	if err != nil {
		return nil, err
	}
	result, verr := validateCustomFields(defs, existing, input, existing == nil)
	if verr != nil {
		return nil, verr
	}
	return result, nil
}

// AddField adds a custom field definition.
func (s *SchemaService) AddField(ctx context.Context, in FieldInput) (*entities.FieldDefinition, error) {
	def, verr := buildDefinition(in)
	if verr != nil {
		return nil, verr
	}

	unlock := s.lock(def.EntityType)
	defer unlock()

	existing, err := s.repo.FindFieldDefinition(ctx, def.EntityType, def.Name)
	if err != nil {
		return nil, fmt.Errorf("checking field definition: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("field %s.%s: %w", def.EntityType.Plural(), def.Name, entities.ErrAlreadyExists)
	}

	current, err := s.repo.ListFieldDefinitions(ctx, def.EntityType)
	if err != nil {
		return nil, fmt.Errorf("listing field definitions: %w", err)
	}
	for _, d := range current {
		if d.Position >= def.Position {
			def.Position = d.Position + 1
		}
	}

	def.ID = generateID()
	def.CreatedAt = timeNow()
	if err := s.repo.SaveFieldDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("saving field definition: %w", err)
	}

	s.auditor.Record(ctx, entities.ActionFieldAdded, def.ID, map[string]any{
		"entity_type": string(def.EntityType),
		"key":         def.Name,
		"type":        string(def.ValueType),
	})
	return def, nil
}

// RemoveField deletes a custom field definition. Values already stored on
// entities are dropped on their next update.
func (s *SchemaService) RemoveField(ctx context.Context, t entities.EntityType, name string) error {
	if !t.IsValid() {
		return fmt.Errorf("invalid entity type %q", t)
	}
	name = strings.ToLower(strings.TrimSpace(name))

	unlock := s.lock(t)
	defer unlock()

	existing, err := s.repo.FindFieldDefinition(ctx, t, name)
	if err != nil {
		return fmt.Errorf("checking field definition: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("field %s.%s: %w", t.Plural(), name, entities.ErrNotFound)
	}

	if err := s.repo.DeleteFieldDefinition(ctx, t, name); err != nil {
		return fmt.Errorf("deleting field definition: %w", err)
	}

	s.auditor.Record(ctx, entities.ActionFieldRemoved, existing.ID, map[string]any{
		"entity_type": string(t),
		"key":         name,
	})
	return nil
}

// LoadDefaults seeds the default field definitions when the registry is
// empty. It returns the number of definitions added.
func (s *SchemaService) LoadDefaults(ctx context.Context) (int, error) {
	existing, err := s.repo.ListFieldDefinitions(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("listing field definitions: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	added := 0
	for _, d := range entities.DefaultFieldDefinitions {
		_, err := s.AddField(ctx, FieldInput{
			EntityType:   d.EntityType,
			Name:         d.Name,
			Label:        d.Label,
			ValueType:    string(d.ValueType),
			Required:     d.Required,
			EnumValues:   d.EnumValues,
			DefaultValue: d.DefaultValue,
		})
		if err != nil {
			return added, fmt.Errorf("seeding field %s: %w", d.Name, err)
		}
		added++
	}
	return added, nil
}

// buildDefinition validates a FieldInput and returns the definition it describes.
func buildDefinition(in FieldInput) (*entities.FieldDefinition, *entities.ValidationError) {
	verr := &entities.ValidationError{}

	if !in.EntityType.IsValid() {
		verr.Add("entity_type", entities.ErrInvalidValue, fmt.Sprintf("invalid entity type %q", in.EntityType))
	}

	name := strings.ToLower(strings.TrimSpace(in.Name))
	if !validFieldNameRegex.MatchString(name) {
		verr.Add("key", entities.ErrInvalidValue, "must be lowercase alphanumeric with underscores, starting with a letter")
	}

	valueType, err := entities.ParseValueType(in.ValueType)
	if err != nil {
		verr.Add("type", entities.ErrInvalidValue, err.Error())
	}

	var options entities.StringList
	for _, o := range in.EnumValues {
		o = strings.TrimSpace(o)
		if o != "" && !options.Contains(o) {
			options = append(options, o)
		}
	}
	switch {
	case valueType == entities.ValueTypeEnum && len(options) == 0:
		verr.Add("options", entities.ErrInvalidValue, "enum fields need at least one option")
	case valueType != "" && valueType != entities.ValueTypeEnum && len(options) > 0:
		verr.Add("options", entities.ErrInvalidValue, "options are only allowed on enum fields")
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = name
	}

	def := &entities.FieldDefinition{
		EntityType: in.EntityType,
		Name:       name,
		Label:      label,
		ValueType:  valueType,
		Required:   in.Required,
		EnumValues: options,
	}

	if in.DefaultValue != nil && verr.Empty() {
		v, ferr := normalizeValue(def, in.DefaultValue)
		if ferr != nil {
			verr.Add("default", ferr.Kind, ferr.Message)
		} else {
			def.DefaultValue = v
		}
	}

	if !verr.Empty() {
		return nil, verr
	}
	return def, nil
}
