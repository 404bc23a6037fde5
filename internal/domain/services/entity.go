package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
)

// EntityInput carries the writable fields of an Organization or Person.
// Nil pointers are absent: Create treats them as empty, Update leaves the
// stored value untouched. A nil Tags slice is absent; an empty one clears.
type EntityInput struct {
	Name        *string `json:"name"`
	Industry    *string `json:"industry"`
	CompanySize *string `json:"company_size"`
	TaxID       *string `json:"tax_id"`

	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Tags      []string `json:"tags"`

	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Status *string `json:"status"`

	CustomFields map[string]any `json:"custom_fields"`
}

// maxUpdateAttempts bounds how often Update re-merges after losing a write to
// another process.
const maxUpdateAttempts = 3

// EntityService manages Organizations and People.
//
// Updates of one entity are serialized in process by a per-ID lock and across
// processes by an updated_at check in the store.
type EntityService struct {
	repo    ports.EntityRepository
	schema  *SchemaService
	auditor *Auditor

	records keyedMutex
}

// NewEntityService creates a new EntityService.
func NewEntityService(repo ports.EntityRepository, schema *SchemaService, auditor *Auditor) *EntityService {
	return &EntityService{
		repo:    repo,
		schema:  schema,
		auditor: auditor,
	}
}

// Create validates and stores a new entity. Built-in and custom-field errors
// are reported together and nothing is stored when any field fails.
func (s *EntityService) Create(ctx context.Context, t entities.EntityType, in EntityInput) (*entities.Entity, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid entity type %q", t)
	}

	unlock := s.schema.RLock(t)
	defer unlock()

	e, err := s.build(ctx, t, in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveEntity(ctx, e); err != nil {
		return nil, fmt.Errorf("saving %s: %w", strings.ToLower(string(t)), err)
	}

	s.auditor.Record(ctx, entities.ActionEntityCreated, e.ID, map[string]any{
		"type": string(t),
		"name": e.DisplayName(),
	})
	return e, nil
}

// Check runs the same validation as Create without storing anything.
func (s *EntityService) Check(ctx context.Context, t entities.EntityType, in EntityInput) (*entities.Entity, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid entity type %q", t)
	}

	unlock := s.schema.RLock(t)
	defer unlock()

	return s.build(ctx, t, in)
}

func (s *EntityService) build(ctx context.Context, t entities.EntityType, in EntityInput) (*entities.Entity, error) {
	defs, err := s.schema.Definitions(ctx, t)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	e := &entities.Entity{
		ID:        generateID(),
		Type:      t,
		Status:    entities.DefaultStatus(t),
		CreatedAt: now,
		UpdatedAt: now,
	}

	verr := applyBuiltins(e, in)
	custom, cerr := validateCustomFields(defs, nil, in.CustomFields, true)
	verr.Merge(prefixFields(cerr, "custom_fields."))
	if !verr.Empty() {
		return nil, verr
	}
	e.CustomFields = custom
	return e, nil
}

// Get returns an entity of either type.
func (s *EntityService) Get(ctx context.Context, id string) (*entities.Entity, error) {
	e, err := s.repo.FindEntityByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding entity: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("entity %s: %w", id, entities.ErrNotFound)
	}
	return e, nil
}

// GetTyped returns an entity only if it has type t.
func (s *EntityService) GetTyped(ctx context.Context, t entities.EntityType, id string) (*entities.Entity, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Type != t {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(string(t)), id, entities.ErrNotFound)
	}
	return e, nil
}

// List returns one page of entities of type t, optionally filtered by search.
func (s *EntityService) List(ctx context.Context, t entities.EntityType, req entities.PageRequest, search string) (*entities.Page[*entities.Entity], error) {
	filter := entities.EntityFilter{Type: t, Search: search}

	total, err := s.repo.CountEntities(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting entities: %w", err)
	}

	items := []*entities.Entity{}
	if req.Offset() < total {
		items, err = s.repo.ListEntities(ctx, filter, req.Limit(), req.Offset())
		if err != nil {
			return nil, fmt.Errorf("listing entities: %w", err)
		}
	}

	return entities.NewPage(req, items, total), nil
}

// Update merges in over the stored entity and re-validates the result.
func (s *EntityService) Update(ctx context.Context, t entities.EntityType, id string, in EntityInput) (*entities.Entity, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid entity type %q", t)
	}

	unlock := s.schema.RLock(t)
	defer unlock()
	release := s.records.Lock(id)
	defer release()

	var e *entities.Entity
	var err error
	for attempt := 1; ; attempt++ {
		e, err = s.updateOnce(ctx, t, id, in)
		if err == nil {
			break
		}
		if !errors.Is(err, entities.ErrConflict) || attempt == maxUpdateAttempts {
			return nil, err
		}
	}

	s.auditor.Record(ctx, entities.ActionEntityUpdated, e.ID, map[string]any{
		"type":   string(t),
		"fields": in.fieldNames(),
	})
	return e, nil
}

func (s *EntityService) updateOnce(ctx context.Context, t entities.EntityType, id string, in EntityInput) (*entities.Entity, error) {
	existing, err := s.GetTyped(ctx, t, id)
	if err != nil {
		return nil, err
	}

	e, err := s.merge(ctx, existing, in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateEntity(ctx, e, existing.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updating %s: %w", strings.ToLower(string(t)), err)
	}
	return e, nil
}

// merge applies in over existing and validates the result. The returned
// entity always has a later UpdatedAt than existing.
func (s *EntityService) merge(ctx context.Context, existing *entities.Entity, in EntityInput) (*entities.Entity, error) {
	defs, err := s.schema.Definitions(ctx, existing.Type)
	if err != nil {
		return nil, err
	}

	e := existing.Clone()
	verr := applyBuiltins(e, in)
	custom, cerr := validateCustomFields(defs, existing.CustomFields, in.CustomFields, false)
	verr.Merge(prefixFields(cerr, "custom_fields."))
	if !verr.Empty() {
		return nil, verr
	}
	e.CustomFields = custom

	e.UpdatedAt = timeNow()
	if !e.UpdatedAt.After(existing.UpdatedAt) {
		e.UpdatedAt = existing.UpdatedAt.Add(time.Microsecond)
	}
	return e, nil
}

// CheckMerge runs the validation of an update of existing without storing
// anything.
func (s *EntityService) CheckMerge(ctx context.Context, existing *entities.Entity, in EntityInput) (*entities.Entity, error) {
	unlock := s.schema.RLock(existing.Type)
	defer unlock()

	return s.merge(ctx, existing, in)
}

// MatchKey returns the field and normalized value that identify a duplicate
// of in: email for people, tax_id or else name for organizations. An empty
// field means in carries no key.
func MatchKey(t entities.EntityType, in EntityInput) (field, value string) {
	norm := func(p *string) string {
		if p == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(*p))
	}
	switch t {
	case entities.EntityTypePerson:
		if v := norm(in.Email); v != "" {
			return "email", v
		}
	case entities.EntityTypeOrganization:
		if v := norm(in.TaxID); v != "" {
			return "tax_id", v
		}
		if v := norm(in.Name); v != "" {
			return "name", v
		}
	}
	return "", ""
}

// FindMatch returns the stored entity of type t with the given match key, or
// nil when there is none.
func (s *EntityService) FindMatch(ctx context.Context, t entities.EntityType, field, value string) (*entities.Entity, error) {
	e, err := s.repo.FindEntityByField(ctx, t, field, value)
	if err != nil {
		return nil, fmt.Errorf("finding %s by %s: %w", strings.ToLower(string(t)), field, err)
	}
	return e, nil
}

// Delete removes an entity. Relationships that reference it are kept.
func (s *EntityService) Delete(ctx context.Context, t entities.EntityType, id string) error {
	e, err := s.GetTyped(ctx, t, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEntity(ctx, id); err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	s.auditor.Record(ctx, entities.ActionEntityDeleted, id, map[string]any{
		"type": string(t),
		"name": e.DisplayName(),
	})
	return nil
}

// applyBuiltins copies the present fields of in onto e and validates the
// built-in fields of the result. e.Type must be set.
func applyBuiltins(e *entities.Entity, in EntityInput) *entities.ValidationError {
	verr := &entities.ValidationError{}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	reject := func(field string, present bool) {
		if present {
			verr.Add(field, entities.ErrUnknownField, fmt.Sprintf("not a field of %s", e.Type.Plural()))
		}
	}

	switch e.Type {
	case entities.EntityTypeOrganization:
		set(&e.Name, in.Name)
		set(&e.Industry, in.Industry)
		set(&e.CompanySize, in.CompanySize)
		set(&e.TaxID, in.TaxID)
		reject("first_name", in.FirstName != nil)
		reject("last_name", in.LastName != nil)
		reject("tags", in.Tags != nil)
		if e.Name == "" {
			verr.Add("name", entities.ErrMissingRequiredField, "is required")
		}
	case entities.EntityTypePerson:
		set(&e.FirstName, in.FirstName)
		set(&e.LastName, in.LastName)
		if in.Tags != nil {
			e.Tags = normalizeTags(in.Tags)
		}
		reject("name", in.Name != nil)
		reject("industry", in.Industry != nil)
		reject("company_size", in.CompanySize != nil)
		reject("tax_id", in.TaxID != nil)
		if e.FirstName == "" {
			verr.Add("first_name", entities.ErrMissingRequiredField, "is required")
		}
		if e.LastName == "" {
			verr.Add("last_name", entities.ErrMissingRequiredField, "is required")
		}
	}

	set(&e.Email, in.Email)
	set(&e.Phone, in.Phone)
	if e.Email != "" {
		if addr, err := mail.ParseAddress(e.Email); err != nil || addr.Address != e.Email {
			verr.Add("email", entities.ErrInvalidValue, fmt.Sprintf("invalid email address %q", e.Email))
		}
	}

	if in.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*in.Status))
		switch {
		case status == "":
			e.Status = entities.DefaultStatus(e.Type)
		case entities.IsValidStatus(e.Type, status):
			e.Status = status
		default:
			verr.Add("status", entities.ErrInvalidValue, fmt.Sprintf("must be one of [%s], got %q",
				strings.Join(entities.ValidStatuses(e.Type), ", "), *in.Status))
		}
	}

	return verr
}

// normalizeTags trims, drops empties and removes duplicates, keeping the
// first occurrence.
func normalizeTags(tags []string) entities.StringList {
	out := entities.StringList{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !out.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// fieldNames lists the fields present in the input, for audit details.
func (in EntityInput) fieldNames() []string {
	var names []string
	add := func(name string, present bool) {
		if present {
			names = append(names, name)
		}
	}
	add("name", in.Name != nil)
	add("industry", in.Industry != nil)
	add("company_size", in.CompanySize != nil)
	add("tax_id", in.TaxID != nil)
	add("first_name", in.FirstName != nil)
	add("last_name", in.LastName != nil)
	add("tags", in.Tags != nil)
	add("email", in.Email != nil)
	add("phone", in.Phone != nil)
	add("status", in.Status != nil)
	custom := make([]string, 0, len(in.CustomFields))
	for k := range in.CustomFields {
		custom = append(custom, "custom_fields."+k)
	}
	sort.Strings(custom)
	return append(names, custom...)
}
