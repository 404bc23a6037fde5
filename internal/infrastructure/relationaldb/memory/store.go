// Package memory provides an in-process implementation of ports.RelationalDB.
// Records are deep-copied on the way in and out so callers never share state
// with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

var _ ports.RelationalDB = (*Store)(nil)

// Store implements ports.RelationalDB in memory.
type Store struct {
	mu sync.RWMutex

	// Slices keep insertion order; the maps index into them by ID.
	entities      []*entities.Entity
	entityIndex   map[string]int
	relationships []*entities.Relationship
	relIndex      map[string]int
	fields        []entities.FieldDefinition
	apiKeys       []entities.APIKey
	audit         []entities.AuditEntry
	auditSeq      int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entityIndex: make(map[string]int),
		relIndex:    make(map[string]int),
	}
}

// EnsureSchema is a no-op for the in-memory store.
func (s *Store) EnsureSchema(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// --- Entities ---

// SaveEntity inserts or replaces an entity. Replacing keeps the original position.
func (s *Store) SaveEntity(_ context.Context, e *entities.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.entityIndex[e.ID]; ok {
		s.entities[i] = e.Clone()
		return nil
	}
	s.entityIndex[e.ID] = len(s.entities)
	s.entities = append(s.entities, e.Clone())
	return nil
}

// UpdateEntity replaces an entity whose updated_at still equals prev.
func (s *Store) UpdateEntity(_ context.Context, e *entities.Entity, prev time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.entityIndex[e.ID]
	if !ok {
		return fmt.Errorf("entity %s: %w", e.ID, entities.ErrNotFound)
	}
	if !s.entities[i].UpdatedAt.Equal(prev) {
		return fmt.Errorf("entity %s: %w", e.ID, entities.ErrConflict)
	}
	s.entities[i] = e.Clone()
	return nil
}

// FindEntityByID finds an entity by its ID.
func (s *Store) FindEntityByID(_ context.Context, id string) (*entities.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.entityIndex[id]
	if !ok {
		return nil, nil
	}
	return s.entities[i].Clone(), nil
}

// FindEntityByField returns the oldest entity whose field matches value
// case-insensitively.
func (s *Store) FindEntityByField(_ context.Context, t entities.EntityType, field, value string) (*entities.Entity, error) {
	var get func(e *entities.Entity) string
	switch field {
	case "name":
		get = func(e *entities.Entity) string { return e.Name }
	case "email":
		get = func(e *entities.Entity) string { return e.Email }
	case "tax_id":
		get = func(e *entities.Entity) string { return e.TaxID }
	default:
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entities {
		if e.Type == t && strings.EqualFold(get(e), value) {
			return e.Clone(), nil
		}
	}
	return nil, nil
}

// FindEntitiesByIDs returns the entities that exist among ids.
func (s *Store) FindEntitiesByIDs(_ context.Context, ids []string) (map[string]*entities.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*entities.Entity, len(ids))
	for _, id := range ids {
		if i, ok := s.entityIndex[id]; ok {
			out[id] = s.entities[i].Clone()
		}
	}
	return out, nil
}

// ListEntities lists entities matching the filter in insertion order.
func (s *Store) ListEntities(_ context.Context, filter entities.EntityFilter, limit, offset int) ([]*entities.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*entities.Entity{}
	skipped := 0
	for _, e := range s.entities {
		if !filter.Matches(e) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, e.Clone())
	}
	return result, nil
}

// CountEntities counts entities matching the filter.
func (s *Store) CountEntities(_ context.Context, filter entities.EntityFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entities {
		if filter.Matches(e) {
			n++
		}
	}
	return n, nil
}

// DeleteEntity deletes an entity by ID.
func (s *Store) DeleteEntity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.entityIndex[id]
	if !ok {
		return nil
	}
	s.entities = append(s.entities[:i], s.entities[i+1:]...)
	s.entityIndex = reindexEntities(s.entities)
	return nil
}

func reindexEntities(list []*entities.Entity) map[string]int {
	idx := make(map[string]int, len(list))
	for i, e := range list {
		idx[e.ID] = i
	}
	return idx
}

// --- Relationships ---

// SaveRelationship inserts or replaces a relationship.
func (s *Store) SaveRelationship(_ context.Context, rel *entities.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.relIndex[rel.ID]; ok {
		s.relationships[i] = rel.Clone()
		return nil
	}
	s.relIndex[rel.ID] = len(s.relationships)
	s.relationships = append(s.relationships, rel.Clone())
	return nil
}

// FindRelationshipByID finds a relationship by its ID.
func (s *Store) FindRelationshipByID(_ context.Context, id string) (*entities.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.relIndex[id]
	if !ok {
		return nil, nil
	}
	return s.relationships[i].Clone(), nil
}

// ListRelationships lists relationships in insertion order.
func (s *Store) ListRelationships(_ context.Context, limit, offset int) ([]*entities.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*entities.Relationship{}
	if offset >= len(s.relationships) {
		return result, nil
	}
	end := len(s.relationships)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	for _, r := range s.relationships[offset:end] {
		result = append(result, r.Clone())
	}
	return result, nil
}

// CountRelationships returns the total number of relationships.
func (s *Store) CountRelationships(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relationships), nil
}

// DeleteRelationship deletes a relationship by ID.
func (s *Store) DeleteRelationship(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.relIndex[id]
	if !ok {
		return nil
	}
	s.relationships = append(s.relationships[:i], s.relationships[i+1:]...)
	s.relIndex = make(map[string]int, len(s.relationships))
	for j, r := range s.relationships {
		s.relIndex[r.ID] = j
	}
	return nil
}

// --- Field definitions ---

// SaveFieldDefinition inserts a definition.
func (s *Store) SaveFieldDefinition(_ context.Context, def *entities.FieldDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.fields {
		if d.EntityType == def.EntityType && d.Name == def.Name {
			return fmt.Errorf("field %s.%s: %w", def.EntityType.Plural(), def.Name, entities.ErrAlreadyExists)
		}
	}
	c := *def
	c.EnumValues = def.EnumValues.Clone()
	s.fields = append(s.fields, c)
	return nil
}

// FindFieldDefinition finds a definition by entity type and name.
func (s *Store) FindFieldDefinition(_ context.Context, entityType entities.EntityType, name string) (*entities.FieldDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.fields {
		if d.EntityType == entityType && d.Name == name {
			c := d
			c.EnumValues = d.EnumValues.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

// ListFieldDefinitions lists definitions ordered by position then creation.
func (s *Store) ListFieldDefinitions(_ context.Context, entityType entities.EntityType) ([]entities.FieldDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []entities.FieldDefinition{}
	for _, d := range s.fields {
		if entityType != "" && d.EntityType != entityType {
			continue
		}
		c := d
		c.EnumValues = d.EnumValues.Clone()
		result = append(result, c)
	}
	// Stable sort keeps insertion order among equal positions.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// DeleteFieldDefinition removes a definition.
func (s *Store) DeleteFieldDefinition(_ context.Context, entityType entities.EntityType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.fields {
		if d.EntityType == entityType && d.Name == name {
			s.fields = append(s.fields[:i], s.fields[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- API keys ---

// SaveAPIKey inserts or replaces a key. A stored revocation is never cleared.
func (s *Store) SaveAPIKey(_ context.Context, key *entities.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := copyAPIKey(key)
	for i, k := range s.apiKeys {
		if k.ID == key.ID {
			if k.RevokedAt != nil {
				c.RevokedAt = k.RevokedAt
			}
			s.apiKeys[i] = c
			return nil
		}
	}
	s.apiKeys = append(s.apiKeys, c)
	return nil
}

// FindAPIKeyByHash finds a key by the hash of its raw value.
func (s *Store) FindAPIKeyByHash(_ context.Context, hash string) (*entities.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.apiKeys {
		if k.KeyHash == hash {
			c := copyAPIKey(&k)
			return &c, nil
		}
	}
	return nil, nil
}

// FindAPIKeyByID finds a key by ID.
func (s *Store) FindAPIKeyByID(_ context.Context, id string) (*entities.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.apiKeys {
		if k.ID == id {
			c := copyAPIKey(&k)
			return &c, nil
		}
	}
	return nil, nil
}

// TouchAPIKey records the last use of a key.
func (s *Store) TouchAPIKey(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.apiKeys {
		if s.apiKeys[i].ID == id {
			s.apiKeys[i].LastUsedAt = &at
			return nil
		}
	}
	return nil
}

// RevokeAPIKey revokes a key, keeping an earlier revocation time.
func (s *Store) RevokeAPIKey(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.apiKeys {
		if s.apiKeys[i].ID == id && s.apiKeys[i].RevokedAt == nil {
			s.apiKeys[i].RevokedAt = &at
		}
	}
	return nil
}

// ListAPIKeys lists keys in creation order.
func (s *Store) ListAPIKeys(_ context.Context) ([]entities.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entities.APIKey, 0, len(s.apiKeys))
	for i := range s.apiKeys {
		result = append(result, copyAPIKey(&s.apiKeys[i]))
	}
	return result, nil
}

func copyAPIKey(k *entities.APIKey) entities.APIKey {
	c := *k
	c.Scopes = k.Scopes.Clone()
	if k.LastUsedAt != nil {
		t := *k.LastUsedAt
		c.LastUsedAt = &t
	}
	if k.RevokedAt != nil {
		t := *k.RevokedAt
		c.RevokedAt = &t
	}
	return c
}

// --- Audit log ---

// LogAction logs an action to the audit log.
func (s *Store) LogAction(_ context.Context, action, subjectID string, details map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditSeq++
	s.audit = append(s.audit, entities.AuditEntry{
		ID:        s.auditSeq,
		Action:    action,
		SubjectID: subjectID,
		Details:   map[string]any(entities.Metadata(details).Clone()),
		CreatedAt: timeNow().UTC(),
	})
	return nil
}

// FindAuditLog finds audit log entries for a subject, oldest first.
func (s *Store) FindAuditLog(_ context.Context, subjectID string) ([]entities.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []entities.AuditEntry{}
	for _, e := range s.audit {
		if e.SubjectID == subjectID {
			result = append(result, e)
		}
	}
	return result, nil
}

// FindAuditLogByAction finds the most recent entries for an action, newest first.
func (s *Store) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []entities.AuditEntry{}
	for i := len(s.audit) - 1; i >= 0; i-- {
		if s.audit[i].Action != action {
			continue
		}
		result = append(result, s.audit[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
