package mocks

import (
	"context"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
)

// RelationalDB wraps a real ports.RelationalDB and injects failures.
// Err fails every call; FailOn fails only the named methods.
type RelationalDB struct {
	ports.RelationalDB
	Err    error
	FailOn map[string]error
}

// NewRelationalDB creates a mock delegating to inner.
func NewRelationalDB(inner ports.RelationalDB) *RelationalDB {
	return &RelationalDB{RelationalDB: inner, FailOn: make(map[string]error)}
}

func (m *RelationalDB) fail(method string) error {
	if m.Err != nil {
		return m.Err
	}
	return m.FailOn[method]
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *RelationalDB) EnsureSchema(ctx context.Context) error {
	if err := m.fail("EnsureSchema"); err != nil {
		return err
	}
	return m.RelationalDB.EnsureSchema(ctx)
}

// Entity methods.

func (m *RelationalDB) SaveEntity(ctx context.Context, e *entities.Entity) error {
	if err := m.fail("SaveEntity"); err != nil {
		return err
	}
	return m.RelationalDB.SaveEntity(ctx, e)
}

func (m *RelationalDB) UpdateEntity(ctx context.Context, e *entities.Entity, prev time.Time) error {
	if err := m.fail("UpdateEntity"); err != nil {
		return err
	}
	return m.RelationalDB.UpdateEntity(ctx, e, prev)
}

func (m *RelationalDB) FindEntityByID(ctx context.Context, id string) (*entities.Entity, error) {
	if err := m.fail("FindEntityByID"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindEntityByID(ctx, id)
}

func (m *RelationalDB) FindEntityByField(ctx context.Context, t entities.EntityType, field, value string) (*entities.Entity, error) {
	if err := m.fail("FindEntityByField"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindEntityByField(ctx, t, field, value)
}

func (m *RelationalDB) FindEntitiesByIDs(ctx context.Context, ids []string) (map[string]*entities.Entity, error) {
	if err := m.fail("FindEntitiesByIDs"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindEntitiesByIDs(ctx, ids)
}

func (m *RelationalDB) ListEntities(ctx context.Context, filter entities.EntityFilter, limit, offset int) ([]*entities.Entity, error) {
	if err := m.fail("ListEntities"); err != nil {
		return nil, err
	}
	return m.RelationalDB.ListEntities(ctx, filter, limit, offset)
}

func (m *RelationalDB) CountEntities(ctx context.Context, filter entities.EntityFilter) (int, error) {
	if err := m.fail("CountEntities"); err != nil {
		return 0, err
	}
	return m.RelationalDB.CountEntities(ctx, filter)
}

func (m *RelationalDB) DeleteEntity(ctx context.Context, id string) error {
	if err := m.fail("DeleteEntity"); err != nil {
		return err
	}
	return m.RelationalDB.DeleteEntity(ctx, id)
}

// Relationship methods.

func (m *RelationalDB) SaveRelationship(ctx context.Context, rel *entities.Relationship) error {
	if err := m.fail("SaveRelationship"); err != nil {
		return err
	}
	return m.RelationalDB.SaveRelationship(ctx, rel)
}

func (m *RelationalDB) FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error) {
	if err := m.fail("FindRelationshipByID"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindRelationshipByID(ctx, id)
}

func (m *RelationalDB) ListRelationships(ctx context.Context, limit, offset int) ([]*entities.Relationship, error) {
	if err := m.fail("ListRelationships"); err != nil {
		return nil, err
	}
	return m.RelationalDB.ListRelationships(ctx, limit, offset)
}

func (m *RelationalDB) CountRelationships(ctx context.Context) (int, error) {
	if err := m.fail("CountRelationships"); err != nil {
		return 0, err
	}
	return m.RelationalDB.CountRelationships(ctx)
}

func (m *RelationalDB) DeleteRelationship(ctx context.Context, id string) error {
	if err := m.fail("DeleteRelationship"); err != nil {
		return err
	}
	return m.RelationalDB.DeleteRelationship(ctx, id)
}

// Field definition methods.

func (m *RelationalDB) SaveFieldDefinition(ctx context.Context, def *entities.FieldDefinition) error {
	if err := m.fail("SaveFieldDefinition"); err != nil {
		return err
	}
	return m.RelationalDB.SaveFieldDefinition(ctx, def)
}

func (m *RelationalDB) FindFieldDefinition(ctx context.Context, t entities.EntityType, name string) (*entities.FieldDefinition, error) {
	if err := m.fail("FindFieldDefinition"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindFieldDefinition(ctx, t, name)
}

func (m *RelationalDB) ListFieldDefinitions(ctx context.Context, t entities.EntityType) ([]entities.FieldDefinition, error) {
	if err := m.fail("ListFieldDefinitions"); err != nil {
		return nil, err
	}
	return m.RelationalDB.ListFieldDefinitions(ctx, t)
}

func (m *RelationalDB) DeleteFieldDefinition(ctx context.Context, t entities.EntityType, name string) error {
	if err := m.fail("DeleteFieldDefinition"); err != nil {
		return err
	}
	return m.RelationalDB.DeleteFieldDefinition(ctx, t, name)
}

// API key methods.

func (m *RelationalDB) SaveAPIKey(ctx context.Context, key *entities.APIKey) error {
	if err := m.fail("SaveAPIKey"); err != nil {
		return err
	}
	return m.RelationalDB.SaveAPIKey(ctx, key)
}

func (m *RelationalDB) FindAPIKeyByHash(ctx context.Context, hash string) (*entities.APIKey, error) {
	if err := m.fail("FindAPIKeyByHash"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindAPIKeyByHash(ctx, hash)
}

func (m *RelationalDB) FindAPIKeyByID(ctx context.Context, id string) (*entities.APIKey, error) {
	if err := m.fail("FindAPIKeyByID"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindAPIKeyByID(ctx, id)
}

func (m *RelationalDB) ListAPIKeys(ctx context.Context) ([]entities.APIKey, error) {
	if err := m.fail("ListAPIKeys"); err != nil {
		return nil, err
	}
	return m.RelationalDB.ListAPIKeys(ctx)
}

func (m *RelationalDB) TouchAPIKey(ctx context.Context, id string, at time.Time) error {
	if err := m.fail("TouchAPIKey"); err != nil {
		return err
	}
	return m.RelationalDB.TouchAPIKey(ctx, id, at)
}

func (m *RelationalDB) RevokeAPIKey(ctx context.Context, id string, at time.Time) error {
	if err := m.fail("RevokeAPIKey"); err != nil {
		return err
	}
	return m.RelationalDB.RevokeAPIKey(ctx, id, at)
}

// Audit log methods.

func (m *RelationalDB) LogAction(ctx context.Context, action, subjectID string, details map[string]any) error {
	if err := m.fail("LogAction"); err != nil {
		return err
	}
	return m.RelationalDB.LogAction(ctx, action, subjectID, details)
}

func (m *RelationalDB) FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error) {
	if err := m.fail("FindAuditLog"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindAuditLog(ctx, subjectID)
}

func (m *RelationalDB) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if err := m.fail("FindAuditLogByAction"); err != nil {
		return nil, err
	}
	return m.RelationalDB.FindAuditLogByAction(ctx, action, limit)
}
