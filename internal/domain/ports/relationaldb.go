package ports

import (
	"context"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

// EntityRepository stores Organizations and People.
type EntityRepository interface {
	// SaveEntity inserts or replaces an entity by ID.
	SaveEntity(ctx context.Context, entity *entities.Entity) error

	// UpdateEntity replaces a stored entity only while its updated_at still
	// equals prev. Returns ErrNotFound when the entity is gone and ErrConflict
	// when another writer changed it first.
	UpdateEntity(ctx context.Context, entity *entities.Entity, prev time.Time) error

	// FindEntityByID finds an entity by its ID. Returns nil, nil when absent.
	FindEntityByID(ctx context.Context, id string) (*entities.Entity, error)

	// FindEntityByField returns the oldest entity of type entityType whose
	// field (name, email or tax_id) equals value ignoring case. Returns nil,
	// nil when none matches.
	FindEntityByField(ctx context.Context, entityType entities.EntityType, field, value string) (*entities.Entity, error)

	// FindEntitiesByIDs returns the entities that exist among ids, keyed by ID.
	FindEntitiesByIDs(ctx context.Context, ids []string) (map[string]*entities.Entity, error)

	// ListEntities lists entities matching the filter in creation order.
	ListEntities(ctx context.Context, filter entities.EntityFilter, limit, offset int) ([]*entities.Entity, error)

	// CountEntities counts entities matching the filter.
	CountEntities(ctx context.Context, filter entities.EntityFilter) (int, error)

	// DeleteEntity deletes an entity by ID. Deleting a missing entity is not an error.
	DeleteEntity(ctx context.Context, id string) error
}

// RelationshipRepository stores directed edges between entities.
type RelationshipRepository interface {
	// SaveRelationship inserts a relationship.
	SaveRelationship(ctx context.Context, rel *entities.Relationship) error

	// FindRelationshipByID returns nil, nil when absent.
	FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error)

	// ListRelationships lists relationships in creation order.
	ListRelationships(ctx context.Context, limit, offset int) ([]*entities.Relationship, error)

	// CountRelationships returns the total number of relationships.
	CountRelationships(ctx context.Context) (int, error)

	// DeleteRelationship deletes a relationship by ID.
	DeleteRelationship(ctx context.Context, id string) error
}

// FieldDefinitionRepository stores the custom-field schema.
type FieldDefinitionRepository interface {
	// SaveFieldDefinition inserts a definition. Returns ErrAlreadyExists when
	// the (entity type, name) pair is taken.
	SaveFieldDefinition(ctx context.Context, def *entities.FieldDefinition) error

	// FindFieldDefinition returns nil, nil when absent.
	FindFieldDefinition(ctx context.Context, entityType entities.EntityType, name string) (*entities.FieldDefinition, error)

	// ListFieldDefinitions lists definitions for one type ordered by position
	// then creation. An empty entityType lists every type.
	ListFieldDefinitions(ctx context.Context, entityType entities.EntityType) ([]entities.FieldDefinition, error)

	// DeleteFieldDefinition removes a definition.
	DeleteFieldDefinition(ctx context.Context, entityType entities.EntityType, name string) error
}

// APIKeyRepository stores hashed bearer credentials.
type APIKeyRepository interface {
	SaveAPIKey(ctx context.Context, key *entities.APIKey) error
	FindAPIKeyByHash(ctx context.Context, hash string) (*entities.APIKey, error)
	FindAPIKeyByID(ctx context.Context, id string) (*entities.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]entities.APIKey, error)

	// TouchAPIKey sets only the last-used time of a key.
	TouchAPIKey(ctx context.Context, id string, at time.Time) error

	// RevokeAPIKey sets the revocation time unless the key is already revoked.
	RevokeAPIKey(ctx context.Context, id string, at time.Time) error
}

// AuditLog records administrative and data-changing actions.
type AuditLog interface {
	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action, subjectID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a subject, oldest first.
	FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error)

	// FindAuditLogByAction finds the most recent entries for an action.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}

// RelationalDB is the full storage port implemented by every adapter.
type RelationalDB interface {
	EntityRepository
	RelationshipRepository
	FieldDefinitionRepository
	APIKeyRepository
	AuditLog

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
