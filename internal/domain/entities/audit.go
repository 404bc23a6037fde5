package entities

import "time"

// Audit actions.
const (
	ActionEntityCreated       = "entity.created"
	ActionEntityUpdated       = "entity.updated"
	ActionEntityDeleted       = "entity.deleted"
	ActionRelationshipCreated = "relationship.created"
	ActionRelationshipDeleted = "relationship.deleted"
	ActionFieldAdded          = "field.added"
	ActionFieldRemoved        = "field.removed"
	ActionAPIKeyCreated       = "api_key.created"
	ActionAPIKeyRevoked       = "api_key.revoked"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	SubjectID string         `json:"subject_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
