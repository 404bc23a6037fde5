package entities

import "time"

// EntityRef is a typed reference to an entity of either kind.
type EntityRef struct {
	ID   string     `json:"id"`
	Type EntityType `json:"type"`
}

// Relationship is a directed, typed edge between two entities.
// Endpoints are weak references: deleting an entity leaves its edges behind.
type Relationship struct {
	ID               string     `json:"id"`
	SourceID         string     `json:"source_id"`
	SourceType       EntityType `json:"source_type"`
	TargetID         string     `json:"target_id"`
	TargetType       EntityType `json:"target_type"`
	RelationshipType string     `json:"relationship_type"`
	Metadata         Metadata   `json:"metadata"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Source returns the tagged source reference.
func (r *Relationship) Source() EntityRef {
	return EntityRef{ID: r.SourceID, Type: r.SourceType}
}

// Target returns the tagged target reference.
func (r *Relationship) Target() EntityRef {
	return EntityRef{ID: r.TargetID, Type: r.TargetType}
}

// Clone returns a deep copy of the relationship.
func (r *Relationship) Clone() *Relationship {
	c := *r
	c.Metadata = r.Metadata.Clone()
	return &c
}
