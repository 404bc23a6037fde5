package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
)

// RelationshipInput describes a new edge.
type RelationshipInput struct {
	SourceID         string         `json:"source_id"`
	TargetID         string         `json:"target_id"`
	RelationshipType string         `json:"relationship_type"`
	Metadata         map[string]any `json:"metadata"`
}

// RelationshipService manages directed relationships between entities.
type RelationshipService struct {
	relationships ports.RelationshipRepository
	entities      ports.EntityRepository
	auditor       *Auditor
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(
	relationships ports.RelationshipRepository,
	entityRepo ports.EntityRepository,
	auditor *Auditor,
) *RelationshipService {
	return &RelationshipService{
		relationships: relationships,
		entities:      entityRepo,
		auditor:       auditor,
	}
}

// Create links source to target. Both endpoints must exist; self-links and
// repeated (source, target, type) triples are allowed.
func (s *RelationshipService) Create(ctx context.Context, in RelationshipInput) (*entities.Relationship, error) {
	sourceID := strings.TrimSpace(in.SourceID)
	targetID := strings.TrimSpace(in.TargetID)
	relType := strings.TrimSpace(in.RelationshipType)

	verr := &entities.ValidationError{}
	if sourceID == "" {
		verr.Add("source_id", entities.ErrMissingRequiredField, "is required")
	}
	if targetID == "" {
		verr.Add("target_id", entities.ErrMissingRequiredField, "is required")
	}
	if relType == "" {
		verr.Add("relationship_type", entities.ErrMissingRequiredField, "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	// Validate both entities exist
	found, err := s.entities.FindEntitiesByIDs(ctx, []string{sourceID, targetID})
	if err != nil {
		return nil, fmt.Errorf("checking entities exist: %w", err)
	}
	source, ok := found[sourceID]
	if !ok {
		return nil, fmt.Errorf("source entity %s: %w", sourceID, entities.ErrNotFound)
	}
	target, ok := found[targetID]
	if !ok {
		return nil, fmt.Errorf("target entity %s: %w", targetID, entities.ErrNotFound)
	}

	rel := &entities.Relationship{
		ID:               generateID(),
		SourceID:         sourceID,
		SourceType:       source.Type,
		TargetID:         targetID,
		TargetType:       target.Type,
		RelationshipType: relType,
		Metadata:         entities.Metadata(in.Metadata).Clone(),
		CreatedAt:        timeNow(),
	}

	if err := s.relationships.SaveRelationship(ctx, rel); err != nil {
		return nil, fmt.Errorf("saving relationship: %w", err)
	}

	s.auditor.Record(ctx, entities.ActionRelationshipCreated, rel.ID, map[string]any{
		"source_id":         sourceID,
		"target_id":         targetID,
		"relationship_type": relType,
	})
	return rel, nil
}

// Get returns a relationship by ID.
func (s *RelationshipService) Get(ctx context.Context, id string) (*entities.Relationship, error) {
	rel, err := s.relationships.FindRelationshipByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding relationship: %w", err)
	}
	if rel == nil {
		return nil, fmt.Errorf("relationship %s: %w", id, entities.ErrNotFound)
	}
	return rel, nil
}

// List returns one page of relationships in creation order.
func (s *RelationshipService) List(ctx context.Context, req entities.PageRequest) (*entities.Page[*entities.Relationship], error) {
	total, err := s.relationships.CountRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting relationships: %w", err)
	}

	items := []*entities.Relationship{}
	if req.Offset() < total {
		items, err = s.relationships.ListRelationships(ctx, req.Limit(), req.Offset())
		if err != nil {
			return nil, fmt.Errorf("listing relationships: %w", err)
		}
	}

	return entities.NewPage(req, items, total), nil
}

// Delete removes a relationship.
func (s *RelationshipService) Delete(ctx context.Context, id string) error {
	rel, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.relationships.DeleteRelationship(ctx, id); err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	s.auditor.Record(ctx, entities.ActionRelationshipDeleted, id, map[string]any{
		"source_id":         rel.SourceID,
		"target_id":         rel.TargetID,
		"relationship_type": rel.RelationshipType,
	})
	return nil
}

// Endpoints resolves the entities referenced by rels. Dangling ids are
// absent from the result.
func (s *RelationshipService) Endpoints(ctx context.Context, rels []*entities.Relationship) (map[string]*entities.Entity, error) {
	seen := make(map[string]bool, len(rels)*2)
	var ids []string
	for _, r := range rels {
		for _, id := range []string{r.SourceID, r.TargetID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	found, err := s.entities.FindEntitiesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving relationship endpoints: %w", err)
	}
	return found, nil
}
