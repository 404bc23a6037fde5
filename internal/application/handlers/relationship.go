package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

// RelationshipHandler handles relationship operations.
type RelationshipHandler struct {
	service *services.RelationshipService
	logger  *slog.Logger
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(service *services.RelationshipService, logger *slog.Logger) *RelationshipHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationshipHandler{
		service: service,
		logger:  logger,
	}
}

// EntitySummary is the short form of a relationship endpoint.
type EntitySummary struct {
	ID    string              `json:"id"`
	Type  entities.EntityType `json:"type"`
	Name  string              `json:"name"`
	Email string              `json:"email,omitempty"`
}

// RelationshipInfo is a relationship with summaries of its endpoints.
// A summary is nil when its entity no longer exists.
type RelationshipInfo struct {
	*entities.Relationship
	Source *EntitySummary `json:"source,omitempty"`
	Target *EntitySummary `json:"target,omitempty"`
}

// HandleCreate links two existing entities. The relationship is stored even
// when its endpoint summaries cannot be loaded; they are then left nil.
func (h *RelationshipHandler) HandleCreate(ctx context.Context, in services.RelationshipInput) (*RelationshipInfo, error) {
	rel, err := h.service.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	info, err := h.enrichOne(ctx, rel)
	if err != nil {
		h.logger.Warn("loading relationship endpoints failed", "relationship_id", rel.ID, "error", err)
		return &RelationshipInfo{Relationship: rel}, nil
	}
	return info, nil
}

// HandleGet returns a relationship with its endpoint summaries.
func (h *RelationshipHandler) HandleGet(ctx context.Context, id string) (*RelationshipInfo, error) {
	rel, err := h.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.enrichOne(ctx, rel)
}

// HandleList returns one page of relationships with endpoint summaries.
func (h *RelationshipHandler) HandleList(ctx context.Context, req entities.PageRequest) (*entities.Page[RelationshipInfo], error) {
	page, err := h.service.List(ctx, req)
	if err != nil {
		return nil, err
	}

	found, err := h.service.Endpoints(ctx, page.Items)
	if err != nil {
		return nil, fmt.Errorf("enriching relationships: %w", err)
	}

	infos := make([]RelationshipInfo, len(page.Items))
	for i, rel := range page.Items {
		infos[i] = buildInfo(rel, found)
	}
	return entities.NewPage(req, infos, page.Total), nil
}

// HandleDelete removes a relationship by ID.
func (h *RelationshipHandler) HandleDelete(ctx context.Context, id string) error {
	return h.service.Delete(ctx, id)
}

func (h *RelationshipHandler) enrichOne(ctx context.Context, rel *entities.Relationship) (*RelationshipInfo, error) {
	found, err := h.service.Endpoints(ctx, []*entities.Relationship{rel})
	if err != nil {
		return nil, fmt.Errorf("enriching relationship: %w", err)
	}
	info := buildInfo(rel, found)
	return &info, nil
}

func buildInfo(rel *entities.Relationship, found map[string]*entities.Entity) RelationshipInfo {
	return RelationshipInfo{
		Relationship: rel,
		Source:       summarize(found[rel.SourceID]),
		Target:       summarize(found[rel.TargetID]),
	}
}

func summarize(e *entities.Entity) *EntitySummary {
	if e == nil {
		return nil
	}
	return &EntitySummary{
		ID:    e.ID,
		Type:  e.Type,
		Name:  e.DisplayName(),
		Email: e.Email,
	}
}
