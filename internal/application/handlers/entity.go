package handlers

import (
	"context"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

// EntityHandler handles organization and person operations at the
// application layer.
type EntityHandler struct {
	entityService *services.EntityService
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityService *services.EntityService) *EntityHandler {
	return &EntityHandler{
		entityService: entityService,
	}
}

// HandleList returns one page of entities of type t matching search.
func (h *EntityHandler) HandleList(ctx context.Context, t entities.EntityType, req entities.PageRequest, search string) (*entities.Page[*entities.Entity], error) {
	return h.entityService.List(ctx, t, req, search)
}

// HandleGet returns an entity of type t.
func (h *EntityHandler) HandleGet(ctx context.Context, t entities.EntityType, id string) (*entities.Entity, error) {
	return h.entityService.GetTyped(ctx, t, id)
}

// HandleCreate creates an entity of type t.
func (h *EntityHandler) HandleCreate(ctx context.Context, t entities.EntityType, in services.EntityInput) (*entities.Entity, error) {
	return h.entityService.Create(ctx, t, in)
}

// HandleUpdate applies a partial update to an entity of type t.
func (h *EntityHandler) HandleUpdate(ctx context.Context, t entities.EntityType, id string, in services.EntityInput) (*entities.Entity, error) {
	return h.entityService.Update(ctx, t, id, in)
}

// HandleDelete removes an entity. Its relationships are left in place.
func (h *EntityHandler) HandleDelete(ctx context.Context, t entities.EntityType, id string) error {
	return h.entityService.Delete(ctx, t, id)
}
