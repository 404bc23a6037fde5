package handlers

import (
	"context"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

// SchemaHandler handles custom-field schema operations.
type SchemaHandler struct {
	service *services.SchemaService
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(service *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		service: service,
	}
}

// HandleGetSchema returns the definitions of every entity type keyed by its
// collection name ("organizations", "people").
func (h *SchemaHandler) HandleGetSchema(ctx context.Context) (map[string][]entities.FieldDefinition, error) {
	schema, err := h.service.GetSchema(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]entities.FieldDefinition, len(schema))
	for _, t := range entities.EntityTypes {
		defs := schema[t]
		if defs == nil {
			defs = []entities.FieldDefinition{}
		}
		out[t.Plural()] = defs
	}
	return out, nil
}

// HandleList returns the definitions for one entity type.
func (h *SchemaHandler) HandleList(ctx context.Context, t entities.EntityType) ([]entities.FieldDefinition, error) {
	return h.service.Definitions(ctx, t)
}

// HandleAdd adds a custom field.
func (h *SchemaHandler) HandleAdd(ctx context.Context, in services.FieldInput) (*entities.FieldDefinition, error) {
	return h.service.AddField(ctx, in)
}

// HandleRemove removes a custom field.
func (h *SchemaHandler) HandleRemove(ctx context.Context, t entities.EntityType, name string) error {
	return h.service.RemoveField(ctx, t, name)
}
