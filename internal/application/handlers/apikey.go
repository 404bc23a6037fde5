package handlers

import (
	"context"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

// APIKeyHandler handles API key administration.
type APIKeyHandler struct {
	service *services.APIKeyService
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(service *services.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{
		service: service,
	}
}

// CreatedKey is a newly issued key. RawKey is only available here.
type CreatedKey struct {
	Key    *entities.APIKey
	RawKey string
}

// HandleCreate issues a key.
func (h *APIKeyHandler) HandleCreate(ctx context.Context, name string, scopes []string) (*CreatedKey, error) {
	key, raw, err := h.service.Create(ctx, name, scopes)
	if err != nil {
		return nil, err
	}
	return &CreatedKey{Key: key, RawKey: raw}, nil
}

// HandleList returns every key.
func (h *APIKeyHandler) HandleList(ctx context.Context) ([]entities.APIKey, error) {
	return h.service.List(ctx)
}

// HandleRevoke revokes a key.
func (h *APIKeyHandler) HandleRevoke(ctx context.Context, id string) (*entities.APIKey, error) {
	return h.service.Revoke(ctx, id)
}
