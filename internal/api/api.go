// Package api exposes the CRM over HTTP under /api/v1.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Simpactsoft/now-core/internal/application/handlers"
	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

// BasePath prefixes every route.
const BasePath = "/api/v1"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Options wires the router to the application layer.
type Options struct {
	Entities      *handlers.EntityHandler
	Relationships *handlers.RelationshipHandler
	Schema        *handlers.SchemaHandler
	Keys          *services.APIKeyService
	Pagination    handlers.Pagination
	Environment   string
	Logger        *slog.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	entities      *handlers.EntityHandler
	relationships *handlers.RelationshipHandler
	schema        *handlers.SchemaHandler
	keys          *services.APIKeyService
	pagination    handlers.Pagination
	environment   string
	logger        *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		entities:      opts.Entities,
		relationships: opts.Relationships,
		schema:        opts.Schema,
		keys:          opts.Keys,
		pagination:    opts.Pagination,
		environment:   opts.Environment,
		logger:        logger,
	}

	r := gin.New()
	r.Use(requestLogger(logger), recovery(logger))
	r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, codeNotFound, "route not found")
	})

	v1 := r.Group(BasePath)
	v1.GET("/health", h.health)

	authed := v1.Group("", h.authenticate, h.authorize)

	for _, t := range entities.EntityTypes {
		group := authed.Group("/" + t.Plural())
		group.GET("", h.listEntities(t))
		group.POST("", h.createEntity(t))
		group.GET("/:id", h.getEntity(t))
		group.PATCH("/:id", h.updateEntity(t))
		group.DELETE("/:id", h.deleteEntity(t))
	}

	authed.GET("/relationships", h.listRelationships)
	authed.POST("/relationships", h.createRelationship)
	authed.GET("/relationships/:id", h.getRelationship)
	authed.DELETE("/relationships/:id", h.deleteRelationship)

	authed.GET("/schema", h.getSchema)

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"environment": h.environment,
	})
}
