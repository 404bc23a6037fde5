package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

func (h *Handler) listEntities(t entities.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := h.pagination.Parse(c.Query("page"), c.Query("pageSize"))
		if err != nil {
			writeError(c, err)
			return
		}

		page, err := h.entities.HandleList(c.Request.Context(), t, req, c.Query("search"))
		if err != nil {
			writeError(c, err)
			return
		}
		writePage(c, page)
	}
}

func (h *Handler) createEntity(t entities.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.EntityInput
		if err := decodeBody(c, &in, entityFields); err != nil {
			writeError(c, err)
			return
		}

		e, err := h.entities.HandleCreate(c.Request.Context(), t, in)
		if err != nil {
			writeError(c, err)
			return
		}
		writeData(c, http.StatusCreated, e)
	}
}

func (h *Handler) getEntity(t entities.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := h.entities.HandleGet(c.Request.Context(), t, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		writeData(c, http.StatusOK, e)
	}
}

func (h *Handler) updateEntity(t entities.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.EntityInput
		if err := decodeBody(c, &in, entityFields); err != nil {
			writeError(c, err)
			return
		}

		e, err := h.entities.HandleUpdate(c.Request.Context(), t, c.Param("id"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		writeData(c, http.StatusOK, e)
	}
}

func (h *Handler) deleteEntity(t entities.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := h.entities.HandleDelete(c.Request.Context(), t, id); err != nil {
			writeError(c, err)
			return
		}
		writeData(c, http.StatusOK, gin.H{"id": id, "deleted": true})
	}
}
