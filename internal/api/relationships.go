package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Simpactsoft/now-core/internal/domain/services"
)

func (h *Handler) listRelationships(c *gin.Context) {
	req, err := h.pagination.Parse(c.Query("page"), c.Query("pageSize"))
	if err != nil {
		writeError(c, err)
		return
	}

	page, err := h.relationships.HandleList(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page)
}

func (h *Handler) createRelationship(c *gin.Context) {
	var in services.RelationshipInput
	if err := decodeBody(c, &in, relationshipFields); err != nil {
		writeError(c, err)
		return
	}

	info, err := h.relationships.HandleCreate(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusCreated, info)
}

func (h *Handler) getRelationship(c *gin.Context) {
	info, err := h.relationships.HandleGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, info)
}

func (h *Handler) deleteRelationship(c *gin.Context) {
	id := c.Param("id")
	if err := h.relationships.HandleDelete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
