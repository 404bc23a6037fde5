package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getSchema(c *gin.Context) {
	schema, err := h.schema.HandleGetSchema(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, schema)
}
