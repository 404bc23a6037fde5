package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

// Error codes returned in the error envelope.
const (
	codeValidation        = "VALIDATION_ERROR"
	codeInvalidBody       = "INVALID_BODY"
	codeInvalidPagination = "INVALID_PAGINATION"
	codeNotFound          = "NOT_FOUND"
	codeConflict          = "CONFLICT"
	codeUnauthorized      = "UNAUTHORIZED"
	codeForbidden         = "FORBIDDEN"
	codeInternal          = "INTERNAL_ERROR"
)

type errorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []errorDetail `json:"details,omitempty"`
}

type errorDetail struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func writePage[T any](c *gin.Context, page *entities.Page[T]) {
	c.JSON(http.StatusOK, gin.H{
		"data": page.Items,
		"meta": listMeta{
			Total:      page.Total,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages(),
		},
	})
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: message}})
}

// writeError maps a domain error onto the error envelope. Unexpected errors
// are logged and reported without detail.
func writeError(c *gin.Context, err error) {
	var verr *entities.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]errorDetail, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = errorDetail{Field: f.Field, Code: f.Code(), Message: f.Message}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errorBody{
			Code:    codeValidation,
			Message: "request validation failed",
			Details: details,
		}})
	case errors.Is(err, errInvalidBody):
		writeErrorCode(c, http.StatusBadRequest, codeInvalidBody, err.Error())
	case errors.Is(err, entities.ErrInvalidPagination):
		writeErrorCode(c, http.StatusBadRequest, codeInvalidPagination, err.Error())
	case errors.Is(err, entities.ErrNotFound):
		writeErrorCode(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, entities.ErrAlreadyExists), errors.Is(err, entities.ErrConflict):
		writeErrorCode(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, entities.ErrUnauthorized):
		writeErrorCode(c, http.StatusUnauthorized, codeUnauthorized, "missing or invalid API key")
	case errors.Is(err, entities.ErrForbidden):
		writeErrorCode(c, http.StatusForbidden, codeForbidden, err.Error())
	default:
		_ = c.Error(err)
		loggerFrom(c).Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		writeErrorCode(c, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}
