package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

const (
	ctxLoggerKey = "now.logger"
	ctxAPIKeyKey = "now.api_key"
)

// requestLogger logs one line per request once it completes.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(ctxLoggerKey, logger)

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if key := apiKeyFrom(c); key != nil {
			attrs = append(attrs, "key_id", key.ID)
		}

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request", attrs...)
	}
}

// recovery turns panics into an INTERNAL_ERROR response.
func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.Error("panic serving request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"panic", fmt.Sprint(rec),
		)
		writeErrorCode(c, http.StatusInternalServerError, codeInternal, "internal server error")
	})
}

// authenticate resolves the bearer token to an active API key.
func (h *Handler) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		writeError(c, fmt.Errorf("missing bearer token: %w", entities.ErrUnauthorized))
		return
	}

	key, err := h.keys.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Set(ctxAPIKeyKey, key)
	c.Next()
}

// authorize requires the read scope for safe methods and write otherwise.
func (h *Handler) authorize(c *gin.Context) {
	scope := entities.ScopeWrite
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		scope = entities.ScopeRead
	}

	if err := h.keys.Authorize(apiKeyFrom(c), scope); err != nil {
		writeError(c, err)
		return
	}
	c.Next()
}

func apiKeyFrom(c *gin.Context) *entities.APIKey {
	v, ok := c.Get(ctxAPIKeyKey)
	if !ok {
		return nil
	}
	key, _ := v.(*entities.APIKey)
	return key
}

func loggerFrom(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ctxLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
