package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

var errInvalidBody = errors.New("invalid request body")

// entityFields are the body keys accepted on organization and person writes.
var entityFields = []string{
	"name", "industry", "company_size", "tax_id",
	"first_name", "last_name", "tags",
	"email", "phone", "status", "custom_fields",
}

// relationshipFields are the body keys accepted on relationship creation.
var relationshipFields = []string{"source_id", "target_id", "relationship_type", "metadata"}

// decodeBody reads a JSON object into dst. Keys outside allowed and values of
// the wrong JSON type are reported as a *ValidationError; anything that is not
// a JSON object wraps errInvalidBody.
func decodeBody(c *gin.Context, dst any, allowed []string) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading body: %w: %w", errInvalidBody, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return fmt.Errorf("%w: body is empty", errInvalidBody)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil || keys == nil {
		return fmt.Errorf("%w: expected a JSON object", errInvalidBody)
	}

	verr := &entities.ValidationError{}
	known := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		known[k] = true
	}
	unknown := make([]string, 0)
	for k := range keys {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		verr.Add(k, entities.ErrUnknownField, "unknown field")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			verr.Add(typeErr.Field, entities.ErrTypeMismatch, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
			return verr
		}
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return nil
}
