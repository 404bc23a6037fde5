package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simpactsoft/now-core/internal/application/handlers"
	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/mocks"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
	"github.com/Simpactsoft/now-core/internal/domain/services"
	"github.com/Simpactsoft/now-core/internal/infrastructure/logging"
	"github.com/Simpactsoft/now-core/internal/infrastructure/relationaldb/memory"
)

type testServer struct {
	router *gin.Engine
	db     *mocks.RelationalDB
	schema *services.SchemaService
	keys   *services.APIKeyService
	token  string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServer(t, memory.New())
}

// newTestServer wires the full stack over inner and issues a read/write key.
func newTestServer(t *testing.T, inner ports.RelationalDB) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := mocks.NewRelationalDB(inner)
	logger := logging.Discard()
	auditor := services.NewAuditor(db, logger)
	schemaSvc := services.NewSchemaService(db, auditor)
	entitySvc := services.NewEntityService(db, schemaSvc, auditor)
	keys := services.NewAPIKeyService(db, "nw_live_sk_", auditor, logger)

	router := NewRouter(Options{
		Entities:      handlers.NewEntityHandler(entitySvc),
		Relationships: handlers.NewRelationshipHandler(services.NewRelationshipService(db, db, auditor), logger),
		Schema:        handlers.NewSchemaHandler(schemaSvc),
		Keys:          keys,
		Pagination:    handlers.Pagination{DefaultPageSize: 50, MaxPageSize: 200},
		Environment:   "test",
		Logger:        logger,
	})

	_, token, err := keys.Create(context.Background(), "test", nil)
	require.NoError(t, err)

	return &testServer{router: router, db: db, schema: schemaSvc, keys: keys, token: token}
}

type response struct {
	Code int
	Body map[string]any
}

func (ts *testServer) do(t *testing.T, method, path string, body any) response {
	t.Helper()
	return ts.doWithToken(t, ts.token, method, path, body)
}

func (ts *testServer) doWithToken(t *testing.T, token, method, path string, body any) response {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	out := response{Code: w.Code}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out.Body), w.Body.String())
	}
	return out
}

func (r response) data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

func (r response) list() []any {
	d, _ := r.Body["data"].([]any)
	return d
}

func (r response) meta() map[string]any {
	m, _ := r.Body["meta"].(map[string]any)
	return m
}

func (r response) errorCode() string {
	e, _ := r.Body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func (r response) details() []map[string]any {
	e, _ := r.Body["error"].(map[string]any)
	raw, _ := e["details"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, d := range raw {
		out = append(out, d.(map[string]any))
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.doWithToken(t, "", http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, map[string]any{"status": "ok", "environment": "test"}, resp.Body)
}

func TestAuthentication(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	revoked, revokedToken, err := ts.keys.Create(ctx, "old", nil)
	require.NoError(t, err)
	_, err = ts.keys.Revoke(ctx, revoked.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty bearer", header: "Bearer "},
		{name: "malformed key", header: "Bearer abc"},
		{name: "unknown key", header: "Bearer nw_live_sk_" + string(bytes.Repeat([]byte("a"), 64))},
		{name: "revoked key", header: "Bearer " + revokedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/organizations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
		})
	}

	t.Run("lower-case scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/organizations", nil)
		req.Header.Set("Authorization", "bearer "+ts.token)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthorization_Scopes(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	_, readOnly, err := ts.keys.Create(ctx, "reader", []string{"read"})
	require.NoError(t, err)
	_, admin, err := ts.keys.Create(ctx, "admin", []string{"admin"})
	require.NoError(t, err)

	resp := ts.doWithToken(t, readOnly, http.MethodGet, "/api/v1/organizations", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.doWithToken(t, readOnly, http.MethodPost, "/api/v1/organizations", map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", resp.errorCode())

	resp = ts.doWithToken(t, admin, http.MethodPost, "/api/v1/organizations", map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestOrganizations_CRUD(t *testing.T) {
	ts := setupTestServer(t)
	_, err := ts.schema.AddField(context.Background(), services.FieldInput{
		EntityType: entities.EntityTypeOrganization, Name: "linkedin_url", ValueType: "string",
	})
	require.NoError(t, err)

	resp := ts.do(t, http.MethodPost, "/api/v1/organizations", map[string]any{
		"name":          "Acme",
		"industry":      "Software",
		"custom_fields": map[string]any{"linkedin_url": "https://linkedin.com/company/acme"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body)
	org := resp.data()
	id := org["id"].(string)
	assert.Equal(t, "ORGANIZATION", org["type"])
	assert.Equal(t, "PROSPECT", org["status"])
	assert.Equal(t, "https://linkedin.com/company/acme", org["custom_fields"].(map[string]any)["linkedin_url"])

	resp = ts.do(t, http.MethodGet, "/api/v1/organizations/"+id, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Acme", resp.data()["name"])

	resp = ts.do(t, http.MethodPatch, "/api/v1/organizations/"+id, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body)
	assert.Equal(t, "ACTIVE", resp.data()["status"])
	assert.Equal(t, "Software", resp.data()["industry"])

	resp = ts.do(t, http.MethodGet, "/api/v1/people/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())

	resp = ts.do(t, http.MethodDelete, "/api/v1/organizations/"+id, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, resp.data()["deleted"])

	resp = ts.do(t, http.MethodGet, "/api/v1/organizations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEntities_Validation(t *testing.T) {
	ts := setupTestServer(t)
	_, err := ts.schema.AddField(context.Background(), services.FieldInput{
		EntityType: entities.EntityTypePerson, Name: "lead_score", ValueType: "number",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		body    any
		code    string
		details []map[string]any
	}{
		{
			name: "missing required names",
			path: "/api/v1/people",
			body: map[string]any{"email": "x@example.com"},
			code: "VALIDATION_ERROR",
			details: []map[string]any{
				{"field": "first_name", "code": "MISSING_REQUIRED_FIELD", "message": "is required"},
				{"field": "last_name", "code": "MISSING_REQUIRED_FIELD", "message": "is required"},
			},
		},
		{
			name: "custom field type mismatch",
			path: "/api/v1/people",
			body: map[string]any{"first_name": "Dana", "last_name": "Levi", "custom_fields": map[string]any{"lead_score": "high"}},
			code: "VALIDATION_ERROR",
			details: []map[string]any{
				{"field": "custom_fields.lead_score", "code": "TYPE_MISMATCH", "message": "expected number, got string"},
			},
		},
		{
			name: "unknown top-level key",
			path: "/api/v1/organizations",
			body: map[string]any{"name": "Acme", "website": "acme.example"},
			code: "VALIDATION_ERROR",
			details: []map[string]any{
				{"field": "website", "code": "UNKNOWN_FIELD", "message": "unknown field"},
			},
		},
		{
			name: "built-in of the wrong JSON type",
			path: "/api/v1/organizations",
			body: `{"name": 42}`,
			code: "VALIDATION_ERROR",
		},
		{
			name: "malformed json",
			path: "/api/v1/organizations",
			body: `{"name": `,
			code: "INVALID_BODY",
		},
		{
			name: "array body",
			path: "/api/v1/organizations",
			body: `[{"name": "Acme"}]`,
			code: "INVALID_BODY",
		},
		{
			name: "empty body",
			path: "/api/v1/organizations",
			body: "",
			code: "INVALID_BODY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.code, resp.errorCode())
			if tt.details != nil {
				assert.Equal(t, tt.details, resp.details())
			}
		})
	}

	total, err := ts.db.CountEntities(context.Background(), entities.EntityFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEntities_ListPagination(t *testing.T) {
	ts := setupTestServer(t)
	for _, name := range []string{"Acme", "Globex", "Initech", "Umbrella", "Acme Labs"} {
		resp := ts.do(t, http.MethodPost, "/api/v1/organizations", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := ts.do(t, http.MethodGet, "/api/v1/organizations?page=2&pageSize=2", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, resp.list(), 2)
	assert.Equal(t, "Initech", resp.list()[0].(map[string]any)["name"])
	assert.Equal(t, map[string]any{"total": float64(5), "page": float64(2), "pageSize": float64(2), "totalPages": float64(3)}, resp.meta())

	resp = ts.do(t, http.MethodGet, "/api/v1/organizations?search=acme", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, resp.list(), 2)
	assert.Equal(t, float64(2), resp.meta()["total"])
	assert.Equal(t, float64(50), resp.meta()["pageSize"])

	resp = ts.do(t, http.MethodGet, "/api/v1/organizations?page=10", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotNil(t, resp.Body["data"])
	assert.Empty(t, resp.list())
	assert.Equal(t, float64(5), resp.meta()["total"])

	resp = ts.do(t, http.MethodGet, "/api/v1/organizations?pageSize=500", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(200), resp.meta()["pageSize"])

	for _, q := range []string{"page=abc", "pageSize=1.5", "page=0", "pageSize=-1"} {
		resp = ts.do(t, http.MethodGet, "/api/v1/organizations?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code, q)
		assert.Equal(t, "INVALID_PAGINATION", resp.errorCode(), q)
	}
}

func TestRelationships_EndToEnd(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/organizations", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, resp.Code)
	orgID := resp.data()["id"].(string)

	resp = ts.do(t, http.MethodPost, "/api/v1/people", map[string]any{
		"first_name": "Israel",
		"last_name":  "Israeli",
		"email":      "israel@acme.example",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	personID := resp.data()["id"].(string)

	resp = ts.do(t, http.MethodPost, "/api/v1/relationships", map[string]any{
		"source_id":         personID,
		"target_id":         orgID,
		"relationship_type": "Employee",
		"metadata":          map[string]any{"job_title": "CEO"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body)
	rel := resp.data()
	relID := rel["id"].(string)
	assert.Equal(t, personID, rel["source_id"])
	assert.Equal(t, "PERSON", rel["source_type"])
	assert.Equal(t, orgID, rel["target_id"])
	assert.Equal(t, "ORGANIZATION", rel["target_type"])
	assert.Equal(t, map[string]any{"job_title": "CEO"}, rel["metadata"])
	assert.Equal(t, "Israel Israeli", rel["source"].(map[string]any)["name"])

	resp = ts.do(t, http.MethodGet, "/api/v1/relationships", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, resp.list(), 1)
	assert.Equal(t, "Acme", resp.list()[0].(map[string]any)["target"].(map[string]any)["name"])
	assert.Equal(t, float64(1), resp.meta()["total"])

	resp = ts.do(t, http.MethodGet, "/api/v1/relationships/"+relID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Employee", resp.data()["relationship_type"])

	resp = ts.do(t, http.MethodPost, "/api/v1/relationships", map[string]any{
		"source_id": personID, "target_id": "missing", "relationship_type": "Employee",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())

	resp = ts.do(t, http.MethodPost, "/api/v1/relationships", map[string]any{"source_id": personID})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Len(t, resp.details(), 2)

	resp = ts.do(t, http.MethodDelete, "/api/v1/relationships/"+relID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.do(t, http.MethodGet, "/api/v1/relationships/"+relID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSchema(t *testing.T) {
	ts := setupTestServer(t)
	_, err := ts.schema.LoadDefaults(context.Background())
	require.NoError(t, err)

	resp := ts.do(t, http.MethodGet, "/api/v1/schema", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	data := resp.data()
	orgs := data["organizations"].([]any)
	people := data["people"].([]any)
	require.Len(t, orgs, 1)
	require.Len(t, people, 1)
	assert.Equal(t, "linkedin_url", orgs[0].(map[string]any)["key"])
	assert.Equal(t, "number", people[0].(map[string]any)["type"])
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	ts := setupTestServer(t)
	ts.db.FailOn["CountEntities"] = errors.New("pq: password authentication failed for user now")

	resp := ts.do(t, http.MethodGet, "/api/v1/organizations", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "INTERNAL_ERROR", resp.errorCode())
	assert.NotContains(t, resp.Body["error"].(map[string]any)["message"], "password")
}

func TestUpdateConflict(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/organizations", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, resp.Code)
	id := resp.data()["id"].(string)

	ts.db.FailOn["UpdateEntity"] = fmt.Errorf("entity %s: %w", id, entities.ErrConflict)
	resp = ts.do(t, http.MethodPatch, "/api/v1/organizations/"+id, map[string]any{"industry": "Software"})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "CONFLICT", resp.errorCode())
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/v1/deals", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())
}
