package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
	"github.com/Simpactsoft/now-core/internal/infrastructure/logging"
	"github.com/Simpactsoft/now-core/internal/infrastructure/relationaldb/memory"
)

type testHandlers struct {
	store         *memory.Store
	entity        *EntityHandler
	relationship  *RelationshipHandler
	schema        *SchemaHandler
	keys          *APIKeyHandler
	audit         *AuditHandler
	importHandler *ImportHandler
}

func newTestHandlers(t *testing.T) *testHandlers {
	t.Helper()

	store := memory.New()
	logger := logging.Discard()
	auditor := services.NewAuditor(store, logger)
	schemaSvc := services.NewSchemaService(store, auditor)
	entitySvc := services.NewEntityService(store, schemaSvc, auditor)

	return &testHandlers{
		store:         store,
		entity:        NewEntityHandler(entitySvc),
		relationship:  NewRelationshipHandler(services.NewRelationshipService(store, store, auditor), logger),
		schema:        NewSchemaHandler(schemaSvc),
		keys:          NewAPIKeyHandler(services.NewAPIKeyService(store, "nw_live_sk_", auditor, logger)),
		audit:         NewAuditHandler(auditor),
		importHandler: NewImportHandler(services.NewImportService(entitySvc, schemaSvc)),
	}
}

func strPtr(s string) *string { return &s }

func (th *testHandlers) createOrg(t *testing.T, name string) *entities.Entity {
	t.Helper()
	e, err := th.entity.HandleCreate(context.Background(), entities.EntityTypeOrganization, services.EntityInput{Name: strPtr(name)})
	require.NoError(t, err)
	return e
}

func (th *testHandlers) createPerson(t *testing.T, first, last, email string) *entities.Entity {
	t.Helper()
	in := services.EntityInput{FirstName: strPtr(first), LastName: strPtr(last)}
	if email != "" {
		in.Email = strPtr(email)
	}
	e, err := th.entity.HandleCreate(context.Background(), entities.EntityTypePerson, in)
	require.NoError(t, err)
	return e
}
