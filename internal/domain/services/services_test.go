package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/mocks"
	"github.com/Simpactsoft/now-core/internal/infrastructure/logging"
	"github.com/Simpactsoft/now-core/internal/infrastructure/relationaldb/memory"
)

const testKeyPrefix = "nw_live_sk_"

type testServices struct {
	db            *mocks.RelationalDB
	auditor       *Auditor
	schema        *SchemaService
	entities      *EntityService
	relationships *RelationshipService
	keys          *APIKeyService
	imports       *ImportService
}

// newTestServices wires every service to a fresh in-memory store behind a
// failure-injecting mock.
func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := mocks.NewRelationalDB(memory.New())
	logger := logging.Discard()
	auditor := NewAuditor(db, logger)
	schema := NewSchemaService(db, auditor)
	entitySvc := NewEntityService(db, schema, auditor)

	return &testServices{
		db:            db,
		auditor:       auditor,
		schema:        schema,
		entities:      entitySvc,
		relationships: NewRelationshipService(db, db, auditor),
		keys:          NewAPIKeyService(db, testKeyPrefix, auditor, logger),
		imports:       NewImportService(entitySvc, schema),
	}
}

// freezeTime pins timeNow for the duration of the test.
func freezeTime(t *testing.T, at time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = orig })
}

func strPtr(s string) *string { return &s }

func (ts *testServices) addField(t *testing.T, in FieldInput) *entities.FieldDefinition {
	t.Helper()
	def, err := ts.schema.AddField(context.Background(), in)
	require.NoError(t, err)
	return def
}

func (ts *testServices) createOrg(t *testing.T, name string) *entities.Entity {
	t.Helper()
	e, err := ts.entities.Create(context.Background(), entities.EntityTypeOrganization, EntityInput{Name: strPtr(name)})
	require.NoError(t, err)
	return e
}

func (ts *testServices) createPerson(t *testing.T, first, last string) *entities.Entity {
	t.Helper()
	e, err := ts.entities.Create(context.Background(), entities.EntityTypePerson, EntityInput{
		FirstName: strPtr(first),
		LastName:  strPtr(last),
	})
	require.NoError(t, err)
	return e
}

// requireFieldErrors asserts err is a validation error listing exactly the
// given field -> code pairs.
func requireFieldErrors(t *testing.T, err error, want map[string]string) {
	t.Helper()
	require.ErrorIs(t, err, entities.ErrValidation)
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	got := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		got[f.Field] = f.Code()
	}
	require.Equal(t, want, got)
}
