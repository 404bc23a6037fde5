package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
	"github.com/Simpactsoft/now-core/internal/domain/services"
	"github.com/Simpactsoft/now-core/internal/infrastructure/logging"
)

func TestRelationshipHandler_HandleCreate(t *testing.T) {
	th := newTestHandlers(t)
	ctx := context.Background()
	org := th.createOrg(t, "Acme")
	person := th.createPerson(t, "Israel", "Israeli", "israel@acme.example")

	info, err := th.relationship.HandleCreate(ctx, services.RelationshipInput{
		SourceID:         person.ID,
		TargetID:         org.ID,
		RelationshipType: "Employee",
		Metadata:         map[string]any{"job_title": "CEO"},
	})
	require.NoError(t, err)

	require.NotNil(t, info.Source)
	require.NotNil(t, info.Target)
	assert.Equal(t, EntitySummary{ID: person.ID, Type: entities.EntityTypePerson, Name: "Israel Israeli", Email: "israel@acme.example"}, *info.Source)
	assert.Equal(t, EntitySummary{ID: org.ID, Type: entities.EntityTypeOrganization, Name: "Acme"}, *info.Target)

	b, err := json.Marshal(info)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(b, &wire))
	assert.Equal(t, person.ID, wire["source_id"])
	assert.Equal(t, "PERSON", wire["source_type"])
	assert.Equal(t, "Employee", wire["relationship_type"])
	assert.Equal(t, map[string]any{"job_title": "CEO"}, wire["metadata"])
	assert.Equal(t, "Acme", wire["target"].(map[string]any)["name"])
}

// flakyLookups lets the first ok batch lookups through and fails the rest.
type flakyLookups struct {
	ports.EntityRepository
	ok int
}

func (f *flakyLookups) FindEntitiesByIDs(ctx context.Context, ids []string) (map[string]*entities.Entity, error) {
	if f.ok == 0 {
		return nil, errors.New("connection reset")
	}
	f.ok--
	return f.EntityRepository.FindEntitiesByIDs(ctx, ids)
}

func TestRelationshipHandler_HandleCreate_EnrichmentFailureKeepsResult(t *testing.T) {
	th := newTestHandlers(t)
	ctx := context.Background()
	org := th.createOrg(t, "Acme")
	person := th.createPerson(t, "Israel", "Israeli", "")

	logger := logging.Discard()
	lookups := &flakyLookups{EntityRepository: th.store, ok: 1}
	h := NewRelationshipHandler(services.NewRelationshipService(th.store, lookups, services.NewAuditor(th.store, logger)), logger)

	info, err := h.HandleCreate(ctx, services.RelationshipInput{
		SourceID:         person.ID,
		TargetID:         org.ID,
		RelationshipType: "Employee",
	})
	require.NoError(t, err)
	require.NotNil(t, info.Relationship)
	assert.Nil(t, info.Source)
	assert.Nil(t, info.Target)

	stored, err := th.store.FindRelationshipByID(ctx, info.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Employee", stored.RelationshipType)
}

func TestRelationshipHandler_HandleGet_DanglingEndpoint(t *testing.T) {
	th := newTestHandlers(t)
	ctx := context.Background()
	org := th.createOrg(t, "Acme")
	person := th.createPerson(t, "Israel", "Israeli", "")

	created, err := th.relationship.HandleCreate(ctx, services.RelationshipInput{SourceID: person.ID, TargetID: org.ID, RelationshipType: "Employee"})
	require.NoError(t, err)

	require.NoError(t, th.entity.HandleDelete(ctx, entities.EntityTypeOrganization, org.ID))

	info, err := th.relationship.HandleGet(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, info.Source)
	assert.Nil(t, info.Target)
	assert.Equal(t, org.ID, info.TargetID)
}

func TestRelationshipHandler_HandleList(t *testing.T) {
	th := newTestHandlers(t)
	ctx := context.Background()
	org := th.createOrg(t, "Acme")
	for _, name := range []string{"Israel", "Dana", "Noa"} {
		p := th.createPerson(t, name, "Levi", "")
		_, err := th.relationship.HandleCreate(ctx, services.RelationshipInput{SourceID: p.ID, TargetID: org.ID, RelationshipType: "Employee"})
		require.NoError(t, err)
	}

	page, err := th.relationship.HandleList(ctx, entities.PageRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Israel Levi", page.Items[0].Source.Name)
	assert.Equal(t, "Dana Levi", page.Items[1].Source.Name)
	assert.Equal(t, "Acme", page.Items[1].Target.Name)

	page, err = th.relationship.HandleList(ctx, entities.PageRequest{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
}

func TestRelationshipHandler_HandleDelete(t *testing.T) {
	th := newTestHandlers(t)
	ctx := context.Background()
	org := th.createOrg(t, "Acme")

	created, err := th.relationship.HandleCreate(ctx, services.RelationshipInput{SourceID: org.ID, TargetID: org.ID, RelationshipType: "Parent"})
	require.NoError(t, err)

	require.NoError(t, th.relationship.HandleDelete(ctx, created.ID))
	_, err = th.relationship.HandleGet(ctx, created.ID)
	require.ErrorIs(t, err, entities.ErrNotFound)
}
