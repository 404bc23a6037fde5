package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrg(id, name string, created time.Time) *entities.Entity {
	return &entities.Entity{
		ID:           id,
		Type:         entities.EntityTypeOrganization,
		Name:         name,
		Status:       entities.StatusProspect,
		CustomFields: entities.CustomFields{},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestStore_SaveAndFindEntity(t *testing.T) {
	ctx := context.Background()
	s := New()

	org := newOrg("org-1", "Acme Corporation", time.Now())
	org.CustomFields["linkedin_url"] = "https://linkedin.com/company/acme"
	require.NoError(t, s.SaveEntity(ctx, org))

	found, err := s.FindEntityByID(ctx, "org-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Acme Corporation", found.Name)

	// Mutating the returned copy must not leak into the store.
	found.CustomFields["linkedin_url"] = "changed"
	again, _ := s.FindEntityByID(ctx, "org-1")
	assert.Equal(t, "https://linkedin.com/company/acme", again.CustomFields["linkedin_url"])

	missing, err := s.FindEntityByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_SaveEntity_ReplaceKeepsPosition(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	require.NoError(t, s.SaveEntity(ctx, newOrg("a", "Alpha", now)))
	require.NoError(t, s.SaveEntity(ctx, newOrg("b", "Beta", now)))
	require.NoError(t, s.SaveEntity(ctx, newOrg("a", "Alpha Renamed", now)))

	list, err := s.ListEntities(ctx, entities.EntityFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha Renamed", list[0].Name)
	assert.Equal(t, "Beta", list[1].Name)
}

func TestStore_UpdateEntity(t *testing.T) {
	ctx := context.Background()
	s := New()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveEntity(ctx, newOrg("a", "Alpha", created)))

	renamed := newOrg("a", "Alpha Renamed", created)
	renamed.UpdatedAt = created.Add(time.Second)
	require.NoError(t, s.UpdateEntity(ctx, renamed, created))

	stale := newOrg("a", "Alpha Stale", created)
	stale.UpdatedAt = created.Add(2 * time.Second)
	require.ErrorIs(t, s.UpdateEntity(ctx, stale, created), entities.ErrConflict)

	require.ErrorIs(t, s.UpdateEntity(ctx, newOrg("b", "Beta", created), created), entities.ErrNotFound)

	found, err := s.FindEntityByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Renamed", found.Name)
}

func TestStore_FindEntityByField(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	first := newOrg("a", "Acme", now)
	first.TaxID = "515151515"
	require.NoError(t, s.SaveEntity(ctx, first))
	require.NoError(t, s.SaveEntity(ctx, newOrg("b", "ACME", now)))

	found, err := s.FindEntityByField(ctx, entities.EntityTypeOrganization, "name", "acme")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a", found.ID)

	found, err = s.FindEntityByField(ctx, entities.EntityTypeOrganization, "tax_id", "515151515")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a", found.ID)

	found, err = s.FindEntityByField(ctx, entities.EntityTypePerson, "name", "acme")
	require.NoError(t, err)
	assert.Nil(t, found)

	_, err = s.FindEntityByField(ctx, entities.EntityTypeOrganization, "phone", "1")
	require.Error(t, err)
}

func TestStore_ListEntities_Pagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()

	for i := 0; i < 15; i++ {
		require.NoError(t, s.SaveEntity(ctx, newOrg(fmt.Sprintf("org-%02d", i), fmt.Sprintf("Org %02d", i), base.Add(time.Duration(i)*time.Millisecond))))
	}

	filter := entities.EntityFilter{Type: entities.EntityTypeOrganization}

	page2, err := s.ListEntities(ctx, filter, 10, 10)
	require.NoError(t, err)
	require.Len(t, page2, 5)
	assert.Equal(t, "org-10", page2[0].ID)

	beyond, err := s.ListEntities(ctx, filter, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	total, err := s.CountEntities(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 15, total)
}

func TestStore_ListEntities_Search(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	require.NoError(t, s.SaveEntity(ctx, newOrg("o1", "Acme Corporation", now)))
	require.NoError(t, s.SaveEntity(ctx, newOrg("o2", "Globex", now)))
	require.NoError(t, s.SaveEntity(ctx, &entities.Entity{
		ID: "p1", Type: entities.EntityTypePerson, FirstName: "Israel", LastName: "Israeli", Email: "israel@acme.com",
	}))

	orgs, err := s.ListEntities(ctx, entities.EntityFilter{Type: entities.EntityTypeOrganization, Search: "ACME"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "o1", orgs[0].ID)

	people, err := s.ListEntities(ctx, entities.EntityFilter{Type: entities.EntityTypePerson, Search: "acme"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, people, 1)

	count, err := s.CountEntities(ctx, entities.EntityFilter{Type: entities.EntityTypeOrganization, Search: "acme-xyz"})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_DeleteEntity(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	require.NoError(t, s.SaveEntity(ctx, newOrg("a", "A", now)))
	require.NoError(t, s.SaveEntity(ctx, newOrg("b", "B", now)))
	require.NoError(t, s.SaveEntity(ctx, newOrg("c", "C", now)))

	require.NoError(t, s.DeleteEntity(ctx, "b"))
	require.NoError(t, s.DeleteEntity(ctx, "b"))

	found, err := s.FindEntitiesByIDs(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, "c")

	c, _ := s.FindEntityByID(ctx, "c")
	require.NotNil(t, c)
	assert.Equal(t, "C", c.Name)
}

func TestStore_Relationships(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveRelationship(ctx, &entities.Relationship{
			ID:               fmt.Sprintf("r%d", i),
			SourceID:         "p1",
			TargetID:         "o1",
			RelationshipType: "Employee",
			Metadata:         entities.Metadata{"title": "CTO"},
		}))
	}

	list, err := s.ListRelationships(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].ID)

	count, err := s.CountRelationships(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, s.DeleteRelationship(ctx, "r1"))
	rel, err := s.FindRelationshipByID(ctx, "r2")
	require.NoError(t, err)
	require.NotNil(t, rel)
	assert.Equal(t, "CTO", rel.Metadata["title"])

	gone, err := s.FindRelationshipByID(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStore_FieldDefinitions(t *testing.T) {
	ctx := context.Background()
	s := New()

	defs := []entities.FieldDefinition{
		{EntityType: entities.EntityTypePerson, Name: "lead_score", ValueType: entities.ValueTypeNumber, Position: 1},
		{EntityType: entities.EntityTypePerson, Name: "source", ValueType: entities.ValueTypeString, Position: 0},
		{EntityType: entities.EntityTypeOrganization, Name: "linkedin_url", ValueType: entities.ValueTypeString},
	}
	for i := range defs {
		require.NoError(t, s.SaveFieldDefinition(ctx, &defs[i]))
	}

	err := s.SaveFieldDefinition(ctx, &defs[0])
	assert.ErrorIs(t, err, entities.ErrAlreadyExists)

	people, err := s.ListFieldDefinitions(ctx, entities.EntityTypePerson)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "source", people[0].Name)

	all, err := s.ListFieldDefinitions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.DeleteFieldDefinition(ctx, entities.EntityTypePerson, "source"))
	def, err := s.FindFieldDefinition(ctx, entities.EntityTypePerson, "source")
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestStore_APIKeys(t *testing.T) {
	ctx := context.Background()
	s := New()

	key := &entities.APIKey{ID: "k1", Name: "ci", KeyHash: "hash", Scopes: entities.StringList{"read"}}
	require.NoError(t, s.SaveAPIKey(ctx, key))

	found, err := s.FindAPIKeyByHash(ctx, "hash")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsActive())

	now := time.Now()
	require.NoError(t, s.TouchAPIKey(ctx, "k1", now))
	require.NoError(t, s.RevokeAPIKey(ctx, "k1", now))
	require.NoError(t, s.RevokeAPIKey(ctx, "k1", now.Add(time.Hour)))
	require.NoError(t, s.SaveAPIKey(ctx, found))

	byID, err := s.FindAPIKeyByID(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, byID.IsActive())
	require.NotNil(t, byID.RevokedAt)
	assert.True(t, now.Equal(*byID.RevokedAt))

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestStore_AuditLog(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.LogAction(ctx, entities.ActionEntityCreated, "e1", map[string]any{"type": "PERSON"}))
	require.NoError(t, s.LogAction(ctx, entities.ActionEntityUpdated, "e1", nil))
	require.NoError(t, s.LogAction(ctx, entities.ActionEntityCreated, "e2", nil))

	bySubject, err := s.FindAuditLog(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, bySubject, 2)
	assert.Equal(t, entities.ActionEntityCreated, bySubject[0].Action)
	assert.Equal(t, "PERSON", bySubject[0].Details["type"])

	byAction, err := s.FindAuditLogByAction(ctx, entities.ActionEntityCreated, 1)
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, "e2", byAction[0].SubjectID)
}
