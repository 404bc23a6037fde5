package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

func TestAuditor_NilIsNoop(t *testing.T) {
	var a *Auditor
	assert.NotPanics(t, func() {
		a.Record(context.Background(), entities.ActionEntityCreated, "id", nil)
	})
}

func TestAuditor_HistoryAndByAction(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	org := ts.createOrg(t, "Acme")
	_, err := ts.entities.Update(ctx, entities.EntityTypeOrganization, org.ID, EntityInput{Industry: strPtr("Software")})
	require.NoError(t, err)
	ts.createOrg(t, "Globex")

	history, err := ts.auditor.History(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entities.ActionEntityCreated, history[0].Action)
	assert.Equal(t, entities.ActionEntityUpdated, history[1].Action)
	assert.Equal(t, "Acme", history[0].Details["name"])

	created, err := ts.auditor.ByAction(ctx, entities.ActionEntityCreated, 1)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Globex", created[0].Details["name"], "newest first")
}

func TestAuditor_ReadErrors(t *testing.T) {
	ts := newTestServices(t)
	boom := errors.New("gone")
	ts.db.Err = boom

	_, err := ts.auditor.History(context.Background(), "x")
	require.ErrorIs(t, err, boom)
	_, err = ts.auditor.ByAction(context.Background(), entities.ActionEntityCreated, 10)
	require.ErrorIs(t, err, boom)
}
