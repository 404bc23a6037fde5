package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

func TestAuditHandler_Handle(t *testing.T) {
	th := newTestHandlers(t)
	ctx := context.Background()
	org := th.createOrg(t, "Acme")
	th.createOrg(t, "Globex")

	entries, err := th.audit.Handle(ctx, AuditQuery{SubjectID: org.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entities.ActionEntityCreated, entries[0].Action)

	entries, err = th.audit.Handle(ctx, AuditQuery{Action: entities.ActionEntityCreated, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = th.audit.Handle(ctx, AuditQuery{})
	require.Error(t, err)
	_, err = th.audit.Handle(ctx, AuditQuery{SubjectID: org.ID, Action: entities.ActionEntityCreated})
	require.Error(t, err)
}
