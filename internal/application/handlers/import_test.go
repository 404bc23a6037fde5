package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportHandler_Handle(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		content      string
		opts         ImportOptions
		wantImported int
		wantErrors   int
		wantStored   int
	}{
		{
			name:         "csv by extension",
			file:         "orgs.csv",
			content:      "name,industry\nAcme,Software\n,Energy\n",
			opts:         ImportOptions{EntityType: entities.EntityTypeOrganization},
			wantImported: 1,
			wantErrors:   1,
			wantStored:   1,
		},
		{
			name:         "json with explicit format",
			file:         "people.txt",
			content:      `[{"first_name": "Israel", "last_name": "Israeli"}]`,
			opts:         ImportOptions{EntityType: entities.EntityTypePerson, Format: "json"},
			wantImported: 1,
			wantStored:   1,
		},
		{
			name:         "dry run",
			file:         "orgs.csv",
			content:      "name\nAcme\n",
			opts:         ImportOptions{EntityType: entities.EntityTypeOrganization, DryRun: true},
			wantImported: 1,
		},
		{
			name:    "empty file",
			file:    "orgs.json",
			content: "[]",
			opts:    ImportOptions{EntityType: entities.EntityTypeOrganization},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestHandlers(t)
			ctx := context.Background()

			result, err := th.importHandler.Handle(ctx, writeTempFile(t, tt.file, tt.content), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantImported, result.Imported)
			assert.Len(t, result.Errors, tt.wantErrors)

			total, err := th.store.CountEntities(ctx, entities.EntityFilter{Type: tt.opts.EntityType})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStored, total)
		})
	}
}

func TestImportHandler_Handle_Errors(t *testing.T) {
	th := newTestHandlers(t)
	ctx := context.Background()

	_, err := th.importHandler.Handle(ctx, writeTempFile(t, "orgs.txt", "name\nAcme\n"), ImportOptions{EntityType: entities.EntityTypeOrganization})
	require.ErrorContains(t, err, "unsupported format")

	_, err = th.importHandler.Handle(ctx, filepath.Join(t.TempDir(), "missing.csv"), ImportOptions{EntityType: entities.EntityTypeOrganization})
	require.ErrorContains(t, err, "opening file")

	_, err = th.importHandler.Handle(ctx, writeTempFile(t, "orgs.json", "{"), ImportOptions{EntityType: entities.EntityTypeOrganization})
	require.ErrorContains(t, err, "parsing file")

	_, err = th.importHandler.Handle(ctx, writeTempFile(t, "orgs.csv", "name\nAcme\n"), ImportOptions{EntityType: "DEAL"})
	require.Error(t, err)
}

func TestImportHandler_Handle_OnDuplicate(t *testing.T) {
	th := newTestHandlers(t)
	ctx := context.Background()
	acme := th.createOrg(t, "Acme")
	path := writeTempFile(t, "orgs.csv", "name,industry\nacme,Software\nGlobex,Energy\n")

	result, err := th.importHandler.Handle(ctx, path, ImportOptions{EntityType: entities.EntityTypeOrganization})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)

	result, err = th.importHandler.Handle(ctx, path, ImportOptions{
		EntityType:  entities.EntityTypeOrganization,
		OnDuplicate: services.DuplicateUpdate,
	})
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Equal(t, 2, result.Updated)

	got, err := th.store.FindEntityByID(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "Software", got.Industry)

	total, err := th.store.CountEntities(ctx, entities.EntityFilter{Type: entities.EntityTypeOrganization})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
