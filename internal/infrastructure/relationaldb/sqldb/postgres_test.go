package sqldb

import (
	"context"
	"os"
	"testing"

	"github.com/Simpactsoft/now-core/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// setupPostgresRepo starts a disposable PostgreSQL container.
// Requires Docker and INTEGRATION_TEST=1.
func setupPostgresRepo(t *testing.T) *Repository {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("set INTEGRATION_TEST=1 to run PostgreSQL tests")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("now"),
		postgres.WithUsername("now"),
		postgres.WithPassword("now"),
		postgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewRepository(config.DatabaseConfig{Driver: config.DriverPostgres, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestPostgres(t *testing.T) {
	repo := setupPostgresRepo(t)

	t.Run("entities", func(t *testing.T) { testEntities(t, repo) })
	t.Run("relationships", func(t *testing.T) { testRelationships(t, repo) })
	t.Run("fields", func(t *testing.T) { testFieldDefinitions(t, repo) })
	t.Run("api keys", func(t *testing.T) { testAPIKeys(t, repo) })
	t.Run("audit log", func(t *testing.T) { testAuditLog(t, repo) })
}

func TestPostgres_Search(t *testing.T) {
	testSearch(t, setupPostgresRepo(t))
}
