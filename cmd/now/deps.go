package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Simpactsoft/now-core/internal/application/handlers"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
	"github.com/Simpactsoft/now-core/internal/domain/services"
	"github.com/Simpactsoft/now-core/internal/infrastructure/config"
	"github.com/Simpactsoft/now-core/internal/infrastructure/logging"
	"github.com/Simpactsoft/now-core/internal/infrastructure/relationaldb/memory"
	"github.com/Simpactsoft/now-core/internal/infrastructure/relationaldb/sqldb"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config     *config.Config
	Logger     *slog.Logger
	Pagination handlers.Pagination

	EntityHandler       *handlers.EntityHandler
	RelationshipHandler *handlers.RelationshipHandler
	SchemaHandler       *handlers.SchemaHandler
	APIKeyHandler       *handlers.APIKeyHandler
	ImportHandler       *handlers.ImportHandler
	AuditHandler        *handlers.AuditHandler
}

// internalDeps holds all dependencies including low-level components.
// Used internally by commands that wire the HTTP server.
type internalDeps struct {
	Deps
	apiKeyService *services.APIKeyService
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	auditor := services.NewAuditor(db, logger)
	schemaService := services.NewSchemaService(db, auditor)

	// The in-memory store starts empty on every run.
	if cfg.Database.Driver == config.DriverMemory {
		if _, err := schemaService.LoadDefaults(ctx); err != nil {
			return fmt.Errorf("seeding default fields: %w", err)
		}
	}

	entityService := services.NewEntityService(db, schemaService, auditor)
	relationshipService := services.NewRelationshipService(db, db, auditor)
	apiKeyService := services.NewAPIKeyService(db, cfg.Auth.KeyPrefix, auditor, logger)
	importService := services.NewImportService(entityService, schemaService)

	deps := &internalDeps{
		Deps: Deps{
			Config: cfg,
			Logger: logger,
			Pagination: handlers.Pagination{
				DefaultPageSize: cfg.Server.DefaultPageSize,
				MaxPageSize:     cfg.Server.MaxPageSize,
			},
			EntityHandler:       handlers.NewEntityHandler(entityService),
			RelationshipHandler: handlers.NewRelationshipHandler(relationshipService, logger),
			SchemaHandler:       handlers.NewSchemaHandler(schemaService),
			APIKeyHandler:       handlers.NewAPIKeyHandler(apiKeyService),
			ImportHandler:       handlers.NewImportHandler(importService),
			AuditHandler:        handlers.NewAuditHandler(auditor),
		},
		apiKeyService: apiKeyService,
	}

	return fn(deps)
}

// openDatabase returns the storage adapter selected by the configuration.
func openDatabase(cfg *config.Config) (ports.RelationalDB, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite, config.DriverPostgres:
		repo, err := sqldb.NewRepository(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening %s database: %w", cfg.Database.Driver, err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
