// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Simpactsoft/now-core/internal/domain/ports"
	"github.com/Simpactsoft/now-core/internal/domain/services"
	"github.com/Simpactsoft/now-core/internal/infrastructure/config"
)

// DBOpener opens the database described by a configuration.
type DBOpener func(cfg *config.Config) (ports.RelationalDB, error)

// InitHandler handles workspace initialization.
type InitHandler struct {
	open   DBOpener
	logger *slog.Logger
}

// NewInitHandler creates a new init handler.
func NewInitHandler(open DBOpener, logger *slog.Logger) *InitHandler {
	return &InitHandler{
		open:   open,
		logger: logger,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath   string
	Driver       string
	FieldsSeeded int
}

// Handle writes the default configuration, creates the database schema and
// seeds the default custom fields.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("now already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := h.open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	schema := services.NewSchemaService(db, services.NewAuditor(db, h.logger))
	seeded, err := schema.LoadDefaults(ctx)
	if err != nil {
		return nil, err
	}

	return &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		Driver:       cfg.Database.Driver,
		FieldsSeeded: seeded,
	}, nil
}
