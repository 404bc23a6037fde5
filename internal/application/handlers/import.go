package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
	"github.com/Simpactsoft/now-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing organizations and people from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	EntityType entities.EntityType
	Format     string // "json", "csv", or "auto"
	DryRun     bool   // Validate without saving

	OnDuplicate services.DuplicatePolicy // skip (default), update or error
}

// Handle imports entities from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	if !opts.EntityType.IsValid() {
		return nil, fmt.Errorf("invalid entity type %q", opts.EntityType)
	}

	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	records, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(records) == 0 {
		return &services.ImportResult{}, nil
	}

	return h.service.Import(ctx, opts.EntityType, records, services.ImportOptions{
		DryRun:      opts.DryRun,
		OnDuplicate: opts.OnDuplicate,
	})
}
