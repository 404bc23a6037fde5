package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
)

// Auditor records actions to the audit log. Write failures are logged and
// never fail the audited operation. A nil *Auditor records nothing.
type Auditor struct {
	log    ports.AuditLog
	logger *slog.Logger
}

// NewAuditor creates a new Auditor.
func NewAuditor(log ports.AuditLog, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{log: log, logger: logger}
}

// Record logs an action for subjectID.
func (a *Auditor) Record(ctx context.Context, action, subjectID string, details map[string]any) {
	if a == nil || a.log == nil {
		return
	}
	if err := a.log.LogAction(ctx, action, subjectID, details); err != nil {
		a.logger.Warn("audit log write failed",
			"action", action,
			"subject_id", subjectID,
			"error", err,
		)
	}
}

// History returns the entries for a subject, oldest first.
func (a *Auditor) History(ctx context.Context, subjectID string) ([]entities.AuditEntry, error) {
	entries, err := a.log.FindAuditLog(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("finding audit log: %w", err)
	}
	return entries, nil
}

// ByAction returns the most recent entries for an action.
func (a *Auditor) ByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	entries, err := a.log.FindAuditLogByAction(ctx, action, limit)
	if err != nil {
		return nil, fmt.Errorf("finding audit log: %w", err)
	}
	return entries, nil
}
