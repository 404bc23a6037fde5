package handlers

import (
	"context"
	"errors"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

// AuditHandler reads the audit log.
type AuditHandler struct {
	auditor *services.Auditor
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditor *services.Auditor) *AuditHandler {
	return &AuditHandler{
		auditor: auditor,
	}
}

// AuditQuery selects entries by subject or by action. Exactly one must be set.
type AuditQuery struct {
	SubjectID string
	Action    string
	Limit     int
}

// Handle returns the matching entries: a subject's history oldest first,
// or an action's latest entries newest first.
func (h *AuditHandler) Handle(ctx context.Context, q AuditQuery) ([]entities.AuditEntry, error) {
	switch {
	case q.SubjectID != "" && q.Action != "":
		return nil, errors.New("specify a subject or an action, not both")
	case q.SubjectID != "":
		return h.auditor.History(ctx, q.SubjectID)
	case q.Action != "":
		return h.auditor.ByAction(ctx, q.Action, q.Limit)
	default:
		return nil, errors.New("specify a subject or an action")
	}
}
