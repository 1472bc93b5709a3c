package repositories

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// AuditRepositoryFacade appends to and reads the finance audit log.
type AuditRepositoryFacade interface {
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error

	// ListAuditByEntity returns an entity's audit trail oldest first.
	ListAuditByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error)
}
