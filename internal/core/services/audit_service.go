package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
)

type auditService struct {
	BaseService
	tx portsrepo.TransactionManager
}

// NewAuditService creates a new AuditService.
func NewAuditService(tx portsrepo.TransactionManager, base BaseService) portssvc.AuditSvc {
	return &auditService{BaseService: base, tx: tx}
}

var _ portssvc.AuditSvc = (*auditService)(nil)

func (s *auditService) ListAudit(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error) {
	entries, err := s.tx.Reader().Audit().ListAuditByEntity(ctx, entityType, entityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit entries", slog.String("entity_type", entityType), slog.String("entity_id", entityID))
		return nil, err
	}
	return entries, nil
}
