package services

import (
	"context"
	"time"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// LateFeeSvc accrues late fees for overdue invoice items. Safe to run any number of times.
type LateFeeSvc interface {
	AccrueLateFees(ctx context.Context, today time.Time) (*domain.LateFeeRun, error)
}

// AuditSvc exposes the finance audit trail.
type AuditSvc interface {
	ListAudit(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error)
}
