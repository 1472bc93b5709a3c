package repositories

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// LateFeeRepositoryFacade defines persistence for late-fee accrual records.
type LateFeeRepositoryFacade interface {
	// FindAccrual returns the accrual for the dedup key, or ErrNotFound.
	FindAccrual(ctx context.Context, invoiceID, invoiceItemID, accrualMonth string) (*domain.LateFeeAccrual, error)

	// SaveAccrual inserts an accrual. An existing record for the same key returns ErrDuplicate.
	SaveAccrual(ctx context.Context, accrual domain.LateFeeAccrual) error

	// ListAccrualsByInvoice returns an invoice's accruals ordered by month.
	ListAccrualsByInvoice(ctx context.Context, invoiceID string) ([]domain.LateFeeAccrual, error)
}
