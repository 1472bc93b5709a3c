package repositories

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// WaiverRepositoryFacade defines persistence for fee waivers.
type WaiverRepositoryFacade interface {
	FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error)

	// ListWaiversByInvoice returns an invoice's waivers ordered by creation.
	ListWaiversByInvoice(ctx context.Context, invoiceID string) ([]domain.FeeWaiver, error)

	SaveWaiver(ctx context.Context, waiver domain.FeeWaiver) error

	// LockWaiver reads a waiver holding an exclusive row lock.
	LockWaiver(ctx context.Context, waiverID string) (*domain.FeeWaiver, error)

	// UpdateWaiver rewrites the decision fields.
	UpdateWaiver(ctx context.Context, waiver domain.FeeWaiver) error
}
