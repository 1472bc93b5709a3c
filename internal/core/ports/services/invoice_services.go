package services

import (
	"context"
	"time"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

// FeeResolverSvc computes what a student owes for a term.
type FeeResolverSvc interface {
	ResolveFees(ctx context.Context, studentID, academicYearID, termID string) (*domain.FeeBreakdown, error)
}

// InvoiceReaderSvc defines read operations for invoices.
type InvoiceReaderSvc interface {
	GetInvoice(ctx context.Context, invoiceID string) (*dto.InvoiceView, error)
	ListStudentInvoices(ctx context.Context, studentID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error)
}

// InvoiceWriterSvc defines invoice lifecycle operations.
type InvoiceWriterSvc interface {
	// GenerateInvoice bills one student for a term. A second active invoice fails with ErrDuplicateInvoice.
	GenerateInvoice(ctx context.Context, req dto.GenerateInvoiceRequest, actorID string) (*dto.InvoiceView, error)

	// BulkGenerate bills each student in its own unit of work and never fails on a single student.
	BulkGenerate(ctx context.Context, req dto.BulkGenerateRequest, actorID string) (*domain.BulkResult, error)

	// CancelInvoice cancels an invoice that has no money against it.
	CancelInvoice(ctx context.Context, invoiceID string, req dto.CancelInvoiceRequest, actorID string) (*dto.InvoiceView, error)

	// RefreshStatuses recomputes the status of open invoices for today and returns how many changed.
	RefreshStatuses(ctx context.Context, today time.Time) (int, error)
}

// InvoiceSvcFacade combines all invoice service interfaces.
type InvoiceSvcFacade interface {
	FeeResolverSvc
	InvoiceReaderSvc
	InvoiceWriterSvc
}
