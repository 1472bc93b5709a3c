package services

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

// LedgerReaderSvc defines read operations for ledger entries.
type LedgerReaderSvc interface {
	GetPayment(ctx context.Context, paymentID string) (*dto.PaymentView, error)
}

// LedgerWriterSvc appends ledger entries and keeps invoice totals in step.
type LedgerWriterSvc interface {
	ApplyPayment(ctx context.Context, invoiceID string, req dto.ApplyPaymentRequest, actorID string) (*dto.PaymentView, error)
	ConfirmPayment(ctx context.Context, paymentID string, actorID string) (*dto.PaymentView, error)
	FailPayment(ctx context.Context, paymentID string, req dto.FailPaymentRequest, actorID string) (*dto.PaymentView, error)
	Refund(ctx context.Context, paymentID string, req dto.RefundRequest, actorID string) (*dto.PaymentView, error)

	// AllocatePayment walks the student's open invoices of a year by (due date, created at),
	// paying each in its own unit of work until the amount runs out.
	AllocatePayment(ctx context.Context, req dto.AllocatePaymentRequest, actorID string) (*domain.AllocationResult, error)
}

// LedgerSvcFacade combines all ledger service interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}

// WaiverSvcFacade defines the waiver workflow.
type WaiverSvcFacade interface {
	RequestWaiver(ctx context.Context, req dto.RequestWaiverRequest, actorID string) (*domain.FeeWaiver, error)
	ApproveWaiver(ctx context.Context, waiverID string, actorID string) (*dto.WaiverView, error)
	RejectWaiver(ctx context.Context, waiverID string, req dto.RejectWaiverRequest, actorID string) (*dto.WaiverView, error)
	GetWaiver(ctx context.Context, waiverID string) (*dto.WaiverView, error)
}
