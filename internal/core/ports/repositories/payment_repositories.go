package repositories

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentReader defines read operations for ledger entries.
type PaymentReader interface {
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPaymentsByInvoice returns an invoice's entries in insertion order.
	ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error)

	// ListRefunds returns refund companions of an original payment in insertion order.
	ListRefunds(ctx context.Context, originalPaymentID string) ([]domain.Payment, error)

	// SumCountedPayments sums amounts of entries that count towards an invoice's paid amount.
	SumCountedPayments(ctx context.Context, invoiceID string) (decimal.Decimal, error)

	// ListPayments returns entries of invoices in scope with payment date in [From, To),
	// ordered by payment date.
	ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error)
}

// PaymentWriter defines write operations for ledger entries.
type PaymentWriter interface {
	// SavePayment appends an entry. Duplicate receipt numbers return ErrConcurrency.
	SavePayment(ctx context.Context, payment domain.Payment) error

	// LockPayment reads an entry holding an exclusive row lock.
	LockPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// UpdatePaymentStatus rewrites status and audit fields.
	UpdatePaymentStatus(ctx context.Context, payment domain.Payment) error
}

// PaymentRepositoryFacade combines ledger reads and writes.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
