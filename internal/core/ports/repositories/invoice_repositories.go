package repositories

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// InvoiceReader defines read operations for invoices.
type InvoiceReader interface {
	// FindInvoiceByID retrieves an invoice with its items and scholarship attributions.
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// FindActiveInvoice returns the non-cancelled invoice for (student, year, term), or ErrNotFound.
	FindActiveInvoice(ctx context.Context, studentID, academicYearID, termID string) (*domain.Invoice, error)

	// ListInvoices returns invoice headers matching the filter ordered by (due date, created at, id).
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error)

	// ListInvoicesByStudent retrieves a page of a student's invoice headers, newest issue first.
	// It returns the invoices, a token for the next page, and an error.
	ListInvoicesByStudent(ctx context.Context, studentID string, limit int, nextToken *string) ([]domain.Invoice, *string, error)

	// ListInvoiceScholarships returns discount attributions of non-cancelled invoices matching the filter.
	ListInvoiceScholarships(ctx context.Context, filter domain.InvoiceFilter) ([]domain.InvoiceScholarship, error)
}

// InvoiceWriter defines write operations for invoices.
type InvoiceWriter interface {
	// LockInvoiceKey serializes creation for (student, year, term) until the unit of work ends.
	LockInvoiceKey(ctx context.Context, studentID, academicYearID, termID string) error

	// SaveInvoice inserts the header, items and scholarship attributions.
	// A second active invoice for the same key returns ErrDuplicateInvoice.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error

	// LockInvoice reads an invoice with its items holding an exclusive row lock.
	LockInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// UpdateInvoiceState rewrites paid amount, status, cancellation and audit fields.
	UpdateInvoiceState(ctx context.Context, invoice domain.Invoice) error
}

// InvoiceRepositoryFacade combines invoice reads and writes.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}
