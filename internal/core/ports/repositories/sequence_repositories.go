package repositories

import "context"

// SequenceGenerator hands out monotonic numbers for invoice and receipt identifiers.
// Values are unique across the deployment; gaps are allowed.
type SequenceGenerator interface {
	NextInvoiceNumber(ctx context.Context) (int64, error)
	NextReceiptNumber(ctx context.Context) (int64, error)
}
