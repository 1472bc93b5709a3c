package repositories

import (
	"context"
)

// Store exposes every finance repository bound to one unit of work.
// Inside WithinTx the repositories share the transaction; outside it they read a snapshot.
type Store interface {
	Catalog() CatalogRepositoryFacade
	Scholarships() ScholarshipRepositoryFacade
	Invoices() InvoiceRepositoryFacade
	Payments() PaymentRepositoryFacade
	Waivers() WaiverRepositoryFacade
	LateFees() LateFeeRepositoryFacade
	Sequences() SequenceGenerator
	Audit() AuditRepositoryFacade
}

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, store Store) error

// TransactionManager runs units of work with serializable isolation.
type TransactionManager interface {
	// WithinTx runs fn inside one serializable transaction and commits when fn returns nil.
	// Serialization failures and sequence races are retried with jittered backoff up to the
	// configured budget, after which apperrors.ErrConcurrency is returned. fn must be safe to re-run.
	WithinTx(ctx context.Context, fn TxFunc) error

	// Reader returns a store for lock-free snapshot reads.
	Reader() Store
}
