package pgsql

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
)

// store binds every finance repository to one querier: the pool for snapshot reads or a
// transaction inside a unit of work.
type store struct {
	catalog      *PgxCatalogRepository
	scholarships *PgxScholarshipRepository
	invoices     *PgxInvoiceRepository
	payments     *PgxPaymentRepository
	waivers      *PgxWaiverRepository
	lateFees     *PgxLateFeeRepository
	sequences    *PgxSequenceRepository
	audit        *PgxAuditRepository
}

func newStore(db querier) *store {
	base := BaseRepository{DB: db}
	return &store{
		catalog:      &PgxCatalogRepository{BaseRepository: base},
		scholarships: &PgxScholarshipRepository{BaseRepository: base},
		invoices:     &PgxInvoiceRepository{BaseRepository: base},
		payments:     &PgxPaymentRepository{BaseRepository: base},
		waivers:      &PgxWaiverRepository{BaseRepository: base},
		lateFees:     &PgxLateFeeRepository{BaseRepository: base},
		sequences:    &PgxSequenceRepository{BaseRepository: base},
		audit:        &PgxAuditRepository{BaseRepository: base},
	}
}

var _ portsrepo.Store = (*store)(nil)

func (s *store) Catalog() portsrepo.CatalogRepositoryFacade          { return s.catalog }
func (s *store) Scholarships() portsrepo.ScholarshipRepositoryFacade { return s.scholarships }
func (s *store) Invoices() portsrepo.InvoiceRepositoryFacade         { return s.invoices }
func (s *store) Payments() portsrepo.PaymentRepositoryFacade         { return s.payments }
func (s *store) Waivers() portsrepo.WaiverRepositoryFacade           { return s.waivers }
func (s *store) LateFees() portsrepo.LateFeeRepositoryFacade         { return s.lateFees }
func (s *store) Sequences() portsrepo.SequenceGenerator              { return s.sequences }
func (s *store) Audit() portsrepo.AuditRepositoryFacade              { return s.audit }

// NewRepositoryProvider wires the Postgres unit of work with the given school reader and cache.
func NewRepositoryProvider(dbPool *pgxpool.Pool, maxRetries int, retryBaseDelay time.Duration, school portsrepo.SchoolReader, cache portsrepo.AnalyticsCache) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Tx:     NewTxManager(dbPool, maxRetries, retryBaseDelay),
		School: school,
		Cache:  cache,
	}
}
