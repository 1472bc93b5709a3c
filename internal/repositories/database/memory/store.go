// Package memory keeps finance state in process memory. It backs the dev storage driver and the
// service tests. A single mutex serializes units of work, which gives serializable isolation
// without retries; a failed unit of work restores the state it started from.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
)

// state is everything a unit of work may roll back.
type state struct {
	categories   map[string]domain.FeeCategory
	structures   map[string]domain.FeeStructure
	specialFees  map[string]domain.SpecialFee
	scholarships map[string]domain.Scholarship
	assignments  map[string]domain.StudentScholarship
	invoices     map[string]domain.Invoice
	payments     map[string]domain.Payment
	receipts     map[string]string
	waivers      map[string]domain.FeeWaiver
	accruals     map[string]domain.LateFeeAccrual
	audit        []domain.AuditEntry

	// order records insertion position by entity id.
	order  map[string]int64
	serial int64
}

func newState() *state {
	return &state{
		categories:   map[string]domain.FeeCategory{},
		structures:   map[string]domain.FeeStructure{},
		specialFees:  map[string]domain.SpecialFee{},
		scholarships: map[string]domain.Scholarship{},
		assignments:  map[string]domain.StudentScholarship{},
		invoices:     map[string]domain.Invoice{},
		payments:     map[string]domain.Payment{},
		receipts:     map[string]string{},
		waivers:      map[string]domain.FeeWaiver{},
		accruals:     map[string]domain.LateFeeAccrual{},
		order:        map[string]int64{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies the maps. Stored values are never mutated in place, so sharing them is safe.
func (st *state) clone() *state {
	return &state{
		categories:   copyMap(st.categories),
		structures:   copyMap(st.structures),
		specialFees:  copyMap(st.specialFees),
		scholarships: copyMap(st.scholarships),
		assignments:  copyMap(st.assignments),
		invoices:     copyMap(st.invoices),
		payments:     copyMap(st.payments),
		receipts:     copyMap(st.receipts),
		waivers:      copyMap(st.waivers),
		accruals:     copyMap(st.accruals),
		audit:        append([]domain.AuditEntry(nil), st.audit...),
		order:        copyMap(st.order),
		serial:       st.serial,
	}
}

func (st *state) track(id string) {
	st.serial++
	st.order[id] = st.serial
}

// DB is an in-memory finance database.
type DB struct {
	mu    sync.RWMutex
	state *state

	// Sequences live outside the rolled back state; gaps are allowed.
	invoiceSeq atomic.Int64
	receiptSeq atomic.Int64
}

// NewDB creates an empty database.
func NewDB() *DB {
	return &DB{state: newState()}
}

// TxManager runs units of work against a DB.
type TxManager struct {
	db *DB
}

// NewTxManager creates a transaction manager over db.
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

var _ portsrepo.TransactionManager = (*TxManager)(nil)

// WithinTx runs fn holding the database lock. Calling Reader from inside fn deadlocks.
func (m *TxManager) WithinTx(ctx context.Context, fn portsrepo.TxFunc) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	snapshot := m.db.state.clone()
	defer func() {
		if r := recover(); r != nil {
			m.db.state = snapshot
			panic(r)
		}
		if err != nil {
			m.db.state = snapshot
		}
	}()
	return fn(ctx, &store{db: m.db, inTx: true})
}

// Reader returns a store whose calls each take the read lock.
func (m *TxManager) Reader() portsrepo.Store {
	return &store{db: m.db}
}

// store implements every finance repository over the shared state.
type store struct {
	db   *DB
	inTx bool
}

var (
	_ portsrepo.Store                       = (*store)(nil)
	_ portsrepo.CatalogRepositoryFacade     = (*store)(nil)
	_ portsrepo.ScholarshipRepositoryFacade = (*store)(nil)
	_ portsrepo.InvoiceRepositoryFacade     = (*store)(nil)
	_ portsrepo.PaymentRepositoryFacade     = (*store)(nil)
	_ portsrepo.WaiverRepositoryFacade      = (*store)(nil)
	_ portsrepo.LateFeeRepositoryFacade     = (*store)(nil)
	_ portsrepo.SequenceGenerator           = (*store)(nil)
	_ portsrepo.AuditRepositoryFacade       = (*store)(nil)
)

func (s *store) Catalog() portsrepo.CatalogRepositoryFacade          { return s }
func (s *store) Scholarships() portsrepo.ScholarshipRepositoryFacade { return s }
func (s *store) Invoices() portsrepo.InvoiceRepositoryFacade         { return s }
func (s *store) Payments() portsrepo.PaymentRepositoryFacade         { return s }
func (s *store) Waivers() portsrepo.WaiverRepositoryFacade           { return s }
func (s *store) LateFees() portsrepo.LateFeeRepositoryFacade         { return s }
func (s *store) Sequences() portsrepo.SequenceGenerator              { return s }
func (s *store) Audit() portsrepo.AuditRepositoryFacade              { return s }

// read takes the read lock unless the store is bound to a unit of work.
func (s *store) read() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.RLock()
	return s.db.mu.RUnlock
}

// write takes the write lock unless the store is bound to a unit of work.
func (s *store) write() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *store) st() *state {
	return s.db.state
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
}

func (s *store) NextInvoiceNumber(ctx context.Context) (int64, error) {
	return s.db.invoiceSeq.Add(1), nil
}

func (s *store) NextReceiptNumber(ctx context.Context) (int64, error) {
	return s.db.receiptSeq.Add(1), nil
}

func (s *store) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	defer s.write()()
	s.st().audit = append(s.st().audit, entry)
	return nil
}

func (s *store) ListAuditByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error) {
	defer s.read()()
	out := []domain.AuditEntry{}
	for _, e := range s.st().audit {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}
