package pgsql

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/models"
	"github.com/SscSPs/school_finance_core/internal/utils/mapping"
)

// PgxLateFeeRepository persists late-fee accrual records. The unique key on
// (invoice, item, month) makes a repeated accrual run a no-op.
type PgxLateFeeRepository struct {
	BaseRepository
}

var _ portsrepo.LateFeeRepositoryFacade = (*PgxLateFeeRepository)(nil)

const selectAccrual = `
	SELECT accrual_id, invoice_id, invoice_item_id, accrual_month, billed, special_fee_id, billed_term_id,
		amount, created_at, created_by
	FROM late_fee_accruals`

var accrualConstraints = map[string]error{
	"uq_late_fee_accruals_key": apperrors.ErrDuplicate,
}

func (r *PgxLateFeeRepository) FindAccrual(ctx context.Context, invoiceID, invoiceItemID, accrualMonth string) (*domain.LateFeeAccrual, error) {
	key := domain.LateFeeAccrual{InvoiceID: invoiceID, InvoiceItemID: invoiceItemID, AccrualMonth: accrualMonth}.DedupKey()
	m, err := queryOne[models.LateFeeAccrual](ctx, r.DB, "late fee accrual", key, selectAccrual+`
		WHERE invoice_id = $1 AND invoice_item_id = $2 AND accrual_month = $3`,
		invoiceID, invoiceItemID, accrualMonth)
	if err != nil {
		return nil, err
	}
	a := mapping.ToDomainLateFeeAccrual(*m)
	return &a, nil
}

func (r *PgxLateFeeRepository) SaveAccrual(ctx context.Context, accrual domain.LateFeeAccrual) error {
	m := mapping.ToModelLateFeeAccrual(accrual)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO late_fee_accruals (
			accrual_id, invoice_id, invoice_item_id, accrual_month, billed, special_fee_id, billed_term_id,
			amount, created_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.AccrualID, m.InvoiceID, m.InvoiceItemID, m.AccrualMonth, m.Billed, m.SpecialFeeID, m.BilledTermID,
		m.Amount, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return mapInsertError(err, "late fee accrual "+accrual.DedupKey(), accrualConstraints)
	}
	return nil
}

func (r *PgxLateFeeRepository) ListAccrualsByInvoice(ctx context.Context, invoiceID string) ([]domain.LateFeeAccrual, error) {
	ms, err := queryAll[models.LateFeeAccrual](ctx, r.DB, "late fee accruals", selectAccrual+`
		WHERE invoice_id = $1 ORDER BY accrual_month, invoice_item_id`, invoiceID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainLateFeeAccrualSlice(ms), nil
}
