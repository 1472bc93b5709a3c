package pgsql

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/models"
	"github.com/SscSPs/school_finance_core/internal/utils/mapping"
)

// PgxWaiverRepository persists fee waiver requests and their decisions.
type PgxWaiverRepository struct {
	BaseRepository
}

var _ portsrepo.WaiverRepositoryFacade = (*PgxWaiverRepository)(nil)

const selectWaiver = `
	SELECT waiver_id, invoice_id, student_id, amount, reason, status, requested_by,
	       decided_by, decided_at, rejection_reason, payment_id,
	       created_at, created_by, last_updated_at, last_updated_by
	FROM fee_waivers`

func (r *PgxWaiverRepository) FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	m, err := queryOne[models.FeeWaiver](ctx, r.DB, "fee waiver", waiverID, selectWaiver+` WHERE waiver_id = $1`, waiverID)
	if err != nil {
		return nil, err
	}
	w := mapping.ToDomainFeeWaiver(*m)
	return &w, nil
}

func (r *PgxWaiverRepository) ListWaiversByInvoice(ctx context.Context, invoiceID string) ([]domain.FeeWaiver, error) {
	ms, err := queryAll[models.FeeWaiver](ctx, r.DB, "fee waivers", selectWaiver+` WHERE invoice_id = $1 ORDER BY seq`, invoiceID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainFeeWaiverSlice(ms), nil
}

func (r *PgxWaiverRepository) SaveWaiver(ctx context.Context, waiver domain.FeeWaiver) error {
	m := mapping.ToModelFeeWaiver(waiver)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO fee_waivers (
			waiver_id, invoice_id, student_id, amount, reason, status, requested_by,
			decided_by, decided_at, rejection_reason, payment_id,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.WaiverID, m.InvoiceID, m.StudentID, m.Amount, m.Reason, m.Status, m.RequestedBy,
		m.DecidedBy, m.DecidedAt, m.RejectionReason, m.PaymentID,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, "fee waiver "+waiver.ID, nil)
	}
	return nil
}

func (r *PgxWaiverRepository) LockWaiver(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	m, err := queryOne[models.FeeWaiver](ctx, r.DB, "fee waiver", waiverID, selectWaiver+` WHERE waiver_id = $1 FOR UPDATE`, waiverID)
	if err != nil {
		return nil, err
	}
	w := mapping.ToDomainFeeWaiver(*m)
	return &w, nil
}

func (r *PgxWaiverRepository) UpdateWaiver(ctx context.Context, waiver domain.FeeWaiver) error {
	m := mapping.ToModelFeeWaiver(waiver)
	return execOne(ctx, r.DB, "fee waiver", waiver.ID, `
		UPDATE fee_waivers
		SET amount = $2, reason = $3, status = $4, decided_by = $5, decided_at = $6,
		    rejection_reason = $7, payment_id = $8, last_updated_at = $9, last_updated_by = $10
		WHERE waiver_id = $1`,
		m.WaiverID, m.Amount, m.Reason, m.Status, m.DecidedBy, m.DecidedAt,
		m.RejectionReason, m.PaymentID, m.LastUpdatedAt, m.LastUpdatedBy)
}
