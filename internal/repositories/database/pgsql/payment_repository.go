package pgsql

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/models"
	"github.com/SscSPs/school_finance_core/internal/utils/mapping"
)

// PgxPaymentRepository persists ledger entries. Rows are append-only apart from their status.
type PgxPaymentRepository struct {
	BaseRepository
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const selectPayment = `
	SELECT p.payment_id, p.invoice_id, p.student_id, p.kind, p.amount, p.method, p.payment_date, p.date_only,
	       p.receipt_number, p.transaction_id, p.reference_number, p.status, p.original_payment_id,
	       p.waiver_id, p.notes, p.recorded_by,
	       p.created_at, p.created_by, p.last_updated_at, p.last_updated_by
	FROM payments p`

var paymentConstraints = map[string]error{
	"uq_payments_receipt": apperrors.ErrConcurrency,
}

func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	m, err := queryOne[models.Payment](ctx, r.DB, "payment", paymentID, selectPayment+` WHERE p.payment_id = $1`, paymentID)
	if err != nil {
		return nil, err
	}
	p := mapping.ToDomainPayment(*m)
	return &p, nil
}

func (r *PgxPaymentRepository) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	ms, err := queryAll[models.Payment](ctx, r.DB, "invoice payments", selectPayment+` WHERE p.invoice_id = $1 ORDER BY p.seq`, invoiceID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainPaymentSlice(ms), nil
}

func (r *PgxPaymentRepository) ListRefunds(ctx context.Context, originalPaymentID string) ([]domain.Payment, error) {
	ms, err := queryAll[models.Payment](ctx, r.DB, "refunds", selectPayment+`
		WHERE p.kind = $1 AND p.original_payment_id = $2 ORDER BY p.seq`,
		string(domain.EntryRefund), originalPaymentID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainPaymentSlice(ms), nil
}

func (r *PgxPaymentRepository) SumCountedPayments(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE invoice_id = $1 AND status = ANY($2::text[])`,
		invoiceID, []string{string(domain.PaymentCompleted), string(domain.PaymentRefunded)},
	).Scan(&total)
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum payments of invoice "+invoiceID, err)
	}
	return total, nil
}

func (r *PgxPaymentRepository) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	scope := domain.InvoiceFilter{
		AcademicYearID: filter.AcademicYearID,
		TermID:         filter.TermID,
		SectionID:      filter.SectionID,
		GradeID:        filter.GradeID,
	}
	args := []any{filter.From, filter.To}
	where, args := invoiceWhere(scope, args)
	if where == "" {
		where = " WHERE"
	} else {
		where += " AND"
	}
	ms, err := queryAll[models.Payment](ctx, r.DB, "payments",
		selectPayment+` JOIN invoices i ON i.invoice_id = p.invoice_id`+where+
			` p.payment_date >= $1 AND p.payment_date < $2 ORDER BY p.payment_date, p.seq`, args...)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainPaymentSlice(ms), nil
}

func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO payments (
			payment_id, invoice_id, student_id, kind, amount, method, payment_date, date_only,
			receipt_number, transaction_id, reference_number, status, original_payment_id,
			waiver_id, notes, recorded_by,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		m.PaymentID, m.InvoiceID, m.StudentID, m.Kind, m.Amount, m.Method, m.PaymentDate, m.DateOnly,
		m.ReceiptNumber, m.TransactionID, m.ReferenceNumber, m.Status, m.OriginalPaymentID,
		m.WaiverID, m.Notes, m.RecordedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, fmt.Sprintf("payment %s (receipt %s)", payment.ID, payment.ReceiptNumber), paymentConstraints)
	}
	return nil
}

func (r *PgxPaymentRepository) LockPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	m, err := queryOne[models.Payment](ctx, r.DB, "payment", paymentID, selectPayment+` WHERE p.payment_id = $1 FOR UPDATE`, paymentID)
	if err != nil {
		return nil, err
	}
	p := mapping.ToDomainPayment(*m)
	return &p, nil
}

func (r *PgxPaymentRepository) UpdatePaymentStatus(ctx context.Context, payment domain.Payment) error {
	return execOne(ctx, r.DB, "payment", payment.ID, `
		UPDATE payments SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE payment_id = $1`,
		payment.ID, string(payment.Status), payment.LastUpdatedAt, payment.LastUpdatedBy)
}
