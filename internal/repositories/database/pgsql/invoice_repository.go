package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/models"
	"github.com/SscSPs/school_finance_core/internal/utils/mapping"
	"github.com/SscSPs/school_finance_core/internal/utils/pagination"
)

// PgxInvoiceRepository persists invoice headers with their items and scholarship attributions.
type PgxInvoiceRepository struct {
	BaseRepository
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

const (
	invoiceColumns = `
		i.invoice_id, i.invoice_number, i.student_id, i.academic_year_id, i.term_id,
		i.class_id, i.grade_id, i.section_id, i.issue_date, i.due_date,
		i.total_amount, i.discount_amount, i.net_amount, i.paid_amount, i.status,
		i.cancelled_at, i.cancelled_by, i.cancel_reason,
		i.created_at, i.created_by, i.last_updated_at, i.last_updated_by`

	selectInvoice = `SELECT` + invoiceColumns + ` FROM invoices i`

	selectInvoiceItems = `
		SELECT item_id, invoice_id, position, kind, fee_structure_id, special_fee_id,
		       category_id, category_name, description, amount, discount_amount, net_amount,
		       due_date, late_fee_percentage, grace_period_days
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position`

	selectInvoiceScholarships = `
		SELECT s.invoice_id, s.scholarship_id, s.student_id, s.criteria, s.discount_type, s.amount
		FROM invoice_scholarships s`
)

var invoiceConstraints = map[string]error{
	"ux_invoices_active": apperrors.ErrDuplicateInvoice,
	"uq_invoices_number": apperrors.ErrConcurrency,
}

// invoiceWhere renders the filter as a WHERE clause over alias i. An empty year matches all years.
func invoiceWhere(f domain.InvoiceFilter, args []any) (string, []any) {
	var conds []string
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.AcademicYearID != "" {
		add("i.academic_year_id = $%d", f.AcademicYearID)
	}
	if f.TermID != nil {
		add("i.term_id = $%d", *f.TermID)
	}
	if f.SectionID != nil {
		add("i.section_id = $%d", *f.SectionID)
	}
	if f.GradeID != nil {
		add("i.grade_id = $%d", *f.GradeID)
	}
	if f.ClassID != nil {
		add("i.class_id = $%d", *f.ClassID)
	}
	if f.StudentID != nil {
		add("i.student_id = $%d", *f.StudentID)
	}
	if f.DueBefore != nil {
		add("i.due_date < $%d", *f.DueBefore)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("i.status = ANY($%d::text[])", statuses)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// loadLines attaches items and attributions to a header read in the same unit of work.
func (r *PgxInvoiceRepository) loadLines(ctx context.Context, m *models.Invoice) (*domain.Invoice, error) {
	inv := mapping.ToDomainInvoice(*m)
	items, err := queryAll[models.InvoiceItem](ctx, r.DB, "invoice items", selectInvoiceItems, m.InvoiceID)
	if err != nil {
		return nil, err
	}
	attributions, err := queryAll[models.InvoiceScholarship](ctx, r.DB, "invoice scholarships",
		selectInvoiceScholarships+` WHERE s.invoice_id = $1 ORDER BY s.scholarship_id`, m.InvoiceID)
	if err != nil {
		return nil, err
	}
	inv.Items = mapping.ToDomainInvoiceItemSlice(items)
	inv.Scholarships = mapping.ToDomainInvoiceScholarshipSlice(attributions)
	return &inv, nil
}

func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	m, err := queryOne[models.Invoice](ctx, r.DB, "invoice", invoiceID, selectInvoice+` WHERE i.invoice_id = $1`, invoiceID)
	if err != nil {
		return nil, err
	}
	return r.loadLines(ctx, m)
}

func (r *PgxInvoiceRepository) FindActiveInvoice(ctx context.Context, studentID, academicYearID, termID string) (*domain.Invoice, error) {
	m, err := queryOne[models.Invoice](ctx, r.DB, "active invoice", domain.InvoiceKey(studentID, academicYearID, termID), selectInvoice+`
		WHERE i.student_id = $1 AND i.academic_year_id = $2 AND i.term_id = $3 AND i.cancelled_at IS NULL`,
		studentID, academicYearID, termID)
	if err != nil {
		return nil, err
	}
	return r.loadLines(ctx, m)
}

func (r *PgxInvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	where, args := invoiceWhere(filter, nil)
	ms, err := queryAll[models.Invoice](ctx, r.DB, "invoices",
		selectInvoice+where+` ORDER BY i.due_date, i.created_at, i.invoice_id`, args...)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainInvoiceSlice(ms), nil
}

func (r *PgxInvoiceRepository) ListInvoicesByStudent(ctx context.Context, studentID string, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	query := selectInvoice + ` WHERE i.student_id = $1`
	args := []any{studentID}

	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (i.issue_date, i.created_at, i.invoice_id) < ($2, $3, $4)`
		args = append(args, cursor.Date, cursor.CreatedAt, cursor.ID)
	}
	query += ` ORDER BY i.issue_date DESC, i.created_at DESC, i.invoice_id DESC`
	if limit > 0 {
		// One extra row tells whether another page exists.
		query += fmt.Sprintf(` LIMIT %d`, limit+1)
	}

	ms, err := queryAll[models.Invoice](ctx, r.DB, "student invoices", query, args...)
	if err != nil {
		return nil, nil, err
	}
	invoices := mapping.ToDomainInvoiceSlice(ms)

	var next *string
	if limit > 0 && len(invoices) > limit {
		invoices = invoices[:limit]
		last := invoices[len(invoices)-1]
		token := pagination.EncodeToken(pagination.Cursor{Date: last.IssueDate, CreatedAt: last.CreatedAt, ID: last.ID})
		next = &token
	}
	return invoices, next, nil
}

func (r *PgxInvoiceRepository) ListInvoiceScholarships(ctx context.Context, filter domain.InvoiceFilter) ([]domain.InvoiceScholarship, error) {
	where, args := invoiceWhere(filter, nil)
	if where == "" {
		where = " WHERE i.cancelled_at IS NULL"
	} else {
		where += " AND i.cancelled_at IS NULL"
	}
	ms, err := queryAll[models.InvoiceScholarship](ctx, r.DB, "invoice scholarships",
		selectInvoiceScholarships+` JOIN invoices i ON i.invoice_id = s.invoice_id`+where+
			` ORDER BY s.invoice_id, s.scholarship_id`, args...)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainInvoiceScholarshipSlice(ms), nil
}

// LockInvoiceKey takes a transaction-scoped advisory lock on the invoice key, so concurrent
// generators for the same student and term queue behind each other.
func (r *PgxInvoiceRepository) LockInvoiceKey(ctx context.Context, studentID, academicYearID, termID string) error {
	key := domain.InvoiceKey(studentID, academicYearID, termID)
	if _, err := r.DB.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		if isRetryable(err) {
			return err
		}
		return apperrors.NewAppError(500, "failed to lock "+key, err)
	}
	return nil
}

func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	m := mapping.ToModelInvoice(invoice)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO invoices (
			invoice_id, invoice_number, student_id, academic_year_id, term_id,
			class_id, grade_id, section_id, issue_date, due_date,
			total_amount, discount_amount, net_amount, paid_amount, status,
			cancelled_at, cancelled_by, cancel_reason,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		m.InvoiceID, m.InvoiceNumber, m.StudentID, m.AcademicYearID, m.TermID,
		m.ClassID, m.GradeID, m.SectionID, m.IssueDate, m.DueDate,
		m.TotalAmount, m.DiscountAmount, m.NetAmount, m.PaidAmount, m.Status,
		m.CancelledAt, m.CancelledBy, m.CancelReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, "invoice "+invoice.InvoiceNumber, invoiceConstraints)
	}

	if len(invoice.Items) == 0 && len(invoice.Scholarships) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, item := range invoice.Items {
		im := mapping.ToModelInvoiceItem(item)
		im.InvoiceID = invoice.ID
		batch.Queue(`
			INSERT INTO invoice_items (
				item_id, invoice_id, position, kind, fee_structure_id, special_fee_id,
				category_id, category_name, description, amount, discount_amount, net_amount,
				due_date, late_fee_percentage, grace_period_days
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			im.ItemID, im.InvoiceID, im.Position, im.Kind, im.FeeStructureID, im.SpecialFeeID,
			im.CategoryID, im.CategoryName, im.Description, im.Amount, im.DiscountAmount, im.NetAmount,
			im.DueDate, im.LateFeePercentage, im.GracePeriodDays,
		)
	}
	for _, attribution := range invoice.Scholarships {
		am := mapping.ToModelInvoiceScholarship(attribution)
		am.InvoiceID = invoice.ID
		batch.Queue(`
			INSERT INTO invoice_scholarships (invoice_id, scholarship_id, student_id, criteria, discount_type, amount)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			am.InvoiceID, am.ScholarshipID, am.StudentID, am.Criteria, am.DiscountType, am.Amount,
		)
	}

	br := r.DB.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return mapInsertError(err, fmt.Sprintf("invoice %s line %d", invoice.InvoiceNumber, i), nil)
		}
	}
	return nil
}

func (r *PgxInvoiceRepository) LockInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	m, err := queryOne[models.Invoice](ctx, r.DB, "invoice", invoiceID, selectInvoice+` WHERE i.invoice_id = $1 FOR UPDATE`, invoiceID)
	if err != nil {
		return nil, err
	}
	return r.loadLines(ctx, m)
}

func (r *PgxInvoiceRepository) UpdateInvoiceState(ctx context.Context, invoice domain.Invoice) error {
	return execOne(ctx, r.DB, "invoice", invoice.ID, `
		UPDATE invoices
		SET paid_amount = $2, status = $3, cancelled_at = $4, cancelled_by = $5, cancel_reason = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE invoice_id = $1`,
		invoice.ID, invoice.PaidAmount, string(invoice.Status), invoice.CancelledAt, invoice.CancelledBy,
		invoice.CancelReason, invoice.LastUpdatedAt, invoice.LastUpdatedBy)
}
