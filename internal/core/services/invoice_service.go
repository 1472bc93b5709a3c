package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/utils/validation"
)

const defaultInvoicePageSize = 20

// invoiceService resolves fees and owns the invoice lifecycle.
type invoiceService struct {
	BaseService
	tx          portsrepo.TransactionManager
	school      portsrepo.SchoolReader
	numberWidth int
}

// NewInvoiceService creates a new InvoiceService. numberWidth is the zero padding of invoice numbers.
func NewInvoiceService(tx portsrepo.TransactionManager, school portsrepo.SchoolReader, numberWidth int, base BaseService) portssvc.InvoiceSvcFacade {
	return &invoiceService{BaseService: base, tx: tx, school: school, numberWidth: numberWidth}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

func (s *invoiceService) ResolveFees(ctx context.Context, studentID, academicYearID, termID string) (*domain.FeeBreakdown, error) {
	breakdown, err := resolveFees(ctx, s.tx.Reader(), s.school, studentID, academicYearID, termID, s.Today())
	if err != nil {
		s.handleRejection(ctx, err, "Failed to resolve fees", slog.String("student_id", studentID), slog.String("term_id", termID))
		return nil, err
	}
	return breakdown, nil
}

// materialize turns a breakdown into an unsaved invoice with per-item discounts.
func (s *invoiceService) materialize(b *domain.FeeBreakdown, number string, actorID string) domain.Invoice {
	now := s.Now()
	today := domain.DateOf(now)
	inv := domain.Invoice{
		ID:             uuid.NewString(),
		InvoiceNumber:  number,
		StudentID:      b.StudentID,
		AcademicYearID: b.AcademicYearID,
		TermID:         b.TermID,
		ClassID:        b.ClassID,
		GradeID:        b.GradeID,
		SectionID:      b.SectionID,
		IssueDate:      today,
		DueDate:        b.EarliestDueDate(today),
		TotalAmount:    b.Total,
		DiscountAmount: b.Discount,
		NetAmount:      b.Net,
		PaidAmount:     decimal.Zero,
		AuditFields:    domain.NewAuditFields(actorID, now),
	}

	items := b.Items()
	shares := domain.DistributeDiscount(lo.Map(items, func(it domain.FeeItem, _ int) decimal.Decimal { return it.Amount }), b.Discount)
	inv.Items = make([]domain.InvoiceItem, 0, len(items))
	for i, it := range items {
		line := domain.InvoiceItem{
			ID:             uuid.NewString(),
			InvoiceID:      inv.ID,
			Position:       i + 1,
			Kind:           it.Kind,
			FeeStructureID: it.StructureID,
			SpecialFeeID:   it.SpecialFeeID,
			CategoryID:     it.CategoryID,
			CategoryName:   it.CategoryName,
			Description:    it.Description,
			Amount:         it.Amount,
			DiscountAmount: shares[i],
			NetAmount:      it.Amount.Sub(shares[i]),
			DueDate:        domain.DateOf(it.DueDate),
		}
		if it.LatePolicy != nil {
			pct := it.LatePolicy.Percentage
			grace := it.LatePolicy.GracePeriodDays
			line.LateFeePercentage = &pct
			line.GracePeriodDays = &grace
		}
		inv.Items = append(inv.Items, line)
	}

	for _, applied := range b.ScholarshipsApplied {
		if !applied.Applied.IsPositive() {
			continue
		}
		inv.Scholarships = append(inv.Scholarships, domain.InvoiceScholarship{
			InvoiceID:     inv.ID,
			ScholarshipID: applied.ScholarshipID,
			StudentID:     b.StudentID,
			Criteria:      applied.Criteria,
			DiscountType:  applied.DiscountType,
			Amount:        applied.Applied,
		})
	}
	inv.RecomputeStatus(today)
	return inv
}

// generate bills one student in its own unit of work.
func (s *invoiceService) generate(ctx context.Context, studentID, academicYearID, termID, actorID string) (*domain.Invoice, error) {
	var created domain.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		invoices := store.Invoices()
		if err := invoices.LockInvoiceKey(ctx, studentID, academicYearID, termID); err != nil {
			return err
		}
		existing, err := invoices.FindActiveInvoice(ctx, studentID, academicYearID, termID)
		if err != nil && !notFound(err) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s already billed for term %s", apperrors.ErrDuplicateInvoice, existing.InvoiceNumber, termID)
		}

		breakdown, err := resolveFees(ctx, store, s.school, studentID, academicYearID, termID, s.Today())
		if err != nil {
			return err
		}
		seq, err := store.Sequences().NextInvoiceNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		inv := s.materialize(breakdown, domain.FormatInvoiceNumber(seq, s.numberWidth), actorID)
		if err := inv.CheckTotals(); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
		}
		if err := invoices.SaveInvoice(ctx, inv); err != nil {
			return err
		}
		created = inv
		return s.Audit(ctx, store, actorID, domain.AuditInvoiceGenerated, domain.EntityInvoice, inv.ID, map[string]string{
			"invoice_number": inv.InvoiceNumber,
			"student_id":     inv.StudentID,
			"term_id":        inv.TermID,
			"net_amount":     inv.NetAmount.StringFixed(domain.MoneyScale),
		})
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(domain.MutationTags(academicYearID, termID)...)
	return &created, nil
}

func (s *invoiceService) GenerateInvoice(ctx context.Context, req dto.GenerateInvoiceRequest, actorID string) (*dto.InvoiceView, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	inv, err := s.generate(ctx, req.StudentID, req.AcademicYearID, req.TermID, actorID)
	if err != nil {
		s.handleRejection(ctx, err, "Failed to generate invoice",
			slog.String("student_id", req.StudentID),
			slog.String("academic_year_id", req.AcademicYearID),
			slog.String("term_id", req.TermID))
		return nil, fmt.Errorf("failed to generate invoice: %w", err)
	}
	s.LogInfo(ctx, "Invoice generated",
		slog.String("invoice_id", inv.ID),
		slog.String("invoice_number", inv.InvoiceNumber),
		slog.String("status", string(inv.Status)))
	return dto.NewInvoiceView(*inv, nil, nil), nil
}

func (s *invoiceService) BulkGenerate(ctx context.Context, req dto.BulkGenerateRequest, actorID string) (*domain.BulkResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if len(req.StudentIDs) == 0 && (req.ClassID == nil || *req.ClassID == "") {
		return nil, validationErr("either studentIDs or classID is required")
	}
	studentIDs := append([]string{}, req.StudentIDs...)
	if req.ClassID != nil && *req.ClassID != "" {
		classStudents, err := s.school.ListStudentIDsByClass(ctx, *req.ClassID)
		if err != nil {
			return nil, fmt.Errorf("failed to list students of class %s: %w", *req.ClassID, err)
		}
		studentIDs = append(studentIDs, classStudents...)
	}
	studentIDs = lo.Uniq(studentIDs)

	result := &domain.BulkResult{
		Created: []domain.Invoice{},
		Skipped: []domain.BulkSkip{},
		Errors:  []domain.BulkFailure{},
	}
	for _, studentID := range studentIDs {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, domain.BulkFailure{StudentID: studentID, Error: err.Error()})
			continue
		}
		inv, err := s.generate(ctx, studentID, req.AcademicYearID, req.TermID, actorID)
		switch {
		case err == nil:
			result.Created = append(result.Created, *inv)
		case errors.Is(err, apperrors.ErrDuplicateInvoice):
			result.Skipped = append(result.Skipped, domain.BulkSkip{StudentID: studentID, Reason: err.Error()})
		default:
			s.handleRejection(ctx, err, "Bulk generation failed for student", slog.String("student_id", studentID))
			result.Errors = append(result.Errors, domain.BulkFailure{StudentID: studentID, Error: err.Error()})
		}
	}
	s.LogInfo(ctx, "Bulk invoice generation finished",
		slog.String("term_id", req.TermID),
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, invoiceID string, req dto.CancelInvoiceRequest, actorID string) (*dto.InvoiceView, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	var view *dto.InvoiceView
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		inv, err := store.Invoices().LockInvoice(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", invoiceID, err)
		}
		if inv.IsCancelled() {
			return conflictErr("invoice %s is already cancelled", inv.InvoiceNumber)
		}
		if !inv.PaidAmount.IsZero() {
			return conflictErr("invoice %s has %s paid against it", inv.InvoiceNumber, inv.PaidAmount.StringFixed(domain.MoneyScale))
		}
		payments, err := store.Payments().ListPaymentsByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if lo.SomeBy(payments, func(p domain.Payment) bool { return p.Status == domain.PaymentPending }) {
			return conflictErr("invoice %s has pending payments", inv.InvoiceNumber)
		}

		now := s.Now()
		canceller := actorID
		inv.CancelledAt = &now
		inv.CancelledBy = &canceller
		inv.CancelReason = req.Reason
		inv.Status = domain.InvoiceCancelled
		inv.Touch(actorID, now)
		if err := store.Invoices().UpdateInvoiceState(ctx, *inv); err != nil {
			return err
		}
		waivers, err := store.Waivers().ListWaiversByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		view = dto.NewInvoiceView(*inv, payments, waivers)
		return s.Audit(ctx, store, actorID, domain.AuditInvoiceCancelled, domain.EntityInvoice, inv.ID, map[string]string{
			"invoice_number": inv.InvoiceNumber,
			"reason":         req.Reason,
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to cancel invoice", slog.String("invoice_id", invoiceID))
		return nil, fmt.Errorf("failed to cancel invoice: %w", err)
	}
	s.Invalidate(domain.MutationTags(view.Invoice.AcademicYearID, view.Invoice.TermID)...)
	s.LogInfo(ctx, "Invoice cancelled", slog.String("invoice_id", invoiceID))
	return view, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID string) (*dto.InvoiceView, error) {
	store := s.tx.Reader()
	inv, err := store.Invoices().FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, err)
	}
	payments, err := store.Payments().ListPaymentsByInvoice(ctx, invoiceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list invoice payments", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	waivers, err := store.Waivers().ListWaiversByInvoice(ctx, invoiceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list invoice waivers", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	// The stored status lags by up to one day tick.
	inv.RecomputeStatus(s.Today())
	return dto.NewInvoiceView(*inv, payments, waivers), nil
}

func (s *invoiceService) ListStudentInvoices(ctx context.Context, studentID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultInvoicePageSize
	}
	invoices, next, err := s.tx.Reader().Invoices().ListInvoicesByStudent(ctx, studentID, limit, params.NextToken)
	if err != nil {
		s.handleRejection(ctx, err, "Failed to list student invoices", slog.String("student_id", studentID))
		return nil, err
	}
	today := s.Today()
	for i := range invoices {
		invoices[i].RecomputeStatus(today)
	}
	return &dto.ListInvoicesResponse{Invoices: invoices, NextToken: next}, nil
}

func (s *invoiceService) RefreshStatuses(ctx context.Context, today time.Time) (int, error) {
	today = domain.DateOf(today)
	open, err := s.tx.Reader().Invoices().ListInvoices(ctx, domain.InvoiceFilter{Statuses: domain.OpenInvoiceStatuses})
	if err != nil {
		s.LogError(ctx, err, "Failed to list open invoices")
		return 0, err
	}

	changed := 0
	var errs []error
	for _, candidate := range open {
		if statusOn(candidate, today) == candidate.Status {
			continue
		}
		var updated bool
		err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
			updated = false
			inv, err := store.Invoices().LockInvoice(ctx, candidate.ID)
			if err != nil {
				return err
			}
			from := inv.Status
			if !inv.RecomputeStatus(today) {
				return nil
			}
			inv.Touch(domain.SystemActorID, s.Now())
			if err := store.Invoices().UpdateInvoiceState(ctx, *inv); err != nil {
				return err
			}
			updated = true
			return s.Audit(ctx, store, domain.SystemActorID, domain.AuditInvoiceStatusRefreshed, domain.EntityInvoice, inv.ID, map[string]string{
				"from": string(from),
				"to":   string(inv.Status),
			})
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to refresh invoice status", slog.String("invoice_id", candidate.ID))
			errs = append(errs, fmt.Errorf("invoice %s: %w", candidate.ID, err))
			continue
		}
		if updated {
			changed++
			s.Invalidate(domain.MutationTags(candidate.AcademicYearID, candidate.TermID)...)
		}
	}
	s.LogInfo(ctx, "Invoice statuses refreshed",
		slog.String("today", today.Format(domain.DateLayout)),
		slog.Int("scanned", len(open)),
		slog.Int("changed", changed))
	return changed, errors.Join(errs...)
}

// statusOn returns the status an invoice header should carry on today.
func statusOn(inv domain.Invoice, today time.Time) domain.InvoiceStatus {
	return domain.ComputeInvoiceStatus(inv.PaidAmount, inv.NetAmount, inv.DueDate, today, inv.IsCancelled())
}
