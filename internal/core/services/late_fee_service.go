package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
)

// LateFeeCategoryName is the fee category carrying accrued late fees.
const LateFeeCategoryName = "Late Fee"

var (
	errAlreadyAccrued = errors.New("late fee already accrued")
	errNoBillableTerm = errors.New("every later term of the year is already invoiced")
)

// lateFeeService turns overdue invoice items into student-scoped special fees.
type lateFeeService struct {
	BaseService
	tx     portsrepo.TransactionManager
	school portsrepo.SchoolReader
}

// NewLateFeeService creates a new LateFeeService.
func NewLateFeeService(tx portsrepo.TransactionManager, school portsrepo.SchoolReader, base BaseService) portssvc.LateFeeSvc {
	return &lateFeeService{BaseService: base, tx: tx, school: school}
}

var _ portssvc.LateFeeSvc = (*lateFeeService)(nil)

// laterTerms returns the terms of the invoice's year that come after the invoice's term.
func (s *lateFeeService) laterTerms(ctx context.Context, inv domain.Invoice) ([]domain.Term, error) {
	terms, err := s.school.ListTerms(ctx, inv.AcademicYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to list terms of %s: %w", inv.AcademicYearID, err)
	}
	for i, t := range terms {
		if t.ID == inv.TermID {
			return terms[i+1:], nil
		}
	}
	return nil, fmt.Errorf("%w: term %s not found in academic year %s", apperrors.ErrNotFound, inv.TermID, inv.AcademicYearID)
}

// billingTarget picks the first of terms the student has no active invoice for, holding the
// invoice key lock of that term until the unit of work ends. The fee is due at the term's start,
// or today when the term is already running. ok is false when every term is already invoiced.
func billingTarget(ctx context.Context, store portsrepo.Store, studentID string, terms []domain.Term, today time.Time) (domain.Term, time.Time, bool, error) {
	for _, t := range terms {
		if err := store.Invoices().LockInvoiceKey(ctx, studentID, t.AcademicYearID, t.ID); err != nil {
			return domain.Term{}, time.Time{}, false, err
		}
		_, err := store.Invoices().FindActiveInvoice(ctx, studentID, t.AcademicYearID, t.ID)
		if err == nil {
			continue
		}
		if !notFound(err) {
			return domain.Term{}, time.Time{}, false, err
		}
		due := domain.DateOf(t.StartDate)
		if today.After(due) {
			due = today
		}
		if end := domain.DateOf(t.EndDate); due.After(end) {
			due = end
		}
		return t, due, true, nil
	}
	return domain.Term{}, time.Time{}, false, nil
}

// lateFeeCategory returns the late-fee category, creating it on first use.
func (s *lateFeeService) lateFeeCategory(ctx context.Context, store portsrepo.Store) (*domain.FeeCategory, error) {
	cat, err := store.Catalog().FindCategoryByName(ctx, LateFeeCategoryName)
	if err == nil {
		return cat, nil
	}
	if !notFound(err) {
		return nil, err
	}
	created := domain.FeeCategory{
		ID:          uuid.NewString(),
		Name:        LateFeeCategoryName,
		Description: "Late payment charges",
		AuditFields: domain.NewAuditFields(domain.SystemActorID, s.Now()),
	}
	if err := store.Catalog().SaveCategory(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *lateFeeService) AccrueLateFees(ctx context.Context, today time.Time) (*domain.LateFeeRun, error) {
	today = domain.DateOf(today)
	run := &domain.LateFeeRun{AccrualMonth: domain.AccrualMonthOf(today), Created: []domain.LateFeeAccrual{}}

	reader := s.tx.Reader()
	headers, err := reader.Invoices().ListInvoices(ctx, domain.InvoiceFilter{Statuses: domain.OpenInvoiceStatuses})
	if err != nil {
		s.LogError(ctx, err, "Failed to list open invoices for late fees")
		return nil, err
	}

	for _, header := range headers {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		inv, err := reader.Invoices().FindInvoiceByID(ctx, header.ID)
		if err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("invoice %s: %v", header.ID, err))
			continue
		}
		if !inv.Outstanding().IsPositive() {
			continue
		}
		inv.RecomputeStatus(today)
		if !inv.IsOpen() {
			continue
		}
		run.InvoicesScanned++

		var terms []domain.Term
		termsLoaded := false
		for _, item := range inv.Items {
			fee, late := domain.LateFeeFor(item, today)
			if !late {
				continue
			}
			if !termsLoaded {
				terms, err = s.laterTerms(ctx, *inv)
				if err != nil {
					run.Errors = append(run.Errors, fmt.Sprintf("invoice %s: %v", inv.ID, err))
					break
				}
				termsLoaded = true
			}
			accrual, err := s.accrueItem(ctx, *inv, item, fee, terms, today, run.AccrualMonth)
			switch {
			case err == nil:
				run.Created = append(run.Created, *accrual)
				if !accrual.Billed {
					run.Unbilled++
					s.LogWarn(ctx, errNoBillableTerm, "Late fee accrued without a term to bill it in",
						slog.String("invoice_id", inv.ID), slog.String("item_id", item.ID))
				}
			case errors.Is(err, errAlreadyAccrued):
				run.AlreadyAccrued++
			default:
				s.LogError(ctx, err, "Late fee accrual failed", slog.String("invoice_id", inv.ID), slog.String("item_id", item.ID))
				run.Errors = append(run.Errors, fmt.Sprintf("invoice %s item %s: %v", inv.ID, item.ID, err))
			}
		}
	}

	s.LogInfo(ctx, "Late fee accrual finished",
		slog.String("accrual_month", run.AccrualMonth),
		slog.Int("scanned", run.InvoicesScanned),
		slog.Int("created", len(run.Created)),
		slog.Int("unbilled", run.Unbilled),
		slog.Int("already_accrued", run.AlreadyAccrued),
		slog.Int("errors", len(run.Errors)))
	return run, nil
}

// accrueItem records the accrual for one item in one unit of work and, when a later term is
// still open for invoicing, posts the matching special fee there.
func (s *lateFeeService) accrueItem(ctx context.Context, inv domain.Invoice, item domain.InvoiceItem, fee decimal.Decimal, terms []domain.Term, today time.Time, month string) (*domain.LateFeeAccrual, error) {
	var accrual domain.LateFeeAccrual
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		existing, err := store.LateFees().FindAccrual(ctx, inv.ID, item.ID, month)
		if err != nil && !notFound(err) {
			return err
		}
		if existing != nil {
			return errAlreadyAccrued
		}

		now := s.Now()
		accrual = domain.LateFeeAccrual{
			ID:            uuid.NewString(),
			InvoiceID:     inv.ID,
			InvoiceItemID: item.ID,
			AccrualMonth:  month,
			Amount:        fee,
			CreatedAt:     now,
			CreatedBy:     domain.SystemActorID,
		}
		detail := map[string]string{
			"item_id":       item.ID,
			"accrual_month": month,
			"amount":        fee.StringFixed(domain.MoneyScale),
		}

		target, due, ok, err := billingTarget(ctx, store, inv.StudentID, terms, today)
		if err != nil {
			return fmt.Errorf("failed to pick a billing term: %w", err)
		}
		if ok {
			category, err := s.lateFeeCategory(ctx, store)
			if err != nil {
				return fmt.Errorf("failed to resolve late fee category: %w", err)
			}
			studentID := inv.StudentID
			special := domain.SpecialFee{
				ID:             uuid.NewString(),
				Scope:          domain.SpecialFeeStudent,
				StudentID:      &studentID,
				AcademicYearID: target.AcademicYearID,
				TermID:         target.ID,
				CategoryID:     category.ID,
				Amount:         fee,
				DueDate:        due,
				Reason:         fmt.Sprintf("%s %s (%s)", inv.InvoiceNumber, item.Description, month),
				Source:         domain.SpecialFeeLateFee,
				IsActive:       true,
				AuditFields:    domain.NewAuditFields(domain.SystemActorID, now),
			}
			if err := store.Catalog().SaveSpecialFee(ctx, special); err != nil {
				return err
			}
			accrual.Billed = true
			accrual.SpecialFeeID = &special.ID
			accrual.BilledTermID = &target.ID
			detail["special_fee_id"] = special.ID
			detail["billed_term_id"] = target.ID
		} else {
			detail["billed"] = "false"
		}

		if err := store.LateFees().SaveAccrual(ctx, accrual); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return errAlreadyAccrued
			}
			return err
		}
		return s.Audit(ctx, store, domain.SystemActorID, domain.AuditLateFeeAccrued, domain.EntityInvoice, inv.ID, detail)
	})
	if err != nil {
		return nil, err
	}
	return &accrual, nil
}
