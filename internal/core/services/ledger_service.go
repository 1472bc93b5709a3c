package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/utils/accounting"
	"github.com/SscSPs/school_finance_core/internal/utils/validation"
)

// ledgerService appends ledger entries and keeps invoice paid amounts and statuses in step.
type ledgerService struct {
	BaseService
	tx portsrepo.TransactionManager
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(tx portsrepo.TransactionManager, base BaseService) portssvc.LedgerSvcFacade {
	return &ledgerService{BaseService: base, tx: tx}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// settleInvoice recomputes paid amount from the ledger and the status for today, then persists
// the header. The invoice must be locked by the caller.
func settleInvoice(ctx context.Context, store portsrepo.Store, inv *domain.Invoice, actorID string, now time.Time) error {
	paid, err := store.Payments().SumCountedPayments(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to sum payments of invoice %s: %w", inv.ID, err)
	}
	inv.PaidAmount = paid
	inv.RecomputeStatus(domain.DateOf(now))
	inv.Touch(actorID, now)
	return store.Invoices().UpdateInvoiceState(ctx, *inv)
}

// paymentDate is the caller's timestamp, the caller's date at midnight when only a date was
// given, or now. dateOnly reports the middle case.
func paymentDate(md domain.PaymentMetadata, now time.Time) (at time.Time, dateOnly bool) {
	switch {
	case md.PaymentDate == nil:
		return now, false
	case md.DateOnly:
		return domain.DateOf(*md.PaymentDate), true
	default:
		return md.PaymentDate.UTC(), false
	}
}

// parsePayment validates an apply request and returns its metadata.
func parsePayment(req dto.ApplyPaymentRequest) (domain.PaymentMetadata, error) {
	if err := validation.PositiveMoney("amount", req.Amount); err != nil {
		return domain.PaymentMetadata{}, err
	}
	if !req.Method.Valid() {
		return domain.PaymentMetadata{}, validationErr("unsupported payment method %q", req.Method)
	}
	md, err := req.Metadata()
	if err != nil {
		return md, validationErr("invalid payment date: %v", err)
	}
	if err := md.ValidateFor(req.Method); err != nil {
		return md, asValidation(err)
	}
	return md, nil
}

// applyLocked records a payment against an invoice already locked by the caller.
func (s *ledgerService) applyLocked(ctx context.Context, store portsrepo.Store, inv *domain.Invoice, amount decimal.Decimal, method domain.PaymentMethod, md domain.PaymentMetadata, actorID string) (*domain.Payment, error) {
	if inv.IsCancelled() {
		return nil, conflictErr("invoice %s is cancelled", inv.InvoiceNumber)
	}
	seq, err := store.Sequences().NextReceiptNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate receipt number: %w", err)
	}
	now := s.Now()
	status := domain.PaymentCompleted
	if method.RequiresConfirmation() {
		status = domain.PaymentPending
	}
	paidAt, dateOnly := paymentDate(md, now)
	payment := domain.Payment{
		ID:              uuid.NewString(),
		InvoiceID:       inv.ID,
		StudentID:       inv.StudentID,
		Kind:            domain.EntryPayment,
		Amount:          amount,
		Method:          method,
		PaymentDate:     paidAt,
		DateOnly:        dateOnly,
		ReceiptNumber:   domain.FormatReceiptNumber(seq),
		TransactionID:   md.TransactionID,
		ReferenceNumber: md.ReferenceNumber,
		Status:          status,
		Notes:           md.Notes,
		RecordedBy:      actorID,
		AuditFields:     domain.NewAuditFields(actorID, now),
	}
	if err := store.Payments().SavePayment(ctx, payment); err != nil {
		return nil, err
	}
	if err := settleInvoice(ctx, store, inv, actorID, now); err != nil {
		return nil, err
	}
	if err := s.Audit(ctx, store, actorID, domain.AuditPaymentApplied, domain.EntityPayment, payment.ID, map[string]string{
		"invoice_id":     inv.ID,
		"receipt_number": payment.ReceiptNumber,
		"amount":         amount.StringFixed(domain.MoneyScale),
		"method":         string(method),
		"status":         string(status),
	}); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *ledgerService) ApplyPayment(ctx context.Context, invoiceID string, req dto.ApplyPaymentRequest, actorID string) (*dto.PaymentView, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	md, err := parsePayment(req)
	if err != nil {
		return nil, err
	}

	var view *dto.PaymentView
	var settled domain.Invoice
	err = s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		inv, err := store.Invoices().LockInvoice(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", invoiceID, err)
		}
		payment, err := s.applyLocked(ctx, store, inv, req.Amount, req.Method, md, actorID)
		if err != nil {
			return err
		}
		view = dto.NewPaymentView(*payment, *inv)
		settled = *inv
		return nil
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to apply payment", slog.String("invoice_id", invoiceID), slog.String("method", string(req.Method)))
		return nil, fmt.Errorf("failed to apply payment: %w", err)
	}
	s.afterMutation(settled)
	s.LogInfo(ctx, "Payment applied",
		slog.String("invoice_id", invoiceID),
		slog.String("payment_id", view.Payment.ID),
		slog.String("receipt_number", view.Payment.ReceiptNumber),
		slog.String("invoice_status", string(view.InvoiceStatus)))
	return view, nil
}

// resolvePending moves a pending entry to next under the invoice lock.
func (s *ledgerService) resolvePending(ctx context.Context, paymentID string, next domain.PaymentStatus, reason string, action domain.AuditAction, actorID string) (*dto.PaymentView, error) {
	var view *dto.PaymentView
	var settled domain.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		peek, err := store.Payments().FindPaymentByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("payment %s: %w", paymentID, err)
		}
		inv, err := store.Invoices().LockInvoice(ctx, peek.InvoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", peek.InvoiceID, err)
		}
		payment, err := store.Payments().LockPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("payment %s: %w", paymentID, err)
		}
		if payment.Status != domain.PaymentPending {
			return conflictErr("payment %s is %s, not pending", payment.ReceiptNumber, payment.Status)
		}
		now := s.Now()
		payment.Status = next
		payment.Touch(actorID, now)
		if err := store.Payments().UpdatePaymentStatus(ctx, *payment); err != nil {
			return err
		}
		if err := settleInvoice(ctx, store, inv, actorID, now); err != nil {
			return err
		}
		view = dto.NewPaymentView(*payment, *inv)
		settled = *inv
		detail := map[string]string{"invoice_id": inv.ID, "receipt_number": payment.ReceiptNumber}
		if reason != "" {
			detail["reason"] = reason
		}
		return s.Audit(ctx, store, actorID, action, domain.EntityPayment, payment.ID, detail)
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to resolve pending payment", slog.String("payment_id", paymentID), slog.String("status", string(next)))
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	s.afterMutation(settled)
	s.LogInfo(ctx, "Pending payment resolved", slog.String("payment_id", paymentID), slog.String("status", string(next)))
	return view, nil
}

func (s *ledgerService) ConfirmPayment(ctx context.Context, paymentID string, actorID string) (*dto.PaymentView, error) {
	return s.resolvePending(ctx, paymentID, domain.PaymentCompleted, "", domain.AuditPaymentConfirmed, actorID)
}

func (s *ledgerService) FailPayment(ctx context.Context, paymentID string, req dto.FailPaymentRequest, actorID string) (*dto.PaymentView, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.resolvePending(ctx, paymentID, domain.PaymentFailed, req.Reason, domain.AuditPaymentFailed, actorID)
}

func (s *ledgerService) Refund(ctx context.Context, paymentID string, req dto.RefundRequest, actorID string) (*dto.PaymentView, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := validation.PositiveMoney("amount", req.Amount); err != nil {
		return nil, err
	}

	var view *dto.PaymentView
	var settled domain.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		peek, err := store.Payments().FindPaymentByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("payment %s: %w", paymentID, err)
		}
		inv, err := store.Invoices().LockInvoice(ctx, peek.InvoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", peek.InvoiceID, err)
		}
		original, err := store.Payments().LockPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("payment %s: %w", paymentID, err)
		}
		if original.Kind != domain.EntryPayment {
			return validationErr("%s entry %s cannot be refunded", original.Kind, original.ReceiptNumber)
		}
		if original.Status == domain.PaymentRefunded {
			return conflictErr("payment %s is already fully refunded", original.ReceiptNumber)
		}
		if original.Status != domain.PaymentCompleted {
			return conflictErr("payment %s is %s and cannot be refunded", original.ReceiptNumber, original.Status)
		}
		refunds, err := store.Payments().ListRefunds(ctx, original.ID)
		if err != nil {
			return err
		}
		refundable := accounting.Refundable(*original, refunds)
		if req.Amount.GreaterThan(refundable) {
			return fmt.Errorf("%w: %s requested, %s refundable on %s", apperrors.ErrRefundExceedsOriginal,
				req.Amount.StringFixed(domain.MoneyScale), refundable.StringFixed(domain.MoneyScale), original.ReceiptNumber)
		}
		signed, err := accounting.SignedEntryAmount(domain.EntryRefund, req.Amount)
		if err != nil {
			return err
		}

		now := s.Now()
		txnID := domain.FormatRefundReceipt(original.ReceiptNumber, 1)
		originalID := original.ID
		refund := domain.Payment{
			ID:                uuid.NewString(),
			InvoiceID:         inv.ID,
			StudentID:         inv.StudentID,
			Kind:              domain.EntryRefund,
			Amount:            signed,
			Method:            original.Method,
			PaymentDate:       now,
			ReceiptNumber:     domain.FormatRefundReceipt(original.ReceiptNumber, len(refunds)+1),
			TransactionID:     &txnID,
			Status:            domain.PaymentCompleted,
			OriginalPaymentID: &originalID,
			Notes:             req.Reason,
			RecordedBy:        actorID,
			AuditFields:       domain.NewAuditFields(actorID, now),
		}
		if err := store.Payments().SavePayment(ctx, refund); err != nil {
			return err
		}
		if req.Amount.Equal(refundable) {
			original.Status = domain.PaymentRefunded
			original.Touch(actorID, now)
			if err := store.Payments().UpdatePaymentStatus(ctx, *original); err != nil {
				return err
			}
		}
		if err := settleInvoice(ctx, store, inv, actorID, now); err != nil {
			return err
		}
		view = dto.NewPaymentView(refund, *inv)
		settled = *inv
		return s.Audit(ctx, store, actorID, domain.AuditPaymentRefunded, domain.EntityPayment, original.ID, map[string]string{
			"invoice_id":     inv.ID,
			"refund_id":      refund.ID,
			"receipt_number": refund.ReceiptNumber,
			"amount":         req.Amount.StringFixed(domain.MoneyScale),
			"reason":         req.Reason,
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to refund payment", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}
	s.afterMutation(settled)
	s.LogInfo(ctx, "Payment refunded",
		slog.String("payment_id", paymentID),
		slog.String("refund_receipt", view.Payment.ReceiptNumber),
		slog.String("invoice_status", string(view.InvoiceStatus)))
	return view, nil
}

func (s *ledgerService) AllocatePayment(ctx context.Context, req dto.AllocatePaymentRequest, actorID string) (*domain.AllocationResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	md, err := parsePayment(req.ApplyPaymentRequest)
	if err != nil {
		return nil, err
	}

	studentID := req.StudentID
	candidates, err := s.tx.Reader().Invoices().ListInvoices(ctx, domain.InvoiceFilter{
		AcademicYearID: req.AcademicYearID,
		StudentID:      &studentID,
		Statuses:       domain.OpenInvoiceStatuses,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list open invoices for allocation", slog.String("student_id", studentID))
		return nil, err
	}

	result := &domain.AllocationResult{
		StudentID:      studentID,
		AcademicYearID: req.AcademicYearID,
		Requested:      req.Amount,
		Allocated:      decimal.Zero,
		Remaining:      req.Amount,
		Allocations:    []domain.Allocation{},
	}
	for _, candidate := range candidates {
		if !result.Remaining.IsPositive() {
			break
		}
		var step domain.Allocation
		var touched *domain.Invoice
		err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
			step = domain.Allocation{InvoiceID: candidate.ID, InvoiceNumber: candidate.InvoiceNumber}
			touched = nil
			inv, err := store.Invoices().LockInvoice(ctx, candidate.ID)
			if err != nil {
				return err
			}
			step.OutstandingBefore = inv.Outstanding()
			if inv.IsCancelled() || !inv.Outstanding().IsPositive() {
				step.OutstandingAfter = step.OutstandingBefore
				return nil
			}
			take := decimal.Min(result.Remaining, inv.Outstanding())
			payment, err := s.applyLocked(ctx, store, inv, take, req.Method, md, actorID)
			if err != nil {
				return err
			}
			step.Amount = take
			step.OutstandingAfter = inv.Outstanding()
			step.PaymentID = payment.ID
			step.ReceiptNumber = payment.ReceiptNumber
			touched = inv
			return nil
		})
		if err != nil {
			step.Error = err.Error()
			result.Allocations = append(result.Allocations, step)
			s.handleRejection(ctx, err, "Allocation step failed", slog.String("invoice_id", candidate.ID))
			break
		}
		if touched == nil {
			continue
		}
		result.Allocations = append(result.Allocations, step)
		result.Allocated = result.Allocated.Add(step.Amount)
		result.Remaining = result.Remaining.Sub(step.Amount)
		s.Invalidate(domain.MutationTags(touched.AcademicYearID, touched.TermID)...)
	}

	s.LogInfo(ctx, "Payment allocated",
		slog.String("student_id", studentID),
		slog.String("allocated", result.Allocated.StringFixed(domain.MoneyScale)),
		slog.String("remaining", result.Remaining.StringFixed(domain.MoneyScale)),
		slog.Int("steps", len(result.Allocations)))
	return result, nil
}

func (s *ledgerService) GetPayment(ctx context.Context, paymentID string) (*dto.PaymentView, error) {
	store := s.tx.Reader()
	payment, err := store.Payments().FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, err)
	}
	inv, err := store.Invoices().FindInvoiceByID(ctx, payment.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", payment.InvoiceID, err)
	}
	return dto.NewPaymentView(*payment, *inv), nil
}

// afterMutation evicts analytics of the invoice's scope once the unit of work has committed.
func (s *ledgerService) afterMutation(inv domain.Invoice) {
	s.Invalidate(domain.MutationTags(inv.AcademicYearID, inv.TermID)...)
}
