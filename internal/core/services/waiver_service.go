package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/utils/validation"
)

// waiverService runs the request/approve/reject workflow for fee waivers.
type waiverService struct {
	BaseService
	tx portsrepo.TransactionManager
}

// NewWaiverService creates a new WaiverService.
func NewWaiverService(tx portsrepo.TransactionManager, base BaseService) portssvc.WaiverSvcFacade {
	return &waiverService{BaseService: base, tx: tx}
}

var _ portssvc.WaiverSvcFacade = (*waiverService)(nil)

func (s *waiverService) RequestWaiver(ctx context.Context, req dto.RequestWaiverRequest, actorID string) (*domain.FeeWaiver, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := validation.PositiveMoney("amount", req.Amount); err != nil {
		return nil, err
	}
	var waiver domain.FeeWaiver
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		inv, err := store.Invoices().LockInvoice(ctx, req.InvoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", req.InvoiceID, err)
		}
		if inv.IsCancelled() {
			return conflictErr("invoice %s is cancelled", inv.InvoiceNumber)
		}
		if req.Amount.GreaterThan(inv.Outstanding()) {
			return validationErr("waiver amount %s exceeds outstanding %s", req.Amount.StringFixed(domain.MoneyScale), inv.Outstanding().StringFixed(domain.MoneyScale))
		}
		waiver = domain.FeeWaiver{
			ID:          uuid.NewString(),
			InvoiceID:   inv.ID,
			StudentID:   inv.StudentID,
			Amount:      req.Amount,
			Reason:      req.Reason,
			Status:      domain.WaiverPending,
			RequestedBy: actorID,
			AuditFields: domain.NewAuditFields(actorID, s.Now()),
		}
		if err := store.Waivers().SaveWaiver(ctx, waiver); err != nil {
			return err
		}
		return s.Audit(ctx, store, actorID, domain.AuditWaiverRequested, domain.EntityWaiver, waiver.ID, map[string]string{
			"invoice_id": inv.ID,
			"amount":     req.Amount.StringFixed(domain.MoneyScale),
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to request waiver", slog.String("invoice_id", req.InvoiceID))
		return nil, fmt.Errorf("failed to request waiver: %w", err)
	}
	s.LogInfo(ctx, "Waiver requested", slog.String("waiver_id", waiver.ID), slog.String("invoice_id", waiver.InvoiceID))
	return &waiver, nil
}

// decide locks the invoice then the waiver and runs apply on a pending waiver.
func (s *waiverService) decide(ctx context.Context, waiverID, actorID string, apply func(ctx context.Context, store portsrepo.Store, inv *domain.Invoice, w *domain.FeeWaiver) (*dto.WaiverView, error)) (*dto.WaiverView, error) {
	var view *dto.WaiverView
	var settled domain.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		peek, err := store.Waivers().FindWaiverByID(ctx, waiverID)
		if err != nil {
			return fmt.Errorf("waiver %s: %w", waiverID, err)
		}
		inv, err := store.Invoices().LockInvoice(ctx, peek.InvoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", peek.InvoiceID, err)
		}
		waiver, err := store.Waivers().LockWaiver(ctx, waiverID)
		if err != nil {
			return fmt.Errorf("waiver %s: %w", waiverID, err)
		}
		if waiver.Status != domain.WaiverPending {
			return conflictErr("waiver %s is already %s", waiver.ID, waiver.Status)
		}
		v, err := apply(ctx, store, inv, waiver)
		if err != nil {
			return err
		}
		view = v
		settled = *inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(domain.MutationTags(settled.AcademicYearID, settled.TermID)...)
	return view, nil
}

func (s *waiverService) ApproveWaiver(ctx context.Context, waiverID string, actorID string) (*dto.WaiverView, error) {
	view, err := s.decide(ctx, waiverID, actorID, func(ctx context.Context, store portsrepo.Store, inv *domain.Invoice, w *domain.FeeWaiver) (*dto.WaiverView, error) {
		if inv.IsCancelled() {
			return nil, conflictErr("invoice %s is cancelled", inv.InvoiceNumber)
		}
		if w.Amount.GreaterThan(inv.Outstanding()) {
			return nil, conflictErr("waiver amount %s no longer fits outstanding %s", w.Amount.StringFixed(domain.MoneyScale), inv.Outstanding().StringFixed(domain.MoneyScale))
		}
		seq, err := store.Sequences().NextReceiptNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate receipt number: %w", err)
		}
		now := s.Now()
		waiverID := w.ID
		entry := domain.Payment{
			ID:            uuid.NewString(),
			InvoiceID:     inv.ID,
			StudentID:     inv.StudentID,
			Kind:          domain.EntryWaiver,
			Amount:        w.Amount,
			Method:        domain.MethodWaiver,
			PaymentDate:   now,
			ReceiptNumber: domain.FormatReceiptNumber(seq),
			Status:        domain.PaymentCompleted,
			WaiverID:      &waiverID,
			Notes:         w.Reason,
			RecordedBy:    actorID,
			AuditFields:   domain.NewAuditFields(actorID, now),
		}
		if err := store.Payments().SavePayment(ctx, entry); err != nil {
			return nil, err
		}
		if err := settleInvoice(ctx, store, inv, actorID, now); err != nil {
			return nil, err
		}

		decider := actorID
		paymentID := entry.ID
		w.Status = domain.WaiverApproved
		w.DecidedBy = &decider
		w.DecidedAt = &now
		w.PaymentID = &paymentID
		w.Touch(actorID, now)
		if err := store.Waivers().UpdateWaiver(ctx, *w); err != nil {
			return nil, err
		}
		if err := s.Audit(ctx, store, actorID, domain.AuditWaiverApproved, domain.EntityWaiver, w.ID, map[string]string{
			"invoice_id":     inv.ID,
			"payment_id":     entry.ID,
			"receipt_number": entry.ReceiptNumber,
			"amount":         w.Amount.StringFixed(domain.MoneyScale),
		}); err != nil {
			return nil, err
		}
		return &dto.WaiverView{Waiver: *w, Payment: dto.NewPaymentView(entry, *inv)}, nil
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to approve waiver", slog.String("waiver_id", waiverID))
		return nil, fmt.Errorf("failed to approve waiver: %w", err)
	}
	s.LogInfo(ctx, "Waiver approved",
		slog.String("waiver_id", waiverID),
		slog.String("receipt_number", view.Payment.Payment.ReceiptNumber),
		slog.String("invoice_status", string(view.Payment.InvoiceStatus)))
	return view, nil
}

func (s *waiverService) RejectWaiver(ctx context.Context, waiverID string, req dto.RejectWaiverRequest, actorID string) (*dto.WaiverView, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	view, err := s.decide(ctx, waiverID, actorID, func(ctx context.Context, store portsrepo.Store, _ *domain.Invoice, w *domain.FeeWaiver) (*dto.WaiverView, error) {
		now := s.Now()
		decider := actorID
		w.Status = domain.WaiverRejected
		w.DecidedBy = &decider
		w.DecidedAt = &now
		w.RejectionReason = req.Reason
		w.Touch(actorID, now)
		if err := store.Waivers().UpdateWaiver(ctx, *w); err != nil {
			return nil, err
		}
		if err := s.Audit(ctx, store, actorID, domain.AuditWaiverRejected, domain.EntityWaiver, w.ID, map[string]string{
			"invoice_id": w.InvoiceID,
			"reason":     req.Reason,
		}); err != nil {
			return nil, err
		}
		return &dto.WaiverView{Waiver: *w}, nil
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to reject waiver", slog.String("waiver_id", waiverID))
		return nil, fmt.Errorf("failed to reject waiver: %w", err)
	}
	s.LogInfo(ctx, "Waiver rejected", slog.String("waiver_id", waiverID))
	return view, nil
}

func (s *waiverService) GetWaiver(ctx context.Context, waiverID string) (*dto.WaiverView, error) {
	store := s.tx.Reader()
	waiver, err := store.Waivers().FindWaiverByID(ctx, waiverID)
	if err != nil {
		return nil, fmt.Errorf("waiver %s: %w", waiverID, err)
	}
	view := &dto.WaiverView{Waiver: *waiver}
	if waiver.PaymentID != nil {
		payment, err := store.Payments().FindPaymentByID(ctx, *waiver.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("waiver payment %s: %w", *waiver.PaymentID, err)
		}
		inv, err := store.Invoices().FindInvoiceByID(ctx, waiver.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("invoice %s: %w", waiver.InvoiceID, err)
		}
		view.Payment = dto.NewPaymentView(*payment, *inv)
	}
	return view, nil
}
