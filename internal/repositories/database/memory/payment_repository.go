package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

func (s *store) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	defer s.read()()
	p, ok := s.st().payments[paymentID]
	if !ok {
		return nil, notFound("payment", paymentID)
	}
	return &p, nil
}

// paymentsWhere returns matching entries in insertion order.
func (s *store) paymentsWhere(keep func(domain.Payment) bool) []domain.Payment {
	out := []domain.Payment{}
	for _, p := range s.st().payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	order := s.st().order
	sort.Slice(out, func(i, j int) bool { return order[out[i].ID] < order[out[j].ID] })
	return out
}

func (s *store) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	defer s.read()()
	return s.paymentsWhere(func(p domain.Payment) bool { return p.InvoiceID == invoiceID }), nil
}

func (s *store) ListRefunds(ctx context.Context, originalPaymentID string) ([]domain.Payment, error) {
	defer s.read()()
	return s.paymentsWhere(func(p domain.Payment) bool {
		return p.Kind == domain.EntryRefund && p.OriginalPaymentID != nil && *p.OriginalPaymentID == originalPaymentID
	}), nil
}

func (s *store) SumCountedPayments(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	defer s.read()()
	total := decimal.Zero
	for _, p := range s.st().payments {
		if p.InvoiceID == invoiceID && p.CountsTowardsPaid() {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *store) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.read()()
	scope := domain.InvoiceFilter{
		AcademicYearID: filter.AcademicYearID,
		TermID:         filter.TermID,
		SectionID:      filter.SectionID,
		GradeID:        filter.GradeID,
	}
	invoices := s.st().invoices
	out := s.paymentsWhere(func(p domain.Payment) bool {
		inv, ok := invoices[p.InvoiceID]
		if !ok || !matches(inv, scope) {
			return false
		}
		return !p.PaymentDate.Before(filter.From) && p.PaymentDate.Before(filter.To)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, nil
}

func (s *store) SavePayment(ctx context.Context, payment domain.Payment) error {
	defer s.write()()
	if owner, taken := s.st().receipts[payment.ReceiptNumber]; taken {
		return fmt.Errorf("%w: receipt %s already used by %s", apperrors.ErrConcurrency, payment.ReceiptNumber, owner)
	}
	s.st().payments[payment.ID] = payment
	s.st().receipts[payment.ReceiptNumber] = payment.ID
	s.st().track(payment.ID)
	return nil
}

// LockPayment is a plain read; the unit of work already holds the database lock.
func (s *store) LockPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.FindPaymentByID(ctx, paymentID)
}

func (s *store) UpdatePaymentStatus(ctx context.Context, payment domain.Payment) error {
	defer s.write()()
	stored, ok := s.st().payments[payment.ID]
	if !ok {
		return notFound("payment", payment.ID)
	}
	stored.Status = payment.Status
	stored.LastUpdatedAt = payment.LastUpdatedAt
	stored.LastUpdatedBy = payment.LastUpdatedBy
	s.st().payments[payment.ID] = stored
	return nil
}

func (s *store) FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	defer s.read()()
	w, ok := s.st().waivers[waiverID]
	if !ok {
		return nil, notFound("fee waiver", waiverID)
	}
	return &w, nil
}

func (s *store) ListWaiversByInvoice(ctx context.Context, invoiceID string) ([]domain.FeeWaiver, error) {
	defer s.read()()
	out := []domain.FeeWaiver{}
	for _, w := range s.st().waivers {
		if w.InvoiceID == invoiceID {
			out = append(out, w)
		}
	}
	order := s.st().order
	sort.Slice(out, func(i, j int) bool { return order[out[i].ID] < order[out[j].ID] })
	return out, nil
}

func (s *store) SaveWaiver(ctx context.Context, waiver domain.FeeWaiver) error {
	defer s.write()()
	s.st().waivers[waiver.ID] = waiver
	s.st().track(waiver.ID)
	return nil
}

// LockWaiver is a plain read; the unit of work already holds the database lock.
func (s *store) LockWaiver(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	return s.FindWaiverByID(ctx, waiverID)
}

func (s *store) UpdateWaiver(ctx context.Context, waiver domain.FeeWaiver) error {
	defer s.write()()
	if _, ok := s.st().waivers[waiver.ID]; !ok {
		return notFound("fee waiver", waiver.ID)
	}
	s.st().waivers[waiver.ID] = waiver
	return nil
}

func (s *store) FindAccrual(ctx context.Context, invoiceID, invoiceItemID, accrualMonth string) (*domain.LateFeeAccrual, error) {
	defer s.read()()
	key := domain.LateFeeAccrual{InvoiceID: invoiceID, InvoiceItemID: invoiceItemID, AccrualMonth: accrualMonth}.DedupKey()
	a, ok := s.st().accruals[key]
	if !ok {
		return nil, notFound("late fee accrual", key)
	}
	return &a, nil
}

func (s *store) SaveAccrual(ctx context.Context, accrual domain.LateFeeAccrual) error {
	defer s.write()()
	if _, dup := s.st().accruals[accrual.DedupKey()]; dup {
		return fmt.Errorf("%w: late fee accrual %s", apperrors.ErrDuplicate, accrual.DedupKey())
	}
	s.st().accruals[accrual.DedupKey()] = accrual
	s.st().track(accrual.ID)
	return nil
}

func (s *store) ListAccrualsByInvoice(ctx context.Context, invoiceID string) ([]domain.LateFeeAccrual, error) {
	defer s.read()()
	out := []domain.LateFeeAccrual{}
	for _, a := range s.st().accruals {
		if a.InvoiceID == invoiceID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccrualMonth != out[j].AccrualMonth {
			return out[i].AccrualMonth < out[j].AccrualMonth
		}
		return out[i].InvoiceItemID < out[j].InvoiceItemID
	})
	return out, nil
}
