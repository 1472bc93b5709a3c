package accounting

import (
	"fmt"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedEntryAmount applies the ledger sign convention to an entry amount.
// Payments and waivers credit the invoice (+), refunds debit it (-).
// This is used in both services and repositories to ensure consistent ledger logic.
func SignedEntryAmount(kind domain.EntryKind, amount decimal.Decimal) (decimal.Decimal, error) {
	abs := amount.Abs()
	switch kind {
	case domain.EntryPayment, domain.EntryWaiver:
		return abs, nil
	case domain.EntryRefund:
		return abs.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown ledger entry kind '%s'", kind)
	}
}

// PaidAmount sums the entries that count towards an invoice's paid amount.
func PaidAmount(entries []domain.Payment) decimal.Decimal {
	paid := decimal.Zero
	for _, e := range entries {
		if e.CountsTowardsPaid() {
			paid = paid.Add(e.Amount)
		}
	}
	return paid
}

// RefundedSoFar sums the refund companions of a payment as a positive amount.
func RefundedSoFar(refunds []domain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, r := range refunds {
		if r.Kind == domain.EntryRefund && r.CountsTowardsPaid() {
			total = total.Add(r.Amount.Abs())
		}
	}
	return total
}

// Refundable returns how much of the original payment can still be refunded.
func Refundable(original domain.Payment, refunds []domain.Payment) decimal.Decimal {
	left := original.Amount.Sub(RefundedSoFar(refunds))
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}
