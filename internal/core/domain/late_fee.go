package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccrualMonthLayout formats the month bucket of a late-fee accrual.
const AccrualMonthLayout = "2006-01"

// AccrualMonthOf returns the YYYY-MM bucket for today.
func AccrualMonthOf(today time.Time) string {
	return DateOf(today).Format(AccrualMonthLayout)
}

// LateFeeAccrual remembers that an item was charged a late fee in a month.
// (InvoiceID, InvoiceItemID, AccrualMonth) is unique. An accrual is billed when a special fee
// was posted for it in a term the student has not been invoiced for yet; otherwise it is kept
// unbilled with no special fee.
type LateFeeAccrual struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoiceID"`
	InvoiceItemID string          `json:"invoiceItemID"`
	AccrualMonth  string          `json:"accrualMonth"`
	Billed        bool            `json:"billed"`
	SpecialFeeID  *string         `json:"specialFeeID,omitempty"`
	BilledTermID  *string         `json:"billedTermID,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
}

// DedupKey is the idempotency key of the accrual.
func (a LateFeeAccrual) DedupKey() string {
	return a.InvoiceID + "|" + a.InvoiceItemID + "|" + a.AccrualMonth
}

// UnbilledAmount sums the accruals that found no term to be billed in.
func (r LateFeeRun) UnbilledAmount() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Created {
		if !a.Billed {
			total = total.Add(a.Amount)
		}
	}
	return total
}

// LateFeeFor returns the late fee owed for an item on today, if any.
// An item is late once more than GracePeriodDays have passed since its due date.
func LateFeeFor(item InvoiceItem, today time.Time) (decimal.Decimal, bool) {
	policy, ok := item.LatePolicy()
	if !ok || !policy.Percentage.IsPositive() {
		return decimal.Zero, false
	}
	if DaysBetween(item.DueDate, today) <= policy.GracePeriodDays {
		return decimal.Zero, false
	}
	fee := PercentOf(item.NetAmount, policy.Percentage)
	if !fee.IsPositive() {
		return decimal.Zero, false
	}
	return fee, true
}

// LateFeeRun summarizes one pass of the accrual job.
type LateFeeRun struct {
	AccrualMonth    string           `json:"accrualMonth"`
	InvoicesScanned int              `json:"invoicesScanned"`
	Created         []LateFeeAccrual `json:"created"`
	Unbilled        int              `json:"unbilled"`
	AlreadyAccrued  int              `json:"alreadyAccrued"`
	Errors          []string         `json:"errors,omitempty"`
}
