package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is derived from paid/net/due date/today and the cancel flag.
type InvoiceStatus string

const (
	InvoiceUnpaid        InvoiceStatus = "unpaid"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

// OpenInvoiceStatuses are the statuses that still expect money.
var OpenInvoiceStatuses = []InvoiceStatus{InvoiceUnpaid, InvoicePartiallyPaid, InvoiceOverdue}

// ComputeInvoiceStatus is the single source of truth for invoice status.
//
//	cancelled       if cancelled (sticky)
//	paid            if paid >= net
//	partially_paid  if 0 < paid < net
//	overdue         if paid == 0 and today > due
//	unpaid          otherwise
func ComputeInvoiceStatus(paid, net decimal.Decimal, due, today time.Time, cancelled bool) InvoiceStatus {
	switch {
	case cancelled:
		return InvoiceCancelled
	case paid.GreaterThanOrEqual(net):
		return InvoicePaid
	case paid.IsPositive():
		return InvoicePartiallyPaid
	case IsAfterDate(today, due):
		return InvoiceOverdue
	default:
		return InvoiceUnpaid
	}
}

// Invoice is the bill for one student in one term.
type Invoice struct {
	ID             string          `json:"id"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	StudentID      string          `json:"studentID"`
	AcademicYearID string          `json:"academicYearID"`
	TermID         string          `json:"termID"`
	ClassID        string          `json:"classID"`
	GradeID        string          `json:"gradeID"`
	SectionID      string          `json:"sectionID"`
	IssueDate      time.Time       `json:"issueDate"`
	DueDate        time.Time       `json:"dueDate"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	NetAmount      decimal.Decimal `json:"netAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	Status         InvoiceStatus   `json:"status"`
	CancelledAt    *time.Time      `json:"cancelledAt,omitempty"`
	CancelledBy    *string         `json:"cancelledBy,omitempty"`
	CancelReason   string          `json:"cancelReason,omitempty"`

	Items        []InvoiceItem        `json:"items,omitempty"`
	Scholarships []InvoiceScholarship `json:"scholarships,omitempty"`
	AuditFields
}

// Outstanding is net minus paid; negative means the student holds an advance.
func (i Invoice) Outstanding() decimal.Decimal {
	return i.NetAmount.Sub(i.PaidAmount)
}

// IsCancelled reports the sticky admin cancellation.
func (i Invoice) IsCancelled() bool {
	return i.CancelledAt != nil || i.Status == InvoiceCancelled
}

// IsOpen is true while the invoice still expects money.
func (i Invoice) IsOpen() bool {
	for _, s := range OpenInvoiceStatuses {
		if i.Status == s {
			return true
		}
	}
	return false
}

// RecomputeStatus sets Status from the invoice's amounts and today's date. It reports whether it changed.
func (i *Invoice) RecomputeStatus(today time.Time) bool {
	next := ComputeInvoiceStatus(i.PaidAmount, i.NetAmount, i.DueDate, today, i.IsCancelled())
	changed := next != i.Status
	i.Status = next
	return changed
}

// CheckTotals verifies net = total - discount and that items sum to the header.
func (i Invoice) CheckTotals() error {
	if !i.NetAmount.Equal(i.TotalAmount.Sub(i.DiscountAmount)) {
		return fmt.Errorf("invoice %s: net %s != total %s - discount %s", i.InvoiceNumber, i.NetAmount, i.TotalAmount, i.DiscountAmount)
	}
	if len(i.Items) == 0 {
		return nil
	}
	net, discount, total := decimal.Zero, decimal.Zero, decimal.Zero
	for _, it := range i.Items {
		total = total.Add(it.Amount)
		discount = discount.Add(it.DiscountAmount)
		net = net.Add(it.NetAmount)
	}
	if !net.Equal(i.NetAmount) || !discount.Equal(i.DiscountAmount) || !total.Equal(i.TotalAmount) {
		return fmt.Errorf("invoice %s: items (total %s, discount %s, net %s) disagree with header", i.InvoiceNumber, total, discount, net)
	}
	return nil
}

// InvoiceKey is the (student, year, term) key that allows one active invoice.
func InvoiceKey(studentID, academicYearID, termID string) string {
	return "invoice:" + studentID + "|" + academicYearID + "|" + termID
}

// FormatInvoiceNumber renders INV plus a zero-padded sequence of at least width digits.
func FormatInvoiceNumber(seq int64, width int) string {
	if width < 6 {
		width = 6
	}
	return fmt.Sprintf("INV%0*d", width, seq)
}

// InvoiceItem is a line of an invoice. It keeps a back-pointer to its fee source for audit.
type InvoiceItem struct {
	ID             string          `json:"id"`
	InvoiceID      string          `json:"invoiceID"`
	Position       int             `json:"position"`
	Kind           FeeItemKind     `json:"kind"`
	FeeStructureID *string         `json:"feeStructureID,omitempty"`
	SpecialFeeID   *string         `json:"specialFeeID,omitempty"`
	CategoryID     string          `json:"categoryID"`
	CategoryName   string          `json:"categoryName"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	NetAmount      decimal.Decimal `json:"netAmount"`
	DueDate        time.Time       `json:"dueDate"`

	// Late policy snapshot taken from the originating structure at issue time.
	LateFeePercentage *decimal.Decimal `json:"lateFeePercentage,omitempty"`
	GracePeriodDays   *int             `json:"gracePeriodDays,omitempty"`
}

// LatePolicy returns the snapshot policy, if the item carries one.
func (it InvoiceItem) LatePolicy() (LateFeePolicy, bool) {
	if it.LateFeePercentage == nil || it.GracePeriodDays == nil {
		return LateFeePolicy{}, false
	}
	return LateFeePolicy{Percentage: *it.LateFeePercentage, GracePeriodDays: *it.GracePeriodDays}, true
}

// InvoiceScholarship attributes part of an invoice's discount to one scholarship.
type InvoiceScholarship struct {
	InvoiceID     string          `json:"invoiceID"`
	ScholarshipID string          `json:"scholarshipID"`
	StudentID     string          `json:"studentID"`
	Criteria      string          `json:"criteria"`
	DiscountType  DiscountType    `json:"discountType"`
	Amount        decimal.Decimal `json:"amount"`
}

// InvoiceFilter selects invoices for listing and analytics.
type InvoiceFilter struct {
	AcademicYearID string
	TermID         *string
	SectionID      *string
	GradeID        *string
	ClassID        *string
	StudentID      *string
	Statuses       []InvoiceStatus
	DueBefore      *time.Time
}

// BulkSkip records a student that bulk generation passed over without error.
type BulkSkip struct {
	StudentID string `json:"studentID"`
	Reason    string `json:"reason"`
}

// BulkFailure records a student whose generation failed.
type BulkFailure struct {
	StudentID string `json:"studentID"`
	Error     string `json:"error"`
}

// BulkResult is the per-student outcome of bulk generation.
type BulkResult struct {
	Created []Invoice     `json:"created"`
	Skipped []BulkSkip    `json:"skipped"`
	Errors  []BulkFailure `json:"errors"`
}
