package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how money reached the school.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodOnline       PaymentMethod = "online"
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodWaiver       PaymentMethod = "waiver"
)

// Valid reports whether m is a known method a caller may record directly.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCheque, MethodCreditCard, MethodDebitCard, MethodOnline, MethodMobileMoney:
		return true
	}
	return false
}

// RequiresTransactionID is true for card and online payments.
func (m PaymentMethod) RequiresTransactionID() bool {
	return m == MethodCreditCard || m == MethodDebitCard || m == MethodOnline
}

// RequiresReferenceNumber is true for bank transfers and cheques.
func (m PaymentMethod) RequiresReferenceNumber() bool {
	return m == MethodBankTransfer || m == MethodCheque
}

// RequiresConfirmation is true when funds clear asynchronously.
func (m PaymentMethod) RequiresConfirmation() bool {
	return m == MethodCheque
}

// PaymentStatus is the state of a ledger entry.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// EntryKind distinguishes ledger entry types.
type EntryKind string

const (
	EntryPayment EntryKind = "payment"
	EntryRefund  EntryKind = "refund"
	EntryWaiver  EntryKind = "waiver"
)

// Payment is a ledger entry against an invoice. Refund entries carry a negative amount.
type Payment struct {
	ID                string          `json:"id"`
	InvoiceID         string          `json:"invoiceID"`
	StudentID         string          `json:"studentID"`
	Kind              EntryKind       `json:"kind"`
	Amount            decimal.Decimal `json:"amount"`
	Method            PaymentMethod   `json:"method"`
	PaymentDate       time.Time       `json:"paymentDate"`
	DateOnly          bool            `json:"dateOnly,omitempty"` // PaymentDate has no time of day
	ReceiptNumber     string          `json:"receiptNumber"`
	TransactionID     *string         `json:"transactionID,omitempty"`
	ReferenceNumber   *string         `json:"referenceNumber,omitempty"`
	Status            PaymentStatus   `json:"status"`
	OriginalPaymentID *string         `json:"originalPaymentID,omitempty"`
	WaiverID          *string         `json:"waiverID,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	RecordedBy        string          `json:"recordedBy"`
	AuditFields
}

// CountsTowardsPaid is true for entries that move the invoice's paid amount.
// A refunded original still counts; its negative companion offsets it.
func (p Payment) CountsTowardsPaid() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentRefunded
}

// PaymentMetadata carries method-specific details for a payment.
type PaymentMetadata struct {
	TransactionID   *string    `json:"transactionID,omitempty"`
	ReferenceNumber *string    `json:"referenceNumber,omitempty"`
	PaymentDate     *time.Time `json:"paymentDate,omitempty"`
	DateOnly        bool       `json:"dateOnly,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// ValidateFor checks the metadata a method requires.
func (md PaymentMetadata) ValidateFor(m PaymentMethod) error {
	if m.RequiresTransactionID() && (md.TransactionID == nil || *md.TransactionID == "") {
		return fmt.Errorf("payment method %s requires a transaction id", m)
	}
	if m.RequiresReferenceNumber() && (md.ReferenceNumber == nil || *md.ReferenceNumber == "") {
		return fmt.Errorf("payment method %s requires a reference number", m)
	}
	return nil
}

// FormatReceiptNumber renders RCPT plus the sequence value.
func FormatReceiptNumber(seq int64) string {
	return fmt.Sprintf("RCPT%d", seq)
}

// FormatRefundReceipt renders REFUND-<original>, suffixed for the n-th partial refund (n >= 2).
func FormatRefundReceipt(originalReceipt string, n int) string {
	if n <= 1 {
		return "REFUND-" + originalReceipt
	}
	return fmt.Sprintf("REFUND-%s-%d", originalReceipt, n)
}

// WaiverStatus is the lifecycle of a fee waiver request.
type WaiverStatus string

const (
	WaiverPending  WaiverStatus = "pending"
	WaiverApproved WaiverStatus = "approved"
	WaiverRejected WaiverStatus = "rejected"
)

// FeeWaiver is a request for partial or full relief on an invoice.
type FeeWaiver struct {
	ID              string          `json:"id"`
	InvoiceID       string          `json:"invoiceID"`
	StudentID       string          `json:"studentID"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	Status          WaiverStatus    `json:"status"`
	RequestedBy     string          `json:"requestedBy"`
	DecidedBy       *string         `json:"decidedBy,omitempty"`
	DecidedAt       *time.Time      `json:"decidedAt,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	PaymentID       *string         `json:"paymentID,omitempty"`
	AuditFields
}

// PaymentFilter selects ledger entries for analytics.
type PaymentFilter struct {
	AcademicYearID string
	TermID         *string
	SectionID      *string
	GradeID        *string
	From           time.Time
	To             time.Time // exclusive
}

// Allocation is one step of splitting an amount across a student's open invoices.
type Allocation struct {
	InvoiceID         string          `json:"invoiceID"`
	InvoiceNumber     string          `json:"invoiceNumber"`
	Amount            decimal.Decimal `json:"amount"`
	OutstandingBefore decimal.Decimal `json:"outstandingBefore"`
	OutstandingAfter  decimal.Decimal `json:"outstandingAfter"`
	PaymentID         string          `json:"paymentID,omitempty"`
	ReceiptNumber     string          `json:"receiptNumber,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// AllocationResult summarizes an allocation run.
type AllocationResult struct {
	StudentID      string          `json:"studentID"`
	AcademicYearID string          `json:"academicYearID"`
	Requested      decimal.Decimal `json:"requested"`
	Allocated      decimal.Decimal `json:"allocated"`
	Remaining      decimal.Decimal `json:"remaining"`
	Allocations    []Allocation    `json:"allocations"`
}
