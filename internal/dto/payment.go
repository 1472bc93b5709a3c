package dto

import (
	"time"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApplyPaymentRequest records money received against an invoice.
type ApplyPaymentRequest struct {
	Amount          decimal.Decimal      `json:"amount"`
	Method          domain.PaymentMethod `json:"method" binding:"required,oneof=cash bank_transfer cheque credit_card debit_card online mobile_money"`
	TransactionID   *string              `json:"transactionID" binding:"omitempty,max=100"`
	ReferenceNumber *string              `json:"referenceNumber" binding:"omitempty,max=100"`
	PaymentDate     *string              `json:"paymentDate" binding:"omitempty,max=40"`
	Notes           string               `json:"notes" binding:"max=1000"`
}

// Metadata projects the method-specific fields. PaymentDate is either an RFC 3339 timestamp
// or a bare YYYY-MM-DD date; the latter is recorded as date-only.
func (r ApplyPaymentRequest) Metadata() (domain.PaymentMetadata, error) {
	md := domain.PaymentMetadata{
		TransactionID:   r.TransactionID,
		ReferenceNumber: r.ReferenceNumber,
		Notes:           r.Notes,
	}
	if r.PaymentDate != nil {
		if ts, err := time.Parse(time.RFC3339, *r.PaymentDate); err == nil {
			ts = ts.UTC()
			md.PaymentDate = &ts
			return md, nil
		}
		d, err := domain.ParseDate(*r.PaymentDate)
		if err != nil {
			return md, err
		}
		md.PaymentDate = &d
		md.DateOnly = true
	}
	return md, nil
}

// RefundRequest returns part or all of a completed payment.
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" binding:"required,max=500"`
}

// FailPaymentRequest records why a pending payment did not clear.
type FailPaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// AllocatePaymentRequest spreads one receipt across a student's open invoices of a year.
type AllocatePaymentRequest struct {
	StudentID      string `json:"studentID" binding:"required"`
	AcademicYearID string `json:"academicYearID" binding:"required"`
	ApplyPaymentRequest
}

// PaymentView is a ledger entry with the resulting state of its invoice.
type PaymentView struct {
	Payment       domain.Payment       `json:"payment"`
	InvoiceID     string               `json:"invoiceID"`
	InvoiceNumber string               `json:"invoiceNumber"`
	PaidAmount    decimal.Decimal      `json:"paidAmount"`
	NetAmount     decimal.Decimal      `json:"netAmount"`
	Outstanding   decimal.Decimal      `json:"outstanding"`
	InvoiceStatus domain.InvoiceStatus `json:"invoiceStatus"`
}

// NewPaymentView assembles the view of a ledger entry.
func NewPaymentView(p domain.Payment, inv domain.Invoice) *PaymentView {
	return &PaymentView{
		Payment:       p,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		PaidAmount:    inv.PaidAmount,
		NetAmount:     inv.NetAmount,
		Outstanding:   inv.Outstanding(),
		InvoiceStatus: inv.Status,
	}
}
