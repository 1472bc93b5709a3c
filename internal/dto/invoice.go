package dto

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceRequest identifies the (student, year, term) to bill.
type GenerateInvoiceRequest struct {
	StudentID      string `json:"studentID" binding:"required"`
	AcademicYearID string `json:"academicYearID" binding:"required"`
	TermID         string `json:"termID" binding:"required"`
}

// BulkGenerateRequest bills many students for one term. ClassID adds the class's active students;
// at least one of StudentIDs and ClassID is required.
type BulkGenerateRequest struct {
	StudentIDs     []string `json:"studentIDs" binding:"omitempty,dive,required"`
	ClassID        *string  `json:"classID"`
	AcademicYearID string   `json:"academicYearID" binding:"required"`
	TermID         string   `json:"termID" binding:"required"`
}

// CancelInvoiceRequest carries the reason for an administrative cancellation.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ResolveFeesParams identifies the (student, year, term) for a fee resolution preview.
type ResolveFeesParams struct {
	AcademicYearID string `form:"academicYearID" binding:"required"`
	TermID         string `form:"termID" binding:"required"`
}

// ListInvoicesParams defines pagination for invoice listings.
type ListInvoicesParams struct {
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// InvoiceView is an invoice with its ledger entries.
type InvoiceView struct {
	Invoice     domain.Invoice     `json:"invoice"`
	Outstanding decimal.Decimal    `json:"outstanding"`
	Payments    []domain.Payment   `json:"payments"`
	Waivers     []domain.FeeWaiver `json:"waivers,omitempty"`
}

// ListInvoicesResponse is a page of invoice headers.
type ListInvoicesResponse struct {
	Invoices  []domain.Invoice `json:"invoices"`
	NextToken *string          `json:"nextToken,omitempty"`
}

// NewInvoiceView assembles the view of an invoice.
func NewInvoiceView(inv domain.Invoice, payments []domain.Payment, waivers []domain.FeeWaiver) *InvoiceView {
	if payments == nil {
		payments = []domain.Payment{}
	}
	return &InvoiceView{
		Invoice:     inv,
		Outstanding: inv.Outstanding(),
		Payments:    payments,
		Waivers:     waivers,
	}
}
