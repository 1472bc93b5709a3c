package dto

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RequestWaiverRequest asks for relief on an invoice.
type RequestWaiverRequest struct {
	InvoiceID string          `json:"invoiceID" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason" binding:"required,max=1000"`
}

// RejectWaiverRequest records why a waiver was refused.
type RejectWaiverRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// WaiverView is a waiver and, once approved, the ledger entry it produced.
type WaiverView struct {
	Waiver  domain.FeeWaiver `json:"waiver"`
	Payment *PaymentView     `json:"payment,omitempty"`
}
