package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a row of payments. Refund rows carry a negative amount.
type Payment struct {
	PaymentID         string          `db:"payment_id"`
	InvoiceID         string          `db:"invoice_id"`
	StudentID         string          `db:"student_id"`
	Kind              string          `db:"kind"`
	Amount            decimal.Decimal `db:"amount"`
	Method            string          `db:"method"`
	PaymentDate       time.Time       `db:"payment_date"`
	DateOnly          bool            `db:"date_only"`
	ReceiptNumber     string          `db:"receipt_number"`
	TransactionID     *string         `db:"transaction_id"`
	ReferenceNumber   *string         `db:"reference_number"`
	Status            string          `db:"status"`
	OriginalPaymentID *string         `db:"original_payment_id"`
	WaiverID          *string         `db:"waiver_id"`
	Notes             string          `db:"notes"`
	RecordedBy        string          `db:"recorded_by"`
	AuditFields
}

// FeeWaiver is a row of fee_waivers.
type FeeWaiver struct {
	WaiverID        string          `db:"waiver_id"`
	InvoiceID       string          `db:"invoice_id"`
	StudentID       string          `db:"student_id"`
	Amount          decimal.Decimal `db:"amount"`
	Reason          string          `db:"reason"`
	Status          string          `db:"status"`
	RequestedBy     string          `db:"requested_by"`
	DecidedBy       *string         `db:"decided_by"`
	DecidedAt       *time.Time      `db:"decided_at"`
	RejectionReason string          `db:"rejection_reason"`
	PaymentID       *string         `db:"payment_id"`
	AuditFields
}

// LateFeeAccrual is a row of late_fee_accruals.
type LateFeeAccrual struct {
	AccrualID     string          `db:"accrual_id"`
	InvoiceID     string          `db:"invoice_id"`
	InvoiceItemID string          `db:"invoice_item_id"`
	AccrualMonth  string          `db:"accrual_month"`
	Billed        bool            `db:"billed"`
	SpecialFeeID  *string         `db:"special_fee_id"`
	BilledTermID  *string         `db:"billed_term_id"`
	Amount        decimal.Decimal `db:"amount"`
	CreatedAt     time.Time       `db:"created_at"`
	CreatedBy     string          `db:"created_by"`
}

// AuditEntry is a row of finance_audit_log. Detail is stored as JSONB.
type AuditEntry struct {
	AuditID    string            `db:"audit_id"`
	ActorID    string            `db:"actor_id"`
	Action     string            `db:"action"`
	EntityType string            `db:"entity_type"`
	EntityID   string            `db:"entity_id"`
	At         time.Time         `db:"at"`
	Detail     map[string]string `db:"detail"`
}
