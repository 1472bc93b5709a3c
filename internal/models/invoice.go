package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a row of invoices. Items and attributions live in their own tables.
type Invoice struct {
	InvoiceID      string          `db:"invoice_id"`
	InvoiceNumber  string          `db:"invoice_number"`
	StudentID      string          `db:"student_id"`
	AcademicYearID string          `db:"academic_year_id"`
	TermID         string          `db:"term_id"`
	ClassID        string          `db:"class_id"`
	GradeID        string          `db:"grade_id"`
	SectionID      string          `db:"section_id"`
	IssueDate      time.Time       `db:"issue_date"`
	DueDate        time.Time       `db:"due_date"`
	TotalAmount    decimal.Decimal `db:"total_amount"`
	DiscountAmount decimal.Decimal `db:"discount_amount"`
	NetAmount      decimal.Decimal `db:"net_amount"`
	PaidAmount     decimal.Decimal `db:"paid_amount"`
	Status         string          `db:"status"`
	CancelledAt    *time.Time      `db:"cancelled_at"`
	CancelledBy    *string         `db:"cancelled_by"`
	CancelReason   string          `db:"cancel_reason"`
	AuditFields
}

// InvoiceItem is a row of invoice_items. The late policy columns are NULL for items
// that did not come from a fee structure.
type InvoiceItem struct {
	ItemID            string              `db:"item_id"`
	InvoiceID         string              `db:"invoice_id"`
	Position          int                 `db:"position"`
	Kind              string              `db:"kind"`
	FeeStructureID    *string             `db:"fee_structure_id"`
	SpecialFeeID      *string             `db:"special_fee_id"`
	CategoryID        string              `db:"category_id"`
	CategoryName      string              `db:"category_name"`
	Description       string              `db:"description"`
	Amount            decimal.Decimal     `db:"amount"`
	DiscountAmount    decimal.Decimal     `db:"discount_amount"`
	NetAmount         decimal.Decimal     `db:"net_amount"`
	DueDate           time.Time           `db:"due_date"`
	LateFeePercentage decimal.NullDecimal `db:"late_fee_percentage"`
	GracePeriodDays   *int                `db:"grace_period_days"`
}

// InvoiceScholarship is a row of invoice_scholarships.
type InvoiceScholarship struct {
	InvoiceID     string          `db:"invoice_id"`
	ScholarshipID string          `db:"scholarship_id"`
	StudentID     string          `db:"student_id"`
	Criteria      string          `db:"criteria"`
	DiscountType  string          `db:"discount_type"`
	Amount        decimal.Decimal `db:"amount"`
}
