package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeCategory is a row of fee_categories.
type FeeCategory struct {
	CategoryID  string  `db:"category_id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	IsMandatory bool    `db:"is_mandatory"`
	Frequency   *string `db:"frequency"` // Nullable
	AuditFields
}

// FeeStructure is a row of fee_structures. LevelKind and LevelID together name one section or grade.
type FeeStructure struct {
	StructureID       string          `db:"structure_id"`
	AcademicYearID    string          `db:"academic_year_id"`
	TermID            string          `db:"term_id"`
	LevelKind         string          `db:"level_kind"`
	LevelID           string          `db:"level_id"`
	CategoryID        string          `db:"category_id"`
	Amount            decimal.Decimal `db:"amount"`
	DueDate           time.Time       `db:"due_date"`
	LateFeePercentage decimal.Decimal `db:"late_fee_percentage"`
	GracePeriodDays   int             `db:"grace_period_days"`
	IsActive          bool            `db:"is_active"`
	AuditFields
}

// SpecialFee is a row of special_fees. Exactly one of ClassID and StudentID is set.
type SpecialFee struct {
	SpecialFeeID   string          `db:"special_fee_id"`
	Scope          string          `db:"scope"`
	ClassID        *string         `db:"class_id"`
	StudentID      *string         `db:"student_id"`
	AcademicYearID string          `db:"academic_year_id"`
	TermID         string          `db:"term_id"`
	CategoryID     string          `db:"category_id"`
	Amount         decimal.Decimal `db:"amount"`
	DueDate        time.Time       `db:"due_date"`
	Reason         string          `db:"reason"`
	Source         string          `db:"source"`
	IsActive       bool            `db:"is_active"`
	AuditFields
}
