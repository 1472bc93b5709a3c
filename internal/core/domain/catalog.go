package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeeFrequency is the optional recurrence of a fee category.
type FeeFrequency string

const (
	FrequencyOnce    FeeFrequency = "once"
	FrequencyTermly  FeeFrequency = "termly"
	FrequencyMonthly FeeFrequency = "monthly"
	FrequencyYearly  FeeFrequency = "yearly"
)

// FeeCategory names a kind of charge (tuition, transport, ...).
type FeeCategory struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	IsMandatory bool          `json:"isMandatory"`
	Frequency   *FeeFrequency `json:"frequency,omitempty"`
	AuditFields
}

// LevelKind says whether a fee structure targets a section or a grade.
type LevelKind string

const (
	LevelSection LevelKind = "section"
	LevelGrade   LevelKind = "grade"
)

// FeeLevel identifies exactly one section or one grade.
type FeeLevel struct {
	Kind LevelKind `json:"kind"`
	ID   string    `json:"id"`
}

func (l FeeLevel) String() string {
	return string(l.Kind) + ":" + l.ID
}

// Validate checks the level is one of the known kinds and carries an id.
func (l FeeLevel) Validate() error {
	if l.Kind != LevelSection && l.Kind != LevelGrade {
		return fmt.Errorf("fee level kind must be %q or %q, got %q", LevelSection, LevelGrade, l.Kind)
	}
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("fee level id is required")
	}
	return nil
}

// LateFeePolicy is the late-fee rule carried from a fee structure.
type LateFeePolicy struct {
	Percentage      decimal.Decimal `json:"percentage"`
	GracePeriodDays int             `json:"gracePeriodDays"`
}

// FeeStructure is a priced obligation for (year, term, level, category).
// At most one active structure exists per that key.
type FeeStructure struct {
	ID                string          `json:"id"`
	AcademicYearID    string          `json:"academicYearID"`
	TermID            string          `json:"termID"`
	Level             FeeLevel        `json:"level"`
	CategoryID        string          `json:"categoryID"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"dueDate"`
	LateFeePercentage decimal.Decimal `json:"lateFeePercentage"`
	GracePeriodDays   int             `json:"gracePeriodDays"`
	IsActive          bool            `json:"isActive"`
	AuditFields
}

// Key is the uniqueness key for active structures.
func (f FeeStructure) Key() string {
	return f.AcademicYearID + "|" + f.TermID + "|" + f.Level.String() + "|" + f.CategoryID
}

// LatePolicy projects the structure's late-fee rule.
func (f FeeStructure) LatePolicy() LateFeePolicy {
	return LateFeePolicy{Percentage: f.LateFeePercentage, GracePeriodDays: f.GracePeriodDays}
}

// Validate checks the structure's own invariants. The term window is checked by the caller.
func (f FeeStructure) Validate() error {
	if err := f.Level.Validate(); err != nil {
		return err
	}
	if f.AcademicYearID == "" || f.TermID == "" || f.CategoryID == "" {
		return fmt.Errorf("academic year, term and category are required")
	}
	if f.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if !IsWholeCents(f.Amount) {
		return fmt.Errorf("amount %s has more than two fractional digits", f.Amount)
	}
	if f.LateFeePercentage.IsNegative() || f.LateFeePercentage.GreaterThan(hundred) {
		return fmt.Errorf("late fee percentage must be between 0 and 100")
	}
	if f.GracePeriodDays < 0 {
		return fmt.Errorf("grace period must not be negative")
	}
	if f.DueDate.IsZero() {
		return fmt.Errorf("due date is required")
	}
	return nil
}

// SpecialFeeScope distinguishes class-wide from single-student charges.
type SpecialFeeScope string

const (
	SpecialFeeClass   SpecialFeeScope = "class"
	SpecialFeeStudent SpecialFeeScope = "student"
)

// SpecialFeeSource records why a special fee exists.
type SpecialFeeSource string

const (
	SpecialFeeManual  SpecialFeeSource = "manual"
	SpecialFeeLateFee SpecialFeeSource = "late_fee"
)

// SpecialFee is an out-of-catalog charge for a class or a single student within a term.
type SpecialFee struct {
	ID             string           `json:"id"`
	Scope          SpecialFeeScope  `json:"scope"`
	ClassID        *string          `json:"classID,omitempty"`
	StudentID      *string          `json:"studentID,omitempty"`
	AcademicYearID string           `json:"academicYearID"`
	TermID         string           `json:"termID"`
	CategoryID     string           `json:"categoryID"`
	Amount         decimal.Decimal  `json:"amount"`
	DueDate        time.Time        `json:"dueDate"`
	Reason         string           `json:"reason"`
	Source         SpecialFeeSource `json:"source"`
	IsActive       bool             `json:"isActive"`
	AuditFields
}

// Validate checks that exactly one target matching the scope is set.
func (s SpecialFee) Validate() error {
	switch s.Scope {
	case SpecialFeeClass:
		if s.ClassID == nil || *s.ClassID == "" || s.StudentID != nil {
			return fmt.Errorf("class-scoped special fee needs a class id and no student id")
		}
	case SpecialFeeStudent:
		if s.StudentID == nil || *s.StudentID == "" || s.ClassID != nil {
			return fmt.Errorf("student-scoped special fee needs a student id and no class id")
		}
	default:
		return fmt.Errorf("unknown special fee scope %q", s.Scope)
	}
	if s.TermID == "" || s.CategoryID == "" {
		return fmt.Errorf("term and category are required")
	}
	if !s.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if !IsWholeCents(s.Amount) {
		return fmt.Errorf("amount %s has more than two fractional digits", s.Amount)
	}
	if s.DueDate.IsZero() {
		return fmt.Errorf("due date is required")
	}
	return nil
}
