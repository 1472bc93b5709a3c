package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType is how a scholarship's value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Scholarship is a discount rule scoped to an academic year and optionally to terms and categories.
type Scholarship struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Criteria       string          `json:"criteria"` // e.g. merit, need, sibling, staff
	DiscountType   DiscountType    `json:"discountType"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	AcademicYearID string          `json:"academicYearID"`
	// ApplicableTermIDs empty means every term of the year.
	ApplicableTermIDs []string `json:"applicableTermIDs"`
	// ApplicableCategories holds category names; empty means the whole bill.
	ApplicableCategories []string `json:"applicableCategories"`
	MaxRecipients        *int     `json:"maxRecipients,omitempty"`
	CurrentRecipients    int      `json:"currentRecipients"`
	IsActive             bool     `json:"isActive"`
	AuditFields
}

// Validate enforces value and capacity invariants.
func (s Scholarship) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scholarship name is required")
	}
	if s.AcademicYearID == "" {
		return fmt.Errorf("academic year is required")
	}
	switch s.DiscountType {
	case DiscountPercentage:
		if !s.DiscountValue.IsPositive() || s.DiscountValue.GreaterThan(hundred) {
			return fmt.Errorf("percentage discount must be in (0, 100], got %s", s.DiscountValue)
		}
	case DiscountFixed:
		if !s.DiscountValue.IsPositive() {
			return fmt.Errorf("fixed discount must be positive, got %s", s.DiscountValue)
		}
		if !IsWholeCents(s.DiscountValue) {
			return fmt.Errorf("fixed discount %s has more than two fractional digits", s.DiscountValue)
		}
	default:
		return fmt.Errorf("unknown discount type %q", s.DiscountType)
	}
	if s.MaxRecipients != nil && *s.MaxRecipients < 1 {
		return fmt.Errorf("max recipients must be at least 1 when set")
	}
	if s.CurrentRecipients < 0 {
		return fmt.Errorf("current recipients must not be negative")
	}
	if s.MaxRecipients != nil && s.CurrentRecipients > *s.MaxRecipients {
		return fmt.Errorf("current recipients %d exceed max recipients %d", s.CurrentRecipients, *s.MaxRecipients)
	}
	return nil
}

// AppliesToTerm reports whether the scholarship covers termID.
func (s Scholarship) AppliesToTerm(termID string) bool {
	if len(s.ApplicableTermIDs) == 0 {
		return true
	}
	for _, id := range s.ApplicableTermIDs {
		if id == termID {
			return true
		}
	}
	return false
}

// CoversAllCategories is true when no category scope is set.
func (s Scholarship) CoversAllCategories() bool {
	return len(s.ApplicableCategories) == 0
}

// CoversCategory reports whether a category name is inside the scholarship's scope.
func (s Scholarship) CoversCategory(name string) bool {
	if s.CoversAllCategories() {
		return true
	}
	for _, c := range s.ApplicableCategories {
		if c == name {
			return true
		}
	}
	return false
}

// HasCapacity reports whether one more approval fits.
func (s Scholarship) HasCapacity() bool {
	return s.MaxRecipients == nil || s.CurrentRecipients < *s.MaxRecipients
}

// AssignmentStatus is the lifecycle of a student scholarship.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentApproved   AssignmentStatus = "approved"
	AssignmentSuspended  AssignmentStatus = "suspended"
	AssignmentTerminated AssignmentStatus = "terminated"
)

// StudentScholarship assigns a scholarship to a student.
// A student holds at most one non-terminal assignment per scholarship.
type StudentScholarship struct {
	ID            string           `json:"id"`
	StudentID     string           `json:"studentID"`
	ScholarshipID string           `json:"scholarshipID"`
	StartDate     time.Time        `json:"startDate"`
	EndDate       *time.Time       `json:"endDate,omitempty"`
	Status        AssignmentStatus `json:"status"`
	ApprovedBy    *string          `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time       `json:"approvedAt,omitempty"`
	Notes         string           `json:"notes"`
	AuditFields
}

// IsTerminal is true once the assignment is terminated.
func (a StudentScholarship) IsTerminal() bool {
	return a.Status == AssignmentTerminated
}

// IsEffectiveOn reports whether an approved assignment covers today.
func (a StudentScholarship) IsEffectiveOn(today time.Time) bool {
	if a.Status != AssignmentApproved {
		return false
	}
	if IsAfterDate(a.StartDate, today) {
		return false
	}
	if a.EndDate != nil && IsAfterDate(today, *a.EndDate) {
		return false
	}
	return true
}

// Applicability classifies how an effective scholarship touches a bill.
type Applicability string

const (
	ApplicabilityAllCategories Applicability = "all_categories"
	ApplicabilityCategories    Applicability = "category_scoped"
)

// EffectiveScholarship pairs a scholarship with the assignment that makes it effective.
type EffectiveScholarship struct {
	Scholarship   Scholarship        `json:"scholarship"`
	Assignment    StudentScholarship `json:"assignment"`
	Applicability Applicability      `json:"applicability"`
}
