package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scholarship is a row of scholarships. The applicability lists are TEXT[] columns.
type Scholarship struct {
	ScholarshipID        string          `db:"scholarship_id"`
	Name                 string          `db:"name"`
	Criteria             string          `db:"criteria"`
	DiscountType         string          `db:"discount_type"`
	DiscountValue        decimal.Decimal `db:"discount_value"`
	AcademicYearID       string          `db:"academic_year_id"`
	ApplicableTermIDs    []string        `db:"applicable_term_ids"`
	ApplicableCategories []string        `db:"applicable_categories"`
	MaxRecipients        *int            `db:"max_recipients"` // Nullable: unlimited
	CurrentRecipients    int             `db:"current_recipients"`
	IsActive             bool            `db:"is_active"`
	AuditFields
}

// StudentScholarship is a row of student_scholarships.
type StudentScholarship struct {
	AssignmentID  string     `db:"assignment_id"`
	StudentID     string     `db:"student_id"`
	ScholarshipID string     `db:"scholarship_id"`
	StartDate     time.Time  `db:"start_date"`
	EndDate       *time.Time `db:"end_date"`
	Status        string     `db:"status"`
	ApprovedBy    *string    `db:"approved_by"`
	ApprovedAt    *time.Time `db:"approved_at"`
	Notes         string     `db:"notes"`
	AuditFields
}
