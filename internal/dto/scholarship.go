package dto

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateScholarshipRequest defines the data needed to create a scholarship rule.
type CreateScholarshipRequest struct {
	Name                 string              `json:"name" binding:"required,max=200"`
	Criteria             string              `json:"criteria" binding:"required,max=50"`
	DiscountType         domain.DiscountType `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue        decimal.Decimal     `json:"discountValue"`
	AcademicYearID       string              `json:"academicYearID" binding:"required"`
	ApplicableTermIDs    []string            `json:"applicableTermIDs" binding:"omitempty,dive,required"`
	ApplicableCategories []string            `json:"applicableCategories" binding:"omitempty,dive,required"`
	MaxRecipients        *int                `json:"maxRecipients" binding:"omitempty,min=1"`
}

// AssignScholarshipRequest assigns a scholarship to a student. New assignments start pending.
type AssignScholarshipRequest struct {
	StudentID     string  `json:"studentID" binding:"required"`
	ScholarshipID string  `json:"scholarshipID" binding:"required"`
	StartDate     string  `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate       *string `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
	Notes         string  `json:"notes" binding:"max=1000"`
}

// ScholarshipTransitionRequest carries the note recorded with a suspension or termination.
type ScholarshipTransitionRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}
