package dto

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateFeeCategoryRequest defines the data needed to create a fee category.
type CreateFeeCategoryRequest struct {
	Name        string               `json:"name" binding:"required,max=100"`
	Description string               `json:"description" binding:"max=500"`
	IsMandatory bool                 `json:"isMandatory"`
	Frequency   *domain.FeeFrequency `json:"frequency" binding:"omitempty,oneof=once termly monthly yearly"`
}

// CreateFeeStructureRequest defines the data needed to price a category for a level and term.
type CreateFeeStructureRequest struct {
	AcademicYearID    string           `json:"academicYearID" binding:"required"`
	TermID            string           `json:"termID" binding:"required"`
	LevelKind         domain.LevelKind `json:"levelKind" binding:"required,oneof=section grade"`
	LevelID           string           `json:"levelID" binding:"required"`
	CategoryID        string           `json:"categoryID" binding:"required"`
	Amount            decimal.Decimal  `json:"amount"`
	DueDate           string           `json:"dueDate" binding:"required,datetime=2006-01-02"`
	LateFeePercentage decimal.Decimal  `json:"lateFeePercentage"`
	GracePeriodDays   int              `json:"gracePeriodDays" binding:"min=0"`
}

// UpdateFeeStructureRequest defines the fields of a fee structure that may change.
// Issued invoices keep the values they were created with.
type UpdateFeeStructureRequest struct {
	Amount            *decimal.Decimal `json:"amount"`
	DueDate           *string          `json:"dueDate" binding:"omitempty,datetime=2006-01-02"`
	LateFeePercentage *decimal.Decimal `json:"lateFeePercentage"`
	GracePeriodDays   *int             `json:"gracePeriodDays" binding:"omitempty,min=0"`
	IsActive          *bool            `json:"isActive"`
}

// CreateSpecialFeeRequest defines a class-wide or single-student charge.
type CreateSpecialFeeRequest struct {
	Scope          domain.SpecialFeeScope `json:"scope" binding:"required,oneof=class student"`
	ClassID        *string                `json:"classID" binding:"required_if=Scope class,excluded_if=Scope student"`
	StudentID      *string                `json:"studentID" binding:"required_if=Scope student,excluded_if=Scope class"`
	AcademicYearID string                 `json:"academicYearID" binding:"required"`
	TermID         string                 `json:"termID" binding:"required"`
	CategoryID     string                 `json:"categoryID" binding:"required"`
	Amount         decimal.Decimal        `json:"amount"`
	DueDate        string                 `json:"dueDate" binding:"required,datetime=2006-01-02"`
	Reason         string                 `json:"reason" binding:"required,max=500"`
}

// ListFeeStructuresParams filters fee structure listings.
type ListFeeStructuresParams struct {
	AcademicYearID string  `form:"academicYearID" binding:"required"`
	TermID         *string `form:"termID"`
}
