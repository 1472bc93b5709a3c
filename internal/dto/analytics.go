package dto

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// AnalyticsScopeParams binds the scope filter from the query string.
type AnalyticsScopeParams struct {
	AcademicYearID string  `form:"academicYearID" binding:"required"`
	TermID         *string `form:"termID"`
	SectionID      *string `form:"sectionID"`
	GradeID        *string `form:"gradeID"`
}

// Scope converts the params into a domain scope.
func (p AnalyticsScopeParams) Scope() domain.AnalyticsScope {
	return domain.AnalyticsScope{
		AcademicYearID: p.AcademicYearID,
		TermID:         p.TermID,
		SectionID:      p.SectionID,
		GradeID:        p.GradeID,
	}
}

// PaymentTrendsParams adds the date window to a scope. To is inclusive.
type PaymentTrendsParams struct {
	AnalyticsScopeParams
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}

// DefaulterParams adds the overdue threshold in days to a scope.
type DefaulterParams struct {
	AnalyticsScopeParams
	Days *int `form:"days" binding:"omitempty,min=0"`
}
