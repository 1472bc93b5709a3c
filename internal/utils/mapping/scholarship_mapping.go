package mapping

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/models"
)

// nonNil keeps empty TEXT[] columns from being written as NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ToModelScholarship converts a domain Scholarship to a model Scholarship
func ToModelScholarship(d domain.Scholarship) models.Scholarship {
	return models.Scholarship{
		ScholarshipID:        d.ID,
		Name:                 d.Name,
		Criteria:             d.Criteria,
		DiscountType:         string(d.DiscountType),
		DiscountValue:        d.DiscountValue,
		AcademicYearID:       d.AcademicYearID,
		ApplicableTermIDs:    nonNil(d.ApplicableTermIDs),
		ApplicableCategories: nonNil(d.ApplicableCategories),
		MaxRecipients:        d.MaxRecipients,
		CurrentRecipients:    d.CurrentRecipients,
		IsActive:             d.IsActive,
		AuditFields:          ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainScholarship converts a model Scholarship to a domain Scholarship
func ToDomainScholarship(m models.Scholarship) domain.Scholarship {
	return domain.Scholarship{
		ID:                   m.ScholarshipID,
		Name:                 m.Name,
		Criteria:             m.Criteria,
		DiscountType:         domain.DiscountType(m.DiscountType),
		DiscountValue:        m.DiscountValue,
		AcademicYearID:       m.AcademicYearID,
		ApplicableTermIDs:    nonNil(m.ApplicableTermIDs),
		ApplicableCategories: nonNil(m.ApplicableCategories),
		MaxRecipients:        m.MaxRecipients,
		CurrentRecipients:    m.CurrentRecipients,
		IsActive:             m.IsActive,
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainScholarshipSlice converts model Scholarships to domain Scholarships
func ToDomainScholarshipSlice(ms []models.Scholarship) []domain.Scholarship {
	return toDomainSlice(ms, ToDomainScholarship)
}

// ToModelStudentScholarship converts a domain StudentScholarship to a model StudentScholarship
func ToModelStudentScholarship(d domain.StudentScholarship) models.StudentScholarship {
	return models.StudentScholarship{
		AssignmentID:  d.ID,
		StudentID:     d.StudentID,
		ScholarshipID: d.ScholarshipID,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		Status:        string(d.Status),
		ApprovedBy:    d.ApprovedBy,
		ApprovedAt:    d.ApprovedAt,
		Notes:         d.Notes,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainStudentScholarship converts a model StudentScholarship to a domain StudentScholarship
func ToDomainStudentScholarship(m models.StudentScholarship) domain.StudentScholarship {
	return domain.StudentScholarship{
		ID:            m.AssignmentID,
		StudentID:     m.StudentID,
		ScholarshipID: m.ScholarshipID,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		Status:        domain.AssignmentStatus(m.Status),
		ApprovedBy:    m.ApprovedBy,
		ApprovedAt:    m.ApprovedAt,
		Notes:         m.Notes,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainStudentScholarshipSlice converts model assignments to domain assignments
func ToDomainStudentScholarshipSlice(ms []models.StudentScholarship) []domain.StudentScholarship {
	return toDomainSlice(ms, ToDomainStudentScholarship)
}
