package mapping

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/models"
)

// ToModelFeeCategory converts a domain FeeCategory to a model FeeCategory
func ToModelFeeCategory(d domain.FeeCategory) models.FeeCategory {
	var freq *string
	if d.Frequency != nil {
		f := string(*d.Frequency)
		freq = &f
	}
	return models.FeeCategory{
		CategoryID:  d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsMandatory: d.IsMandatory,
		Frequency:   freq,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFeeCategory converts a model FeeCategory to a domain FeeCategory
func ToDomainFeeCategory(m models.FeeCategory) domain.FeeCategory {
	var freq *domain.FeeFrequency
	if m.Frequency != nil {
		f := domain.FeeFrequency(*m.Frequency)
		freq = &f
	}
	return domain.FeeCategory{
		ID:          m.CategoryID,
		Name:        m.Name,
		Description: m.Description,
		IsMandatory: m.IsMandatory,
		Frequency:   freq,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainFeeCategorySlice converts model FeeCategories to domain FeeCategories
func ToDomainFeeCategorySlice(ms []models.FeeCategory) []domain.FeeCategory {
	return toDomainSlice(ms, ToDomainFeeCategory)
}

// ToModelFeeStructure converts a domain FeeStructure to a model FeeStructure
func ToModelFeeStructure(d domain.FeeStructure) models.FeeStructure {
	return models.FeeStructure{
		StructureID:       d.ID,
		AcademicYearID:    d.AcademicYearID,
		TermID:            d.TermID,
		LevelKind:         string(d.Level.Kind),
		LevelID:           d.Level.ID,
		CategoryID:        d.CategoryID,
		Amount:            d.Amount,
		DueDate:           d.DueDate,
		LateFeePercentage: d.LateFeePercentage,
		GracePeriodDays:   d.GracePeriodDays,
		IsActive:          d.IsActive,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFeeStructure converts a model FeeStructure to a domain FeeStructure
func ToDomainFeeStructure(m models.FeeStructure) domain.FeeStructure {
	return domain.FeeStructure{
		ID:                m.StructureID,
		AcademicYearID:    m.AcademicYearID,
		TermID:            m.TermID,
		Level:             domain.FeeLevel{Kind: domain.LevelKind(m.LevelKind), ID: m.LevelID},
		CategoryID:        m.CategoryID,
		Amount:            m.Amount,
		DueDate:           m.DueDate,
		LateFeePercentage: m.LateFeePercentage,
		GracePeriodDays:   m.GracePeriodDays,
		IsActive:          m.IsActive,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainFeeStructureSlice converts model FeeStructures to domain FeeStructures
func ToDomainFeeStructureSlice(ms []models.FeeStructure) []domain.FeeStructure {
	return toDomainSlice(ms, ToDomainFeeStructure)
}

// ToModelSpecialFee converts a domain SpecialFee to a model SpecialFee
func ToModelSpecialFee(d domain.SpecialFee) models.SpecialFee {
	return models.SpecialFee{
		SpecialFeeID:   d.ID,
		Scope:          string(d.Scope),
		ClassID:        d.ClassID,
		StudentID:      d.StudentID,
		AcademicYearID: d.AcademicYearID,
		TermID:         d.TermID,
		CategoryID:     d.CategoryID,
		Amount:         d.Amount,
		DueDate:        d.DueDate,
		Reason:         d.Reason,
		Source:         string(d.Source),
		IsActive:       d.IsActive,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSpecialFee converts a model SpecialFee to a domain SpecialFee
func ToDomainSpecialFee(m models.SpecialFee) domain.SpecialFee {
	return domain.SpecialFee{
		ID:             m.SpecialFeeID,
		Scope:          domain.SpecialFeeScope(m.Scope),
		ClassID:        m.ClassID,
		StudentID:      m.StudentID,
		AcademicYearID: m.AcademicYearID,
		TermID:         m.TermID,
		CategoryID:     m.CategoryID,
		Amount:         m.Amount,
		DueDate:        m.DueDate,
		Reason:         m.Reason,
		Source:         domain.SpecialFeeSource(m.Source),
		IsActive:       m.IsActive,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainSpecialFeeSlice converts model SpecialFees to domain SpecialFees
func ToDomainSpecialFeeSlice(ms []models.SpecialFee) []domain.SpecialFee {
	return toDomainSlice(ms, ToDomainSpecialFee)
}
