package mapping

import (
	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/models"
)

// ToModelInvoice converts a domain Invoice header to a model Invoice
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:      d.ID,
		InvoiceNumber:  d.InvoiceNumber,
		StudentID:      d.StudentID,
		AcademicYearID: d.AcademicYearID,
		TermID:         d.TermID,
		ClassID:        d.ClassID,
		GradeID:        d.GradeID,
		SectionID:      d.SectionID,
		IssueDate:      d.IssueDate,
		DueDate:        d.DueDate,
		TotalAmount:    d.TotalAmount,
		DiscountAmount: d.DiscountAmount,
		NetAmount:      d.NetAmount,
		PaidAmount:     d.PaidAmount,
		Status:         string(d.Status),
		CancelledAt:    d.CancelledAt,
		CancelledBy:    d.CancelledBy,
		CancelReason:   d.CancelReason,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInvoice converts a model Invoice to a domain Invoice without items
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		ID:             m.InvoiceID,
		InvoiceNumber:  m.InvoiceNumber,
		StudentID:      m.StudentID,
		AcademicYearID: m.AcademicYearID,
		TermID:         m.TermID,
		ClassID:        m.ClassID,
		GradeID:        m.GradeID,
		SectionID:      m.SectionID,
		IssueDate:      m.IssueDate,
		DueDate:        m.DueDate,
		TotalAmount:    m.TotalAmount,
		DiscountAmount: m.DiscountAmount,
		NetAmount:      m.NetAmount,
		PaidAmount:     m.PaidAmount,
		Status:         domain.InvoiceStatus(m.Status),
		CancelledAt:    m.CancelledAt,
		CancelledBy:    m.CancelledBy,
		CancelReason:   m.CancelReason,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainInvoiceSlice converts model Invoices to domain Invoices
func ToDomainInvoiceSlice(ms []models.Invoice) []domain.Invoice {
	return toDomainSlice(ms, ToDomainInvoice)
}

// ToModelInvoiceItem converts a domain InvoiceItem to a model InvoiceItem
func ToModelInvoiceItem(d domain.InvoiceItem) models.InvoiceItem {
	pct := decimal.NullDecimal{}
	if d.LateFeePercentage != nil {
		pct = decimal.NewNullDecimal(*d.LateFeePercentage)
	}
	return models.InvoiceItem{
		ItemID:            d.ID,
		InvoiceID:         d.InvoiceID,
		Position:          d.Position,
		Kind:              string(d.Kind),
		FeeStructureID:    d.FeeStructureID,
		SpecialFeeID:      d.SpecialFeeID,
		CategoryID:        d.CategoryID,
		CategoryName:      d.CategoryName,
		Description:       d.Description,
		Amount:            d.Amount,
		DiscountAmount:    d.DiscountAmount,
		NetAmount:         d.NetAmount,
		DueDate:           d.DueDate,
		LateFeePercentage: pct,
		GracePeriodDays:   d.GracePeriodDays,
	}
}

// ToDomainInvoiceItem converts a model InvoiceItem to a domain InvoiceItem
func ToDomainInvoiceItem(m models.InvoiceItem) domain.InvoiceItem {
	var pct *decimal.Decimal
	if m.LateFeePercentage.Valid {
		v := m.LateFeePercentage.Decimal
		pct = &v
	}
	return domain.InvoiceItem{
		ID:                m.ItemID,
		InvoiceID:         m.InvoiceID,
		Position:          m.Position,
		Kind:              domain.FeeItemKind(m.Kind),
		FeeStructureID:    m.FeeStructureID,
		SpecialFeeID:      m.SpecialFeeID,
		CategoryID:        m.CategoryID,
		CategoryName:      m.CategoryName,
		Description:       m.Description,
		Amount:            m.Amount,
		DiscountAmount:    m.DiscountAmount,
		NetAmount:         m.NetAmount,
		DueDate:           m.DueDate,
		LateFeePercentage: pct,
		GracePeriodDays:   m.GracePeriodDays,
	}
}

// ToDomainInvoiceItemSlice converts model InvoiceItems to domain InvoiceItems
func ToDomainInvoiceItemSlice(ms []models.InvoiceItem) []domain.InvoiceItem {
	return toDomainSlice(ms, ToDomainInvoiceItem)
}

// ToModelInvoiceScholarship converts a domain attribution to a model attribution
func ToModelInvoiceScholarship(d domain.InvoiceScholarship) models.InvoiceScholarship {
	return models.InvoiceScholarship{
		InvoiceID:     d.InvoiceID,
		ScholarshipID: d.ScholarshipID,
		StudentID:     d.StudentID,
		Criteria:      d.Criteria,
		DiscountType:  string(d.DiscountType),
		Amount:        d.Amount,
	}
}

// ToDomainInvoiceScholarship converts a model attribution to a domain attribution
func ToDomainInvoiceScholarship(m models.InvoiceScholarship) domain.InvoiceScholarship {
	return domain.InvoiceScholarship{
		InvoiceID:     m.InvoiceID,
		ScholarshipID: m.ScholarshipID,
		StudentID:     m.StudentID,
		Criteria:      m.Criteria,
		DiscountType:  domain.DiscountType(m.DiscountType),
		Amount:        m.Amount,
	}
}

// ToDomainInvoiceScholarshipSlice converts model attributions to domain attributions
func ToDomainInvoiceScholarshipSlice(ms []models.InvoiceScholarship) []domain.InvoiceScholarship {
	return toDomainSlice(ms, ToDomainInvoiceScholarship)
}
