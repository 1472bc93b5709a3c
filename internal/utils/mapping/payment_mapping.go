package mapping

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:         d.ID,
		InvoiceID:         d.InvoiceID,
		StudentID:         d.StudentID,
		Kind:              string(d.Kind),
		Amount:            d.Amount,
		Method:            string(d.Method),
		PaymentDate:       d.PaymentDate,
		DateOnly:          d.DateOnly,
		ReceiptNumber:     d.ReceiptNumber,
		TransactionID:     d.TransactionID,
		ReferenceNumber:   d.ReferenceNumber,
		Status:            string(d.Status),
		OriginalPaymentID: d.OriginalPaymentID,
		WaiverID:          d.WaiverID,
		Notes:             d.Notes,
		RecordedBy:        d.RecordedBy,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		ID:                m.PaymentID,
		InvoiceID:         m.InvoiceID,
		StudentID:         m.StudentID,
		Kind:              domain.EntryKind(m.Kind),
		Amount:            m.Amount,
		Method:            domain.PaymentMethod(m.Method),
		PaymentDate:       m.PaymentDate,
		DateOnly:          m.DateOnly,
		ReceiptNumber:     m.ReceiptNumber,
		TransactionID:     m.TransactionID,
		ReferenceNumber:   m.ReferenceNumber,
		Status:            domain.PaymentStatus(m.Status),
		OriginalPaymentID: m.OriginalPaymentID,
		WaiverID:          m.WaiverID,
		Notes:             m.Notes,
		RecordedBy:        m.RecordedBy,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentSlice converts model Payments to domain Payments
func ToDomainPaymentSlice(ms []models.Payment) []domain.Payment {
	return toDomainSlice(ms, ToDomainPayment)
}

// ToModelFeeWaiver converts a domain FeeWaiver to a model FeeWaiver
func ToModelFeeWaiver(d domain.FeeWaiver) models.FeeWaiver {
	return models.FeeWaiver{
		WaiverID:        d.ID,
		InvoiceID:       d.InvoiceID,
		StudentID:       d.StudentID,
		Amount:          d.Amount,
		Reason:          d.Reason,
		Status:          string(d.Status),
		RequestedBy:     d.RequestedBy,
		DecidedBy:       d.DecidedBy,
		DecidedAt:       d.DecidedAt,
		RejectionReason: d.RejectionReason,
		PaymentID:       d.PaymentID,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFeeWaiver converts a model FeeWaiver to a domain FeeWaiver
func ToDomainFeeWaiver(m models.FeeWaiver) domain.FeeWaiver {
	return domain.FeeWaiver{
		ID:              m.WaiverID,
		InvoiceID:       m.InvoiceID,
		StudentID:       m.StudentID,
		Amount:          m.Amount,
		Reason:          m.Reason,
		Status:          domain.WaiverStatus(m.Status),
		RequestedBy:     m.RequestedBy,
		DecidedBy:       m.DecidedBy,
		DecidedAt:       m.DecidedAt,
		RejectionReason: m.RejectionReason,
		PaymentID:       m.PaymentID,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainFeeWaiverSlice converts model FeeWaivers to domain FeeWaivers
func ToDomainFeeWaiverSlice(ms []models.FeeWaiver) []domain.FeeWaiver {
	return toDomainSlice(ms, ToDomainFeeWaiver)
}

// ToModelLateFeeAccrual converts a domain LateFeeAccrual to a model LateFeeAccrual
func ToModelLateFeeAccrual(d domain.LateFeeAccrual) models.LateFeeAccrual {
	return models.LateFeeAccrual{
		AccrualID:     d.ID,
		InvoiceID:     d.InvoiceID,
		InvoiceItemID: d.InvoiceItemID,
		AccrualMonth:  d.AccrualMonth,
		Billed:        d.Billed,
		SpecialFeeID:  d.SpecialFeeID,
		BilledTermID:  d.BilledTermID,
		Amount:        d.Amount,
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
	}
}

// ToDomainLateFeeAccrual converts a model LateFeeAccrual to a domain LateFeeAccrual
func ToDomainLateFeeAccrual(m models.LateFeeAccrual) domain.LateFeeAccrual {
	return domain.LateFeeAccrual{
		ID:            m.AccrualID,
		InvoiceID:     m.InvoiceID,
		InvoiceItemID: m.InvoiceItemID,
		AccrualMonth:  m.AccrualMonth,
		Billed:        m.Billed,
		SpecialFeeID:  m.SpecialFeeID,
		BilledTermID:  m.BilledTermID,
		Amount:        m.Amount,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

// ToDomainLateFeeAccrualSlice converts model accruals to domain accruals
func ToDomainLateFeeAccrualSlice(ms []models.LateFeeAccrual) []domain.LateFeeAccrual {
	return toDomainSlice(ms, ToDomainLateFeeAccrual)
}
