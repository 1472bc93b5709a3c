package mapping

import (
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/models"
)

// ToModelAuditFields converts a domain AuditFields to a model AuditFields
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
		LastUpdatedAt: d.LastUpdatedAt,
		LastUpdatedBy: d.LastUpdatedBy,
	}
}

// ToDomainAuditFields converts a model AuditFields to a domain AuditFields
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
		LastUpdatedAt: m.LastUpdatedAt,
		LastUpdatedBy: m.LastUpdatedBy,
	}
}

// ToModelAuditEntry converts a domain AuditEntry to a model AuditEntry
func ToModelAuditEntry(d domain.AuditEntry) models.AuditEntry {
	detail := d.Detail
	if detail == nil {
		detail = map[string]string{}
	}
	return models.AuditEntry{
		AuditID:    d.ID,
		ActorID:    d.ActorID,
		Action:     string(d.Action),
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		At:         d.At,
		Detail:     detail,
	}
}

// ToDomainAuditEntry converts a model AuditEntry to a domain AuditEntry
func ToDomainAuditEntry(m models.AuditEntry) domain.AuditEntry {
	return domain.AuditEntry{
		ID:         m.AuditID,
		ActorID:    m.ActorID,
		Action:     domain.AuditAction(m.Action),
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		At:         m.At,
		Detail:     m.Detail,
	}
}

// toDomainSlice converts every element of ms with fn.
func toDomainSlice[M, D any](ms []M, fn func(M) D) []D {
	ds := make([]D, len(ms))
	for i, m := range ms {
		ds[i] = fn(m)
	}
	return ds
}

// ToDomainAuditEntrySlice converts a slice of model AuditEntries to domain AuditEntries
func ToDomainAuditEntrySlice(ms []models.AuditEntry) []domain.AuditEntry {
	return toDomainSlice(ms, ToDomainAuditEntry)
}
