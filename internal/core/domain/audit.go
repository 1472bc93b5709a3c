package domain

import "time"

// AuditAction names a mutation recorded in the audit log.
type AuditAction string

const (
	AuditCategoryCreated        AuditAction = "fee_category.created"
	AuditStructureCreated       AuditAction = "fee_structure.created"
	AuditStructureUpdated       AuditAction = "fee_structure.updated"
	AuditStructureDeactivated   AuditAction = "fee_structure.deactivated"
	AuditSpecialFeeCreated      AuditAction = "special_fee.created"
	AuditSpecialFeeDeactivated  AuditAction = "special_fee.deactivated"
	AuditInvoiceGenerated       AuditAction = "invoice.generated"
	AuditInvoiceCancelled       AuditAction = "invoice.cancelled"
	AuditPaymentApplied         AuditAction = "payment.applied"
	AuditPaymentConfirmed       AuditAction = "payment.confirmed"
	AuditPaymentFailed          AuditAction = "payment.failed"
	AuditPaymentRefunded        AuditAction = "payment.refunded"
	AuditScholarshipCreated     AuditAction = "scholarship.created"
	AuditScholarshipAssigned    AuditAction = "scholarship.assigned"
	AuditScholarshipApproved    AuditAction = "scholarship.approved"
	AuditScholarshipSuspended   AuditAction = "scholarship.suspended"
	AuditScholarshipTerminated  AuditAction = "scholarship.terminated"
	AuditWaiverRequested        AuditAction = "waiver.requested"
	AuditWaiverApproved         AuditAction = "waiver.approved"
	AuditWaiverRejected         AuditAction = "waiver.rejected"
	AuditLateFeeAccrued         AuditAction = "late_fee.accrued"
	AuditInvoiceStatusRefreshed AuditAction = "invoice.status_refreshed"
)

// AuditEntry is one line of the finance audit log.
type AuditEntry struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actorID"`
	Action     AuditAction       `json:"action"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityID"`
	At         time.Time         `json:"at"`
	Detail     map[string]string `json:"detail,omitempty"`
}

// SystemActorID is recorded for mutations performed by scheduled jobs.
const SystemActorID = "system"

// Entity types recorded in the audit log.
const (
	EntityFeeCategory  = "fee_category"
	EntityFeeStructure = "fee_structure"
	EntitySpecialFee   = "special_fee"
	EntityScholarship  = "scholarship"
	EntityAssignment   = "student_scholarship"
	EntityInvoice      = "invoice"
	EntityPayment      = "payment"
	EntityWaiver       = "fee_waiver"
)
