package pgsql

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/models"
	"github.com/SscSPs/school_finance_core/internal/utils/mapping"
)

// PgxAuditRepository appends to finance_audit_log.
type PgxAuditRepository struct {
	BaseRepository
}

var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

func (r *PgxAuditRepository) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	m := mapping.ToModelAuditEntry(entry)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO finance_audit_log (audit_id, actor_id, action, entity_type, entity_id, at, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.AuditID, m.ActorID, m.Action, m.EntityType, m.EntityID, m.At, m.Detail,
	)
	if err != nil {
		return mapInsertError(err, "audit entry "+entry.ID, nil)
	}
	return nil
}

func (r *PgxAuditRepository) ListAuditByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error) {
	ms, err := queryAll[models.AuditEntry](ctx, r.DB, "audit entries", `
		SELECT audit_id, actor_id, action, entity_type, entity_id, at, detail
		FROM finance_audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY seq`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainAuditEntrySlice(ms), nil
}

// PgxSequenceRepository draws invoice and receipt numbers from Postgres sequences.
// nextval is not rolled back with the transaction, so numbers may skip but never repeat.
type PgxSequenceRepository struct {
	BaseRepository
}

var _ portsrepo.SequenceGenerator = (*PgxSequenceRepository)(nil)

func (r *PgxSequenceRepository) next(ctx context.Context, sequence string) (int64, error) {
	var n int64
	if err := r.DB.QueryRow(ctx, `SELECT nextval($1::regclass)`, sequence).Scan(&n); err != nil {
		if isRetryable(err) {
			return 0, err
		}
		return 0, apperrors.NewAppError(500, "failed to draw from "+sequence, err)
	}
	return n, nil
}

func (r *PgxSequenceRepository) NextInvoiceNumber(ctx context.Context) (int64, error) {
	return r.next(ctx, "invoice_number_seq")
}

func (r *PgxSequenceRepository) NextReceiptNumber(ctx context.Context) (int64, error) {
	return r.next(ctx, "receipt_number_seq")
}
