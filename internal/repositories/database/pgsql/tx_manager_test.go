package pgsql

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

func TestBackoff_DoublesWithJitter(t *testing.T) {
	base := 10 * time.Millisecond
	for attempt := 1; attempt <= 4; attempt++ {
		floor := base << (attempt - 1)
		for i := 0; i < 20; i++ {
			d := backoff(base, attempt)
			assert.GreaterOrEqual(t, d, floor)
			assert.Less(t, d, 2*floor)
		}
	}
	assert.Zero(t, backoff(0, 3))
}

func TestShouldRetry(t *testing.T) {
	serialization := &pgconn.PgError{Code: codeSerializationFailure}
	deadlock := &pgconn.PgError{Code: codeDeadlockDetected}
	unique := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "uq_payments_receipt"}

	assert.True(t, shouldRetry(serialization))
	assert.True(t, shouldRetry(fmt.Errorf("commit: %w", deadlock)))
	assert.True(t, shouldRetry(fmt.Errorf("%w: receipt taken", apperrors.ErrConcurrency)))
	assert.False(t, shouldRetry(unique))
	assert.False(t, shouldRetry(apperrors.ErrNotFound))
	assert.False(t, shouldRetry(errors.New("boom")))
}

func TestMapInsertError(t *testing.T) {
	err := mapInsertError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "ux_invoices_active"}, "invoice INV000001", invoiceConstraints)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateInvoice)

	err = mapInsertError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "uq_invoices_number"}, "invoice INV000001", invoiceConstraints)
	assert.ErrorIs(t, err, apperrors.ErrConcurrency)

	err = mapInsertError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "pk_somewhere"}, "row", nil)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	serialization := &pgconn.PgError{Code: codeSerializationFailure}
	assert.Same(t, serialization, mapInsertError(serialization, "row", nil))

	var appErr *apperrors.AppError
	require.ErrorAs(t, mapInsertError(errors.New("connection reset"), "row", nil), &appErr)
	assert.Equal(t, 500, appErr.Code)
}

func TestInvoiceWhere(t *testing.T) {
	where, args := invoiceWhere(domain.InvoiceFilter{}, nil)
	assert.Empty(t, where)
	assert.Empty(t, args)

	term := "term-1"
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	where, args = invoiceWhere(domain.InvoiceFilter{
		AcademicYearID: "ay-2024",
		TermID:         &term,
		DueBefore:      &due,
		Statuses:       []domain.InvoiceStatus{domain.InvoiceOverdue},
	}, []any{"from", "to"})
	assert.Equal(t, " WHERE i.academic_year_id = $3 AND i.term_id = $4 AND i.due_date < $5 AND i.status = ANY($6::text[])", where)
	require.Len(t, args, 6)
	assert.Equal(t, []string{string(domain.InvoiceOverdue)}, args[5])
}
