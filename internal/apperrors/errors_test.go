package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestSpecificErrorsWrapKinds(t *testing.T) {
	assert.ErrorIs(t, apperrors.ErrDuplicateInvoice, apperrors.ErrConflict)
	assert.ErrorIs(t, apperrors.ErrScholarshipFull, apperrors.ErrConflict)
	assert.ErrorIs(t, apperrors.ErrRefundExceedsOriginal, apperrors.ErrConflict)
	assert.ErrorIs(t, apperrors.ErrDuplicateStructure, apperrors.ErrConflict)
	assert.NotErrorIs(t, apperrors.ErrDuplicateStructure, apperrors.ErrValidation)
	assert.ErrorIs(t, apperrors.ErrNotEnrolled, apperrors.ErrValidation)
	assert.NotErrorIs(t, apperrors.ErrNotEnrolled, apperrors.ErrConflict)
}

func TestAppError(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("saving invoice: %w", apperrors.NewAppError(500, "failed to insert invoice", cause))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.Contains(t, err.Error(), "failed to insert invoice: connection reset")

	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.Code)

	assert.NotErrorIs(t, apperrors.NewAppError(404, "missing", nil), apperrors.ErrInternal)
}
