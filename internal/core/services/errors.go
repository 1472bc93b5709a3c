package services

import (
	"errors"
	"fmt"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
)

// isBusinessError reports rejections the caller can fix, as opposed to infrastructure failures.
func isBusinessError(err error) bool {
	return errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrForbidden)
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, fmt.Sprintf(format, args...))
}

func conflictErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrConflict, fmt.Sprintf(format, args...))
}

// asValidation wraps a domain invariant failure as a validation error.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}
