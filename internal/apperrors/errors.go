package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrConflict indicates the request clashes with current state (duplicates, exhausted capacity).
var ErrConflict = errors.New("conflict")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = fmt.Errorf("%w: resource already exists", ErrConflict)

// ErrConcurrency indicates a serialization failure or sequence race that survived the retry budget.
var ErrConcurrency = errors.New("concurrent modification, retry later")

// ErrUnauthorized indicates the caller is not authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller may not perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// Finance specific errors. Each wraps one of the kinds above.
var (
	ErrDuplicateInvoice      = fmt.Errorf("%w: an active invoice already exists for this student and term", ErrConflict)
	ErrScholarshipFull       = fmt.Errorf("%w: scholarship has no remaining slots", ErrConflict)
	ErrRefundExceedsOriginal = fmt.Errorf("%w: refund exceeds the refundable amount", ErrConflict)
	ErrDuplicateStructure    = fmt.Errorf("%w: an active fee structure already exists for this year, term, level and category", ErrConflict)
	ErrNotEnrolled           = fmt.Errorf("%w: student has no current class", ErrValidation)
)

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInternal) match 5xx AppErrors.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= 500
}
