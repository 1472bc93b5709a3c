package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator. It reads the same `binding` tags gin uses,
// so requests are checked identically whether they arrive over HTTP or from a job.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.SetTagName("binding")
	})
	return validate
}

// Struct validates a request and returns an ErrValidation describing every failed field.
func Struct(req any) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(msgs, "; "))
}

// PositiveMoney checks that an amount is greater than zero and carries at most two decimals.
func PositiveMoney(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", apperrors.ErrValidation, field)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%w: %s must not have more than two decimal places", apperrors.ErrValidation, field)
	}
	return nil
}
