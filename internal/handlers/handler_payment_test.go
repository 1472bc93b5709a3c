package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

func (suite *InvoiceHandlerTestSuite) TestConfirmPayment_Success() {
	actor := uuid.NewString()
	view := &dto.PaymentView{
		Payment:       domain.Payment{ID: "pay-1", Status: domain.PaymentCompleted, Amount: decimal.RequireFromString("750.00")},
		InvoiceID:     "inv-1",
		InvoiceStatus: domain.InvoicePaid,
	}
	suite.mockLedgerService.On("ConfirmPayment", mock.Anything, "pay-1", actor).Return(view, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/pay-1/confirm", nil, actor)

	suite.Equal(http.StatusOK, w.Code)
	var got dto.PaymentView
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(domain.PaymentCompleted, got.Payment.Status)
	suite.Equal(domain.InvoicePaid, got.InvoiceStatus)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *InvoiceHandlerTestSuite) TestConfirmPayment_NotPending() {
	actor := uuid.NewString()
	suite.mockLedgerService.On("ConfirmPayment", mock.Anything, "pay-2", actor).
		Return(nil, fmt.Errorf("%w: payment pay-2 is completed", apperrors.ErrConflict)).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/pay-2/confirm", nil, actor)

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *InvoiceHandlerTestSuite) TestFailPayment_Success() {
	actor := uuid.NewString()
	view := &dto.PaymentView{
		Payment:       domain.Payment{ID: "pay-1", Status: domain.PaymentFailed},
		InvoiceID:     "inv-1",
		InvoiceStatus: domain.InvoiceUnpaid,
	}
	suite.mockLedgerService.On("FailPayment", mock.Anything, "pay-1", dto.FailPaymentRequest{Reason: "cheque bounced"}, actor).Return(view, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/pay-1/fail", map[string]any{"reason": "cheque bounced"}, actor)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"failed"`)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *InvoiceHandlerTestSuite) TestFailPayment_ReasonRequired() {
	w := suite.do(http.MethodPost, "/api/v1/payments/pay-1/fail", map[string]any{}, uuid.NewString())

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "FailPayment")
}

func (suite *InvoiceHandlerTestSuite) TestAllocatePayment_Success() {
	actor := uuid.NewString()
	result := &domain.AllocationResult{
		StudentID:      "stu-001",
		AcademicYearID: "ay-2024",
		Requested:      decimal.RequireFromString("1200.00"),
		Allocated:      decimal.RequireFromString("1200.00"),
		Remaining:      decimal.Zero,
		Allocations: []domain.Allocation{
			{InvoiceID: "inv-1", Amount: decimal.RequireFromString("1000.00"), PaymentID: "pay-1"},
			{InvoiceID: "inv-2", Amount: decimal.RequireFromString("200.00"), PaymentID: "pay-2"},
		},
	}
	suite.mockLedgerService.On("AllocatePayment", mock.Anything,
		mock.MatchedBy(func(r dto.AllocatePaymentRequest) bool {
			return r.StudentID == "stu-001" && r.Method == domain.MethodCash && r.Amount.Equal(decimal.RequireFromString("1200.00"))
		}), actor).Return(result, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/allocate", map[string]any{
		"studentID":      "stu-001",
		"academicYearID": "ay-2024",
		"amount":         "1200.00",
		"method":         "cash",
	}, actor)

	suite.Equal(http.StatusOK, w.Code)
	var got domain.AllocationResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Len(got.Allocations, 2)
	suite.True(got.Remaining.IsZero())
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *InvoiceHandlerTestSuite) TestAllocatePayment_MissingStudent() {
	w := suite.do(http.MethodPost, "/api/v1/payments/allocate", map[string]any{
		"academicYearID": "ay-2024",
		"amount":         "100.00",
		"method":         "cash",
	}, uuid.NewString())

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "AllocatePayment")
}
