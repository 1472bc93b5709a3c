package services_test

import (
	"strings"
	"time"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

func (suite *FinanceSuite) TestApplyPayment_OverpaymentThenRefund() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	suite.requireMoney("500.00", inv.NetAmount)

	payment := suite.pay(inv.ID, "700.00")
	suite.requireMoney("700.00", payment.PaidAmount)
	suite.requireMoney("-200.00", payment.Outstanding)
	suite.Equal(domain.InvoicePaid, payment.InvoiceStatus)
	suite.True(strings.HasPrefix(payment.Payment.ReceiptNumber, "RCPT"))

	refund, err := suite.svc.Ledger.Refund(suite.ctx, payment.Payment.ID, dto.RefundRequest{Amount: money("200.00"), Reason: "overpaid"}, admin)
	suite.Require().NoError(err)
	suite.requireMoney("-200.00", refund.Payment.Amount)
	suite.Equal(domain.EntryRefund, refund.Payment.Kind)
	suite.Equal("REFUND-"+payment.Payment.ReceiptNumber, refund.Payment.ReceiptNumber)
	suite.requireMoney("500.00", refund.PaidAmount)
	suite.requireMoney("0.00", refund.Outstanding)
	suite.Equal(domain.InvoicePaid, refund.InvoiceStatus)

	original, err := suite.svc.Ledger.GetPayment(suite.ctx, payment.Payment.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentCompleted, original.Payment.Status)

	view := suite.requireConsistent(inv.ID)
	suite.Len(view.Payments, 2)
}

func (suite *FinanceSuite) TestRefund_RoundTripRestoresState() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)

	payment := suite.pay(inv.ID, "300.00")
	suite.Equal(domain.InvoicePartiallyPaid, payment.InvoiceStatus)

	refund, err := suite.svc.Ledger.Refund(suite.ctx, payment.Payment.ID, dto.RefundRequest{Amount: money("300.00"), Reason: "bounced"}, admin)
	suite.Require().NoError(err)
	suite.requireMoney("0.00", refund.PaidAmount)
	suite.Equal(domain.InvoiceUnpaid, refund.InvoiceStatus)

	original, err := suite.svc.Ledger.GetPayment(suite.ctx, payment.Payment.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentRefunded, original.Payment.Status)
	suite.requireConsistent(inv.ID)
}

func (suite *FinanceSuite) TestRefund_PartialRefundsAccumulate() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	payment := suite.pay(inv.ID, "500.00")

	first, err := suite.svc.Ledger.Refund(suite.ctx, payment.Payment.ID, dto.RefundRequest{Amount: money("200.00"), Reason: "sibling discount"}, admin)
	suite.Require().NoError(err)
	suite.Equal("REFUND-"+payment.Payment.ReceiptNumber, first.Payment.ReceiptNumber)

	_, err = suite.svc.Ledger.Refund(suite.ctx, payment.Payment.ID, dto.RefundRequest{Amount: money("300.01"), Reason: "too much"}, admin)
	suite.ErrorIs(err, apperrors.ErrRefundExceedsOriginal)

	second, err := suite.svc.Ledger.Refund(suite.ctx, payment.Payment.ID, dto.RefundRequest{Amount: money("300.00"), Reason: "withdrawal"}, admin)
	suite.Require().NoError(err)
	suite.Equal("REFUND-"+payment.Payment.ReceiptNumber+"-2", second.Payment.ReceiptNumber)
	suite.requireMoney("0.00", second.PaidAmount)

	original, err := suite.svc.Ledger.GetPayment(suite.ctx, payment.Payment.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentRefunded, original.Payment.Status)

	_, err = suite.svc.Ledger.Refund(suite.ctx, payment.Payment.ID, dto.RefundRequest{Amount: money("1.00"), Reason: "again"}, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)

	_, err = suite.svc.Ledger.Refund(suite.ctx, first.Payment.ID, dto.RefundRequest{Amount: money("1.00"), Reason: "refund of refund"}, admin)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.requireConsistent(inv.ID)
}

func (suite *FinanceSuite) TestRefund_ExceedsOriginal() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	payment := suite.pay(inv.ID, "500.00")

	_, err := suite.svc.Ledger.Refund(suite.ctx, payment.Payment.ID, dto.RefundRequest{Amount: money("600.00"), Reason: "typo"}, admin)
	suite.ErrorIs(err, apperrors.ErrRefundExceedsOriginal)
	suite.ErrorIs(err, apperrors.ErrConflict)

	view := suite.requireConsistent(inv.ID)
	suite.Len(view.Payments, 1)
	suite.requireMoney("500.00", view.Invoice.PaidAmount)
}

func (suite *FinanceSuite) TestApplyPayment_ValidatesInput() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)

	cases := []struct {
		name string
		req  dto.ApplyPaymentRequest
	}{
		{"zero amount", dto.ApplyPaymentRequest{Amount: money("0"), Method: domain.MethodCash}},
		{"negative amount", dto.ApplyPaymentRequest{Amount: money("-5.00"), Method: domain.MethodCash}},
		{"sub-cent amount", dto.ApplyPaymentRequest{Amount: money("10.005"), Method: domain.MethodCash}},
		{"card without transaction id", dto.ApplyPaymentRequest{Amount: money("10.00"), Method: domain.MethodCreditCard}},
		{"transfer without reference", dto.ApplyPaymentRequest{Amount: money("10.00"), Method: domain.MethodBankTransfer}},
		{"waiver is not a tender", dto.ApplyPaymentRequest{Amount: money("10.00"), Method: domain.MethodWaiver}},
	}
	for _, tc := range cases {
		_, err := suite.svc.Ledger.ApplyPayment(suite.ctx, inv.ID, tc.req, admin)
		suite.ErrorIs(err, apperrors.ErrValidation, tc.name)
	}
	suite.Empty(suite.invoice(inv.ID).Payments)

	_, err := suite.svc.Ledger.ApplyPayment(suite.ctx, "missing", dto.ApplyPaymentRequest{Amount: money("10.00"), Method: domain.MethodCash}, admin)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *FinanceSuite) TestApplyPayment_CardWithTransactionID() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	txn := "ch_123"
	date := "2024-04-14"

	view, err := suite.svc.Ledger.ApplyPayment(suite.ctx, inv.ID, dto.ApplyPaymentRequest{
		Amount:        money("500.00"),
		Method:        domain.MethodCreditCard,
		TransactionID: &txn,
		PaymentDate:   &date,
	}, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentCompleted, view.Payment.Status)
	suite.Equal(domain.MustDate("2024-04-14"), view.Payment.PaymentDate)
	suite.True(view.Payment.DateOnly)
	suite.Equal(domain.InvoicePaid, view.InvoiceStatus)
}

func (suite *FinanceSuite) TestApplyPayment_TimestampKeepsTimeOfDay() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	at := "2024-04-14T16:45:00+02:00"

	view, err := suite.svc.Ledger.ApplyPayment(suite.ctx, inv.ID, dto.ApplyPaymentRequest{Amount: money("100.00"), Method: domain.MethodCash, PaymentDate: &at}, admin)
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, time.April, 14, 14, 45, 0, 0, time.UTC), view.Payment.PaymentDate)
	suite.False(view.Payment.DateOnly)

	bad := "14/04/2024"
	_, err = suite.svc.Ledger.ApplyPayment(suite.ctx, inv.ID, dto.ApplyPaymentRequest{Amount: money("100.00"), Method: domain.MethodCash, PaymentDate: &bad}, admin)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinanceSuite) TestCheque_PendingUntilConfirmed() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	ref := "CHQ-0042"

	pending, err := suite.svc.Ledger.ApplyPayment(suite.ctx, inv.ID, dto.ApplyPaymentRequest{Amount: money("500.00"), Method: domain.MethodCheque, ReferenceNumber: &ref}, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentPending, pending.Payment.Status)
	suite.requireMoney("0.00", pending.PaidAmount)
	suite.Equal(domain.InvoiceUnpaid, pending.InvoiceStatus)

	confirmed, err := suite.svc.Ledger.ConfirmPayment(suite.ctx, pending.Payment.ID, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentCompleted, confirmed.Payment.Status)
	suite.requireMoney("500.00", confirmed.PaidAmount)
	suite.Equal(domain.InvoicePaid, confirmed.InvoiceStatus)

	_, err = suite.svc.Ledger.ConfirmPayment(suite.ctx, pending.Payment.ID, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.requireConsistent(inv.ID)
}

func (suite *FinanceSuite) TestCheque_FailedNeverCounts() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	ref := "CHQ-0043"

	pending, err := suite.svc.Ledger.ApplyPayment(suite.ctx, inv.ID, dto.ApplyPaymentRequest{Amount: money("200.00"), Method: domain.MethodCheque, ReferenceNumber: &ref}, admin)
	suite.Require().NoError(err)

	_, err = suite.svc.Ledger.Refund(suite.ctx, pending.Payment.ID, dto.RefundRequest{Amount: money("200.00"), Reason: "not cleared"}, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)

	failed, err := suite.svc.Ledger.FailPayment(suite.ctx, pending.Payment.ID, dto.FailPaymentRequest{Reason: "insufficient funds"}, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentFailed, failed.Payment.Status)
	suite.requireMoney("0.00", failed.PaidAmount)

	_, err = suite.svc.Ledger.ConfirmPayment(suite.ctx, pending.Payment.ID, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)

	_, err = suite.svc.Invoice.CancelInvoice(suite.ctx, inv.ID, dto.CancelInvoiceRequest{Reason: "withdrawn"}, admin)
	suite.Require().NoError(err)
}

func (suite *FinanceSuite) TestAllocatePayment_OldestFirst() {
	suite.seedFlat()
	older := suite.generate(stu1, term1)
	newer := suite.generate(stu1, term2)

	result, err := suite.svc.Ledger.AllocatePayment(suite.ctx, dto.AllocatePaymentRequest{
		StudentID:           stu1,
		AcademicYearID:      year,
		ApplyPaymentRequest: dto.ApplyPaymentRequest{Amount: money("700.00"), Method: domain.MethodCash},
	}, admin)
	suite.Require().NoError(err)
	suite.requireMoney("700.00", result.Allocated)
	suite.requireMoney("0.00", result.Remaining)
	suite.Require().Len(result.Allocations, 2)

	suite.Equal(older.ID, result.Allocations[0].InvoiceID)
	suite.requireMoney("500.00", result.Allocations[0].Amount)
	suite.requireMoney("0.00", result.Allocations[0].OutstandingAfter)
	suite.Equal(newer.ID, result.Allocations[1].InvoiceID)
	suite.requireMoney("200.00", result.Allocations[1].Amount)
	suite.requireMoney("300.00", result.Allocations[1].OutstandingAfter)
	suite.NotEqual(result.Allocations[0].ReceiptNumber, result.Allocations[1].ReceiptNumber)

	suite.Equal(domain.InvoicePaid, suite.requireConsistent(older.ID).Invoice.Status)
	suite.Equal(domain.InvoicePartiallyPaid, suite.requireConsistent(newer.ID).Invoice.Status)
}

func (suite *FinanceSuite) TestAllocatePayment_LeavesRemainder() {
	suite.seedFlat()
	suite.generate(stu1, term1)
	suite.generate(stu1, term2)

	result, err := suite.svc.Ledger.AllocatePayment(suite.ctx, dto.AllocatePaymentRequest{
		StudentID:           stu1,
		AcademicYearID:      year,
		ApplyPaymentRequest: dto.ApplyPaymentRequest{Amount: money("1200.00"), Method: domain.MethodCash},
	}, admin)
	suite.Require().NoError(err)
	suite.requireMoney("1000.00", result.Allocated)
	suite.requireMoney("200.00", result.Remaining)
	suite.Len(result.Allocations, 2)

	again, err := suite.svc.Ledger.AllocatePayment(suite.ctx, dto.AllocatePaymentRequest{
		StudentID:           stu1,
		AcademicYearID:      year,
		ApplyPaymentRequest: dto.ApplyPaymentRequest{Amount: money("50.00"), Method: domain.MethodCash},
	}, admin)
	suite.Require().NoError(err)
	suite.Empty(again.Allocations)
	suite.requireMoney("50.00", again.Remaining)
}
