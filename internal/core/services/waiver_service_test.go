package services_test

import (
	"strings"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

func (suite *FinanceSuite) requestWaiver(invoiceID, amount string) *domain.FeeWaiver {
	suite.T().Helper()
	w, err := suite.svc.Waiver.RequestWaiver(suite.ctx, dto.RequestWaiverRequest{InvoiceID: invoiceID, Amount: money(amount), Reason: "hardship"}, "clerk-1")
	suite.Require().NoError(err)
	return w
}

func (suite *FinanceSuite) TestApproveWaiver_PostsLedgerEntry() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	w := suite.requestWaiver(inv.ID, "100.00")
	suite.Equal(domain.WaiverPending, w.Status)
	suite.Equal(stu1, w.StudentID)

	approved, err := suite.svc.Waiver.ApproveWaiver(suite.ctx, w.ID, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.WaiverApproved, approved.Waiver.Status)
	suite.Require().NotNil(approved.Waiver.PaymentID)
	suite.Require().NotNil(approved.Payment)

	entry := approved.Payment.Payment
	suite.Equal(*approved.Waiver.PaymentID, entry.ID)
	suite.Equal(domain.EntryWaiver, entry.Kind)
	suite.Equal(domain.MethodWaiver, entry.Method)
	suite.Equal(domain.PaymentCompleted, entry.Status)
	suite.True(strings.HasPrefix(entry.ReceiptNumber, "RCPT"))
	suite.requireMoney("100.00", approved.Payment.PaidAmount)
	suite.Equal(domain.InvoicePartiallyPaid, approved.Payment.InvoiceStatus)

	view := suite.requireConsistent(inv.ID)
	suite.Len(view.Waivers, 1)

	fetched, err := suite.svc.Waiver.GetWaiver(suite.ctx, w.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(fetched.Payment)
	suite.Equal(entry.ID, fetched.Payment.Payment.ID)

	_, err = suite.svc.Waiver.ApproveWaiver(suite.ctx, w.ID, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)

	_, err = suite.svc.Ledger.Refund(suite.ctx, entry.ID, dto.RefundRequest{Amount: money("10.00"), Reason: "undo"}, admin)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinanceSuite) TestApproveWaiver_FullReliefPaysInvoice() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	suite.pay(inv.ID, "150.00")
	w := suite.requestWaiver(inv.ID, "350.00")

	approved, err := suite.svc.Waiver.ApproveWaiver(suite.ctx, w.ID, admin)
	suite.Require().NoError(err)
	suite.requireMoney("0.00", approved.Payment.Outstanding)
	suite.Equal(domain.InvoicePaid, approved.Payment.InvoiceStatus)
	suite.requireConsistent(inv.ID)
}

func (suite *FinanceSuite) TestRequestWaiver_ExceedsOutstanding() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	suite.pay(inv.ID, "400.00")

	_, err := suite.svc.Waiver.RequestWaiver(suite.ctx, dto.RequestWaiverRequest{InvoiceID: inv.ID, Amount: money("100.01"), Reason: "hardship"}, "clerk-1")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.Waiver.RequestWaiver(suite.ctx, dto.RequestWaiverRequest{InvoiceID: inv.ID, Amount: money("0"), Reason: "hardship"}, "clerk-1")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinanceSuite) TestApproveWaiver_RecheckedAgainstOutstanding() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	w := suite.requestWaiver(inv.ID, "400.00")
	suite.pay(inv.ID, "200.00")

	_, err := suite.svc.Waiver.ApproveWaiver(suite.ctx, w.ID, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)

	fetched, err := suite.svc.Waiver.GetWaiver(suite.ctx, w.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.WaiverPending, fetched.Waiver.Status)
	suite.Nil(fetched.Payment)
	suite.requireMoney("200.00", suite.requireConsistent(inv.ID).Invoice.PaidAmount)
}

func (suite *FinanceSuite) TestRejectWaiver_LeavesLedgerAlone() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	w := suite.requestWaiver(inv.ID, "100.00")

	rejected, err := suite.svc.Waiver.RejectWaiver(suite.ctx, w.ID, dto.RejectWaiverRequest{Reason: "no documents"}, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.WaiverRejected, rejected.Waiver.Status)
	suite.Equal("no documents", rejected.Waiver.RejectionReason)
	suite.Nil(rejected.Payment)

	view := suite.requireConsistent(inv.ID)
	suite.Empty(view.Payments)

	_, err = suite.svc.Waiver.ApproveWaiver(suite.ctx, w.ID, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *FinanceSuite) TestRequestWaiver_CancelledInvoice() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	w := suite.requestWaiver(inv.ID, "100.00")
	_, err := suite.svc.Invoice.CancelInvoice(suite.ctx, inv.ID, dto.CancelInvoiceRequest{Reason: "withdrawn"}, admin)
	suite.Require().NoError(err)

	_, err = suite.svc.Waiver.RequestWaiver(suite.ctx, dto.RequestWaiverRequest{InvoiceID: inv.ID, Amount: money("10.00"), Reason: "hardship"}, "clerk-1")
	suite.ErrorIs(err, apperrors.ErrConflict)

	_, err = suite.svc.Waiver.ApproveWaiver(suite.ctx, w.ID, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)
}
