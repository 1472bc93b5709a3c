package services_test

import (
	"regexp"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

var invoiceNumberPattern = regexp.MustCompile(`^INV\d{6}$`)

func (suite *FinanceSuite) TestResolveFees_SectionAndGradeAreAdditive() {
	suite.seedTuitionAndTransport()

	breakdown, err := suite.svc.Invoice.ResolveFees(suite.ctx, stu1, year, term1)
	suite.Require().NoError(err)
	suite.requireMoney("6000.00", breakdown.Total)
	suite.requireMoney("0.00", breakdown.Discount)
	suite.requireMoney("6000.00", breakdown.Net)
	suite.Require().Len(breakdown.BaseItems, 2)
	suite.Equal("Tuition", breakdown.BaseItems[0].CategoryName)
	suite.Equal("Transport", breakdown.BaseItems[1].CategoryName)
	suite.Empty(breakdown.ScholarshipsApplied)
	suite.Equal(class1A, breakdown.ClassID)
	suite.Equal(grade, breakdown.GradeID)
	suite.Equal(section, breakdown.SectionID)
}

func (suite *FinanceSuite) TestResolveFees_NoStructuresWarns() {
	breakdown, err := suite.svc.Invoice.ResolveFees(suite.ctx, stu1, year, term1)
	suite.Require().NoError(err)
	suite.True(breakdown.Total.IsZero())
	suite.NotEmpty(breakdown.Warnings)
}

func (suite *FinanceSuite) TestResolveFees_NotEnrolled() {
	_, err := suite.svc.Invoice.ResolveFees(suite.ctx, "stu-unplaced", year, term1)
	suite.ErrorIs(err, apperrors.ErrNotEnrolled)

	_, err = suite.svc.Invoice.ResolveFees(suite.ctx, "stu-missing", year, term1)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *FinanceSuite) TestGenerateInvoice_Basic() {
	suite.seedTuitionAndTransport()

	inv := suite.generate(stu1, term1)
	suite.Regexp(invoiceNumberPattern, inv.InvoiceNumber)
	suite.Len(inv.Items, 2)
	suite.Equal(domain.MustDate("2024-05-01"), inv.DueDate)
	suite.Equal(domain.MustDate("2024-04-15"), inv.IssueDate)
	suite.requireMoney("6000.00", inv.NetAmount)
	suite.Equal(domain.InvoiceUnpaid, inv.Status)

	view := suite.requireConsistent(inv.ID)
	suite.Empty(view.Payments)
	suite.requireMoney("6000.00", view.Outstanding)

	audit, err := suite.svc.Audit.ListAudit(suite.ctx, domain.EntityInvoice, inv.ID)
	suite.Require().NoError(err)
	suite.True(lo.SomeBy(audit, func(e domain.AuditEntry) bool { return e.Action == domain.AuditInvoiceGenerated }))
}

func (suite *FinanceSuite) TestGenerateInvoice_PercentageScholarshipOnAll() {
	suite.seedTuitionAndTransport()
	sch := suite.scholarship(domain.DiscountPercentage, "10")
	suite.grant(stu1, sch.ID)

	inv := suite.generate(stu1, term1)
	suite.requireMoney("600.00", inv.DiscountAmount)
	suite.requireMoney("5400.00", inv.NetAmount)

	byCategory := lo.KeyBy(inv.Items, func(it domain.InvoiceItem) string { return it.CategoryName })
	suite.requireMoney("500.00", byCategory["Tuition"].DiscountAmount)
	suite.requireMoney("100.00", byCategory["Transport"].DiscountAmount)
	suite.requireMoney("5400.00", domain.SumMoney(lo.Map(inv.Items, func(it domain.InvoiceItem, _ int) decimal.Decimal { return it.NetAmount })...))

	suite.Require().Len(inv.Scholarships, 1)
	suite.Equal(sch.ID, inv.Scholarships[0].ScholarshipID)
	suite.requireMoney("600.00", inv.Scholarships[0].Amount)
	suite.requireConsistent(inv.ID)
}

func (suite *FinanceSuite) TestGenerateInvoice_CategoryScopedScholarshipRounding() {
	suite.structure(domain.LevelSection, section, suite.category("A"), "333.33")
	suite.structure(domain.LevelSection, section, suite.category("B"), "333.33")
	suite.structure(domain.LevelGrade, grade, suite.category("C"), "333.34")
	sch := suite.scholarship(domain.DiscountPercentage, "10", scopedTo("A"))
	suite.grant(stu1, sch.ID)

	breakdown, err := suite.svc.Invoice.ResolveFees(suite.ctx, stu1, year, term1)
	suite.Require().NoError(err)
	suite.requireMoney("1000.00", breakdown.Total)
	suite.Require().Len(breakdown.ScholarshipsApplied, 1)
	suite.requireMoney("333.33", breakdown.ScholarshipsApplied[0].EligibleBase)
	suite.requireMoney("33.33", breakdown.Discount)
	suite.requireMoney("966.67", breakdown.Net)

	inv := suite.generate(stu1, term1)
	suite.requireMoney("966.67", domain.SumMoney(lo.Map(inv.Items, func(it domain.InvoiceItem, _ int) decimal.Decimal { return it.NetAmount })...))
	suite.requireConsistent(inv.ID)
}

func (suite *FinanceSuite) TestGenerateInvoice_StackedScholarshipsClampToTotal() {
	suite.seedTuitionAndTransport()
	suite.grant(stu1, suite.scholarship(domain.DiscountFixed, "4000.00").ID)
	suite.grant(stu1, suite.scholarship(domain.DiscountPercentage, "50").ID)

	inv := suite.generate(stu1, term1)
	suite.requireMoney("6000.00", inv.DiscountAmount)
	suite.requireMoney("0.00", inv.NetAmount)
	suite.Equal(domain.InvoicePaid, inv.Status)
	suite.requireMoney("6000.00", domain.SumMoney(lo.Map(inv.Scholarships, func(s domain.InvoiceScholarship, _ int) decimal.Decimal { return s.Amount })...))
}

func (suite *FinanceSuite) TestGenerateInvoice_FullScholarshipIsPaid() {
	suite.seedTuitionAndTransport()
	suite.grant(stu1, suite.scholarship(domain.DiscountPercentage, "100").ID)

	inv := suite.generate(stu1, term1)
	suite.requireMoney("0.00", inv.NetAmount)
	suite.Equal(domain.InvoicePaid, inv.Status)
}

func (suite *FinanceSuite) TestGenerateInvoice_DuplicateGuard() {
	suite.seedTuitionAndTransport()
	first := suite.generate(stu1, term1)

	_, err := suite.svc.Invoice.GenerateInvoice(suite.ctx, dto.GenerateInvoiceRequest{StudentID: stu1, AcademicYearID: year, TermID: term1}, admin)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicateInvoice)
	suite.ErrorIs(err, apperrors.ErrConflict)

	view := suite.invoice(first.ID)
	suite.Empty(view.Payments)
	page, err := suite.svc.Invoice.ListStudentInvoices(suite.ctx, stu1, dto.ListInvoicesParams{})
	suite.Require().NoError(err)
	suite.Len(page.Invoices, 1)
}

func (suite *FinanceSuite) TestCancelInvoice_ThenRegenerate() {
	suite.seedTuitionAndTransport()
	first := suite.generate(stu1, term1)

	cancelled, err := suite.svc.Invoice.CancelInvoice(suite.ctx, first.ID, dto.CancelInvoiceRequest{Reason: "wrong class"}, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceCancelled, cancelled.Invoice.Status)
	suite.NotNil(cancelled.Invoice.CancelledAt)

	_, err = suite.svc.Invoice.CancelInvoice(suite.ctx, first.ID, dto.CancelInvoiceRequest{Reason: "again"}, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)

	second := suite.generate(stu1, term1)
	suite.NotEqual(first.InvoiceNumber, second.InvoiceNumber)
	suite.Equal(domain.InvoiceCancelled, suite.invoice(first.ID).Invoice.Status)

	_, err = suite.svc.Ledger.ApplyPayment(suite.ctx, first.ID, dto.ApplyPaymentRequest{Amount: money("10.00"), Method: domain.MethodCash}, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *FinanceSuite) TestCancelInvoice_RejectsMoney() {
	suite.seedTuitionAndTransport()
	paid := suite.generate(stu1, term1)
	suite.pay(paid.ID, "100.00")
	_, err := suite.svc.Invoice.CancelInvoice(suite.ctx, paid.ID, dto.CancelInvoiceRequest{Reason: "duplicate"}, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)

	pending := suite.generate(stu2, term1)
	ref := "CHQ-1"
	_, err = suite.svc.Ledger.ApplyPayment(suite.ctx, pending.ID, dto.ApplyPaymentRequest{Amount: money("100.00"), Method: domain.MethodCheque, ReferenceNumber: &ref}, admin)
	suite.Require().NoError(err)
	_, err = suite.svc.Invoice.CancelInvoice(suite.ctx, pending.ID, dto.CancelInvoiceRequest{Reason: "duplicate"}, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *FinanceSuite) TestBulkGenerate_SkipsAndCollectsErrors() {
	suite.seedTuitionAndTransport()
	suite.generate(stu1, term1)

	class := class1A
	result, err := suite.svc.Invoice.BulkGenerate(suite.ctx, dto.BulkGenerateRequest{
		StudentIDs:     []string{"stu-unplaced", stu2},
		ClassID:        &class,
		AcademicYearID: year,
		TermID:         term1,
	}, admin)
	suite.Require().NoError(err)
	suite.Len(result.Created, 2)
	suite.ElementsMatch([]string{stu2, stu3}, lo.Map(result.Created, func(inv domain.Invoice, _ int) string { return inv.StudentID }))
	suite.Require().Len(result.Skipped, 1)
	suite.Equal(stu1, result.Skipped[0].StudentID)
	suite.Require().Len(result.Errors, 1)
	suite.Equal("stu-unplaced", result.Errors[0].StudentID)

	numbers := lo.Map(result.Created, func(inv domain.Invoice, _ int) string { return inv.InvoiceNumber })
	suite.Len(lo.Uniq(numbers), 2)
}

func (suite *FinanceSuite) TestBulkGenerate_RequiresTargets() {
	_, err := suite.svc.Invoice.BulkGenerate(suite.ctx, dto.BulkGenerateRequest{AcademicYearID: year, TermID: term1}, admin)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinanceSuite) TestListStudentInvoices_Paginates() {
	suite.seedFlat()
	a := suite.generate(stu1, term1)
	suite.setToday("2024-08-02")
	b := suite.generate(stu1, term2)

	first, err := suite.svc.Invoice.ListStudentInvoices(suite.ctx, stu1, dto.ListInvoicesParams{Limit: 1})
	suite.Require().NoError(err)
	suite.Require().Len(first.Invoices, 1)
	suite.Equal(b.ID, first.Invoices[0].ID)
	suite.Require().NotNil(first.NextToken)

	second, err := suite.svc.Invoice.ListStudentInvoices(suite.ctx, stu1, dto.ListInvoicesParams{Limit: 1, NextToken: first.NextToken})
	suite.Require().NoError(err)
	suite.Require().Len(second.Invoices, 1)
	suite.Equal(a.ID, second.Invoices[0].ID)
	suite.Equal(domain.InvoiceOverdue, second.Invoices[0].Status)
	suite.Nil(second.NextToken)

	bad := "not-a-token"
	_, err = suite.svc.Invoice.ListStudentInvoices(suite.ctx, stu1, dto.ListInvoicesParams{NextToken: &bad})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinanceSuite) TestRefreshStatuses_DueDateBoundary() {
	suite.seedTuitionAndTransport()
	inv := suite.generate(stu1, term1)

	changed, err := suite.svc.Invoice.RefreshStatuses(suite.ctx, suite.setToday("2024-05-01"))
	suite.Require().NoError(err)
	suite.Equal(0, changed)
	suite.Equal(domain.InvoiceUnpaid, suite.invoice(inv.ID).Invoice.Status)

	changed, err = suite.svc.Invoice.RefreshStatuses(suite.ctx, suite.setToday("2024-05-02"))
	suite.Require().NoError(err)
	suite.Equal(1, changed)
	suite.Equal(domain.InvoiceOverdue, suite.requireConsistent(inv.ID).Invoice.Status)

	changed, err = suite.svc.Invoice.RefreshStatuses(suite.ctx, suite.now)
	suite.Require().NoError(err)
	suite.Equal(0, changed)

	audit, err := suite.svc.Audit.ListAudit(suite.ctx, domain.EntityInvoice, inv.ID)
	suite.Require().NoError(err)
	suite.True(lo.SomeBy(audit, func(e domain.AuditEntry) bool {
		return e.Action == domain.AuditInvoiceStatusRefreshed && e.ActorID == domain.SystemActorID
	}))
}

func (suite *FinanceSuite) TestRefreshStatuses_PartialPaymentNeverOverdue() {
	suite.seedTuitionAndTransport()
	inv := suite.generate(stu1, term1)
	suite.pay(inv.ID, "1000.00")

	changed, err := suite.svc.Invoice.RefreshStatuses(suite.ctx, suite.setToday("2024-06-01"))
	suite.Require().NoError(err)
	suite.Equal(0, changed)
	suite.Equal(domain.InvoicePartiallyPaid, suite.invoice(inv.ID).Invoice.Status)
}
