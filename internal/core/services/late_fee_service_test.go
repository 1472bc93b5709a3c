package services_test

import (
	"strings"

	"github.com/samber/lo"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/core/services"
)

func (suite *FinanceSuite) TestAccrueLateFees_Idempotent() {
	tuition := suite.category("Tuition")
	suite.structure(domain.LevelSection, section, tuition, "5000.00", lateFee("2", 5))
	suite.structure(domain.LevelGrade, grade, suite.category("Library"), "300.00")
	inv := suite.generate(stu1, term1)

	run, err := suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2024-05-06"))
	suite.Require().NoError(err)
	suite.Empty(run.Created, "within the grace period")

	run, err = suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2024-05-10"))
	suite.Require().NoError(err)
	suite.Equal("2024-05", run.AccrualMonth)
	suite.Equal(1, run.InvoicesScanned)
	suite.Require().Len(run.Created, 1)
	accrual := run.Created[0]
	suite.Equal(inv.ID, accrual.InvoiceID)
	suite.requireMoney("100.00", accrual.Amount)
	suite.True(accrual.Billed)
	suite.Require().NotNil(accrual.SpecialFeeID)
	suite.Equal(term2, *accrual.BilledTermID)

	again, err := suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2024-05-20"))
	suite.Require().NoError(err)
	suite.Empty(again.Created)
	suite.Equal(1, again.AlreadyAccrued)

	nextMonth, err := suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2024-06-03"))
	suite.Require().NoError(err)
	suite.Require().Len(nextMonth.Created, 1)
	suite.Equal("2024-06", nextMonth.Created[0].AccrualMonth)

	fee, err := suite.svc.Catalog.GetSpecialFee(suite.ctx, *accrual.SpecialFeeID)
	suite.Require().NoError(err)
	suite.Equal(domain.SpecialFeeLateFee, fee.Source)
	suite.Equal(domain.SpecialFeeStudent, fee.Scope)
	suite.Equal(term2, fee.TermID)
	suite.Equal(domain.MustDate("2024-08-01"), fee.DueDate)
	suite.True(strings.Contains(fee.Reason, inv.InvoiceNumber))

	categories, err := suite.svc.Catalog.ListCategories(suite.ctx)
	suite.Require().NoError(err)
	suite.True(lo.SomeBy(categories, func(c domain.FeeCategory) bool { return c.Name == services.LateFeeCategoryName }))
}

func (suite *FinanceSuite) TestAccrueLateFees_BilledOnNextTermInvoice() {
	tuition := suite.category("Tuition")
	suite.structure(domain.LevelSection, section, tuition, "1000.00", lateFee("10", 0))
	suite.structure(domain.LevelSection, section, tuition, "1000.00", inTerm(term2, "2024-08-15"))
	suite.generate(stu1, term1)

	_, err := suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2024-05-02"))
	suite.Require().NoError(err)

	breakdown, err := suite.svc.Invoice.ResolveFees(suite.ctx, stu1, year, term2)
	suite.Require().NoError(err)
	suite.Require().Len(breakdown.SpecialItems, 1)
	suite.Equal(services.LateFeeCategoryName, breakdown.SpecialItems[0].CategoryName)
	suite.requireMoney("100.00", breakdown.SpecialItems[0].Amount)
	suite.requireMoney("1100.00", breakdown.Total)

	other, err := suite.svc.Invoice.ResolveFees(suite.ctx, stu2, year, term2)
	suite.Require().NoError(err)
	suite.Empty(other.SpecialItems)

	next := suite.generate(stu1, term2)
	suite.requireMoney("1100.00", next.TotalAmount)
	suite.True(lo.SomeBy(next.Items, func(it domain.InvoiceItem) bool {
		return it.CategoryName == services.LateFeeCategoryName && it.Amount.Equal(money("100.00"))
	}))
}

func (suite *FinanceSuite) TestAccrueLateFees_SkipsTermsAlreadyInvoiced() {
	tuition := suite.category("Tuition")
	suite.structure(domain.LevelSection, section, tuition, "1000.00", lateFee("10", 0))
	suite.structure(domain.LevelSection, section, tuition, "1000.00", inTerm(term2, "2024-08-15"))
	suite.structure(domain.LevelSection, section, tuition, "1000.00", inTerm(term3, "2024-12-15"))
	suite.generate(stu1, term1)
	invoiced := suite.generate(stu1, term2)

	run, err := suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2024-05-02"))
	suite.Require().NoError(err)
	suite.Require().Len(run.Created, 1)
	suite.Equal(0, run.Unbilled)
	suite.Equal(term3, *run.Created[0].BilledTermID)

	unchanged := suite.invoice(invoiced.ID)
	suite.requireMoney("1000.00", unchanged.Invoice.TotalAmount)

	fee, err := suite.svc.Catalog.GetSpecialFee(suite.ctx, *run.Created[0].SpecialFeeID)
	suite.Require().NoError(err)
	suite.Equal(domain.MustDate("2024-12-01"), fee.DueDate)

	last := suite.generate(stu1, term3)
	suite.requireMoney("1100.00", last.TotalAmount)
	suite.Len(last.Items, 2)
}

func (suite *FinanceSuite) TestAccrueLateFees_LastTermKeptUnbilled() {
	suite.structure(domain.LevelSection, section, suite.category("Tuition"), "800.00", lateFee("5", 0), inTerm(term3, "2024-12-15"))
	suite.setToday("2024-12-01")
	inv := suite.generate(stu1, term3)

	run, err := suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2025-01-10"))
	suite.Require().NoError(err)
	suite.Require().Len(run.Created, 1)
	accrual := run.Created[0]
	suite.requireMoney("40.00", accrual.Amount)
	suite.False(accrual.Billed)
	suite.Nil(accrual.SpecialFeeID)
	suite.Nil(accrual.BilledTermID)
	suite.Equal(1, run.Unbilled)
	suite.requireMoney("40.00", run.UnbilledAmount())

	breakdown, err := suite.svc.Invoice.ResolveFees(suite.ctx, inv.StudentID, year, term3)
	suite.Require().NoError(err)
	suite.Empty(breakdown.SpecialItems)

	again, err := suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2025-01-20"))
	suite.Require().NoError(err)
	suite.Empty(again.Created)
	suite.Equal(1, again.AlreadyAccrued)
}

func (suite *FinanceSuite) TestAccrueLateFees_SkipsSettledInvoices() {
	tuition := suite.category("Tuition")
	suite.structure(domain.LevelSection, section, tuition, "1000.00", lateFee("10", 0))
	paid := suite.generate(stu1, term1)
	partly := suite.generate(stu2, term1)
	suite.generate(stu3, term1)
	suite.pay(paid.ID, "1000.00")
	suite.pay(partly.ID, "10.00")

	run, err := suite.svc.LateFee.AccrueLateFees(suite.ctx, suite.setToday("2024-05-15"))
	suite.Require().NoError(err)
	suite.Equal(2, run.InvoicesScanned)
	suite.Len(run.Created, 2)
	suite.False(lo.SomeBy(run.Created, func(a domain.LateFeeAccrual) bool { return a.InvoiceID == paid.ID }))
}
