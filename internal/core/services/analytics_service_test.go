package services_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/platform/config"
)

// stallingTx serves reads from the wrapped manager but stalls payment scans after the first
// until the caller's context ends.
type stallingTx struct {
	portsrepo.TransactionManager
	scans *atomic.Int32
}

func (t stallingTx) Reader() portsrepo.Store {
	return stallingStore{Store: t.TransactionManager.Reader(), scans: t.scans}
}

type stallingStore struct {
	portsrepo.Store
	scans *atomic.Int32
}

func (s stallingStore) Payments() portsrepo.PaymentRepositoryFacade {
	return stallingPayments{PaymentRepositoryFacade: s.Store.Payments(), scans: s.scans}
}

type stallingPayments struct {
	portsrepo.PaymentRepositoryFacade
	scans *atomic.Int32
}

func (p stallingPayments) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	if p.scans.Add(1) > 1 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.PaymentRepositoryFacade.ListPayments(ctx, filter)
}

// gatedTx holds the first invoice scan after it has read, until release is closed.
type gatedTx struct {
	portsrepo.TransactionManager
	scans   *atomic.Int32
	read    chan struct{}
	release chan struct{}
}

func newGatedTx(tx portsrepo.TransactionManager) gatedTx {
	return gatedTx{TransactionManager: tx, scans: &atomic.Int32{}, read: make(chan struct{}), release: make(chan struct{})}
}

func (t gatedTx) Reader() portsrepo.Store {
	return gatedStore{Store: t.TransactionManager.Reader(), tx: t}
}

type gatedStore struct {
	portsrepo.Store
	tx gatedTx
}

func (s gatedStore) Invoices() portsrepo.InvoiceRepositoryFacade {
	return gatedInvoices{InvoiceRepositoryFacade: s.Store.Invoices(), tx: s.tx}
}

type gatedInvoices struct {
	portsrepo.InvoiceRepositoryFacade
	tx gatedTx
}

func (i gatedInvoices) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	out, err := i.InvoiceRepositoryFacade.ListInvoices(ctx, filter)
	if i.tx.scans.Add(1) == 1 {
		close(i.tx.read)
		<-i.tx.release
	}
	return out, err
}

func yearScope() domain.AnalyticsScope {
	return domain.AnalyticsScope{AcademicYearID: year}
}

func (suite *FinanceSuite) TestCollectionMetrics_Aggregates() {
	suite.seedTuitionAndTransport()
	paid := suite.generate(stu1, term1)
	partly := suite.generate(stu2, term1)
	cancelled := suite.generate(stu3, term1)
	suite.pay(paid.ID, "6000.00")
	suite.pay(partly.ID, "1500.00")
	_, err := suite.svc.Invoice.CancelInvoice(suite.ctx, cancelled.ID, dto.CancelInvoiceRequest{Reason: "left"}, admin)
	suite.Require().NoError(err)

	m, err := suite.svc.Analytics.CollectionMetrics(suite.ctx, yearScope())
	suite.Require().NoError(err)
	suite.Equal(2, m.TotalInvoices)
	suite.requireMoney("12000.00", m.AmountDue)
	suite.requireMoney("7500.00", m.AmountCollected)
	suite.requireMoney("4500.00", m.Outstanding)
	suite.requireMoney("0.625", m.CollectionRate)
	suite.Equal(1, m.StatusHistogram[domain.InvoicePaid])
	suite.Equal(1, m.StatusHistogram[domain.InvoicePartiallyPaid])
	suite.Equal(1, m.StatusHistogram[domain.InvoiceCancelled])
	suite.Equal(0, m.OverdueCount)
}

func (suite *FinanceSuite) TestCollectionMetrics_InvalidatedByPayment() {
	suite.seedTuitionAndTransport()
	inv := suite.generate(stu1, term1)
	term := term1
	termScope := domain.AnalyticsScope{AcademicYearID: year, TermID: &term}

	before, err := suite.svc.Analytics.CollectionMetrics(suite.ctx, yearScope())
	suite.Require().NoError(err)
	suite.requireMoney("0.00", before.AmountCollected)
	_, err = suite.svc.Analytics.CollectionMetrics(suite.ctx, termScope)
	suite.Require().NoError(err)
	suite.Equal(2, suite.cache.Len())

	cached, err := suite.svc.Analytics.CollectionMetrics(suite.ctx, yearScope())
	suite.Require().NoError(err)
	suite.Same(before, cached)

	suite.pay(inv.ID, "1000.00")
	suite.Equal(0, suite.cache.Len())

	after, err := suite.svc.Analytics.CollectionMetrics(suite.ctx, yearScope())
	suite.Require().NoError(err)
	suite.requireMoney("1000.00", after.AmountCollected)
	byTerm, err := suite.svc.Analytics.CollectionMetrics(suite.ctx, termScope)
	suite.Require().NoError(err)
	suite.requireMoney("1000.00", byTerm.AmountCollected)
}

func (suite *FinanceSuite) TestCollectionMetrics_RecomputesStatusForToday() {
	suite.seedTuitionAndTransport()
	suite.generate(stu1, term1)
	suite.setToday("2024-05-20")

	m, err := suite.svc.Analytics.CollectionMetrics(suite.ctx, yearScope())
	suite.Require().NoError(err)
	suite.Equal(1, m.OverdueCount)
	suite.requireMoney("6000.00", m.OverdueAmount)
	suite.Equal(1, m.StatusHistogram[domain.InvoiceOverdue])
}

func (suite *FinanceSuite) TestPaymentTrends_DailyBuckets() {
	suite.seedFlat()
	a := suite.generate(stu1, term1)
	b := suite.generate(stu2, term1)
	suite.pay(a.ID, "200.00")
	suite.setToday("2024-04-17")
	payment := suite.pay(b.ID, "500.00")
	_, err := suite.svc.Ledger.Refund(suite.ctx, payment.Payment.ID, dto.RefundRequest{Amount: money("50.00"), Reason: "discount"}, admin)
	suite.Require().NoError(err)

	trends, err := suite.svc.Analytics.PaymentTrends(suite.ctx, yearScope(), domain.MustDate("2024-04-01"), domain.MustDate("2024-04-30"))
	suite.Require().NoError(err)
	suite.False(trends.Incomplete)
	suite.Len(trends.Daily, 30)
	suite.Equal(domain.MustDate("2024-04-01"), trends.Daily[0].Date)
	suite.Equal(domain.MustDate("2024-04-30"), trends.Daily[29].Date)

	suite.Equal(1, trends.Daily[14].Count)
	suite.requireMoney("200.00", trends.Daily[14].Amount)
	suite.Equal(1, trends.Daily[16].Count)
	suite.requireMoney("500.00", trends.Daily[16].Amount)
	suite.requireMoney("50.00", trends.Daily[16].Refunds)
	suite.requireMoney("700.00", trends.TotalAmount)

	suite.Equal(2, trends.MethodHistogram[domain.MethodCash].Count)
	suite.Equal(2, trends.HourOfDay[10])
	suite.Equal(10, trends.PeakHour)
	suite.Equal(1, trends.DayOfWeek[time.Monday])
	suite.Equal(1, trends.DayOfWeek[time.Wednesday])
	suite.Equal(time.Monday, trends.PeakWeekday)

	_, err = suite.svc.Analytics.PaymentTrends(suite.ctx, yearScope(), domain.MustDate("2024-04-30"), domain.MustDate("2024-04-01"))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinanceSuite) TestPaymentTrends_DateOnlyPaymentsLeftOutOfHours() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	day := "2024-04-10"
	at := "2024-04-11T08:30:00Z"
	_, err := suite.svc.Ledger.ApplyPayment(suite.ctx, inv.ID, dto.ApplyPaymentRequest{Amount: money("100.00"), Method: domain.MethodCash, PaymentDate: &day}, admin)
	suite.Require().NoError(err)
	_, err = suite.svc.Ledger.ApplyPayment(suite.ctx, inv.ID, dto.ApplyPaymentRequest{Amount: money("100.00"), Method: domain.MethodCash, PaymentDate: &at}, admin)
	suite.Require().NoError(err)

	trends, err := suite.svc.Analytics.PaymentTrends(suite.ctx, yearScope(), domain.MustDate("2024-04-01"), domain.MustDate("2024-04-30"))
	suite.Require().NoError(err)
	suite.Equal(1, trends.UntimedCount)
	suite.Equal(0, trends.HourOfDay[0])
	suite.Equal(1, trends.HourOfDay[8])
	suite.Equal(8, trends.PeakHour)
	suite.Equal(1, trends.DayOfWeek[time.Wednesday])
	suite.Equal(1, trends.DayOfWeek[time.Thursday])
	suite.requireMoney("200.00", trends.TotalAmount)
}

func (suite *FinanceSuite) TestPaymentTrends_SoftTimeoutReturnsPrefix() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)
	suite.setToday("2024-04-03")
	suite.pay(inv.ID, "100.00")

	scans := &atomic.Int32{}
	cfg := &config.Config{InvoiceNumberWidth: 6, AnalyticsSoftTimeout: 50 * time.Millisecond}
	svc := suite.container(stallingTx{TransactionManager: suite.tx, scans: scans}, cfg)

	trends, err := svc.Analytics.PaymentTrends(suite.ctx, yearScope(), domain.MustDate("2024-04-01"), domain.MustDate("2024-04-30"))
	suite.Require().NoError(err)
	suite.True(trends.Incomplete)
	suite.Require().Len(trends.Daily, 7)
	suite.Require().NotNil(trends.ComputedThrough)
	suite.Equal(domain.MustDate("2024-04-07"), *trends.ComputedThrough)
	suite.Equal(1, trends.Daily[2].Count)
	suite.requireMoney("100.00", trends.TotalAmount)
	suite.Equal(1, trends.MethodHistogram[domain.MethodCash].Count)
	suite.Equal(int32(2), scans.Load())

	// Partial results are not cached, so the next call scans again.
	again, err := svc.Analytics.PaymentTrends(suite.ctx, yearScope(), domain.MustDate("2024-04-01"), domain.MustDate("2024-04-30"))
	suite.Require().NoError(err)
	suite.True(again.Incomplete)
	suite.Empty(again.Daily)
	suite.Nil(again.ComputedThrough)
	suite.Equal(int32(3), scans.Load())
}

func (suite *FinanceSuite) TestDefaulters_ThresholdRiskAndChronic() {
	suite.seedTuitionAndTransport()
	suite.structure(domain.LevelSection, section, suite.category("Term 2 Tuition"), "5000.00", inTerm(term2, "2024-08-15"))
	suite.generate(stu1, term1)
	suite.generate(stu1, term2)
	partly := suite.generate(stu2, term1)
	settled := suite.generate(stu3, term1)
	suite.pay(partly.ID, "100.00")
	suite.pay(settled.ID, "6000.00")
	suite.setToday("2024-09-20")

	report, err := suite.svc.Analytics.Defaulters(suite.ctx, yearScope(), 30)
	suite.Require().NoError(err)
	suite.Equal(30, report.ThresholdDays)
	suite.Require().Len(report.Defaulters, 3)
	suite.Equal(142, report.Defaulters[0].DaysOverdue)
	suite.Equal(142, report.Defaulters[1].DaysOverdue)
	suite.Less(report.Defaulters[0].InvoiceNumber, report.Defaulters[1].InvoiceNumber)
	suite.Equal(36, report.Defaulters[2].DaysOverdue)
	suite.Equal(stu1, report.Defaulters[2].StudentID)
	suite.Equal(2, report.RiskCounts[domain.RiskHigh])
	suite.Equal(1, report.RiskCounts[domain.RiskMedium])
	suite.requireMoney("16900.00", report.TotalOutstanding)

	suite.Require().Len(report.ByLevel, 1)
	suite.Equal(section, report.ByLevel[0].SectionID)
	suite.Equal(grade, report.ByLevel[0].GradeID)
	suite.Equal(3, report.ByLevel[0].Invoices)
	suite.Equal(2, report.ByLevel[0].Students)

	suite.Require().Len(report.ChronicDefaulters, 1)
	suite.Equal(stu1, report.ChronicDefaulters[0].StudentID)
	suite.requireMoney("11000.00", report.ChronicDefaulters[0].Outstanding)

	strict, err := suite.svc.Analytics.Defaulters(suite.ctx, yearScope(), 60)
	suite.Require().NoError(err)
	suite.Len(strict.Defaulters, 2)
	suite.Empty(strict.ChronicDefaulters)

	_, err = suite.svc.Analytics.Defaulters(suite.ctx, yearScope(), -1)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinanceSuite) TestScholarshipImpact_GroupsDiscounts() {
	suite.seedTuitionAndTransport()
	merit := suite.scholarship(domain.DiscountPercentage, "10")
	need := suite.scholarship(domain.DiscountFixed, "300.00", func(r *dto.CreateScholarshipRequest) { r.Criteria = "need" })
	suite.grant(stu1, merit.ID)
	suite.grant(stu2, need.ID)
	suite.grant(stu3, need.ID)
	suite.generate(stu1, term1)
	suite.generate(stu2, term1)
	withdrawn := suite.generate(stu3, term1)
	_, err := suite.svc.Invoice.CancelInvoice(suite.ctx, withdrawn.ID, dto.CancelInvoiceRequest{Reason: "withdrawn"}, admin)
	suite.Require().NoError(err)

	impact, err := suite.svc.Analytics.ScholarshipImpact(suite.ctx, yearScope())
	suite.Require().NoError(err)
	suite.requireMoney("900.00", impact.TotalDiscount)
	suite.Equal(2, impact.UniqueBeneficiaries)
	suite.Require().Len(impact.Scholarships, 2)
	for _, entry := range impact.Scholarships {
		suite.Equal(1, entry.Invoices)
		suite.Equal(1, entry.Beneficiaries)
		suite.NotEmpty(entry.Name)
	}
	suite.Require().Len(impact.ByCriteria, 2)
	suite.Equal("merit", impact.ByCriteria[0].Key)
	suite.requireMoney("600.00", impact.ByCriteria[0].TotalDiscount)
	suite.Equal("need", impact.ByCriteria[1].Key)
	suite.requireMoney("300.00", impact.ByCriteria[1].TotalDiscount)
	suite.Len(impact.ByDiscountType, 2)
}

func (suite *FinanceSuite) TestDashboard_CombinesReports() {
	suite.seedTuitionAndTransport()
	suite.grant(stu1, suite.scholarship(domain.DiscountPercentage, "10").ID)
	suite.generate(stu1, term1)
	suite.generate(stu2, term1)
	suite.setToday("2024-05-10")

	dash, err := suite.svc.Analytics.Dashboard(suite.ctx, yearScope())
	suite.Require().NoError(err)
	suite.Equal(year, dash.Scope.AcademicYearID)
	suite.Equal(2, dash.Collection.TotalInvoices)
	suite.requireMoney("11400.00", dash.Collection.AmountDue)
	suite.Equal(0, dash.Defaulters.ThresholdDays)
	suite.Len(dash.Defaulters.Defaulters, 2)
	suite.requireMoney("600.00", dash.Impact.TotalDiscount)
}

func (suite *FinanceSuite) TestCollectionMetrics_StaleResultNotCached() {
	suite.seedFlat()
	inv := suite.generate(stu1, term1)

	gated := newGatedTx(suite.tx)
	slow := suite.container(gated, suite.cfg)
	done := make(chan *domain.CollectionMetrics, 1)
	go func() {
		m, err := slow.Analytics.CollectionMetrics(suite.ctx, yearScope())
		suite.NoError(err)
		done <- m
	}()

	<-gated.read
	suite.pay(inv.ID, "500.00")
	close(gated.release)

	stale := <-done
	suite.requireMoney("0.00", stale.AmountCollected)

	fresh, err := suite.svc.Analytics.CollectionMetrics(suite.ctx, yearScope())
	suite.Require().NoError(err)
	suite.requireMoney("500.00", fresh.AmountCollected)
}

func (suite *FinanceSuite) TestCollectionMetrics_SharedComputationSurvivesCallerCancel() {
	suite.seedFlat()
	suite.generate(stu1, term1)

	gated := newGatedTx(suite.tx)
	svc := suite.container(gated, suite.cfg)

	cancelled, cancel := context.WithCancel(suite.ctx)
	first := make(chan error, 1)
	go func() {
		_, err := svc.Analytics.CollectionMetrics(cancelled, yearScope())
		first <- err
	}()
	<-gated.read
	cancel()
	suite.ErrorIs(<-first, context.Canceled)

	second := make(chan *domain.CollectionMetrics, 1)
	go func() {
		m, err := svc.Analytics.CollectionMetrics(suite.ctx, yearScope())
		suite.NoError(err)
		second <- m
	}()
	close(gated.release)

	m := <-second
	suite.Require().NotNil(m)
	suite.Equal(1, m.TotalInvoices)
	suite.requireMoney("500.00", m.AmountDue)
	suite.Equal(int32(1), gated.scans.Load())
}
