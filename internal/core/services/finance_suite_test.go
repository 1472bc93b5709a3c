package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/core/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/platform/config"
	"github.com/SscSPs/school_finance_core/internal/repositories/cache"
	"github.com/SscSPs/school_finance_core/internal/repositories/database/memory"
)

const (
	year    = "ay-2024"
	term1   = "term-1"
	term2   = "term-2"
	term3   = "term-3"
	section = "sec-primary"
	grade   = "grade-1"
	class1A = "class-1a"
	stu1    = "stu-001"
	stu2    = "stu-002"
	stu3    = "stu-003"
	admin   = "admin-1"
)

// FinanceSuite runs the services against the memory store with a settable clock.
type FinanceSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	db     *memory.DB
	tx     *memory.TxManager
	school *memory.School
	cache  *cache.TaggedLRU
	cfg    *config.Config
	svc    *portssvc.ServiceContainer
}

func TestFinanceSuite(t *testing.T) {
	suite.Run(t, new(FinanceSuite))
}

func (suite *FinanceSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2024, time.April, 15, 10, 0, 0, 0, time.UTC)
	suite.db = memory.NewDB()
	suite.school = memory.NewSchool()
	suite.school.SeedDemo()
	suite.school.AddStudent(domain.Student{ID: "stu-unplaced", FullName: "Dara Unplaced", Status: domain.StudentActive})
	suite.cache = cache.NewTaggedLRU(64, time.Hour)
	suite.cfg = &config.Config{InvoiceNumberWidth: 6}
	suite.tx = memory.NewTxManager(suite.db)
	suite.svc = suite.container(suite.tx, suite.cfg)
}

func (suite *FinanceSuite) container(tx portsrepo.TransactionManager, cfg *config.Config) *portssvc.ServiceContainer {
	repos := portsrepo.RepositoryProvider{Tx: tx, School: suite.school, Cache: suite.cache}
	return services.NewServiceContainer(cfg, repos, services.WithClock(func() time.Time { return suite.now }))
}

// setToday moves the clock to date at 10:00 UTC.
func (suite *FinanceSuite) setToday(date string) time.Time {
	suite.now = domain.MustDate(date).Add(10 * time.Hour)
	return domain.MustDate(date)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (suite *FinanceSuite) requireMoney(expected string, actual decimal.Decimal, msgAndArgs ...any) {
	suite.T().Helper()
	suite.Require().Truef(money(expected).Equal(actual), "expected %s, got %s %v", expected, actual.StringFixed(2), msgAndArgs)
}

func (suite *FinanceSuite) category(name string) string {
	suite.T().Helper()
	cat, err := suite.svc.Catalog.CreateCategory(suite.ctx, dto.CreateFeeCategoryRequest{Name: name, IsMandatory: true}, admin)
	suite.Require().NoError(err)
	return cat.ID
}

type structureOpt func(*dto.CreateFeeStructureRequest)

func lateFee(pct string, grace int) structureOpt {
	return func(r *dto.CreateFeeStructureRequest) {
		r.LateFeePercentage = money(pct)
		r.GracePeriodDays = grace
	}
}

func inTerm(termID, due string) structureOpt {
	return func(r *dto.CreateFeeStructureRequest) {
		r.TermID = termID
		r.DueDate = due
	}
}

func (suite *FinanceSuite) structure(kind domain.LevelKind, levelID, categoryID, amount string, opts ...structureOpt) *domain.FeeStructure {
	suite.T().Helper()
	req := dto.CreateFeeStructureRequest{
		AcademicYearID: year,
		TermID:         term1,
		LevelKind:      kind,
		LevelID:        levelID,
		CategoryID:     categoryID,
		Amount:         money(amount),
		DueDate:        "2024-05-01",
	}
	for _, opt := range opts {
		opt(&req)
	}
	fs, err := suite.svc.Catalog.CreateFeeStructure(suite.ctx, req, admin)
	suite.Require().NoError(err)
	return fs
}

// seedTuitionAndTransport prices tuition at the section and transport at the grade, both due 2024-05-01.
func (suite *FinanceSuite) seedTuitionAndTransport() {
	suite.structure(domain.LevelSection, section, suite.category("Tuition"), "5000.00")
	suite.structure(domain.LevelGrade, grade, suite.category("Transport"), "1000.00")
}

// seedFlat prices a single 500.00 tuition item in term 1 and term 2.
func (suite *FinanceSuite) seedFlat() {
	tuition := suite.category("Tuition")
	suite.structure(domain.LevelSection, section, tuition, "500.00")
	suite.structure(domain.LevelSection, section, tuition, "500.00", inTerm(term2, "2024-08-15"))
}

func (suite *FinanceSuite) generate(studentID, termID string) domain.Invoice {
	suite.T().Helper()
	view, err := suite.svc.Invoice.GenerateInvoice(suite.ctx, dto.GenerateInvoiceRequest{StudentID: studentID, AcademicYearID: year, TermID: termID}, admin)
	suite.Require().NoError(err)
	return view.Invoice
}

func (suite *FinanceSuite) invoice(invoiceID string) *dto.InvoiceView {
	suite.T().Helper()
	view, err := suite.svc.Invoice.GetInvoice(suite.ctx, invoiceID)
	suite.Require().NoError(err)
	return view
}

func (suite *FinanceSuite) pay(invoiceID, amount string) *dto.PaymentView {
	suite.T().Helper()
	view, err := suite.svc.Ledger.ApplyPayment(suite.ctx, invoiceID, dto.ApplyPaymentRequest{Amount: money(amount), Method: domain.MethodCash}, admin)
	suite.Require().NoError(err)
	return view
}

type scholarshipOpt func(*dto.CreateScholarshipRequest)

func scopedTo(categories ...string) scholarshipOpt {
	return func(r *dto.CreateScholarshipRequest) { r.ApplicableCategories = categories }
}

func forTerms(termIDs ...string) scholarshipOpt {
	return func(r *dto.CreateScholarshipRequest) { r.ApplicableTermIDs = termIDs }
}

func capped(n int) scholarshipOpt {
	return func(r *dto.CreateScholarshipRequest) { r.MaxRecipients = &n }
}

func (suite *FinanceSuite) scholarship(discountType domain.DiscountType, value string, opts ...scholarshipOpt) *domain.Scholarship {
	suite.T().Helper()
	req := dto.CreateScholarshipRequest{
		Name:           "Scholarship " + value,
		Criteria:       "merit",
		DiscountType:   discountType,
		DiscountValue:  money(value),
		AcademicYearID: year,
	}
	for _, opt := range opts {
		opt(&req)
	}
	sch, err := suite.svc.Scholarship.CreateScholarship(suite.ctx, req, admin)
	suite.Require().NoError(err)
	return sch
}

func (suite *FinanceSuite) assign(studentID, scholarshipID string) *domain.StudentScholarship {
	suite.T().Helper()
	a, err := suite.svc.Scholarship.AssignScholarship(suite.ctx, dto.AssignScholarshipRequest{
		StudentID:     studentID,
		ScholarshipID: scholarshipID,
		StartDate:     "2024-04-01",
	}, admin)
	suite.Require().NoError(err)
	return a
}

func (suite *FinanceSuite) grant(studentID, scholarshipID string) *domain.StudentScholarship {
	suite.T().Helper()
	a, err := suite.svc.Scholarship.ApproveScholarship(suite.ctx, suite.assign(studentID, scholarshipID).ID, admin)
	suite.Require().NoError(err)
	return a
}

// requireConsistent checks the header totals against items and the ledger.
func (suite *FinanceSuite) requireConsistent(invoiceID string) *dto.InvoiceView {
	suite.T().Helper()
	view := suite.invoice(invoiceID)
	inv := view.Invoice
	suite.Require().NoError(inv.CheckTotals())

	paid := decimal.Zero
	for _, p := range view.Payments {
		if p.CountsTowardsPaid() {
			paid = paid.Add(p.Amount)
		}
	}
	suite.requireMoney(paid.StringFixed(2), inv.PaidAmount, "paid must equal the counted ledger")
	suite.Equal(domain.ComputeInvoiceStatus(inv.PaidAmount, inv.NetAmount, inv.DueDate, domain.DateOf(suite.now), inv.IsCancelled()), inv.Status)
	return view
}
