package services_test

import (
	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

func (suite *FinanceSuite) recipients(scholarshipID string) int {
	suite.T().Helper()
	sch, err := suite.svc.Scholarship.GetScholarship(suite.ctx, scholarshipID)
	suite.Require().NoError(err)
	return sch.CurrentRecipients
}

func (suite *FinanceSuite) TestApproveScholarship_CapacityExhausted() {
	sch := suite.scholarship(domain.DiscountPercentage, "25", capped(1))
	suite.grant(stu1, sch.ID)
	suite.Equal(1, suite.recipients(sch.ID))

	second := suite.assign(stu2, sch.ID)
	suite.Equal(domain.AssignmentPending, second.Status)

	_, err := suite.svc.Scholarship.ApproveScholarship(suite.ctx, second.ID, admin)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrScholarshipFull)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Equal(1, suite.recipients(sch.ID))

	assignments, err := suite.svc.Scholarship.ListAssignments(suite.ctx, sch.ID)
	suite.Require().NoError(err)
	suite.Len(assignments, 2)
}

func (suite *FinanceSuite) TestSuspendScholarship_FreesSlot() {
	sch := suite.scholarship(domain.DiscountFixed, "300.00", capped(1))
	first := suite.grant(stu1, sch.ID)

	suspended, err := suite.svc.Scholarship.SuspendScholarship(suite.ctx, first.ID, dto.ScholarshipTransitionRequest{Notes: "grades dropped"}, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.AssignmentSuspended, suspended.Status)
	suite.Equal(0, suite.recipients(sch.ID))

	suite.grant(stu2, sch.ID)
	suite.Equal(1, suite.recipients(sch.ID))

	_, err = suite.svc.Scholarship.ApproveScholarship(suite.ctx, first.ID, admin)
	suite.ErrorIs(err, apperrors.ErrScholarshipFull)

	_, err = suite.svc.Scholarship.SuspendScholarship(suite.ctx, first.ID, dto.ScholarshipTransitionRequest{}, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *FinanceSuite) TestTerminateScholarship_EndsAssignment() {
	sch := suite.scholarship(domain.DiscountPercentage, "10")
	approved := suite.grant(stu1, sch.ID)
	suite.Equal(1, suite.recipients(sch.ID))

	terminated, err := suite.svc.Scholarship.TerminateScholarship(suite.ctx, approved.ID, dto.ScholarshipTransitionRequest{Notes: "left school"}, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.AssignmentTerminated, terminated.Status)
	suite.Require().NotNil(terminated.EndDate)
	suite.Equal(domain.MustDate("2024-04-15"), *terminated.EndDate)
	suite.Equal(0, suite.recipients(sch.ID))

	_, err = suite.svc.Scholarship.TerminateScholarship(suite.ctx, approved.ID, dto.ScholarshipTransitionRequest{}, admin)
	suite.ErrorIs(err, apperrors.ErrConflict)

	// A terminated assignment no longer blocks a new one.
	again := suite.assign(stu1, sch.ID)
	suite.Equal(domain.AssignmentPending, again.Status)

	pending := suite.assign(stu2, sch.ID)
	_, err = suite.svc.Scholarship.TerminateScholarship(suite.ctx, pending.ID, dto.ScholarshipTransitionRequest{}, admin)
	suite.Require().NoError(err)
	suite.Equal(0, suite.recipients(sch.ID))
}

func (suite *FinanceSuite) TestAssignScholarship_OneOpenAssignmentPerStudent() {
	sch := suite.scholarship(domain.DiscountPercentage, "10")
	suite.assign(stu1, sch.ID)

	_, err := suite.svc.Scholarship.AssignScholarship(suite.ctx, dto.AssignScholarshipRequest{
		StudentID:     stu1,
		ScholarshipID: sch.ID,
		StartDate:     "2024-05-01",
	}, admin)
	suite.ErrorIs(err, apperrors.ErrDuplicate)

	end := "2024-03-01"
	_, err = suite.svc.Scholarship.AssignScholarship(suite.ctx, dto.AssignScholarshipRequest{
		StudentID:     stu2,
		ScholarshipID: sch.ID,
		StartDate:     "2024-04-01",
		EndDate:       &end,
	}, admin)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.Scholarship.AssignScholarship(suite.ctx, dto.AssignScholarshipRequest{
		StudentID:     "stu-missing",
		ScholarshipID: sch.ID,
		StartDate:     "2024-04-01",
	}, admin)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *FinanceSuite) TestCreateScholarship_Validation() {
	cases := []struct {
		name string
		req  dto.CreateScholarshipRequest
		want error
	}{
		{"percentage above 100", dto.CreateScholarshipRequest{Name: "Too much", Criteria: "merit", DiscountType: domain.DiscountPercentage, DiscountValue: money("120"), AcademicYearID: year}, apperrors.ErrValidation},
		{"zero fixed", dto.CreateScholarshipRequest{Name: "Nothing", Criteria: "need", DiscountType: domain.DiscountFixed, DiscountValue: money("0"), AcademicYearID: year}, apperrors.ErrValidation},
		{"term of another year", dto.CreateScholarshipRequest{Name: "Stray", Criteria: "need", DiscountType: domain.DiscountFixed, DiscountValue: money("10.00"), AcademicYearID: year, ApplicableTermIDs: []string{"term-x"}}, apperrors.ErrNotFound},
		{"unknown year", dto.CreateScholarshipRequest{Name: "Ghost", Criteria: "need", DiscountType: domain.DiscountFixed, DiscountValue: money("10.00"), AcademicYearID: "ay-1999"}, apperrors.ErrNotFound},
	}
	for _, tc := range cases {
		_, err := suite.svc.Scholarship.CreateScholarship(suite.ctx, tc.req, admin)
		suite.ErrorIs(err, tc.want, tc.name)
	}

	list, err := suite.svc.Scholarship.ListScholarships(suite.ctx, year)
	suite.Require().NoError(err)
	suite.Empty(list)
}

func (suite *FinanceSuite) TestEffectiveScholarships_Eligibility() {
	allYear := suite.scholarship(domain.DiscountPercentage, "10")
	laterTerm := suite.scholarship(domain.DiscountPercentage, "15", forTerms(term2))
	sports := suite.scholarship(domain.DiscountFixed, "200.00", scopedTo("Sports"))
	unapproved := suite.scholarship(domain.DiscountPercentage, "5")

	suite.grant(stu1, allYear.ID)
	suite.grant(stu1, laterTerm.ID)
	suite.grant(stu1, sports.ID)
	suite.assign(stu1, unapproved.ID)

	today := domain.MustDate("2024-04-15")
	effective, err := suite.svc.Scholarship.EffectiveScholarships(suite.ctx, stu1, year, term1, today)
	suite.Require().NoError(err)
	ids := map[string]domain.Applicability{}
	for _, e := range effective {
		ids[e.Scholarship.ID] = e.Applicability
	}
	suite.Len(ids, 2)
	suite.Equal(domain.ApplicabilityAllCategories, ids[allYear.ID])
	suite.Equal(domain.ApplicabilityCategories, ids[sports.ID])
	for i := 1; i < len(effective); i++ {
		suite.Less(effective[i-1].Scholarship.ID, effective[i].Scholarship.ID)
	}

	effective, err = suite.svc.Scholarship.EffectiveScholarships(suite.ctx, stu1, year, term2, today)
	suite.Require().NoError(err)
	suite.Len(effective, 3)
}

func (suite *FinanceSuite) TestEffectiveScholarships_DateWindow() {
	sch := suite.scholarship(domain.DiscountPercentage, "10")
	end := "2024-04-30"
	assignment, err := suite.svc.Scholarship.AssignScholarship(suite.ctx, dto.AssignScholarshipRequest{
		StudentID:     stu1,
		ScholarshipID: sch.ID,
		StartDate:     "2024-04-10",
		EndDate:       &end,
	}, admin)
	suite.Require().NoError(err)
	_, err = suite.svc.Scholarship.ApproveScholarship(suite.ctx, assignment.ID, admin)
	suite.Require().NoError(err)

	for date, want := range map[string]int{"2024-04-09": 0, "2024-04-10": 1, "2024-04-30": 1, "2024-05-01": 0} {
		effective, err := suite.svc.Scholarship.EffectiveScholarships(suite.ctx, stu1, year, term1, domain.MustDate(date))
		suite.Require().NoError(err)
		suite.Len(effective, want, date)
	}

	held, err := suite.svc.Scholarship.ListStudentAssignments(suite.ctx, stu1)
	suite.Require().NoError(err)
	suite.Len(held, 1)
}

func (suite *FinanceSuite) TestGenerateInvoice_SuspendedScholarshipNotApplied() {
	suite.seedTuitionAndTransport()
	sch := suite.scholarship(domain.DiscountPercentage, "10")
	granted := suite.grant(stu1, sch.ID)
	_, err := suite.svc.Scholarship.SuspendScholarship(suite.ctx, granted.ID, dto.ScholarshipTransitionRequest{}, admin)
	suite.Require().NoError(err)

	inv := suite.generate(stu1, term1)
	suite.requireMoney("0.00", inv.DiscountAmount)
	suite.Empty(inv.Scholarships)
}
