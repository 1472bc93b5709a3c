package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

func (s *store) FindScholarshipByID(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	defer s.read()()
	sch, ok := s.st().scholarships[scholarshipID]
	if !ok {
		return nil, notFound("scholarship", scholarshipID)
	}
	return cloneScholarship(sch), nil
}

func cloneScholarship(sch domain.Scholarship) *domain.Scholarship {
	sch.ApplicableTermIDs = append([]string(nil), sch.ApplicableTermIDs...)
	sch.ApplicableCategories = append([]string(nil), sch.ApplicableCategories...)
	return &sch
}

func (s *store) ListScholarships(ctx context.Context, academicYearID string) ([]domain.Scholarship, error) {
	defer s.read()()
	out := []domain.Scholarship{}
	for _, sch := range s.st().scholarships {
		if sch.AcademicYearID == academicYearID {
			out = append(out, *cloneScholarship(sch))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *store) ListScholarshipsByIDs(ctx context.Context, scholarshipIDs []string) (map[string]domain.Scholarship, error) {
	defer s.read()()
	out := make(map[string]domain.Scholarship, len(scholarshipIDs))
	for _, id := range scholarshipIDs {
		if sch, ok := s.st().scholarships[id]; ok {
			out[id] = *cloneScholarship(sch)
		}
	}
	return out, nil
}

func (s *store) SaveScholarship(ctx context.Context, scholarship domain.Scholarship) error {
	defer s.write()()
	s.st().scholarships[scholarship.ID] = *cloneScholarship(scholarship)
	s.st().track(scholarship.ID)
	return nil
}

// LockScholarship is a plain read; the unit of work already holds the database lock.
func (s *store) LockScholarship(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	return s.FindScholarshipByID(ctx, scholarshipID)
}

func (s *store) UpdateScholarship(ctx context.Context, scholarship domain.Scholarship) error {
	defer s.write()()
	stored, ok := s.st().scholarships[scholarship.ID]
	if !ok {
		return notFound("scholarship", scholarship.ID)
	}
	stored.CurrentRecipients = scholarship.CurrentRecipients
	stored.IsActive = scholarship.IsActive
	stored.LastUpdatedAt = scholarship.LastUpdatedAt
	stored.LastUpdatedBy = scholarship.LastUpdatedBy
	s.st().scholarships[scholarship.ID] = stored
	return nil
}

func (s *store) FindAssignmentByID(ctx context.Context, assignmentID string) (*domain.StudentScholarship, error) {
	defer s.read()()
	a, ok := s.st().assignments[assignmentID]
	if !ok {
		return nil, notFound("scholarship assignment", assignmentID)
	}
	return &a, nil
}

func (s *store) openAssignment(studentID, scholarshipID string) (domain.StudentScholarship, bool) {
	for _, a := range s.st().assignments {
		if a.StudentID == studentID && a.ScholarshipID == scholarshipID && !a.IsTerminal() {
			return a, true
		}
	}
	return domain.StudentScholarship{}, false
}

func (s *store) FindOpenAssignment(ctx context.Context, studentID, scholarshipID string) (*domain.StudentScholarship, error) {
	defer s.read()()
	a, ok := s.openAssignment(studentID, scholarshipID)
	if !ok {
		return nil, notFound("open scholarship assignment", studentID+"/"+scholarshipID)
	}
	return &a, nil
}

func (s *store) ListAssignmentsByStudent(ctx context.Context, studentID string) ([]domain.StudentScholarship, error) {
	defer s.read()()
	out := []domain.StudentScholarship{}
	for _, a := range s.st().assignments {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	order := s.st().order
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScholarshipID != out[j].ScholarshipID {
			return out[i].ScholarshipID < out[j].ScholarshipID
		}
		return order[out[i].ID] < order[out[j].ID]
	})
	return out, nil
}

func (s *store) ListAssignmentsByScholarship(ctx context.Context, scholarshipID string) ([]domain.StudentScholarship, error) {
	defer s.read()()
	out := []domain.StudentScholarship{}
	for _, a := range s.st().assignments {
		if a.ScholarshipID == scholarshipID {
			out = append(out, a)
		}
	}
	order := s.st().order
	sort.Slice(out, func(i, j int) bool { return order[out[i].ID] < order[out[j].ID] })
	return out, nil
}

func (s *store) CountApprovedAssignments(ctx context.Context, scholarshipID string) (int, error) {
	defer s.read()()
	n := 0
	for _, a := range s.st().assignments {
		if a.ScholarshipID == scholarshipID && a.Status == domain.AssignmentApproved {
			n++
		}
	}
	return n, nil
}

func (s *store) SaveAssignment(ctx context.Context, assignment domain.StudentScholarship) error {
	defer s.write()()
	if open, dup := s.openAssignment(assignment.StudentID, assignment.ScholarshipID); dup {
		return fmt.Errorf("%w: open assignment %s exists", apperrors.ErrDuplicate, open.ID)
	}
	s.st().assignments[assignment.ID] = assignment
	s.st().track(assignment.ID)
	return nil
}

// LockAssignment is a plain read; the unit of work already holds the database lock.
func (s *store) LockAssignment(ctx context.Context, assignmentID string) (*domain.StudentScholarship, error) {
	return s.FindAssignmentByID(ctx, assignmentID)
}

func (s *store) UpdateAssignment(ctx context.Context, assignment domain.StudentScholarship) error {
	defer s.write()()
	if _, ok := s.st().assignments[assignment.ID]; !ok {
		return notFound("scholarship assignment", assignment.ID)
	}
	s.st().assignments[assignment.ID] = assignment
	return nil
}
