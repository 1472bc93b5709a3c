package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
)

// School is an in-memory academics calendar and student directory.
type School struct {
	mu       sync.RWMutex
	years    map[string]domain.AcademicYear
	terms    map[string]domain.Term
	sections map[string]domain.Section
	grades   map[string]domain.Grade
	classes  map[string]domain.Class
	students map[string]domain.Student
}

// NewSchool creates an empty school.
func NewSchool() *School {
	return &School{
		years:    map[string]domain.AcademicYear{},
		terms:    map[string]domain.Term{},
		sections: map[string]domain.Section{},
		grades:   map[string]domain.Grade{},
		classes:  map[string]domain.Class{},
		students: map[string]domain.Student{},
	}
}

var _ portsrepo.SchoolReader = (*School)(nil)

func (s *School) AddYear(y domain.AcademicYear) { s.mu.Lock(); s.years[y.ID] = y; s.mu.Unlock() }
func (s *School) AddTerm(t domain.Term)         { s.mu.Lock(); s.terms[t.ID] = t; s.mu.Unlock() }
func (s *School) AddSection(sec domain.Section) { s.mu.Lock(); s.sections[sec.ID] = sec; s.mu.Unlock() }
func (s *School) AddGrade(g domain.Grade)       { s.mu.Lock(); s.grades[g.ID] = g; s.mu.Unlock() }
func (s *School) AddClass(c domain.Class)       { s.mu.Lock(); s.classes[c.ID] = c; s.mu.Unlock() }
func (s *School) AddStudent(st domain.Student)  { s.mu.Lock(); s.students[st.ID] = st; s.mu.Unlock() }

func find[V any](mu *sync.RWMutex, m map[string]V, kind, id string) (*V, error) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := m[id]
	if !ok {
		return nil, notFound(kind, id)
	}
	return &v, nil
}

func (s *School) FindAcademicYear(ctx context.Context, academicYearID string) (*domain.AcademicYear, error) {
	return find(&s.mu, s.years, "academic year", academicYearID)
}

func (s *School) FindTerm(ctx context.Context, termID string) (*domain.Term, error) {
	return find(&s.mu, s.terms, "term", termID)
}

func (s *School) ListTerms(ctx context.Context, academicYearID string) ([]domain.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Term{}
	for _, t := range s.terms {
		if t.AcademicYearID == academicYearID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *School) FindSection(ctx context.Context, sectionID string) (*domain.Section, error) {
	return find(&s.mu, s.sections, "section", sectionID)
}

func (s *School) FindGrade(ctx context.Context, gradeID string) (*domain.Grade, error) {
	return find(&s.mu, s.grades, "grade", gradeID)
}

func (s *School) FindClass(ctx context.Context, classID string) (*domain.Class, error) {
	return find(&s.mu, s.classes, "class", classID)
}

func (s *School) FindStudent(ctx context.Context, studentID string) (*domain.Student, error) {
	return find(&s.mu, s.students, "student", studentID)
}

func (s *School) ListStudentIDsByClass(ctx context.Context, classID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for _, st := range s.students {
		if st.Status == domain.StudentActive && st.CurrentClassID != nil && *st.CurrentClassID == classID {
			out = append(out, st.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SeedDemo loads a small school: one year with three terms, a primary section with grade 1
// and its class, and three enrolled students. It backs the memory storage driver.
func (s *School) SeedDemo() {
	s.AddYear(domain.AcademicYear{ID: "ay-2024", Name: "2024/2025", StartDate: domain.MustDate("2024-04-01"), EndDate: domain.MustDate("2025-03-31")})
	s.AddTerm(domain.Term{ID: "term-1", AcademicYearID: "ay-2024", Name: "Term 1", StartDate: domain.MustDate("2024-04-01"), EndDate: domain.MustDate("2024-07-31"), IsCurrent: true})
	s.AddTerm(domain.Term{ID: "term-2", AcademicYearID: "ay-2024", Name: "Term 2", StartDate: domain.MustDate("2024-08-01"), EndDate: domain.MustDate("2024-11-30")})
	s.AddTerm(domain.Term{ID: "term-3", AcademicYearID: "ay-2024", Name: "Term 3", StartDate: domain.MustDate("2024-12-01"), EndDate: domain.MustDate("2025-03-31")})
	s.AddSection(domain.Section{ID: "sec-primary", Name: "Primary"})
	s.AddGrade(domain.Grade{ID: "grade-1", Name: "Grade 1", SectionID: "sec-primary"})
	s.AddClass(domain.Class{ID: "class-1a", Name: "1A", GradeID: "grade-1", AcademicYearID: "ay-2024"})
	class := "class-1a"
	for _, st := range []domain.Student{
		{ID: "stu-001", FullName: "Asha Rao", CurrentClassID: &class, Status: domain.StudentActive},
		{ID: "stu-002", FullName: "Ben Okafor", CurrentClassID: &class, Status: domain.StudentActive},
		{ID: "stu-003", FullName: "Chen Wei", CurrentClassID: &class, Status: domain.StudentActive},
	} {
		s.AddStudent(st)
	}
}

// NewRepositoryProvider wires the memory database and school into a provider.
func NewRepositoryProvider(db *DB, school portsrepo.SchoolReader, cache portsrepo.AnalyticsCache) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Tx:     NewTxManager(db),
		School: school,
		Cache:  cache,
	}
}
