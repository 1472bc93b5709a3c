// Package gormdb reads the academic calendar and student directory through gorm. Those tables
// are owned by the school platform, so the adapter never writes to them.
package gormdb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
)

// SchoolReader implements the academics and directory ports over gorm.
type SchoolReader struct {
	db *gorm.DB
}

// NewSchoolReader creates a reader over an open gorm handle.
func NewSchoolReader(db *gorm.DB) *SchoolReader {
	return &SchoolReader{db: db}
}

var _ portsrepo.SchoolReader = (*SchoolReader)(nil)

// first loads one row by primary key, translating a missing row into ErrNotFound.
func first[M any](ctx context.Context, db *gorm.DB, kind, column, id string) (*M, error) {
	var m M
	err := db.WithContext(ctx).Where(column+" = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
		}
		return nil, apperrors.NewAppError(500, "failed to load "+kind+" "+id, err)
	}
	return &m, nil
}

func (r *SchoolReader) FindAcademicYear(ctx context.Context, academicYearID string) (*domain.AcademicYear, error) {
	m, err := first[AcademicYear](ctx, r.db, "academic year", "academic_year_id", academicYearID)
	if err != nil {
		return nil, err
	}
	return &domain.AcademicYear{ID: m.AcademicYearID, Name: m.Name, StartDate: domain.DateOf(m.StartDate), EndDate: domain.DateOf(m.EndDate)}, nil
}

func toDomainTerm(m Term) domain.Term {
	return domain.Term{
		ID:             m.TermID,
		AcademicYearID: m.AcademicYearID,
		Name:           m.Name,
		StartDate:      domain.DateOf(m.StartDate),
		EndDate:        domain.DateOf(m.EndDate),
		IsCurrent:      m.IsCurrent,
	}
}

func (r *SchoolReader) FindTerm(ctx context.Context, termID string) (*domain.Term, error) {
	m, err := first[Term](ctx, r.db, "term", "term_id", termID)
	if err != nil {
		return nil, err
	}
	t := toDomainTerm(*m)
	return &t, nil
}

func (r *SchoolReader) ListTerms(ctx context.Context, academicYearID string) ([]domain.Term, error) {
	var ms []Term
	err := r.db.WithContext(ctx).
		Where("academic_year_id = ?", academicYearID).
		Order("start_date").
		Find(&ms).Error
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list terms of "+academicYearID, err)
	}
	out := make([]domain.Term, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainTerm(m))
	}
	return out, nil
}

func (r *SchoolReader) FindSection(ctx context.Context, sectionID string) (*domain.Section, error) {
	m, err := first[Section](ctx, r.db, "section", "section_id", sectionID)
	if err != nil {
		return nil, err
	}
	return &domain.Section{ID: m.SectionID, Name: m.Name}, nil
}

func (r *SchoolReader) FindGrade(ctx context.Context, gradeID string) (*domain.Grade, error) {
	m, err := first[Grade](ctx, r.db, "grade", "grade_id", gradeID)
	if err != nil {
		return nil, err
	}
	return &domain.Grade{ID: m.GradeID, Name: m.Name, SectionID: m.SectionID}, nil
}

func (r *SchoolReader) FindClass(ctx context.Context, classID string) (*domain.Class, error) {
	m, err := first[Class](ctx, r.db, "class", "class_id", classID)
	if err != nil {
		return nil, err
	}
	return &domain.Class{ID: m.ClassID, Name: m.Name, GradeID: m.GradeID, AcademicYearID: m.AcademicYearID}, nil
}

func (r *SchoolReader) FindStudent(ctx context.Context, studentID string) (*domain.Student, error) {
	m, err := first[Student](ctx, r.db, "student", "student_id", studentID)
	if err != nil {
		return nil, err
	}
	return &domain.Student{
		ID:             m.StudentID,
		FullName:       m.FullName,
		CurrentClassID: m.CurrentClassID,
		Status:         domain.StudentStatus(m.Status),
	}, nil
}

func (r *SchoolReader) ListStudentIDsByClass(ctx context.Context, classID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).
		Model(&Student{}).
		Where("current_class_id = ? AND status = ?", classID, string(domain.StudentActive)).
		Order("student_id").
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list students of class "+classID, err)
	}
	return ids, nil
}
