package repositories

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// AcademicsReader is the read-only view of the academic calendar and structure.
type AcademicsReader interface {
	FindAcademicYear(ctx context.Context, academicYearID string) (*domain.AcademicYear, error)
	FindTerm(ctx context.Context, termID string) (*domain.Term, error)

	// ListTerms returns the terms of a year ordered by start date.
	ListTerms(ctx context.Context, academicYearID string) ([]domain.Term, error)

	FindSection(ctx context.Context, sectionID string) (*domain.Section, error)
	FindGrade(ctx context.Context, gradeID string) (*domain.Grade, error)
	FindClass(ctx context.Context, classID string) (*domain.Class, error)
}

// DirectoryReader is the read-only view of the student directory.
type DirectoryReader interface {
	FindStudent(ctx context.Context, studentID string) (*domain.Student, error)

	// ListStudentIDsByClass returns active students currently placed in a class.
	ListStudentIDsByClass(ctx context.Context, classID string) ([]string, error)
}

// SchoolReader combines the academics and directory views.
type SchoolReader interface {
	AcademicsReader
	DirectoryReader
}
