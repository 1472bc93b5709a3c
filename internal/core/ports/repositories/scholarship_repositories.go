package repositories

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// ScholarshipReader defines read operations for scholarships and assignments.
type ScholarshipReader interface {
	FindScholarshipByID(ctx context.Context, scholarshipID string) (*domain.Scholarship, error)

	// ListScholarships returns the scholarships of an academic year ordered by id.
	ListScholarships(ctx context.Context, academicYearID string) ([]domain.Scholarship, error)

	// ListScholarshipsByIDs returns the requested scholarships keyed by id.
	ListScholarshipsByIDs(ctx context.Context, scholarshipIDs []string) (map[string]domain.Scholarship, error)

	FindAssignmentByID(ctx context.Context, assignmentID string) (*domain.StudentScholarship, error)

	// FindOpenAssignment returns the student's non-terminal assignment of a scholarship, or ErrNotFound.
	FindOpenAssignment(ctx context.Context, studentID, scholarshipID string) (*domain.StudentScholarship, error)

	// ListAssignmentsByStudent returns every assignment of a student ordered by scholarship id.
	ListAssignmentsByStudent(ctx context.Context, studentID string) ([]domain.StudentScholarship, error)

	// ListAssignmentsByScholarship returns every assignment of a scholarship ordered by creation.
	ListAssignmentsByScholarship(ctx context.Context, scholarshipID string) ([]domain.StudentScholarship, error)

	// CountApprovedAssignments counts assignments in the approved state.
	CountApprovedAssignments(ctx context.Context, scholarshipID string) (int, error)
}

// ScholarshipWriter defines write operations for scholarships and assignments.
type ScholarshipWriter interface {
	SaveScholarship(ctx context.Context, scholarship domain.Scholarship) error

	// LockScholarship reads a scholarship holding an exclusive row lock until the unit of work ends.
	LockScholarship(ctx context.Context, scholarshipID string) (*domain.Scholarship, error)

	// UpdateScholarship rewrites the recipient count, active flag and audit fields.
	UpdateScholarship(ctx context.Context, scholarship domain.Scholarship) error

	// SaveAssignment inserts an assignment. A second open assignment returns ErrDuplicate.
	SaveAssignment(ctx context.Context, assignment domain.StudentScholarship) error

	// LockAssignment reads an assignment holding an exclusive row lock.
	LockAssignment(ctx context.Context, assignmentID string) (*domain.StudentScholarship, error)

	// UpdateAssignment rewrites status, approval and end date fields.
	UpdateAssignment(ctx context.Context, assignment domain.StudentScholarship) error
}

// ScholarshipRepositoryFacade combines scholarship reads and writes.
type ScholarshipRepositoryFacade interface {
	ScholarshipReader
	ScholarshipWriter
}
