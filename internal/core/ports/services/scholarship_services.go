package services

import (
	"context"
	"time"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

// EligibilitySvc resolves which scholarships a student benefits from.
type EligibilitySvc interface {
	// EffectiveScholarships returns approved, in-window scholarships of the year covering the term,
	// ordered by scholarship id.
	EffectiveScholarships(ctx context.Context, studentID, academicYearID, termID string, today time.Time) ([]domain.EffectiveScholarship, error)
}

// ScholarshipReaderSvc defines read operations for scholarships.
type ScholarshipReaderSvc interface {
	GetScholarship(ctx context.Context, scholarshipID string) (*domain.Scholarship, error)
	ListScholarships(ctx context.Context, academicYearID string) ([]domain.Scholarship, error)
	ListAssignments(ctx context.Context, scholarshipID string) ([]domain.StudentScholarship, error)
	ListStudentAssignments(ctx context.Context, studentID string) ([]domain.StudentScholarship, error)
}

// ScholarshipWriterSvc defines scholarship administration and assignment transitions.
type ScholarshipWriterSvc interface {
	CreateScholarship(ctx context.Context, req dto.CreateScholarshipRequest, actorID string) (*domain.Scholarship, error)

	// AssignScholarship creates a pending assignment.
	AssignScholarship(ctx context.Context, req dto.AssignScholarshipRequest, actorID string) (*domain.StudentScholarship, error)

	// ApproveScholarship moves a pending or suspended assignment to approved under the scholarship lock.
	ApproveScholarship(ctx context.Context, assignmentID string, actorID string) (*domain.StudentScholarship, error)

	// SuspendScholarship moves an approved assignment to suspended and frees its slot.
	SuspendScholarship(ctx context.Context, assignmentID string, req dto.ScholarshipTransitionRequest, actorID string) (*domain.StudentScholarship, error)

	// TerminateScholarship ends any non-terminal assignment.
	TerminateScholarship(ctx context.Context, assignmentID string, req dto.ScholarshipTransitionRequest, actorID string) (*domain.StudentScholarship, error)
}

// ScholarshipSvcFacade combines all scholarship service interfaces.
type ScholarshipSvcFacade interface {
	EligibilitySvc
	ScholarshipReaderSvc
	ScholarshipWriterSvc
}
