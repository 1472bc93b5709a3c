package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/utils/validation"
)

// scholarshipService owns scholarship rules, assignments and eligibility.
type scholarshipService struct {
	BaseService
	tx     portsrepo.TransactionManager
	school portsrepo.SchoolReader
}

// NewScholarshipService creates a new ScholarshipService.
func NewScholarshipService(tx portsrepo.TransactionManager, school portsrepo.SchoolReader, base BaseService) portssvc.ScholarshipSvcFacade {
	return &scholarshipService{BaseService: base, tx: tx, school: school}
}

var _ portssvc.ScholarshipSvcFacade = (*scholarshipService)(nil)

// effectiveScholarships is the eligibility rule shared with fee resolution, which calls it
// inside its own unit of work.
func effectiveScholarships(ctx context.Context, store portsrepo.Store, studentID, academicYearID, termID string, today time.Time) ([]domain.EffectiveScholarship, error) {
	assignments, err := store.Scholarships().ListAssignmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scholarship assignments: %w", err)
	}
	active := lo.Filter(assignments, func(a domain.StudentScholarship, _ int) bool {
		return a.IsEffectiveOn(today)
	})
	if len(active) == 0 {
		return nil, nil
	}
	ids := lo.Uniq(lo.Map(active, func(a domain.StudentScholarship, _ int) string { return a.ScholarshipID }))
	rules, err := store.Scholarships().ListScholarshipsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load scholarships: %w", err)
	}

	effective := make([]domain.EffectiveScholarship, 0, len(active))
	for _, a := range active {
		s, ok := rules[a.ScholarshipID]
		if !ok || !s.IsActive || s.AcademicYearID != academicYearID || !s.AppliesToTerm(termID) {
			continue
		}
		applicability := domain.ApplicabilityAllCategories
		if !s.CoversAllCategories() {
			applicability = domain.ApplicabilityCategories
		}
		effective = append(effective, domain.EffectiveScholarship{Scholarship: s, Assignment: a, Applicability: applicability})
	}
	sort.Slice(effective, func(i, j int) bool {
		return effective[i].Scholarship.ID < effective[j].Scholarship.ID
	})
	return effective, nil
}

func (s *scholarshipService) EffectiveScholarships(ctx context.Context, studentID, academicYearID, termID string, today time.Time) ([]domain.EffectiveScholarship, error) {
	return effectiveScholarships(ctx, s.tx.Reader(), studentID, academicYearID, termID, domain.DateOf(today))
}

func (s *scholarshipService) CreateScholarship(ctx context.Context, req dto.CreateScholarshipRequest, actorID string) (*domain.Scholarship, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.school.FindAcademicYear(ctx, req.AcademicYearID); err != nil {
		return nil, fmt.Errorf("academic year %s: %w", req.AcademicYearID, err)
	}
	for _, termID := range req.ApplicableTermIDs {
		term, err := s.school.FindTerm(ctx, termID)
		if err != nil {
			return nil, fmt.Errorf("term %s: %w", termID, err)
		}
		if term.AcademicYearID != req.AcademicYearID {
			return nil, validationErr("term %s does not belong to academic year %s", termID, req.AcademicYearID)
		}
	}
	scholarship := domain.Scholarship{
		ID:                   uuid.NewString(),
		Name:                 req.Name,
		Criteria:             req.Criteria,
		DiscountType:         req.DiscountType,
		DiscountValue:        req.DiscountValue,
		AcademicYearID:       req.AcademicYearID,
		ApplicableTermIDs:    lo.Uniq(req.ApplicableTermIDs),
		ApplicableCategories: lo.Uniq(req.ApplicableCategories),
		MaxRecipients:        req.MaxRecipients,
		IsActive:             true,
		AuditFields:          domain.NewAuditFields(actorID, s.Now()),
	}
	if err := asValidation(scholarship.Validate()); err != nil {
		return nil, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		if err := store.Scholarships().SaveScholarship(ctx, scholarship); err != nil {
			return err
		}
		return s.Audit(ctx, store, actorID, domain.AuditScholarshipCreated, domain.EntityScholarship, scholarship.ID, map[string]string{
			"type":  string(scholarship.DiscountType),
			"value": scholarship.DiscountValue.String(),
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to create scholarship", slog.String("name", scholarship.Name))
		return nil, fmt.Errorf("failed to create scholarship: %w", err)
	}
	s.LogInfo(ctx, "Scholarship created", slog.String("scholarship_id", scholarship.ID))
	return &scholarship, nil
}

func (s *scholarshipService) GetScholarship(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	return s.tx.Reader().Scholarships().FindScholarshipByID(ctx, scholarshipID)
}

func (s *scholarshipService) ListScholarships(ctx context.Context, academicYearID string) ([]domain.Scholarship, error) {
	return s.tx.Reader().Scholarships().ListScholarships(ctx, academicYearID)
}

func (s *scholarshipService) ListAssignments(ctx context.Context, scholarshipID string) ([]domain.StudentScholarship, error) {
	return s.tx.Reader().Scholarships().ListAssignmentsByScholarship(ctx, scholarshipID)
}

func (s *scholarshipService) ListStudentAssignments(ctx context.Context, studentID string) ([]domain.StudentScholarship, error) {
	return s.tx.Reader().Scholarships().ListAssignmentsByStudent(ctx, studentID)
}

func (s *scholarshipService) AssignScholarship(ctx context.Context, req dto.AssignScholarshipRequest, actorID string) (*domain.StudentScholarship, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return nil, validationErr("invalid start date: %v", err)
	}
	var end *time.Time
	if req.EndDate != nil {
		e, err := domain.ParseDate(*req.EndDate)
		if err != nil {
			return nil, validationErr("invalid end date: %v", err)
		}
		if e.Before(start) {
			return nil, validationErr("end date %s is before start date %s", *req.EndDate, req.StartDate)
		}
		end = &e
	}
	if _, err := s.school.FindStudent(ctx, req.StudentID); err != nil {
		return nil, fmt.Errorf("student %s: %w", req.StudentID, err)
	}

	assignment := domain.StudentScholarship{
		ID:            uuid.NewString(),
		StudentID:     req.StudentID,
		ScholarshipID: req.ScholarshipID,
		StartDate:     start,
		EndDate:       end,
		Status:        domain.AssignmentPending,
		Notes:         req.Notes,
		AuditFields:   domain.NewAuditFields(actorID, s.Now()),
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		scholarship, err := store.Scholarships().FindScholarshipByID(ctx, req.ScholarshipID)
		if err != nil {
			return fmt.Errorf("scholarship %s: %w", req.ScholarshipID, err)
		}
		if !scholarship.IsActive {
			return validationErr("scholarship %s is not active", scholarship.ID)
		}
		open, err := store.Scholarships().FindOpenAssignment(ctx, req.StudentID, req.ScholarshipID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if open != nil {
			return fmt.Errorf("%w: student %s already holds assignment %s (%s)", apperrors.ErrDuplicate, req.StudentID, open.ID, open.Status)
		}
		if err := store.Scholarships().SaveAssignment(ctx, assignment); err != nil {
			return err
		}
		return s.Audit(ctx, store, actorID, domain.AuditScholarshipAssigned, domain.EntityAssignment, assignment.ID, map[string]string{
			"student_id":     assignment.StudentID,
			"scholarship_id": assignment.ScholarshipID,
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to assign scholarship", slog.String("student_id", req.StudentID), slog.String("scholarship_id", req.ScholarshipID))
		return nil, fmt.Errorf("failed to assign scholarship: %w", err)
	}
	s.LogInfo(ctx, "Scholarship assigned", slog.String("assignment_id", assignment.ID), slog.String("status", string(assignment.Status)))
	return &assignment, nil
}

// transition applies an assignment status change under the scholarship row lock and keeps
// current_recipients equal to the number of approved assignments.
func (s *scholarshipService) transition(ctx context.Context, assignmentID, actorID, notes string, action domain.AuditAction, apply func(a *domain.StudentScholarship, sch *domain.Scholarship) error) (*domain.StudentScholarship, error) {
	var result domain.StudentScholarship
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		peek, err := store.Scholarships().FindAssignmentByID(ctx, assignmentID)
		if err != nil {
			return fmt.Errorf("scholarship assignment %s: %w", assignmentID, err)
		}
		// Lock order is scholarship then assignment, matching every other recipient update.
		scholarship, err := store.Scholarships().LockScholarship(ctx, peek.ScholarshipID)
		if err != nil {
			return fmt.Errorf("scholarship %s: %w", peek.ScholarshipID, err)
		}
		assignment, err := store.Scholarships().LockAssignment(ctx, assignmentID)
		if err != nil {
			return fmt.Errorf("scholarship assignment %s: %w", assignmentID, err)
		}

		before := scholarship.CurrentRecipients
		if err := apply(assignment, scholarship); err != nil {
			return err
		}
		now := s.Now()
		if notes != "" {
			assignment.Notes = notes
		}
		assignment.Touch(actorID, now)
		if err := store.Scholarships().UpdateAssignment(ctx, *assignment); err != nil {
			return err
		}
		if scholarship.CurrentRecipients != before {
			if err := asValidation(scholarship.Validate()); err != nil {
				return err
			}
			scholarship.Touch(actorID, now)
			if err := store.Scholarships().UpdateScholarship(ctx, *scholarship); err != nil {
				return err
			}
		}
		result = *assignment
		return s.Audit(ctx, store, actorID, action, domain.EntityAssignment, assignment.ID, map[string]string{
			"scholarship_id":     scholarship.ID,
			"status":             string(assignment.Status),
			"current_recipients": strconv.Itoa(scholarship.CurrentRecipients),
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Scholarship transition rejected", slog.String("assignment_id", assignmentID), slog.String("action", string(action)))
		return nil, fmt.Errorf("failed to update scholarship assignment: %w", err)
	}
	s.LogInfo(ctx, "Scholarship assignment updated", slog.String("assignment_id", assignmentID), slog.String("status", string(result.Status)))
	return &result, nil
}

func (s *scholarshipService) ApproveScholarship(ctx context.Context, assignmentID string, actorID string) (*domain.StudentScholarship, error) {
	return s.transition(ctx, assignmentID, actorID, "", domain.AuditScholarshipApproved, func(a *domain.StudentScholarship, sch *domain.Scholarship) error {
		if a.Status != domain.AssignmentPending && a.Status != domain.AssignmentSuspended {
			return conflictErr("assignment %s is %s and cannot be approved", a.ID, a.Status)
		}
		if !sch.IsActive {
			return validationErr("scholarship %s is not active", sch.ID)
		}
		if !sch.HasCapacity() {
			return fmt.Errorf("%w (%d of %d recipients)", apperrors.ErrScholarshipFull, sch.CurrentRecipients, *sch.MaxRecipients)
		}
		now := s.Now()
		approver := actorID
		a.Status = domain.AssignmentApproved
		a.ApprovedBy = &approver
		a.ApprovedAt = &now
		sch.CurrentRecipients++
		return nil
	})
}

func (s *scholarshipService) SuspendScholarship(ctx context.Context, assignmentID string, req dto.ScholarshipTransitionRequest, actorID string) (*domain.StudentScholarship, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, assignmentID, actorID, req.Notes, domain.AuditScholarshipSuspended, func(a *domain.StudentScholarship, sch *domain.Scholarship) error {
		if a.Status != domain.AssignmentApproved {
			return conflictErr("assignment %s is %s and cannot be suspended", a.ID, a.Status)
		}
		a.Status = domain.AssignmentSuspended
		sch.CurrentRecipients--
		return nil
	})
}

func (s *scholarshipService) TerminateScholarship(ctx context.Context, assignmentID string, req dto.ScholarshipTransitionRequest, actorID string) (*domain.StudentScholarship, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, assignmentID, actorID, req.Notes, domain.AuditScholarshipTerminated, func(a *domain.StudentScholarship, sch *domain.Scholarship) error {
		if a.IsTerminal() {
			return conflictErr("assignment %s is already terminated", a.ID)
		}
		if a.Status == domain.AssignmentApproved {
			sch.CurrentRecipients--
		}
		a.Status = domain.AssignmentTerminated
		today := s.Today()
		if a.EndDate == nil || a.EndDate.After(today) {
			a.EndDate = &today
		}
		return nil
	})
}
