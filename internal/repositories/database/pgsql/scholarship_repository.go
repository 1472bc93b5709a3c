package pgsql

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/models"
	"github.com/SscSPs/school_finance_core/internal/utils/mapping"
)

// PgxScholarshipRepository persists scholarships and student assignments.
type PgxScholarshipRepository struct {
	BaseRepository
}

var _ portsrepo.ScholarshipRepositoryFacade = (*PgxScholarshipRepository)(nil)

const (
	selectScholarship = `
		SELECT scholarship_id, name, criteria, discount_type, discount_value, academic_year_id,
		       applicable_term_ids, applicable_categories, max_recipients, current_recipients, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM scholarships`

	selectAssignment = `
		SELECT assignment_id, student_id, scholarship_id, start_date, end_date, status,
		       approved_by, approved_at, notes,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM student_scholarships`
)

var assignmentConstraints = map[string]error{
	"ux_student_scholarships_open": apperrors.ErrDuplicate,
}

func (r *PgxScholarshipRepository) FindScholarshipByID(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	m, err := queryOne[models.Scholarship](ctx, r.DB, "scholarship", scholarshipID, selectScholarship+` WHERE scholarship_id = $1`, scholarshipID)
	if err != nil {
		return nil, err
	}
	sch := mapping.ToDomainScholarship(*m)
	return &sch, nil
}

func (r *PgxScholarshipRepository) ListScholarships(ctx context.Context, academicYearID string) ([]domain.Scholarship, error) {
	ms, err := queryAll[models.Scholarship](ctx, r.DB, "scholarships", selectScholarship+`
		WHERE academic_year_id = $1 ORDER BY scholarship_id`, academicYearID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainScholarshipSlice(ms), nil
}

func (r *PgxScholarshipRepository) ListScholarshipsByIDs(ctx context.Context, scholarshipIDs []string) (map[string]domain.Scholarship, error) {
	out := make(map[string]domain.Scholarship, len(scholarshipIDs))
	if len(scholarshipIDs) == 0 {
		return out, nil
	}
	ms, err := queryAll[models.Scholarship](ctx, r.DB, "scholarships", selectScholarship+`
		WHERE scholarship_id = ANY($1::text[])`, scholarshipIDs)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		out[m.ScholarshipID] = mapping.ToDomainScholarship(m)
	}
	return out, nil
}

func (r *PgxScholarshipRepository) SaveScholarship(ctx context.Context, scholarship domain.Scholarship) error {
	m := mapping.ToModelScholarship(scholarship)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO scholarships (
			scholarship_id, name, criteria, discount_type, discount_value, academic_year_id,
			applicable_term_ids, applicable_categories, max_recipients, current_recipients, is_active,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.ScholarshipID, m.Name, m.Criteria, m.DiscountType, m.DiscountValue, m.AcademicYearID,
		m.ApplicableTermIDs, m.ApplicableCategories, m.MaxRecipients, m.CurrentRecipients, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, "scholarship "+scholarship.Name, nil)
	}
	return nil
}

func (r *PgxScholarshipRepository) LockScholarship(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	m, err := queryOne[models.Scholarship](ctx, r.DB, "scholarship", scholarshipID, selectScholarship+` WHERE scholarship_id = $1 FOR UPDATE`, scholarshipID)
	if err != nil {
		return nil, err
	}
	sch := mapping.ToDomainScholarship(*m)
	return &sch, nil
}

func (r *PgxScholarshipRepository) UpdateScholarship(ctx context.Context, scholarship domain.Scholarship) error {
	return execOne(ctx, r.DB, "scholarship", scholarship.ID, `
		UPDATE scholarships SET current_recipients = $2, is_active = $3, last_updated_at = $4, last_updated_by = $5
		WHERE scholarship_id = $1`,
		scholarship.ID, scholarship.CurrentRecipients, scholarship.IsActive, scholarship.LastUpdatedAt, scholarship.LastUpdatedBy)
}

func (r *PgxScholarshipRepository) FindAssignmentByID(ctx context.Context, assignmentID string) (*domain.StudentScholarship, error) {
	m, err := queryOne[models.StudentScholarship](ctx, r.DB, "scholarship assignment", assignmentID, selectAssignment+` WHERE assignment_id = $1`, assignmentID)
	if err != nil {
		return nil, err
	}
	a := mapping.ToDomainStudentScholarship(*m)
	return &a, nil
}

func (r *PgxScholarshipRepository) FindOpenAssignment(ctx context.Context, studentID, scholarshipID string) (*domain.StudentScholarship, error) {
	m, err := queryOne[models.StudentScholarship](ctx, r.DB, "open scholarship assignment", studentID+"|"+scholarshipID, selectAssignment+`
		WHERE student_id = $1 AND scholarship_id = $2 AND status <> $3`,
		studentID, scholarshipID, string(domain.AssignmentTerminated))
	if err != nil {
		return nil, err
	}
	a := mapping.ToDomainStudentScholarship(*m)
	return &a, nil
}

func (r *PgxScholarshipRepository) ListAssignmentsByStudent(ctx context.Context, studentID string) ([]domain.StudentScholarship, error) {
	ms, err := queryAll[models.StudentScholarship](ctx, r.DB, "scholarship assignments", selectAssignment+`
		WHERE student_id = $1 ORDER BY scholarship_id, seq`, studentID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainStudentScholarshipSlice(ms), nil
}

func (r *PgxScholarshipRepository) ListAssignmentsByScholarship(ctx context.Context, scholarshipID string) ([]domain.StudentScholarship, error) {
	ms, err := queryAll[models.StudentScholarship](ctx, r.DB, "scholarship assignments", selectAssignment+`
		WHERE scholarship_id = $1 ORDER BY seq`, scholarshipID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainStudentScholarshipSlice(ms), nil
}

func (r *PgxScholarshipRepository) CountApprovedAssignments(ctx context.Context, scholarshipID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM student_scholarships WHERE scholarship_id = $1 AND status = $2`,
		scholarshipID, string(domain.AssignmentApproved)).Scan(&n)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to count assignments of scholarship "+scholarshipID, err)
	}
	return n, nil
}

func (r *PgxScholarshipRepository) SaveAssignment(ctx context.Context, assignment domain.StudentScholarship) error {
	m := mapping.ToModelStudentScholarship(assignment)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO student_scholarships (
			assignment_id, student_id, scholarship_id, start_date, end_date, status,
			approved_by, approved_at, notes,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.AssignmentID, m.StudentID, m.ScholarshipID, m.StartDate, m.EndDate, m.Status,
		m.ApprovedBy, m.ApprovedAt, m.Notes,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, "scholarship assignment "+assignment.ID, assignmentConstraints)
	}
	return nil
}

func (r *PgxScholarshipRepository) LockAssignment(ctx context.Context, assignmentID string) (*domain.StudentScholarship, error) {
	m, err := queryOne[models.StudentScholarship](ctx, r.DB, "scholarship assignment", assignmentID, selectAssignment+` WHERE assignment_id = $1 FOR UPDATE`, assignmentID)
	if err != nil {
		return nil, err
	}
	a := mapping.ToDomainStudentScholarship(*m)
	return &a, nil
}

func (r *PgxScholarshipRepository) UpdateAssignment(ctx context.Context, assignment domain.StudentScholarship) error {
	m := mapping.ToModelStudentScholarship(assignment)
	return execOne(ctx, r.DB, "scholarship assignment", assignment.ID, `
		UPDATE student_scholarships
		SET start_date = $2, end_date = $3, status = $4, approved_by = $5, approved_at = $6, notes = $7,
		    last_updated_at = $8, last_updated_by = $9
		WHERE assignment_id = $1`,
		m.AssignmentID, m.StartDate, m.EndDate, m.Status, m.ApprovedBy, m.ApprovedAt, m.Notes,
		m.LastUpdatedAt, m.LastUpdatedBy)
}
