package pgsql

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/models"
	"github.com/SscSPs/school_finance_core/internal/utils/mapping"
)

// PgxCatalogRepository persists fee categories, structures and special fees.
type PgxCatalogRepository struct {
	BaseRepository
}

var _ portsrepo.CatalogRepositoryFacade = (*PgxCatalogRepository)(nil)

const (
	selectCategory = `
		SELECT category_id, name, description, is_mandatory, frequency,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM fee_categories`

	selectStructure = `
		SELECT structure_id, academic_year_id, term_id, level_kind, level_id, category_id,
		       amount, due_date, late_fee_percentage, grace_period_days, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM fee_structures`

	selectSpecialFee = `
		SELECT special_fee_id, scope, class_id, student_id, academic_year_id, term_id, category_id,
		       amount, due_date, reason, source, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM special_fees`
)

var catalogConstraints = map[string]error{
	"uq_fee_categories_name":   apperrors.ErrDuplicate,
	"ux_fee_structures_active": apperrors.ErrDuplicateStructure,
}

func (r *PgxCatalogRepository) FindCategoryByID(ctx context.Context, categoryID string) (*domain.FeeCategory, error) {
	m, err := queryOne[models.FeeCategory](ctx, r.DB, "fee category", categoryID, selectCategory+` WHERE category_id = $1`, categoryID)
	if err != nil {
		return nil, err
	}
	c := mapping.ToDomainFeeCategory(*m)
	return &c, nil
}

func (r *PgxCatalogRepository) FindCategoryByName(ctx context.Context, name string) (*domain.FeeCategory, error) {
	m, err := queryOne[models.FeeCategory](ctx, r.DB, "fee category", name, selectCategory+` WHERE name = $1`, name)
	if err != nil {
		return nil, err
	}
	c := mapping.ToDomainFeeCategory(*m)
	return &c, nil
}

func (r *PgxCatalogRepository) ListCategories(ctx context.Context) ([]domain.FeeCategory, error) {
	ms, err := queryAll[models.FeeCategory](ctx, r.DB, "fee categories", selectCategory+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainFeeCategorySlice(ms), nil
}

func (r *PgxCatalogRepository) SaveCategory(ctx context.Context, category domain.FeeCategory) error {
	m := mapping.ToModelFeeCategory(category)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO fee_categories (
			category_id, name, description, is_mandatory, frequency,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.CategoryID, m.Name, m.Description, m.IsMandatory, m.Frequency,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, "fee category "+category.Name, catalogConstraints)
	}
	return nil
}

func (r *PgxCatalogRepository) FindStructureByID(ctx context.Context, structureID string) (*domain.FeeStructure, error) {
	m, err := queryOne[models.FeeStructure](ctx, r.DB, "fee structure", structureID, selectStructure+` WHERE structure_id = $1`, structureID)
	if err != nil {
		return nil, err
	}
	fs := mapping.ToDomainFeeStructure(*m)
	return &fs, nil
}

func (r *PgxCatalogRepository) FindActiveStructure(ctx context.Context, academicYearID, termID string, level domain.FeeLevel, categoryID string) (*domain.FeeStructure, error) {
	want := domain.FeeStructure{AcademicYearID: academicYearID, TermID: termID, Level: level, CategoryID: categoryID}
	m, err := queryOne[models.FeeStructure](ctx, r.DB, "active fee structure", want.Key(), selectStructure+`
		WHERE academic_year_id = $1 AND term_id = $2 AND level_kind = $3 AND level_id = $4
		  AND category_id = $5 AND is_active`,
		academicYearID, termID, string(level.Kind), level.ID, categoryID)
	if err != nil {
		return nil, err
	}
	fs := mapping.ToDomainFeeStructure(*m)
	return &fs, nil
}

// ListActiveStructures orders by the position of each row's level in levels using
// array_position over the "kind:id" rendering of the level.
func (r *PgxCatalogRepository) ListActiveStructures(ctx context.Context, academicYearID, termID string, levels []domain.FeeLevel) ([]domain.FeeStructure, error) {
	if len(levels) == 0 {
		return []domain.FeeStructure{}, nil
	}
	keys := make([]string, len(levels))
	for i, l := range levels {
		keys[i] = l.String()
	}
	ms, err := queryAll[models.FeeStructure](ctx, r.DB, "active fee structures", selectStructure+`
		WHERE academic_year_id = $1 AND term_id = $2 AND is_active
		  AND (level_kind || ':' || level_id) = ANY($3::text[])
		ORDER BY array_position($3::text[], level_kind || ':' || level_id), category_id`,
		academicYearID, termID, keys)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainFeeStructureSlice(ms), nil
}

func (r *PgxCatalogRepository) ListStructures(ctx context.Context, academicYearID string, termID *string) ([]domain.FeeStructure, error) {
	ms, err := queryAll[models.FeeStructure](ctx, r.DB, "fee structures", selectStructure+`
		WHERE academic_year_id = $1 AND ($2::text IS NULL OR term_id = $2)
		ORDER BY seq`,
		academicYearID, termID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainFeeStructureSlice(ms), nil
}

func (r *PgxCatalogRepository) SaveStructure(ctx context.Context, structure domain.FeeStructure) error {
	m := mapping.ToModelFeeStructure(structure)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO fee_structures (
			structure_id, academic_year_id, term_id, level_kind, level_id, category_id,
			amount, due_date, late_fee_percentage, grace_period_days, is_active,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.StructureID, m.AcademicYearID, m.TermID, m.LevelKind, m.LevelID, m.CategoryID,
		m.Amount, m.DueDate, m.LateFeePercentage, m.GracePeriodDays, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, structure.Key(), catalogConstraints)
	}
	return nil
}

func (r *PgxCatalogRepository) UpdateStructure(ctx context.Context, structure domain.FeeStructure) error {
	m := mapping.ToModelFeeStructure(structure)
	tag, err := r.DB.Exec(ctx, `
		UPDATE fee_structures
		SET amount = $2, due_date = $3, late_fee_percentage = $4, grace_period_days = $5,
		    is_active = $6, last_updated_at = $7, last_updated_by = $8
		WHERE structure_id = $1`,
		m.StructureID, m.Amount, m.DueDate, m.LateFeePercentage, m.GracePeriodDays,
		m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, "fee structure "+structure.ID, catalogConstraints)
	}
	if tag.RowsAffected() == 0 {
		return notFoundErr("fee structure", structure.ID)
	}
	return nil
}

func (r *PgxCatalogRepository) FindSpecialFeeByID(ctx context.Context, specialFeeID string) (*domain.SpecialFee, error) {
	m, err := queryOne[models.SpecialFee](ctx, r.DB, "special fee", specialFeeID, selectSpecialFee+` WHERE special_fee_id = $1`, specialFeeID)
	if err != nil {
		return nil, err
	}
	sf := mapping.ToDomainSpecialFee(*m)
	return &sf, nil
}

func (r *PgxCatalogRepository) ListActiveSpecialFees(ctx context.Context, termID, classID, studentID string) ([]domain.SpecialFee, error) {
	ms, err := queryAll[models.SpecialFee](ctx, r.DB, "special fees", selectSpecialFee+`
		WHERE term_id = $1 AND is_active
		  AND ((scope = 'class' AND class_id = $2) OR (scope = 'student' AND student_id = $3))
		ORDER BY due_date, special_fee_id`,
		termID, classID, studentID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainSpecialFeeSlice(ms), nil
}

func (r *PgxCatalogRepository) SaveSpecialFee(ctx context.Context, fee domain.SpecialFee) error {
	m := mapping.ToModelSpecialFee(fee)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO special_fees (
			special_fee_id, scope, class_id, student_id, academic_year_id, term_id, category_id,
			amount, due_date, reason, source, is_active,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		m.SpecialFeeID, m.Scope, m.ClassID, m.StudentID, m.AcademicYearID, m.TermID, m.CategoryID,
		m.Amount, m.DueDate, m.Reason, m.Source, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapInsertError(err, "special fee "+fee.ID, nil)
	}
	return nil
}

func (r *PgxCatalogRepository) UpdateSpecialFee(ctx context.Context, fee domain.SpecialFee) error {
	return execOne(ctx, r.DB, "special fee", fee.ID, `
		UPDATE special_fees SET is_active = $2, last_updated_at = $3, last_updated_by = $4
		WHERE special_fee_id = $1`,
		fee.ID, fee.IsActive, fee.LastUpdatedAt, fee.LastUpdatedBy)
}
