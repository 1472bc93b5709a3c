package repositories

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// CatalogReader defines read operations for fee categories, structures and special fees.
type CatalogReader interface {
	// FindCategoryByID retrieves a fee category.
	FindCategoryByID(ctx context.Context, categoryID string) (*domain.FeeCategory, error)

	// FindCategoryByName retrieves a fee category by its unique name.
	FindCategoryByName(ctx context.Context, name string) (*domain.FeeCategory, error)

	// ListCategories returns every fee category ordered by name.
	ListCategories(ctx context.Context) ([]domain.FeeCategory, error)

	// FindStructureByID retrieves a fee structure.
	FindStructureByID(ctx context.Context, structureID string) (*domain.FeeStructure, error)

	// FindActiveStructure returns the active structure for the uniqueness key, or ErrNotFound.
	FindActiveStructure(ctx context.Context, academicYearID, termID string, level domain.FeeLevel, categoryID string) (*domain.FeeStructure, error)

	// ListActiveStructures returns active structures of (year, term) at any of the given levels,
	// ordered by the position of their level in levels, then category id.
	ListActiveStructures(ctx context.Context, academicYearID, termID string, levels []domain.FeeLevel) ([]domain.FeeStructure, error)

	// ListStructures returns all structures of a year, optionally narrowed to a term.
	ListStructures(ctx context.Context, academicYearID string, termID *string) ([]domain.FeeStructure, error)

	// FindSpecialFeeByID retrieves a special fee.
	FindSpecialFeeByID(ctx context.Context, specialFeeID string) (*domain.SpecialFee, error)

	// ListActiveSpecialFees returns active special fees of a term scoped to classID or to studentID,
	// ordered by (due date, id).
	ListActiveSpecialFees(ctx context.Context, termID, classID, studentID string) ([]domain.SpecialFee, error)
}

// CatalogWriter defines write operations for the fee catalog.
type CatalogWriter interface {
	// SaveCategory inserts a fee category. Duplicate names return ErrDuplicate.
	SaveCategory(ctx context.Context, category domain.FeeCategory) error

	// SaveStructure inserts a fee structure. A second active structure for the same key
	// returns ErrDuplicateStructure.
	SaveStructure(ctx context.Context, structure domain.FeeStructure) error

	// UpdateStructure rewrites amount, due date, late policy and the active flag.
	UpdateStructure(ctx context.Context, structure domain.FeeStructure) error

	// SaveSpecialFee inserts a special fee.
	SaveSpecialFee(ctx context.Context, fee domain.SpecialFee) error

	// UpdateSpecialFee rewrites the active flag and audit fields.
	UpdateSpecialFee(ctx context.Context, fee domain.SpecialFee) error
}

// CatalogRepositoryFacade combines catalog reads and writes.
type CatalogRepositoryFacade interface {
	CatalogReader
	CatalogWriter
}
