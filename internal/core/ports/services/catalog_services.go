package services

import (
	"context"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

// CatalogReaderSvc defines read operations for the fee catalog.
type CatalogReaderSvc interface {
	ListCategories(ctx context.Context) ([]domain.FeeCategory, error)
	GetFeeStructure(ctx context.Context, structureID string) (*domain.FeeStructure, error)
	ListFeeStructures(ctx context.Context, params dto.ListFeeStructuresParams) ([]domain.FeeStructure, error)
	GetSpecialFee(ctx context.Context, specialFeeID string) (*domain.SpecialFee, error)
}

// CatalogWriterSvc defines administrative operations on the fee catalog.
type CatalogWriterSvc interface {
	CreateCategory(ctx context.Context, req dto.CreateFeeCategoryRequest, actorID string) (*domain.FeeCategory, error)

	// CreateFeeStructure validates the due date against the term and rejects a second active
	// structure for the same (year, term, level, category).
	CreateFeeStructure(ctx context.Context, req dto.CreateFeeStructureRequest, actorID string) (*domain.FeeStructure, error)

	// UpdateFeeStructure changes a structure for future invoice generation only.
	UpdateFeeStructure(ctx context.Context, structureID string, req dto.UpdateFeeStructureRequest, actorID string) (*domain.FeeStructure, error)

	DeactivateFeeStructure(ctx context.Context, structureID string, actorID string) error
	CreateSpecialFee(ctx context.Context, req dto.CreateSpecialFeeRequest, actorID string) (*domain.SpecialFee, error)
	DeactivateSpecialFee(ctx context.Context, specialFeeID string, actorID string) error
}

// CatalogSvcFacade combines all catalog service interfaces.
type CatalogSvcFacade interface {
	CatalogReaderSvc
	CatalogWriterSvc
}
