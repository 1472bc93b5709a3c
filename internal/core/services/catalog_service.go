package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/utils/validation"
)

// catalogService administers fee categories, structures and special fees.
type catalogService struct {
	BaseService
	tx     portsrepo.TransactionManager
	school portsrepo.SchoolReader
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(tx portsrepo.TransactionManager, school portsrepo.SchoolReader, base BaseService) portssvc.CatalogSvcFacade {
	return &catalogService{BaseService: base, tx: tx, school: school}
}

var _ portssvc.CatalogSvcFacade = (*catalogService)(nil)

func (s *catalogService) CreateCategory(ctx context.Context, req dto.CreateFeeCategoryRequest, actorID string) (*domain.FeeCategory, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	now := s.Now()
	category := domain.FeeCategory{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsMandatory: req.IsMandatory,
		Frequency:   req.Frequency,
		AuditFields: domain.NewAuditFields(actorID, now),
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		if err := store.Catalog().SaveCategory(ctx, category); err != nil {
			return err
		}
		return s.Audit(ctx, store, actorID, domain.AuditCategoryCreated, domain.EntityFeeCategory, category.ID, map[string]string{"name": category.Name})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to create fee category", slog.String("name", category.Name))
		return nil, fmt.Errorf("failed to create fee category: %w", err)
	}
	s.LogInfo(ctx, "Fee category created", slog.String("category_id", category.ID))
	return &category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.FeeCategory, error) {
	return s.tx.Reader().Catalog().ListCategories(ctx)
}

// checkDueInTerm enforces term.start <= due <= term.end and that the term belongs to the year.
func (s *catalogService) checkDueInTerm(ctx context.Context, academicYearID, termID string, due time.Time) error {
	term, err := s.school.FindTerm(ctx, termID)
	if err != nil {
		return fmt.Errorf("term %s: %w", termID, err)
	}
	if term.AcademicYearID != academicYearID {
		return validationErr("term %s does not belong to academic year %s", termID, academicYearID)
	}
	if !term.Contains(due) {
		return validationErr("due date %s is outside term %s (%s to %s)",
			due.Format(domain.DateLayout), term.Name,
			term.StartDate.Format(domain.DateLayout), term.EndDate.Format(domain.DateLayout))
	}
	return nil
}

func (s *catalogService) checkLevel(ctx context.Context, level domain.FeeLevel) error {
	var err error
	switch level.Kind {
	case domain.LevelSection:
		_, err = s.school.FindSection(ctx, level.ID)
	case domain.LevelGrade:
		_, err = s.school.FindGrade(ctx, level.ID)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", level, err)
	}
	return nil
}

func (s *catalogService) CreateFeeStructure(ctx context.Context, req dto.CreateFeeStructureRequest, actorID string) (*domain.FeeStructure, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	due, err := domain.ParseDate(req.DueDate)
	if err != nil {
		return nil, validationErr("invalid due date: %v", err)
	}
	structure := domain.FeeStructure{
		ID:                uuid.NewString(),
		AcademicYearID:    req.AcademicYearID,
		TermID:            req.TermID,
		Level:             domain.FeeLevel{Kind: req.LevelKind, ID: req.LevelID},
		CategoryID:        req.CategoryID,
		Amount:            req.Amount,
		DueDate:           due,
		LateFeePercentage: req.LateFeePercentage,
		GracePeriodDays:   req.GracePeriodDays,
		IsActive:          true,
		AuditFields:       domain.NewAuditFields(actorID, s.Now()),
	}
	if err := asValidation(structure.Validate()); err != nil {
		return nil, err
	}
	if err := s.checkDueInTerm(ctx, req.AcademicYearID, req.TermID, structure.DueDate); err != nil {
		return nil, err
	}
	if err := s.checkLevel(ctx, structure.Level); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		if _, err := store.Catalog().FindCategoryByID(ctx, structure.CategoryID); err != nil {
			return fmt.Errorf("category %s: %w", structure.CategoryID, err)
		}
		existing, err := store.Catalog().FindActiveStructure(ctx, structure.AcademicYearID, structure.TermID, structure.Level, structure.CategoryID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w (existing structure %s)", apperrors.ErrDuplicateStructure, existing.ID)
		}
		if err := store.Catalog().SaveStructure(ctx, structure); err != nil {
			return err
		}
		return s.Audit(ctx, store, actorID, domain.AuditStructureCreated, domain.EntityFeeStructure, structure.ID, map[string]string{
			"key":    structure.Key(),
			"amount": structure.Amount.StringFixed(domain.MoneyScale),
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to create fee structure", slog.String("key", structure.Key()))
		return nil, fmt.Errorf("failed to create fee structure: %w", err)
	}
	s.LogInfo(ctx, "Fee structure created", slog.String("structure_id", structure.ID), slog.String("key", structure.Key()))
	return &structure, nil
}

func (s *catalogService) UpdateFeeStructure(ctx context.Context, structureID string, req dto.UpdateFeeStructureRequest, actorID string) (*domain.FeeStructure, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	var updated domain.FeeStructure
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		current, err := store.Catalog().FindStructureByID(ctx, structureID)
		if err != nil {
			return fmt.Errorf("fee structure %s: %w", structureID, err)
		}
		next := *current
		if req.Amount != nil {
			next.Amount = *req.Amount
		}
		if req.DueDate != nil {
			due, err := domain.ParseDate(*req.DueDate)
			if err != nil {
				return validationErr("invalid due date: %v", err)
			}
			next.DueDate = due
		}
		if req.LateFeePercentage != nil {
			next.LateFeePercentage = *req.LateFeePercentage
		}
		if req.GracePeriodDays != nil {
			next.GracePeriodDays = *req.GracePeriodDays
		}
		if req.IsActive != nil {
			next.IsActive = *req.IsActive
		}
		if err := asValidation(next.Validate()); err != nil {
			return err
		}
		if req.DueDate != nil {
			if err := s.checkDueInTerm(ctx, next.AcademicYearID, next.TermID, next.DueDate); err != nil {
				return err
			}
		}
		if next.IsActive && !current.IsActive {
			existing, err := store.Catalog().FindActiveStructure(ctx, next.AcademicYearID, next.TermID, next.Level, next.CategoryID)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w (existing structure %s)", apperrors.ErrDuplicateStructure, existing.ID)
			}
		}
		next.Touch(actorID, s.Now())
		if err := store.Catalog().UpdateStructure(ctx, next); err != nil {
			return err
		}
		updated = next
		action := domain.AuditStructureUpdated
		if current.IsActive && !next.IsActive {
			action = domain.AuditStructureDeactivated
		}
		return s.Audit(ctx, store, actorID, action, domain.EntityFeeStructure, next.ID, map[string]string{
			"amount": next.Amount.StringFixed(domain.MoneyScale),
			"due":    next.DueDate.Format(domain.DateLayout),
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to update fee structure", slog.String("structure_id", structureID))
		return nil, fmt.Errorf("failed to update fee structure: %w", err)
	}
	s.LogInfo(ctx, "Fee structure updated", slog.String("structure_id", structureID))
	return &updated, nil
}

func (s *catalogService) DeactivateFeeStructure(ctx context.Context, structureID string, actorID string) error {
	inactive := false
	_, err := s.UpdateFeeStructure(ctx, structureID, dto.UpdateFeeStructureRequest{IsActive: &inactive}, actorID)
	return err
}

func (s *catalogService) GetFeeStructure(ctx context.Context, structureID string) (*domain.FeeStructure, error) {
	return s.tx.Reader().Catalog().FindStructureByID(ctx, structureID)
}

func (s *catalogService) ListFeeStructures(ctx context.Context, params dto.ListFeeStructuresParams) ([]domain.FeeStructure, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	return s.tx.Reader().Catalog().ListStructures(ctx, params.AcademicYearID, params.TermID)
}

func (s *catalogService) CreateSpecialFee(ctx context.Context, req dto.CreateSpecialFeeRequest, actorID string) (*domain.SpecialFee, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	due, err := domain.ParseDate(req.DueDate)
	if err != nil {
		return nil, validationErr("invalid due date: %v", err)
	}
	fee := domain.SpecialFee{
		ID:             uuid.NewString(),
		Scope:          req.Scope,
		ClassID:        req.ClassID,
		StudentID:      req.StudentID,
		AcademicYearID: req.AcademicYearID,
		TermID:         req.TermID,
		CategoryID:     req.CategoryID,
		Amount:         req.Amount,
		DueDate:        due,
		Reason:         req.Reason,
		Source:         domain.SpecialFeeManual,
		IsActive:       true,
		AuditFields:    domain.NewAuditFields(actorID, s.Now()),
	}
	if err := asValidation(fee.Validate()); err != nil {
		return nil, err
	}
	if err := s.checkDueInTerm(ctx, fee.AcademicYearID, fee.TermID, fee.DueDate); err != nil {
		return nil, err
	}
	switch fee.Scope {
	case domain.SpecialFeeClass:
		class, err := s.school.FindClass(ctx, *fee.ClassID)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", *fee.ClassID, err)
		}
		if class.AcademicYearID != fee.AcademicYearID {
			return nil, validationErr("class %s belongs to academic year %s", class.ID, class.AcademicYearID)
		}
	case domain.SpecialFeeStudent:
		if _, err := s.school.FindStudent(ctx, *fee.StudentID); err != nil {
			return nil, fmt.Errorf("student %s: %w", *fee.StudentID, err)
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		if _, err := store.Catalog().FindCategoryByID(ctx, fee.CategoryID); err != nil {
			return fmt.Errorf("category %s: %w", fee.CategoryID, err)
		}
		if err := store.Catalog().SaveSpecialFee(ctx, fee); err != nil {
			return err
		}
		return s.Audit(ctx, store, actorID, domain.AuditSpecialFeeCreated, domain.EntitySpecialFee, fee.ID, map[string]string{
			"scope":  string(fee.Scope),
			"amount": fee.Amount.StringFixed(domain.MoneyScale),
		})
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to create special fee", slog.String("scope", string(fee.Scope)))
		return nil, fmt.Errorf("failed to create special fee: %w", err)
	}
	s.LogInfo(ctx, "Special fee created", slog.String("special_fee_id", fee.ID))
	return &fee, nil
}

func (s *catalogService) DeactivateSpecialFee(ctx context.Context, specialFeeID string, actorID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		fee, err := store.Catalog().FindSpecialFeeByID(ctx, specialFeeID)
		if err != nil {
			return fmt.Errorf("special fee %s: %w", specialFeeID, err)
		}
		if !fee.IsActive {
			return nil
		}
		fee.IsActive = false
		fee.Touch(actorID, s.Now())
		if err := store.Catalog().UpdateSpecialFee(ctx, *fee); err != nil {
			return err
		}
		return s.Audit(ctx, store, actorID, domain.AuditSpecialFeeDeactivated, domain.EntitySpecialFee, fee.ID, nil)
	})
	if err != nil {
		s.handleRejection(ctx, err, "Failed to deactivate special fee", slog.String("special_fee_id", specialFeeID))
		return fmt.Errorf("failed to deactivate special fee: %w", err)
	}
	return nil
}

func (s *catalogService) GetSpecialFee(ctx context.Context, specialFeeID string) (*domain.SpecialFee, error) {
	return s.tx.Reader().Catalog().FindSpecialFeeByID(ctx, specialFeeID)
}
