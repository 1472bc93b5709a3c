package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

// placeStudent resolves a student down to class, grade and section for the given year.
func placeStudent(ctx context.Context, school portsrepo.SchoolReader, studentID, academicYearID, termID string) (*domain.Placement, error) {
	student, err := school.FindStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", studentID, err)
	}
	if student.CurrentClassID == nil || *student.CurrentClassID == "" {
		return nil, fmt.Errorf("%w: student %s has no current class", apperrors.ErrNotEnrolled, studentID)
	}
	term, err := school.FindTerm(ctx, termID)
	if err != nil {
		return nil, fmt.Errorf("term %s: %w", termID, err)
	}
	if term.AcademicYearID != academicYearID {
		return nil, validationErr("term %s does not belong to academic year %s", termID, academicYearID)
	}
	class, err := school.FindClass(ctx, *student.CurrentClassID)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", *student.CurrentClassID, err)
	}
	if class.AcademicYearID != academicYearID {
		return nil, fmt.Errorf("%w: student %s is placed in class %s of another academic year", apperrors.ErrNotEnrolled, studentID, class.ID)
	}
	grade, err := school.FindGrade(ctx, class.GradeID)
	if err != nil {
		return nil, fmt.Errorf("grade %s: %w", class.GradeID, err)
	}
	return &domain.Placement{Student: *student, Class: *class, Grade: *grade, SectionID: grade.SectionID}, nil
}

// categoryLookup memoizes category reads for one resolution.
type categoryLookup struct {
	repo  portsrepo.CatalogReader
	cache map[string]domain.FeeCategory
}

func (c *categoryLookup) get(ctx context.Context, categoryID string) (domain.FeeCategory, error) {
	if cat, ok := c.cache[categoryID]; ok {
		return cat, nil
	}
	cat, err := c.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		return domain.FeeCategory{}, fmt.Errorf("fee category %s: %w", categoryID, err)
	}
	c.cache[categoryID] = *cat
	return *cat, nil
}

// resolveFees computes the breakdown of what a student owes for a term using store for
// catalog and scholarship reads. Section and grade structures are additive.
func resolveFees(ctx context.Context, store portsrepo.Store, school portsrepo.SchoolReader, studentID, academicYearID, termID string, today time.Time) (*domain.FeeBreakdown, error) {
	placement, err := placeStudent(ctx, school, studentID, academicYearID, termID)
	if err != nil {
		return nil, err
	}

	catalog := store.Catalog()
	categories := &categoryLookup{repo: catalog, cache: map[string]domain.FeeCategory{}}
	levels := []domain.FeeLevel{
		{Kind: domain.LevelSection, ID: placement.SectionID},
		{Kind: domain.LevelGrade, ID: placement.Grade.ID},
	}
	structures, err := catalog.ListActiveStructures(ctx, academicYearID, termID, levels)
	if err != nil {
		return nil, fmt.Errorf("failed to list fee structures: %w", err)
	}
	specials, err := catalog.ListActiveSpecialFees(ctx, termID, placement.Class.ID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list special fees: %w", err)
	}

	breakdown := &domain.FeeBreakdown{
		StudentID:      studentID,
		AcademicYearID: academicYearID,
		TermID:         termID,
		ClassID:        placement.Class.ID,
		GradeID:        placement.Grade.ID,
		SectionID:      placement.SectionID,
		BaseItems:      make([]domain.FeeItem, 0, len(structures)),
		SpecialItems:   make([]domain.FeeItem, 0, len(specials)),
	}
	for _, fs := range structures {
		cat, err := categories.get(ctx, fs.CategoryID)
		if err != nil {
			return nil, err
		}
		breakdown.BaseItems = append(breakdown.BaseItems, domain.BaseFeeItem(fs, cat))
	}
	for _, sf := range specials {
		cat, err := categories.get(ctx, sf.CategoryID)
		if err != nil {
			return nil, err
		}
		breakdown.SpecialItems = append(breakdown.SpecialItems, domain.SpecialFeeItem(sf, cat))
	}
	if len(breakdown.BaseItems) == 0 {
		breakdown.Warnings = append(breakdown.Warnings, fmt.Sprintf("no fee structures for section %s or grade %s in term %s", placement.SectionID, placement.Grade.ID, termID))
	}

	items := breakdown.Items()
	breakdown.Total = domain.SumMoney(lo.Map(items, func(it domain.FeeItem, _ int) decimal.Decimal { return it.Amount })...)

	effective, err := effectiveScholarships(ctx, store, studentID, academicYearID, termID, today)
	if err != nil {
		return nil, err
	}
	rules := lo.Map(effective, func(e domain.EffectiveScholarship, _ int) domain.Scholarship { return e.Scholarship })
	breakdown.ScholarshipsApplied, breakdown.Discount = domain.ApplyScholarships(rules, items, breakdown.Total)
	breakdown.Net = breakdown.Total.Sub(breakdown.Discount)

	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Debug("Fees resolved",
		slog.String("student_id", studentID),
		slog.String("term_id", termID),
		slog.Int("items", len(items)),
		slog.String("net", breakdown.Net.String()))
	return breakdown, nil
}

// notFound reports whether err is a missing-row lookup.
func notFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
