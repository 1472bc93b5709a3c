package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

func (s *store) FindCategoryByID(ctx context.Context, categoryID string) (*domain.FeeCategory, error) {
	defer s.read()()
	c, ok := s.st().categories[categoryID]
	if !ok {
		return nil, notFound("fee category", categoryID)
	}
	return &c, nil
}

func (s *store) FindCategoryByName(ctx context.Context, name string) (*domain.FeeCategory, error) {
	defer s.read()()
	for _, c := range s.st().categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, notFound("fee category", name)
}

func (s *store) ListCategories(ctx context.Context) ([]domain.FeeCategory, error) {
	defer s.read()()
	out := make([]domain.FeeCategory, 0, len(s.st().categories))
	for _, c := range s.st().categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *store) SaveCategory(ctx context.Context, category domain.FeeCategory) error {
	defer s.write()()
	for _, c := range s.st().categories {
		if c.Name == category.Name {
			return fmt.Errorf("%w: fee category %q already exists", apperrors.ErrDuplicate, category.Name)
		}
	}
	s.st().categories[category.ID] = category
	s.st().track(category.ID)
	return nil
}

func (s *store) FindStructureByID(ctx context.Context, structureID string) (*domain.FeeStructure, error) {
	defer s.read()()
	fs, ok := s.st().structures[structureID]
	if !ok {
		return nil, notFound("fee structure", structureID)
	}
	return &fs, nil
}

func (s *store) activeStructure(key, exceptID string) (domain.FeeStructure, bool) {
	for _, fs := range s.st().structures {
		if fs.IsActive && fs.ID != exceptID && fs.Key() == key {
			return fs, true
		}
	}
	return domain.FeeStructure{}, false
}

func (s *store) FindActiveStructure(ctx context.Context, academicYearID, termID string, level domain.FeeLevel, categoryID string) (*domain.FeeStructure, error) {
	defer s.read()()
	want := domain.FeeStructure{AcademicYearID: academicYearID, TermID: termID, Level: level, CategoryID: categoryID}
	fs, ok := s.activeStructure(want.Key(), "")
	if !ok {
		return nil, notFound("active fee structure", want.Key())
	}
	return &fs, nil
}

func (s *store) ListActiveStructures(ctx context.Context, academicYearID, termID string, levels []domain.FeeLevel) ([]domain.FeeStructure, error) {
	defer s.read()()
	rank := make(map[domain.FeeLevel]int, len(levels))
	for i, l := range levels {
		rank[l] = i
	}
	out := []domain.FeeStructure{}
	for _, fs := range s.st().structures {
		if _, ok := rank[fs.Level]; ok && fs.IsActive && fs.AcademicYearID == academicYearID && fs.TermID == termID {
			out = append(out, fs)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if rank[out[i].Level] != rank[out[j].Level] {
			return rank[out[i].Level] < rank[out[j].Level]
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (s *store) ListStructures(ctx context.Context, academicYearID string, termID *string) ([]domain.FeeStructure, error) {
	defer s.read()()
	out := []domain.FeeStructure{}
	for _, fs := range s.st().structures {
		if fs.AcademicYearID != academicYearID || (termID != nil && fs.TermID != *termID) {
			continue
		}
		out = append(out, fs)
	}
	order := s.st().order
	sort.Slice(out, func(i, j int) bool { return order[out[i].ID] < order[out[j].ID] })
	return out, nil
}

func (s *store) SaveStructure(ctx context.Context, structure domain.FeeStructure) error {
	defer s.write()()
	if structure.IsActive {
		if _, dup := s.activeStructure(structure.Key(), structure.ID); dup {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateStructure, structure.Key())
		}
	}
	s.st().structures[structure.ID] = structure
	s.st().track(structure.ID)
	return nil
}

func (s *store) UpdateStructure(ctx context.Context, structure domain.FeeStructure) error {
	defer s.write()()
	stored, ok := s.st().structures[structure.ID]
	if !ok {
		return notFound("fee structure", structure.ID)
	}
	if structure.IsActive {
		if _, dup := s.activeStructure(stored.Key(), structure.ID); dup {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateStructure, stored.Key())
		}
	}
	stored.Amount = structure.Amount
	stored.DueDate = structure.DueDate
	stored.LateFeePercentage = structure.LateFeePercentage
	stored.GracePeriodDays = structure.GracePeriodDays
	stored.IsActive = structure.IsActive
	stored.LastUpdatedAt = structure.LastUpdatedAt
	stored.LastUpdatedBy = structure.LastUpdatedBy
	s.st().structures[structure.ID] = stored
	return nil
}

func (s *store) FindSpecialFeeByID(ctx context.Context, specialFeeID string) (*domain.SpecialFee, error) {
	defer s.read()()
	sf, ok := s.st().specialFees[specialFeeID]
	if !ok {
		return nil, notFound("special fee", specialFeeID)
	}
	return &sf, nil
}

func (s *store) ListActiveSpecialFees(ctx context.Context, termID, classID, studentID string) ([]domain.SpecialFee, error) {
	defer s.read()()
	out := []domain.SpecialFee{}
	for _, sf := range s.st().specialFees {
		if !sf.IsActive || sf.TermID != termID {
			continue
		}
		classMatch := sf.Scope == domain.SpecialFeeClass && sf.ClassID != nil && *sf.ClassID == classID
		studentMatch := sf.Scope == domain.SpecialFeeStudent && sf.StudentID != nil && *sf.StudentID == studentID
		if classMatch || studentMatch {
			out = append(out, sf)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *store) SaveSpecialFee(ctx context.Context, fee domain.SpecialFee) error {
	defer s.write()()
	s.st().specialFees[fee.ID] = fee
	s.st().track(fee.ID)
	return nil
}

func (s *store) UpdateSpecialFee(ctx context.Context, fee domain.SpecialFee) error {
	defer s.write()()
	stored, ok := s.st().specialFees[fee.ID]
	if !ok {
		return notFound("special fee", fee.ID)
	}
	stored.IsActive = fee.IsActive
	stored.LastUpdatedAt = fee.LastUpdatedAt
	stored.LastUpdatedBy = fee.LastUpdatedBy
	s.st().specialFees[fee.ID] = stored
	return nil
}
