package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// FeeItemKind tags where a resolved fee came from.
type FeeItemKind string

const (
	FeeItemBase    FeeItemKind = "base"
	FeeItemSpecial FeeItemKind = "special"
)

// FeeItem is one resolved charge. Base items point at a FeeStructure, special items at a SpecialFee.
type FeeItem struct {
	Kind         FeeItemKind     `json:"kind"`
	StructureID  *string         `json:"structureID,omitempty"`
	SpecialFeeID *string         `json:"specialFeeID,omitempty"`
	CategoryID   string          `json:"categoryID"`
	CategoryName string          `json:"categoryName"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"dueDate"`
	LatePolicy   *LateFeePolicy  `json:"latePolicy,omitempty"`
}

// SourceID returns the id of the structure or special fee behind the item.
func (i FeeItem) SourceID() string {
	if i.StructureID != nil {
		return *i.StructureID
	}
	if i.SpecialFeeID != nil {
		return *i.SpecialFeeID
	}
	return ""
}

// BaseFeeItem projects a fee structure into an item.
func BaseFeeItem(fs FeeStructure, category FeeCategory) FeeItem {
	id := fs.ID
	policy := fs.LatePolicy()
	return FeeItem{
		Kind:         FeeItemBase,
		StructureID:  &id,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Description:  category.Name,
		Amount:       fs.Amount,
		DueDate:      fs.DueDate,
		LatePolicy:   &policy,
	}
}

// SpecialFeeItem projects a special fee into an item.
func SpecialFeeItem(sf SpecialFee, category FeeCategory) FeeItem {
	id := sf.ID
	desc := category.Name
	if sf.Reason != "" {
		desc = category.Name + " - " + sf.Reason
	}
	return FeeItem{
		Kind:         FeeItemSpecial,
		SpecialFeeID: &id,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Description:  desc,
		Amount:       sf.Amount,
		DueDate:      sf.DueDate,
	}
}

// AppliedScholarship records one scholarship's contribution to a breakdown.
type AppliedScholarship struct {
	ScholarshipID string          `json:"scholarshipID"`
	Name          string          `json:"name"`
	Criteria      string          `json:"criteria"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	EligibleBase  decimal.Decimal `json:"eligibleBase"`
	// Computed is the scholarship's discount before the total clamp.
	Computed decimal.Decimal `json:"computed"`
	// Applied is what survives the clamp; applied amounts sum to the breakdown discount.
	Applied decimal.Decimal `json:"applied"`
}

// FeeBreakdown is the itemized result of fee resolution.
type FeeBreakdown struct {
	StudentID           string               `json:"studentID"`
	AcademicYearID      string               `json:"academicYearID"`
	TermID              string               `json:"termID"`
	ClassID             string               `json:"classID"`
	GradeID             string               `json:"gradeID"`
	SectionID           string               `json:"sectionID"`
	BaseItems           []FeeItem            `json:"baseItems"`
	SpecialItems        []FeeItem            `json:"specialItems"`
	Total               decimal.Decimal      `json:"total"`
	Discount            decimal.Decimal      `json:"discount"`
	Net                 decimal.Decimal      `json:"net"`
	ScholarshipsApplied []AppliedScholarship `json:"scholarshipsApplied"`
	Warnings            []string             `json:"warnings,omitempty"`
}

// Items returns base items followed by special items.
func (b FeeBreakdown) Items() []FeeItem {
	items := make([]FeeItem, 0, len(b.BaseItems)+len(b.SpecialItems))
	items = append(items, b.BaseItems...)
	return append(items, b.SpecialItems...)
}

// EarliestDueDate returns the minimum item due date, or fallback when there are no items.
func (b FeeBreakdown) EarliestDueDate(fallback time.Time) time.Time {
	items := b.Items()
	if len(items) == 0 {
		return DateOf(fallback)
	}
	earliest := items[0].DueDate
	for _, it := range items[1:] {
		if it.DueDate.Before(earliest) {
			earliest = it.DueDate
		}
	}
	return DateOf(earliest)
}

// ScholarshipDiscount computes one scholarship's discount against the bill items,
// returning the eligible base and the unclamped discount.
func ScholarshipDiscount(s Scholarship, items []FeeItem, total decimal.Decimal) (eligibleBase, discount decimal.Decimal) {
	eligibleBase = total
	if !s.CoversAllCategories() {
		eligibleBase = decimal.Zero
		for _, it := range items {
			if s.CoversCategory(it.CategoryName) {
				eligibleBase = eligibleBase.Add(it.Amount)
			}
		}
	}
	switch s.DiscountType {
	case DiscountPercentage:
		discount = PercentOf(eligibleBase, s.DiscountValue)
	case DiscountFixed:
		discount = decimal.Min(s.DiscountValue, eligibleBase)
	default:
		discount = decimal.Zero
	}
	return eligibleBase, discount
}

// ApplyScholarships evaluates every scholarship independently against the original
// eligible base, then clamps the sum to total. Earlier scholarships (in the given order)
// keep their full discount when the clamp bites.
func ApplyScholarships(scholarships []Scholarship, items []FeeItem, total decimal.Decimal) ([]AppliedScholarship, decimal.Decimal) {
	applied := make([]AppliedScholarship, 0, len(scholarships))
	remaining := total
	discount := decimal.Zero
	for _, s := range scholarships {
		base, computed := ScholarshipDiscount(s, items, total)
		take := decimal.Min(computed, remaining)
		remaining = remaining.Sub(take)
		discount = discount.Add(take)
		applied = append(applied, AppliedScholarship{
			ScholarshipID: s.ID,
			Name:          s.Name,
			Criteria:      s.Criteria,
			DiscountType:  s.DiscountType,
			DiscountValue: s.DiscountValue,
			EligibleBase:  base,
			Computed:      computed,
			Applied:       take,
		})
	}
	return applied, discount
}

// DistributeDiscount spreads totalDiscount over amounts proportionally, truncating each share
// to cents, and hands the residual cents to the highest amount (first one on ties).
// The returned shares always sum to totalDiscount exactly.
func DistributeDiscount(amounts []decimal.Decimal, totalDiscount decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(amounts))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	if len(amounts) == 0 || !totalDiscount.IsPositive() {
		return shares
	}
	total := SumMoney(amounts...)
	if !total.IsPositive() {
		return shares
	}

	allocated := decimal.Zero
	for i, a := range amounts {
		share := totalDiscount.Mul(a).Div(total).Truncate(MoneyScale)
		shares[i] = share
		allocated = allocated.Add(share)
	}

	residual := totalDiscount.Sub(allocated)
	if !residual.IsZero() {
		order := make([]int, len(amounts))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(x, y int) bool {
			return amounts[order[x]].GreaterThan(amounts[order[y]])
		})
		top := order[0]
		shares[top] = shares[top].Add(residual)
	}
	return shares
}
