package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsScope filters analytics to a year and optionally a term and a level.
type AnalyticsScope struct {
	AcademicYearID string  `json:"academicYearID"`
	TermID         *string `json:"termID,omitempty"`
	SectionID      *string `json:"sectionID,omitempty"`
	GradeID        *string `json:"gradeID,omitempty"`
}

// CacheKey renders the scope with a result kind prefix. Equal scopes give equal keys.
func (s AnalyticsScope) CacheKey(kind string, extra ...string) string {
	parts := []string{kind, "year=" + s.AcademicYearID}
	if s.TermID != nil {
		parts = append(parts, "term="+*s.TermID)
	}
	if s.SectionID != nil {
		parts = append(parts, "section="+*s.SectionID)
	}
	if s.GradeID != nil {
		parts = append(parts, "grade="+*s.GradeID)
	}
	parts = append(parts, extra...)
	return strings.Join(parts, "|")
}

// Tags returns the invalidation tag for the scope.
// A year-wide scope listens on the year tag; a term scope on the term tag.
func (s AnalyticsScope) Tags() []string {
	if s.TermID != nil {
		return []string{TermTag(s.AcademicYearID, *s.TermID)}
	}
	return []string{YearTag(s.AcademicYearID)}
}

// InvoiceFilter converts the scope into an invoice filter.
func (s AnalyticsScope) InvoiceFilter() InvoiceFilter {
	return InvoiceFilter{
		AcademicYearID: s.AcademicYearID,
		TermID:         s.TermID,
		SectionID:      s.SectionID,
		GradeID:        s.GradeID,
	}
}

// YearTag is the cache tag for everything in an academic year.
func YearTag(academicYearID string) string {
	return "year:" + academicYearID
}

// TermTag is the cache tag for one term of an academic year.
func TermTag(academicYearID, termID string) string {
	return "year:" + academicYearID + "|term:" + termID
}

// MutationTags are the tags a mutation of an invoice in (year, term) must invalidate.
func MutationTags(academicYearID, termID string) []string {
	return []string{YearTag(academicYearID), TermTag(academicYearID, termID)}
}

// CollectionMetrics aggregates billed versus collected amounts over a scope.
// Cancelled invoices appear in the histogram only.
type CollectionMetrics struct {
	Scope           AnalyticsScope        `json:"scope"`
	AsOf            time.Time             `json:"asOf"`
	TotalInvoices   int                   `json:"totalInvoices"`
	AmountDue       decimal.Decimal       `json:"amountDue"`
	AmountCollected decimal.Decimal       `json:"amountCollected"`
	Outstanding     decimal.Decimal       `json:"outstanding"`
	CollectionRate  decimal.Decimal       `json:"collectionRate"`
	OverdueCount    int                   `json:"overdueCount"`
	OverdueAmount   decimal.Decimal       `json:"overdueAmount"`
	StatusHistogram map[InvoiceStatus]int `json:"statusHistogram"`
}

// TrendBucket is one day of collections.
type TrendBucket struct {
	Date    time.Time       `json:"date"`
	Count   int             `json:"count"`
	Amount  decimal.Decimal `json:"amount"`
	Refunds decimal.Decimal `json:"refunds"`
}

// MethodStat counts payments per method.
type MethodStat struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentTrends describes collections over a window of days.
// When Incomplete is set, Daily is a prefix of the requested window and the
// histograms cover exactly that prefix.
type PaymentTrends struct {
	Scope           AnalyticsScope               `json:"scope"`
	From            time.Time                    `json:"from"`
	To              time.Time                    `json:"to"`
	Daily           []TrendBucket                `json:"daily"`
	MethodHistogram map[PaymentMethod]MethodStat `json:"methodHistogram"`
	HourOfDay       [24]int                      `json:"hourOfDay"`
	UntimedCount    int                          `json:"untimedCount"` // date-only payments, left out of HourOfDay
	DayOfWeek       [7]int                       `json:"dayOfWeek"`
	PeakHour        int                          `json:"peakHour"`
	PeakWeekday     time.Weekday                 `json:"peakWeekday"`
	TotalAmount     decimal.Decimal              `json:"totalAmount"`
	Incomplete      bool                         `json:"incomplete"`
	ComputedThrough *time.Time                   `json:"computedThrough,omitempty"`
}

// RiskLevel grades a defaulter by days overdue.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskFor classifies days overdue: under 30 low, 30 to 60 medium, over 60 high.
func RiskFor(daysOverdue int) RiskLevel {
	switch {
	case daysOverdue < 30:
		return RiskLow
	case daysOverdue <= 60:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// DefaulterEntry is one overdue invoice.
type DefaulterEntry struct {
	InvoiceID     string          `json:"invoiceID"`
	InvoiceNumber string          `json:"invoiceNumber"`
	StudentID     string          `json:"studentID"`
	ClassID       string          `json:"classID"`
	GradeID       string          `json:"gradeID"`
	SectionID     string          `json:"sectionID"`
	DueDate       time.Time       `json:"dueDate"`
	DaysOverdue   int             `json:"daysOverdue"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Status        InvoiceStatus   `json:"status"`
	Risk          RiskLevel       `json:"risk"`
}

// LevelDefaults groups defaulters by grade within a section.
type LevelDefaults struct {
	SectionID   string          `json:"sectionID"`
	GradeID     string          `json:"gradeID"`
	Invoices    int             `json:"invoices"`
	Students    int             `json:"students"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// ChronicDefaulter is a student with more than one overdue invoice.
type ChronicDefaulter struct {
	StudentID   string          `json:"studentID"`
	Invoices    int             `json:"invoices"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// DefaulterReport lists invoices overdue beyond a threshold.
type DefaulterReport struct {
	Scope             AnalyticsScope     `json:"scope"`
	AsOf              time.Time          `json:"asOf"`
	ThresholdDays     int                `json:"thresholdDays"`
	Defaulters        []DefaulterEntry   `json:"defaulters"`
	ByLevel           []LevelDefaults    `json:"byLevel"`
	RiskCounts        map[RiskLevel]int  `json:"riskCounts"`
	ChronicDefaulters []ChronicDefaulter `json:"chronicDefaulters"`
	TotalOutstanding  decimal.Decimal    `json:"totalOutstanding"`
}

// ScholarshipImpactEntry totals one scholarship's discounts.
type ScholarshipImpactEntry struct {
	ScholarshipID string          `json:"scholarshipID"`
	Name          string          `json:"name"`
	Criteria      string          `json:"criteria"`
	DiscountType  DiscountType    `json:"discountType"`
	Invoices      int             `json:"invoices"`
	Beneficiaries int             `json:"beneficiaries"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
}

// ImpactGroup totals discounts under a grouping key.
type ImpactGroup struct {
	Key           string          `json:"key"`
	Beneficiaries int             `json:"beneficiaries"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
}

// ScholarshipImpact aggregates scholarship discounts over a scope.
type ScholarshipImpact struct {
	Scope               AnalyticsScope           `json:"scope"`
	Scholarships        []ScholarshipImpactEntry `json:"scholarships"`
	ByCriteria          []ImpactGroup            `json:"byCriteria"`
	ByDiscountType      []ImpactGroup            `json:"byDiscountType"`
	TotalDiscount       decimal.Decimal          `json:"totalDiscount"`
	UniqueBeneficiaries int                      `json:"uniqueBeneficiaries"`
}

// Dashboard bundles the main analytics for a scope.
type Dashboard struct {
	Scope      AnalyticsScope    `json:"scope"`
	Collection CollectionMetrics `json:"collection"`
	Defaulters DefaulterReport   `json:"defaulters"`
	Impact     ScholarshipImpact `json:"impact"`
}
