package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
)

// trendChunkDays is how many days of payments are read per query when building trends.
const trendChunkDays = 7

// analyticsService derives read-only reports from snapshot reads.
type analyticsService struct {
	BaseService
	tx            portsrepo.TransactionManager
	softTimeout   time.Duration
	defaulterDays int
	flight        singleflight.Group
}

// NewAnalyticsService creates a new AnalyticsService. A softTimeout of zero or less disables
// the partial-result cutoff for payment trends.
func NewAnalyticsService(tx portsrepo.TransactionManager, softTimeout time.Duration, defaulterDays int, base BaseService) portssvc.AnalyticsSvc {
	return &analyticsService{BaseService: base, tx: tx, softTimeout: softTimeout, defaulterDays: defaulterDays}
}

var _ portssvc.AnalyticsSvc = (*analyticsService)(nil)

// cached serves key from the cache or computes it once for all concurrent callers.
// compute reports whether its result may be cached. The shared computation outlives any
// single caller's cancellation and is bounded by the soft timeout instead; a caller whose
// context ends stops waiting for it. Tag generations are read before computing, so a result
// overtaken by a mutation of its scope is never stored.
func (s *analyticsService) cached(ctx context.Context, key string, tags []string, compute func(ctx context.Context) (any, bool, error)) (any, error) {
	if s.Cache != nil {
		if v, ok := s.Cache.Get(key); ok {
			s.LogDebug(ctx, "Analytics cache hit", slog.String("key", key))
			return v, nil
		}
	}
	ch := s.flight.DoChan(key, func() (any, error) {
		var gens []uint64
		if s.Cache != nil {
			gens = s.Cache.Generations(tags)
		}
		flightCtx := context.WithoutCancel(ctx)
		if s.softTimeout > 0 {
			var cancel context.CancelFunc
			flightCtx, cancel = context.WithTimeout(flightCtx, s.softTimeout)
			defer cancel()
		}
		val, cacheable, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		if cacheable && s.Cache != nil {
			s.Cache.Set(key, val, tags, gens)
		}
		return val, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *analyticsService) CollectionMetrics(ctx context.Context, scope domain.AnalyticsScope) (*domain.CollectionMetrics, error) {
	today := s.Today()
	v, err := s.cached(ctx, scope.CacheKey("collection", asOf(today)), scope.Tags(), func(ctx context.Context) (any, bool, error) {
		m, err := s.collectionMetrics(ctx, scope, today)
		return m, err == nil, err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to compute collection metrics", slog.String("academic_year_id", scope.AcademicYearID))
		return nil, err
	}
	return v.(*domain.CollectionMetrics), nil
}

func (s *analyticsService) collectionMetrics(ctx context.Context, scope domain.AnalyticsScope, today time.Time) (*domain.CollectionMetrics, error) {
	invoices, err := s.tx.Reader().Invoices().ListInvoices(ctx, scope.InvoiceFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	m := &domain.CollectionMetrics{
		Scope:           scope,
		AsOf:            today,
		AmountDue:       decimal.Zero,
		AmountCollected: decimal.Zero,
		Outstanding:     decimal.Zero,
		OverdueAmount:   decimal.Zero,
		StatusHistogram: map[domain.InvoiceStatus]int{},
	}
	for _, inv := range invoices {
		inv.RecomputeStatus(today)
		m.StatusHistogram[inv.Status]++
		if inv.IsCancelled() {
			continue
		}
		m.TotalInvoices++
		m.AmountDue = m.AmountDue.Add(inv.NetAmount)
		m.AmountCollected = m.AmountCollected.Add(inv.PaidAmount)
		m.Outstanding = m.Outstanding.Add(inv.Outstanding())
		if inv.IsOpen() && inv.DueDate.Before(today) {
			m.OverdueCount++
			m.OverdueAmount = m.OverdueAmount.Add(inv.Outstanding())
		}
	}
	m.CollectionRate = domain.Ratio(m.AmountCollected, m.AmountDue)
	return m, nil
}

func (s *analyticsService) PaymentTrends(ctx context.Context, scope domain.AnalyticsScope, from, to time.Time) (*domain.PaymentTrends, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	if to.Before(from) {
		return nil, validationErr("trend window ends %s before it starts %s", to.Format(domain.DateLayout), from.Format(domain.DateLayout))
	}
	key := scope.CacheKey("trends", "from="+from.Format(domain.DateLayout), "to="+to.Format(domain.DateLayout))
	v, err := s.cached(ctx, key, scope.Tags(), func(ctx context.Context) (any, bool, error) {
		t, err := s.paymentTrends(ctx, scope, from, to)
		if err != nil {
			return nil, false, err
		}
		return t, !t.Incomplete, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to compute payment trends", slog.String("academic_year_id", scope.AcademicYearID))
		return nil, err
	}
	return v.(*domain.PaymentTrends), nil
}

// paymentTrends reads the window in day chunks. When the soft timeout or the caller's context
// ends, it returns the days already bucketed as a prefix marked Incomplete.
func (s *analyticsService) paymentTrends(ctx context.Context, scope domain.AnalyticsScope, from, to time.Time) (*domain.PaymentTrends, error) {
	budgetCtx := ctx
	if s.softTimeout > 0 {
		var cancel context.CancelFunc
		budgetCtx, cancel = context.WithTimeout(ctx, s.softTimeout)
		defer cancel()
	}

	t := &domain.PaymentTrends{
		Scope:           scope,
		From:            from,
		To:              to,
		Daily:           []domain.TrendBucket{},
		MethodHistogram: map[domain.PaymentMethod]domain.MethodStat{},
		TotalAmount:     decimal.Zero,
	}
	reader := s.tx.Reader().Payments()
	end := to.AddDate(0, 0, 1)
	for chunkStart := from; chunkStart.Before(end); chunkStart = chunkStart.AddDate(0, 0, trendChunkDays) {
		if budgetCtx.Err() != nil {
			s.markIncomplete(ctx, t, chunkStart)
			break
		}
		chunkEnd := chunkStart.AddDate(0, 0, trendChunkDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		filter := domain.PaymentFilter{
			AcademicYearID: scope.AcademicYearID,
			TermID:         scope.TermID,
			SectionID:      scope.SectionID,
			GradeID:        scope.GradeID,
			From:           chunkStart,
			To:             chunkEnd,
		}
		entries, err := reader.ListPayments(budgetCtx, filter)
		if err != nil {
			if budgetCtx.Err() != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
				s.markIncomplete(ctx, t, chunkStart)
				break
			}
			return nil, fmt.Errorf("failed to list payments: %w", err)
		}
		addTrendChunk(t, entries, chunkStart, chunkEnd)
	}

	t.PeakHour = argMax(t.HourOfDay[:])
	t.PeakWeekday = time.Weekday(argMax(t.DayOfWeek[:]))
	return t, nil
}

func (s *analyticsService) markIncomplete(ctx context.Context, t *domain.PaymentTrends, stoppedAt time.Time) {
	t.Incomplete = true
	if len(t.Daily) > 0 {
		through := t.Daily[len(t.Daily)-1].Date
		t.ComputedThrough = &through
	}
	s.LogWarn(ctx, context.DeadlineExceeded, "Payment trends cut short",
		slog.String("stopped_at", stoppedAt.Format(domain.DateLayout)),
		slog.Int("days_computed", len(t.Daily)))
}

// addTrendChunk buckets entries of [start, end) into one bucket per day.
func addTrendChunk(t *domain.PaymentTrends, entries []domain.Payment, start, end time.Time) {
	byDay := lo.GroupBy(entries, func(p domain.Payment) time.Time { return domain.DateOf(p.PaymentDate) })
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		bucket := domain.TrendBucket{Date: day, Amount: decimal.Zero, Refunds: decimal.Zero}
		for _, p := range byDay[day] {
			if !p.CountsTowardsPaid() {
				continue
			}
			switch p.Kind {
			case domain.EntryPayment:
				bucket.Count++
				bucket.Amount = bucket.Amount.Add(p.Amount)
				stat := t.MethodHistogram[p.Method]
				stat.Count++
				stat.Amount = stat.Amount.Add(p.Amount)
				t.MethodHistogram[p.Method] = stat
				if p.DateOnly {
					t.UntimedCount++
				} else {
					t.HourOfDay[p.PaymentDate.UTC().Hour()]++
				}
				t.DayOfWeek[p.PaymentDate.UTC().Weekday()]++
			case domain.EntryRefund:
				bucket.Refunds = bucket.Refunds.Add(p.Amount.Abs())
			}
		}
		t.TotalAmount = t.TotalAmount.Add(bucket.Amount)
		t.Daily = append(t.Daily, bucket)
	}
	if len(t.Daily) > 0 {
		through := t.Daily[len(t.Daily)-1].Date
		t.ComputedThrough = &through
	}
}

// argMax returns the index of the largest count, the first one on ties.
func argMax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

func (s *analyticsService) Defaulters(ctx context.Context, scope domain.AnalyticsScope, days int) (*domain.DefaulterReport, error) {
	if days < 0 {
		return nil, validationErr("defaulter threshold must not be negative, got %d", days)
	}
	today := s.Today()
	key := scope.CacheKey("defaulters", asOf(today), fmt.Sprintf("days=%d", days))
	v, err := s.cached(ctx, key, scope.Tags(), func(ctx context.Context) (any, bool, error) {
		r, err := s.defaulters(ctx, scope, days, today)
		return r, err == nil, err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to compute defaulters", slog.String("academic_year_id", scope.AcademicYearID))
		return nil, err
	}
	return v.(*domain.DefaulterReport), nil
}

func (s *analyticsService) defaulters(ctx context.Context, scope domain.AnalyticsScope, days int, today time.Time) (*domain.DefaulterReport, error) {
	filter := scope.InvoiceFilter()
	filter.Statuses = domain.OpenInvoiceStatuses
	invoices, err := s.tx.Reader().Invoices().ListInvoices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	cutoff := today.AddDate(0, 0, -days)
	report := &domain.DefaulterReport{
		Scope:             scope,
		AsOf:              today,
		ThresholdDays:     days,
		Defaulters:        []domain.DefaulterEntry{},
		ByLevel:           []domain.LevelDefaults{},
		RiskCounts:        map[domain.RiskLevel]int{},
		ChronicDefaulters: []domain.ChronicDefaulter{},
		TotalOutstanding:  decimal.Zero,
	}
	for _, inv := range invoices {
		inv.RecomputeStatus(today)
		if !inv.IsOpen() || !inv.DueDate.Before(cutoff) || !inv.Outstanding().IsPositive() {
			continue
		}
		overdue := domain.DaysBetween(inv.DueDate, today)
		entry := domain.DefaulterEntry{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			StudentID:     inv.StudentID,
			ClassID:       inv.ClassID,
			GradeID:       inv.GradeID,
			SectionID:     inv.SectionID,
			DueDate:       inv.DueDate,
			DaysOverdue:   overdue,
			Outstanding:   inv.Outstanding(),
			Status:        inv.Status,
			Risk:          domain.RiskFor(overdue),
		}
		report.Defaulters = append(report.Defaulters, entry)
		report.RiskCounts[entry.Risk]++
		report.TotalOutstanding = report.TotalOutstanding.Add(entry.Outstanding)
	}
	sort.SliceStable(report.Defaulters, func(i, j int) bool {
		a, b := report.Defaulters[i], report.Defaulters[j]
		if a.DaysOverdue != b.DaysOverdue {
			return a.DaysOverdue > b.DaysOverdue
		}
		return a.InvoiceNumber < b.InvoiceNumber
	})

	byLevel := lo.GroupBy(report.Defaulters, func(d domain.DefaulterEntry) [2]string { return [2]string{d.SectionID, d.GradeID} })
	for level, entries := range byLevel {
		report.ByLevel = append(report.ByLevel, domain.LevelDefaults{
			SectionID:   level[0],
			GradeID:     level[1],
			Invoices:    len(entries),
			Students:    len(lo.UniqBy(entries, func(d domain.DefaulterEntry) string { return d.StudentID })),
			Outstanding: sumOutstanding(entries),
		})
	}
	sort.Slice(report.ByLevel, func(i, j int) bool {
		if report.ByLevel[i].SectionID != report.ByLevel[j].SectionID {
			return report.ByLevel[i].SectionID < report.ByLevel[j].SectionID
		}
		return report.ByLevel[i].GradeID < report.ByLevel[j].GradeID
	})

	byStudent := lo.GroupBy(report.Defaulters, func(d domain.DefaulterEntry) string { return d.StudentID })
	for studentID, entries := range byStudent {
		if len(entries) < 2 {
			continue
		}
		report.ChronicDefaulters = append(report.ChronicDefaulters, domain.ChronicDefaulter{
			StudentID:   studentID,
			Invoices:    len(entries),
			Outstanding: sumOutstanding(entries),
		})
	}
	sort.Slice(report.ChronicDefaulters, func(i, j int) bool {
		a, b := report.ChronicDefaulters[i], report.ChronicDefaulters[j]
		if !a.Outstanding.Equal(b.Outstanding) {
			return a.Outstanding.GreaterThan(b.Outstanding)
		}
		return a.StudentID < b.StudentID
	})
	return report, nil
}

func sumOutstanding(entries []domain.DefaulterEntry) decimal.Decimal {
	return domain.SumMoney(lo.Map(entries, func(d domain.DefaulterEntry, _ int) decimal.Decimal { return d.Outstanding })...)
}

func (s *analyticsService) ScholarshipImpact(ctx context.Context, scope domain.AnalyticsScope) (*domain.ScholarshipImpact, error) {
	v, err := s.cached(ctx, scope.CacheKey("impact"), scope.Tags(), func(ctx context.Context) (any, bool, error) {
		r, err := s.scholarshipImpact(ctx, scope)
		return r, err == nil, err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to compute scholarship impact", slog.String("academic_year_id", scope.AcademicYearID))
		return nil, err
	}
	return v.(*domain.ScholarshipImpact), nil
}

func (s *analyticsService) scholarshipImpact(ctx context.Context, scope domain.AnalyticsScope) (*domain.ScholarshipImpact, error) {
	store := s.tx.Reader()
	attributions, err := store.Invoices().ListInvoiceScholarships(ctx, scope.InvoiceFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to list scholarship attributions: %w", err)
	}
	ids := lo.Uniq(lo.Map(attributions, func(a domain.InvoiceScholarship, _ int) string { return a.ScholarshipID }))
	rules, err := store.Scholarships().ListScholarshipsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load scholarships: %w", err)
	}

	impact := &domain.ScholarshipImpact{
		Scope:          scope,
		Scholarships:   []domain.ScholarshipImpactEntry{},
		ByCriteria:     []domain.ImpactGroup{},
		ByDiscountType: []domain.ImpactGroup{},
		TotalDiscount:  sumAttributed(attributions),
	}
	impact.UniqueBeneficiaries = countStudents(attributions)

	for id, group := range lo.GroupBy(attributions, func(a domain.InvoiceScholarship) string { return a.ScholarshipID }) {
		entry := domain.ScholarshipImpactEntry{
			ScholarshipID: id,
			Criteria:      group[0].Criteria,
			DiscountType:  group[0].DiscountType,
			Invoices:      len(lo.UniqBy(group, func(a domain.InvoiceScholarship) string { return a.InvoiceID })),
			Beneficiaries: countStudents(group),
			TotalDiscount: sumAttributed(group),
		}
		if rule, ok := rules[id]; ok {
			entry.Name = rule.Name
		}
		impact.Scholarships = append(impact.Scholarships, entry)
	}
	sort.Slice(impact.Scholarships, func(i, j int) bool {
		return impact.Scholarships[i].ScholarshipID < impact.Scholarships[j].ScholarshipID
	})

	impact.ByCriteria = impactGroups(attributions, func(a domain.InvoiceScholarship) string { return a.Criteria })
	impact.ByDiscountType = impactGroups(attributions, func(a domain.InvoiceScholarship) string { return string(a.DiscountType) })
	return impact, nil
}

func impactGroups(attributions []domain.InvoiceScholarship, key func(domain.InvoiceScholarship) string) []domain.ImpactGroup {
	groups := []domain.ImpactGroup{}
	for k, group := range lo.GroupBy(attributions, key) {
		groups = append(groups, domain.ImpactGroup{Key: k, Beneficiaries: countStudents(group), TotalDiscount: sumAttributed(group)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

func sumAttributed(attributions []domain.InvoiceScholarship) decimal.Decimal {
	return domain.SumMoney(lo.Map(attributions, func(a domain.InvoiceScholarship, _ int) decimal.Decimal { return a.Amount })...)
}

func countStudents(attributions []domain.InvoiceScholarship) int {
	return len(lo.UniqBy(attributions, func(a domain.InvoiceScholarship) string { return a.StudentID }))
}

func (s *analyticsService) Dashboard(ctx context.Context, scope domain.AnalyticsScope) (*domain.Dashboard, error) {
	var (
		collection *domain.CollectionMetrics
		defaulters *domain.DefaulterReport
		impact     *domain.ScholarshipImpact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		collection, err = s.CollectionMetrics(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		defaulters, err = s.Defaulters(gctx, scope, s.defaulterDays)
		return err
	})
	g.Go(func() error {
		var err error
		impact, err = s.ScholarshipImpact(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return &domain.Dashboard{Scope: scope, Collection: *collection, Defaulters: *defaulters, Impact: *impact}, nil
}

func asOf(today time.Time) string {
	return "asof=" + today.Format(domain.DateLayout)
}
