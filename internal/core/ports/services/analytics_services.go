package services

import (
	"context"
	"time"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
)

// AnalyticsSvc derives read-only metrics. Results are cached per scope and never mutate state.
type AnalyticsSvc interface {
	CollectionMetrics(ctx context.Context, scope domain.AnalyticsScope) (*domain.CollectionMetrics, error)

	// PaymentTrends buckets collections per day over [from, to]. Under the soft timeout it returns
	// the days computed so far with Incomplete set.
	PaymentTrends(ctx context.Context, scope domain.AnalyticsScope, from, to time.Time) (*domain.PaymentTrends, error)

	// Defaulters lists open invoices whose due date is more than days before today.
	Defaulters(ctx context.Context, scope domain.AnalyticsScope, days int) (*domain.DefaulterReport, error)

	ScholarshipImpact(ctx context.Context, scope domain.AnalyticsScope) (*domain.ScholarshipImpact, error)

	// Dashboard computes collection, defaulters and impact concurrently.
	Dashboard(ctx context.Context, scope domain.AnalyticsScope) (*domain.Dashboard, error)
}
