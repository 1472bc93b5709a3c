package services

import (
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/platform/config"
)

// ContainerOption adjusts how the service container is built.
type ContainerOption func(*BaseService)

// WithClock makes every service read the current time from clock.
func WithClock(clock Clock) ContainerOption {
	return func(b *BaseService) {
		b.Clock = clock
	}
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ContainerOption) *portssvc.ServiceContainer {
	base := BaseService{Cache: repos.Cache}
	for _, opt := range opts {
		opt(&base)
	}

	container := &portssvc.ServiceContainer{}
	container.Catalog = NewCatalogService(repos.Tx, repos.School, base)
	container.Scholarship = NewScholarshipService(repos.Tx, repos.School, base)
	container.Invoice = NewInvoiceService(repos.Tx, repos.School, cfg.InvoiceNumberWidth, base)
	container.Ledger = NewLedgerService(repos.Tx, base)
	container.Waiver = NewWaiverService(repos.Tx, base)
	container.LateFee = NewLateFeeService(repos.Tx, repos.School, base)
	container.Analytics = NewAnalyticsService(repos.Tx, cfg.AnalyticsSoftTimeout, cfg.DefaulterThresholdDays, base)
	container.Audit = NewAuditService(repos.Tx, base)
	return container
}
