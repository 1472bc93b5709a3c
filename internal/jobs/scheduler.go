// Package jobs runs the periodic finance jobs: late fee accrual and invoice status refresh.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
)

// Job names accepted by RunOnce.
const (
	LateFees        = "late-fees"
	RefreshStatuses = "refresh-statuses"
)

// Scheduler drives the periodic jobs against the service container.
type Scheduler struct {
	lateFees portssvc.LateFeeSvc
	invoices portssvc.InvoiceSvcFacade
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler creates a Scheduler.
func NewScheduler(services *portssvc.ServiceContainer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		lateFees: services.LateFee,
		invoices: services.Invoice,
		logger:   logger.With(slog.String("component", "scheduler")),
		now:      time.Now,
	}
}

// Run ticks each job at its interval until ctx is cancelled. A non-positive interval disables
// that job. Both jobs also run once at start.
func (s *Scheduler) Run(ctx context.Context, lateFeeInterval, refreshInterval time.Duration) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { s.loop(ctx, RefreshStatuses, refreshInterval); return nil })
	g.Go(func() error { s.loop(ctx, LateFees, lateFeeInterval); return nil })
	_ = g.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, job string, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("Job disabled", slog.String("job", job))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.RunOnce(ctx, job, domain.DateOf(s.now())); err != nil {
			s.logger.Error("Job failed", slog.String("job", job), slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce runs one job for the given day.
func (s *Scheduler) RunOnce(ctx context.Context, job string, today time.Time) error {
	start := time.Now()
	switch job {
	case LateFees:
		run, err := s.lateFees.AccrueLateFees(ctx, today)
		if err != nil {
			return err
		}
		s.logger.Info("Late fee accrual finished",
			slog.String("accrual_month", run.AccrualMonth),
			slog.Int("invoices_scanned", run.InvoicesScanned),
			slog.Int("created", len(run.Created)),
			slog.Int("already_accrued", run.AlreadyAccrued),
			slog.Int("unbilled", run.Unbilled),
			slog.Duration("took", time.Since(start)))
	case RefreshStatuses:
		changed, err := s.invoices.RefreshStatuses(ctx, today)
		if err != nil {
			return err
		}
		s.logger.Info("Invoice status refresh finished",
			slog.Int("changed", changed),
			slog.Duration("took", time.Since(start)))
	default:
		return fmt.Errorf("unknown job %q", job)
	}
	return nil
}
