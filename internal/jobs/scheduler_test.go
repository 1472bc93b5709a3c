package jobs_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/core/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/jobs"
	"github.com/SscSPs/school_finance_core/internal/platform/config"
	"github.com/SscSPs/school_finance_core/internal/repositories/cache"
	"github.com/SscSPs/school_finance_core/internal/repositories/database/memory"
)

func newContainer(t *testing.T, now *time.Time) *portssvc.ServiceContainer {
	t.Helper()
	school := memory.NewSchool()
	school.SeedDemo()
	repos := memory.NewRepositoryProvider(memory.NewDB(), school, cache.NewTaggedLRU(16, time.Minute))
	return services.NewServiceContainer(&config.Config{InvoiceNumberWidth: 6}, repos,
		services.WithClock(func() time.Time { return *now }))
}

func TestRunOnce_RefreshThenAccrue(t *testing.T) {
	ctx := context.Background()
	now := domain.MustDate("2024-04-15")
	svc := newContainer(t, &now)

	cat, err := svc.Catalog.CreateCategory(ctx, dto.CreateFeeCategoryRequest{Name: "Tuition", IsMandatory: true}, "admin")
	require.NoError(t, err)
	_, err = svc.Catalog.CreateFeeStructure(ctx, dto.CreateFeeStructureRequest{
		AcademicYearID:    "ay-2024",
		TermID:            "term-1",
		LevelKind:         domain.LevelSection,
		LevelID:           "sec-primary",
		CategoryID:        cat.ID,
		Amount:            decimal.RequireFromString("1000.00"),
		DueDate:           "2024-05-01",
		LateFeePercentage: decimal.RequireFromString("10"),
	}, "admin")
	require.NoError(t, err)
	view, err := svc.Invoice.GenerateInvoice(ctx, dto.GenerateInvoiceRequest{StudentID: "stu-001", AcademicYearID: "ay-2024", TermID: "term-1"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceUnpaid, view.Invoice.Status)

	scheduler := jobs.NewScheduler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	today := domain.MustDate("2024-05-10")
	now = today
	require.NoError(t, scheduler.RunOnce(ctx, jobs.RefreshStatuses, today))
	require.NoError(t, scheduler.RunOnce(ctx, jobs.LateFees, today))

	got, err := svc.Invoice.GetInvoice(ctx, view.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceOverdue, got.Invoice.Status)

	run, err := svc.LateFee.AccrueLateFees(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, run.Created)
	assert.Equal(t, 1, run.AlreadyAccrued)
}

func TestRunOnce_UnknownJob(t *testing.T) {
	scheduler := jobs.NewScheduler(newContainer(t, new(time.Time)), slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := scheduler.RunOnce(context.Background(), "reindex", time.Now())
	assert.ErrorContains(t, err, "unknown job")
}

func TestRun_StopsOnCancel(t *testing.T) {
	scheduler := jobs.NewScheduler(newContainer(t, new(time.Time)), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx, time.Hour, 0)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
