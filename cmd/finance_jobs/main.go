package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/core/services"
	"github.com/SscSPs/school_finance_core/internal/jobs"
	"github.com/SscSPs/school_finance_core/internal/platform/config"
	"github.com/SscSPs/school_finance_core/internal/platform/storage"
)

// finance_jobs runs the periodic jobs once, for cron or manual catch-up.
func main() {
	job := flag.String("job", "all", "job to run: late-fees, refresh-statuses or all")
	date := flag.String("date", "", "day to run for (YYYY-MM-DD), defaults to today")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	today := domain.DateOf(time.Now())
	if *date != "" {
		if today, err = domain.ParseDate(*date); err != nil {
			logger.Error("Invalid -date", slog.String("date", *date), slog.String("error", err.Error()))
			os.Exit(2)
		}
	}

	ctx := context.Background()
	repos, closeRepos, err := storage.Open(ctx, cfg, false)
	if err != nil {
		logger.Error("Failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepos()

	scheduler := jobs.NewScheduler(services.NewServiceContainer(cfg, repos), logger)

	names := []string{*job}
	if *job == "all" {
		// Statuses first so accrual sees today's overdue set.
		names = []string{jobs.RefreshStatuses, jobs.LateFees}
	}
	failed := false
	for _, name := range names {
		if err := scheduler.RunOnce(ctx, name, today); err != nil {
			logger.Error("Job failed", slog.String("job", name), slog.String("error", err.Error()))
			failed = true
		}
	}
	if failed {
		closeRepos()
		os.Exit(1)
	}
}
